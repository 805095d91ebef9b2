package encoding

import (
	"testing"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

func TestDisplayName(t *testing.T) {
	euckr, _, err := transform.String(korean.EUCKR.NewEncoder(), "검사")
	if err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"ascii", "Bone_Root", "Bone_Root"},
		{"utf8", "Héros", "Héros"},
		{"empty", "", ""},
		{"euc-kr", euckr, "검사"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayName(tt.in); got != tt.want {
				t.Errorf("DisplayName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNumbers(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{Bytes(0), "0 bytes"},
		{Bytes(1234567), "1,234,567 bytes"},
		{Count(48213), "48,213"},
		{Percent(200, 150), "-25.0%"},
		{Percent(100, 110), "+10.0%"},
		{Percent(0, 10), "0.0%"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
