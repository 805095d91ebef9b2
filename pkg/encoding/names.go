// Package encoding provides text helpers for MDX name fields and CLI reports.
package encoding

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/transform"
)

// Legacy code pages seen in model names, tried in order when a name is not
// valid UTF-8.
var legacy = []encoding.Encoding{
	korean.EUCKR,
	simplifiedchinese.GBK,
	japanese.ShiftJIS,
}

// DisplayName converts a name read from a fixed-size field into printable
// UTF-8. Valid UTF-8 is returned unchanged. Otherwise the first legacy code
// page that decodes without replacement characters wins; if none does,
// invalid bytes are replaced with '?'.
func DisplayName(name string) string {
	if utf8.ValidString(name) {
		return name
	}
	for _, enc := range legacy {
		if s, ok := decode(enc, name); ok {
			return s
		}
	}
	return strings.ToValidUTF8(name, "?")
}

func decode(enc encoding.Encoding, s string) (string, bool) {
	out, _, err := transform.String(enc.NewDecoder(), s)
	if err != nil || strings.ContainsRune(out, utf8.RuneError) {
		return "", false
	}
	return out, true
}

// printer formats numbers with thousands separators.
var printer = message.NewPrinter(language.English)

// Bytes formats a byte count, e.g. "1,234,567 bytes".
func Bytes(n int) string {
	return printer.Sprintf("%d bytes", n)
}

// Count formats an integer with thousands separators.
func Count(n int) string {
	return printer.Sprintf("%d", n)
}

// Percent formats the change from before to after as a signed percentage,
// e.g. "-12.5%".
func Percent(before, after int) string {
	if before == 0 {
		return "0.0%"
	}
	return printer.Sprintf("%+.1f%%", 100*float64(after-before)/float64(before))
}
