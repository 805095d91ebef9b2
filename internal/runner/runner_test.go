package runner

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/mdxopt/internal/config"
	"github.com/Faultbox/mdxopt/pkg/mdx"
)

// testModel returns a model with one bone whose translation has redundant
// keyframes.
func testModel() *mdx.Model {
	c := &mdx.Channel{Interpolation: mdx.InterpolationHermite, GlobalSequenceID: mdx.NoGlobalSequence}
	for _, tm := range []uint32{0, 10, 20, 30, 40, 90} {
		c.Tracks = append(c.Tracks, mdx.Track{
			Time:   tm,
			Value:  []float32{0, 0, 0},
			InTan:  []float32{0, 0, 0},
			OutTan: []float32{0, 0, 0},
		})
	}
	return &mdx.Model{
		Version: &mdx.VersionChunk{Version: 800},
		Info:    &mdx.InfoChunk{Name: "Unit"},
		Sequences: &mdx.SequenceChunk{Items: []mdx.Sequence{
			{Name: "Stand", IntervalStart: 0, IntervalEnd: 40},
		}},
		Bones: &mdx.BoneChunk{Items: []mdx.Bone{{
			Node:              mdx.Node{Name: "Root", ParentID: 0xFFFFFFFF, Translation: c},
			GeosetID:          0,
			GeosetAnimationID: 0xFFFFFFFF,
		}}},
		PivotPoints: &mdx.PivotPointChunk{Items: []mdx.PivotPoint{{}}},
	}
}

func writeModel(t *testing.T, dir, name string, m *mdx.Model) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := mdx.WriteFile(path, m); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name   string
		dir    string
		suffix string
		input  string
		want   string
	}{
		{"next to input", "", "_optimized.mdx", filepath.Join("models", "Footman.mdx"), filepath.Join("models", "Footman_optimized.mdx")},
		{"output dir", "out", "_optimized.mdx", filepath.Join("models", "Footman.mdx"), filepath.Join("out", "Footman_optimized.mdx")},
		{"custom suffix", "", ".opt.mdx", "Footman.MDX", "Footman.opt.mdx"},
		{"no extension", "", "_optimized.mdx", "Footman", "Footman_optimized.mdx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Output.Dir = tt.dir
			cfg.Output.Suffix = tt.suffix
			if got := New(cfg, nil).OutputPath(tt.input); got != tt.want {
				t.Errorf("OutputPath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestOptimize(t *testing.T) {
	dir := t.TempDir()
	input := writeModel(t, dir, "unit.mdx", testModel())

	cfg := config.Default()
	cfg.Optimizer.Threshold = 0.01
	cfg.Optimizer.Linearize = true
	res, err := New(cfg, nil).Optimize(input, "")
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	want := filepath.Join(dir, "unit_optimized.mdx")
	if res.Output != want {
		t.Errorf("output = %s, want %s", res.Output, want)
	}
	if res.SizeAfter >= res.SizeBefore {
		t.Errorf("size %d -> %d, want smaller", res.SizeBefore, res.SizeAfter)
	}
	// 90 is outside the sequence; 10..30 are redundant.
	if res.Stats.Removed() != 4 || res.Stats.Linearized != 1 {
		t.Errorf("stats = %+v", res.Stats)
	}

	m, err := mdx.ParseFile(want)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	c := m.Bones.Items[0].Translation
	if c.Interpolation != mdx.InterpolationLinear || c.Len() != 2 {
		t.Errorf("translation = %v with %d tracks", c.Interpolation, c.Len())
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".mdxopt-") {
			t.Errorf("temporary file %s left behind", e.Name())
		}
	}
}

func TestOptimize_DryRun(t *testing.T) {
	dir := t.TempDir()
	input := writeModel(t, dir, "unit.mdx", testModel())
	original, _ := os.ReadFile(input)

	cfg := config.Default()
	cfg.Optimizer.Threshold = 0.01
	cfg.Output.DryRun = true
	res, err := New(cfg, nil).Optimize(input, "")
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if res.Output != "" {
		t.Errorf("dry run reported output %s", res.Output)
	}
	if res.Stats.Removed() == 0 || res.SizeAfter >= res.SizeBefore {
		t.Errorf("dry run result = %+v", res)
	}
	if _, err := os.Stat(filepath.Join(dir, "unit_optimized.mdx")); !os.IsNotExist(err) {
		t.Error("dry run wrote an output file")
	}
	after, _ := os.ReadFile(input)
	if !bytes.Equal(original, after) {
		t.Error("dry run modified the input")
	}
}

func TestOptimize_NoPartialOutput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "broken.mdx")
	if err := os.WriteFile(input, []byte("MDLXVERS"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := New(config.Default(), nil).Optimize(input, "")
	if !errors.Is(err, mdx.ErrTruncated) {
		t.Fatalf("got %v, want ErrTruncated", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want only the input", len(entries))
	}
}

func TestOptimize_Lenient(t *testing.T) {
	dir := t.TempDir()
	data, err := mdx.Encode(testModel())
	if err != nil {
		t.Fatal(err)
	}
	// Append a global sequence chunk of a size that is not a multiple of 4.
	data = append(data, 'G', 'L', 'B', 'S', 3, 0, 0, 0, 1, 2, 3)
	input := filepath.Join(dir, "odd.mdx")
	if err := os.WriteFile(input, data, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := New(config.Default(), nil).Optimize(input, ""); !errors.Is(err, mdx.ErrMalformedChunkSize) {
		t.Fatalf("strict run: got %v, want ErrMalformedChunkSize", err)
	}

	cfg := config.Default()
	cfg.Codec.Strict = false
	res, err := New(cfg, nil).Optimize(input, "")
	if err != nil {
		t.Fatalf("lenient run: %v", err)
	}
	if len(res.Warnings) != 1 {
		t.Errorf("got %d warnings, want 1", len(res.Warnings))
	}
}

func TestOptimizeAll(t *testing.T) {
	dir := t.TempDir()
	good := writeModel(t, dir, "good.mdx", testModel())
	missing := filepath.Join(dir, "missing.mdx")
	other := writeModel(t, dir, "other.mdx", testModel())

	results, err := New(config.Default(), nil).OptimizeAll([]string{good, missing, other}, "")
	if err == nil {
		t.Fatal("expected an error for the missing input")
	}
	if n := len(multierr.Errors(err)); n != 1 {
		t.Errorf("got %d errors, want 1", n)
	}
	if !strings.Contains(err.Error(), "missing.mdx") {
		t.Errorf("error %q does not name the failed input", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for _, res := range results {
		if _, err := os.Stat(res.Output); err != nil {
			t.Errorf("output %s: %v", res.Output, err)
		}
	}
}

func TestOptimizeAll_ExplicitOutput(t *testing.T) {
	dir := t.TempDir()
	a := writeModel(t, dir, "a.mdx", testModel())
	b := writeModel(t, dir, "b.mdx", testModel())
	r := New(config.Default(), nil)

	if _, err := r.OptimizeAll([]string{a, b}, filepath.Join(dir, "out.mdx")); !errors.Is(err, ErrOutputWithBatch) {
		t.Errorf("got %v, want ErrOutputWithBatch", err)
	}

	out := filepath.Join(dir, "sub", "out.mdx")
	results, err := r.OptimizeAll([]string{a}, out)
	if err != nil {
		t.Fatalf("OptimizeAll: %v", err)
	}
	if results[0].Output != out {
		t.Errorf("output = %s, want %s", results[0].Output, out)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("explicit output missing: %v", err)
	}
}

func TestOptimize_PreserveOrder(t *testing.T) {
	dir := t.TempDir()
	m := testModel()
	data, err := mdx.Encode(m)
	if err != nil {
		t.Fatal(err)
	}
	// Move the leading VERS chunk (tag, size, 4-byte payload) to the end.
	vers := append([]byte(nil), data[4:16]...)
	reordered := append(append(append([]byte(nil), data[:4]...), data[16:]...), vers...)
	input := filepath.Join(dir, "reordered.mdx")
	if err := os.WriteFile(input, reordered, 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Codec.PreserveChunkOrder = true
	cfg.Optimizer.Outside = true
	cfg.Optimizer.Threshold = 0
	res, err := New(cfg, nil).Optimize(input, "")
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	out, _ := os.ReadFile(res.Output)
	if !bytes.Equal(out[len(out)-12:], vers) {
		t.Error("VERS chunk did not stay last")
	}
}

func TestSummarize(t *testing.T) {
	m := testModel()
	m.GlobalSequences = &mdx.GlobalSequenceChunk{Items: []mdx.GlobalSequence{{Duration: 1200}}}
	data, err := mdx.Encode(m)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := mdx.Parse(data)
	if err != nil {
		t.Fatal(err)
	}

	s := Summarize("unit.mdx", len(data), decoded)
	if s.Version != 800 || s.Name != "Unit" {
		t.Errorf("header = %d %q", s.Version, s.Name)
	}
	var tags []string
	for _, c := range s.Chunks {
		tags = append(tags, c.Tag)
	}
	if got := strings.Join(tags, " "); got != "VERS MODL SEQS GLBS BONE PIVT" {
		t.Errorf("chunks = %s", got)
	}
	if len(s.Nodes) != 1 || s.Nodes[0].ParentID != -1 || len(s.Nodes[0].Channels) != 1 {
		t.Fatalf("nodes = %+v", s.Nodes)
	}
	ch := s.Nodes[0].Channels[0]
	if ch.Kind != "translation" || ch.Interpolation != "Hermite" || ch.GlobalSequence != -1 || ch.Keyframes != 6 {
		t.Errorf("channel = %+v", ch)
	}
	if s.Totals.Keyframes != 6 || s.Totals.Tangents != 1 {
		t.Errorf("totals = %+v", s.Totals)
	}

	out, err := yaml.Marshal(s)
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	for _, want := range []string{"file: unit.mdx", "tag: BONE", "interpolation: Hermite", "global_sequences:"} {
		if !strings.Contains(string(out), want) {
			t.Errorf("dump lacks %q:\n%s", want, out)
		}
	}
}
