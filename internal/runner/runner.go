// Package runner applies the keyframe optimizer to MDX files on disk.
package runner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/mdxopt/internal/config"
	"github.com/Faultbox/mdxopt/pkg/encoding"
	"github.com/Faultbox/mdxopt/pkg/mdx"
	"github.com/Faultbox/mdxopt/pkg/optimizer"
)

// ErrOutputWithBatch is returned when an explicit output path is given for
// more than one input.
var ErrOutputWithBatch = errors.New("an explicit output path needs exactly one input")

// Runner reads, optimizes and writes MDX files according to a Config.
type Runner struct {
	cfg *config.Config
	log *zap.Logger
}

// New creates a Runner. A nil logger discards all output.
func New(cfg *config.Config, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{cfg: cfg, log: log}
}

// Result describes one processed file.
type Result struct {
	Input      string
	Output     string // empty on a dry run
	SizeBefore int
	SizeAfter  int
	Stats      optimizer.Stats
	Warnings   []error
}

// OutputPath returns where the optimized copy of input is written: the
// input's stem plus the configured suffix, in the output directory or next
// to the input.
func (r *Runner) OutputPath(input string) string {
	dir := r.cfg.Output.Dir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, stem+r.cfg.Output.Suffix)
}

// Load reads and decodes an MDX file. Lenient-mode warnings are logged and
// returned.
func (r *Runner) Load(path string) (*mdx.Model, int, []error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("reading MDX file: %w", err)
	}
	m, warn, err := mdx.Decoder{Strict: r.cfg.Codec.Strict}.Decode(data)
	warnings := multierr.Errors(warn)
	for _, w := range warnings {
		r.log.Warn("decode warning", zap.String("file", path), zap.Error(w))
	}
	if err != nil {
		return nil, len(data), warnings, err
	}
	return m, len(data), warnings, nil
}

func (r *Runner) options() optimizer.Options {
	return optimizer.Options{
		Threshold:           r.cfg.Optimizer.Threshold,
		Linearize:           r.cfg.Optimizer.Linearize,
		Outside:             r.cfg.Optimizer.Outside,
		SkipGlobalSequences: r.cfg.Optimizer.SkipGlobalSequences,
		Logger:              r.log.Named("optimizer"),
	}
}

// Optimize processes one file. An empty output selects OutputPath(input).
// Nothing is written on error or on a dry run.
func (r *Runner) Optimize(input, output string) (*Result, error) {
	if output == "" {
		output = r.OutputPath(input)
	}

	m, size, warnings, err := r.Load(input)
	if err != nil {
		return nil, err
	}
	res := &Result{Input: input, SizeBefore: size, Warnings: warnings}

	if r.cfg.Output.DryRun {
		preview, stats, err := optimizer.Preview(m, r.options())
		if err != nil {
			return nil, err
		}
		res.Stats = stats
		res.SizeAfter = preview.Size()
		r.report(res, "dry run")
		return res, nil
	}

	stats, err := optimizer.Optimize(m, r.options())
	if err != nil {
		return nil, err
	}
	data, err := mdx.Encoder{PreserveOrder: r.cfg.Codec.PreserveChunkOrder}.Encode(m)
	if err != nil {
		return nil, err
	}
	if err := writeAtomic(output, data); err != nil {
		return nil, fmt.Errorf("writing %s: %w", output, err)
	}

	res.Output = output
	res.Stats = stats
	res.SizeAfter = len(data)
	r.report(res, "optimized")
	return res, nil
}

func (r *Runner) report(res *Result, msg string) {
	r.log.Info(msg,
		zap.String("input", res.Input),
		zap.String("output", res.Output),
		zap.String("original", encoding.Bytes(res.SizeBefore)),
		zap.String("optimized", encoding.Bytes(res.SizeAfter)),
		zap.String("change", encoding.Percent(res.SizeBefore, res.SizeAfter)),
		zap.Int("keyframes_removed", res.Stats.Removed()),
		zap.Int("channels_linearized", res.Stats.Linearized))
}

// OptimizeAll processes every input independently. Failures do not stop the
// batch; they are returned combined, each prefixed with its input path.
func (r *Runner) OptimizeAll(inputs []string, output string) ([]*Result, error) {
	if output != "" && len(inputs) != 1 {
		return nil, ErrOutputWithBatch
	}

	var results []*Result
	var errs error
	for _, input := range inputs {
		res, err := r.Optimize(input, output)
		if err != nil {
			r.log.Error("optimization failed", zap.String("input", input), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", input, err))
			continue
		}
		results = append(results, res)
	}
	return results, errs
}

// writeAtomic writes data to a temporary file next to path and renames it
// into place, so a failed run never leaves a partial file behind.
func writeAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".mdxopt-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
