package config

import (
	"flag"

	"github.com/Faultbox/mdxopt/internal/logger"
)

// Flags holds the command-line overrides shared by the subcommands. Only
// flags given on the command line override the config.
type Flags struct {
	ConfigPath string

	Threshold           float64
	Linearize           bool
	Outside             bool
	SkipGlobalSequences bool

	Lenient       bool
	PreserveOrder bool

	Output    string
	OutputDir string
	Suffix    string
	DryRun    bool

	Log   bool
	Debug bool

	set map[string]bool
}

// RegisterCommon adds the flags every subcommand accepts.
func (f *Flags) RegisterCommon(fs *flag.FlagSet) {
	fs.StringVar(&f.ConfigPath, "config", "", "Path to config file")
	fs.BoolVar(&f.Lenient, "lenient", false, "Decode fixed-record chunks of bad size as empty instead of failing")
	fs.BoolVar(&f.Log, "log", false, "Also log to "+logger.DefaultLogFile)
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
}

// RegisterOptimize adds the optimizer and output flags.
func (f *Flags) RegisterOptimize(fs *flag.FlagSet) {
	f.RegisterCommon(fs)
	fs.Float64Var(&f.Threshold, "t", 0, "Similarity threshold (shorthand)")
	fs.Float64Var(&f.Threshold, "threshold", 0, "Similarity threshold for merging keyframes")
	fs.BoolVar(&f.Linearize, "linearize", false, "Convert Hermite/Bezier interpolation to linear")
	fs.BoolVar(&f.Outside, "outside", false, "Only remove keyframes outside sequence intervals")
	fs.BoolVar(&f.SkipGlobalSequences, "skip-global-sequences", false, "Do not range-filter channels bound to a global sequence")
	fs.BoolVar(&f.PreserveOrder, "preserve-order", false, "Write chunks in input order instead of canonical order")
	fs.StringVar(&f.Output, "o", "", "Output file (single input only)")
	fs.StringVar(&f.OutputDir, "dir", "", "Output directory")
	fs.StringVar(&f.Suffix, "suffix", "", "Output file name suffix")
	fs.BoolVar(&f.DryRun, "dry-run", false, "Report statistics without writing output")
}

// Parse parses args, allowing flags before and after positional arguments,
// records which flags were given and returns the positional arguments.
func (f *Flags) Parse(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			break
		}
		positional = append(positional, args[0])
		args = args[1:]
	}

	f.set = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) {
		f.set[fl.Name] = true
	})
	return positional, nil
}

// IsSet reports whether any of the named flags was given.
func (f *Flags) IsSet(names ...string) bool {
	for _, name := range names {
		if f.set[name] {
			return true
		}
	}
	return false
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config, f *Flags) {
	if f == nil {
		return
	}
	if f.IsSet("t", "threshold") {
		cfg.Optimizer.Threshold = float32(f.Threshold)
	}
	if f.IsSet("linearize") {
		cfg.Optimizer.Linearize = f.Linearize
	}
	if f.IsSet("outside") {
		cfg.Optimizer.Outside = f.Outside
	}
	if f.IsSet("skip-global-sequences") {
		cfg.Optimizer.SkipGlobalSequences = f.SkipGlobalSequences
	}
	if f.IsSet("lenient") {
		cfg.Codec.Strict = !f.Lenient
	}
	if f.IsSet("preserve-order") {
		cfg.Codec.PreserveChunkOrder = f.PreserveOrder
	}
	if f.OutputDir != "" {
		cfg.Output.Dir = f.OutputDir
	}
	if f.Suffix != "" {
		cfg.Output.Suffix = f.Suffix
	}
	if f.IsSet("dry-run") {
		cfg.Output.DryRun = f.DryRun
	}
	if f.Log && cfg.Logging.LogFile == "" {
		cfg.Logging.LogFile = logger.DefaultLogFile
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
}
