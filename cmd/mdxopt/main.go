// mdxopt is a CLI utility for inspecting and shrinking Warcraft III MDX models.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/mdxopt/internal/config"
	"github.com/Faultbox/mdxopt/internal/logger"
	"github.com/Faultbox/mdxopt/internal/runner"
	"github.com/Faultbox/mdxopt/pkg/encoding"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "optimize", "opt":
		cmdOptimize(args)
	case "info":
		cmdInfo(args)
	case "dump":
		cmdDump(args)
	case "config":
		cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`mdxopt - Warcraft III MDX model optimizer

Usage:
  mdxopt <command> [options]

Commands:
  optimize <file.mdx>...   Remove redundant keyframes and write optimized copies
  info <file.mdx>          Show chunk, sequence and keyframe counts
  dump <file.mdx>          Print a YAML description of the model
  config                   Print the effective configuration

Optimize options:
  -t, -threshold <value>   Similarity threshold for merging keyframes (default 0)
  -linearize               Convert Hermite/Bezier interpolation to linear
  -outside                 Only remove keyframes outside sequence intervals
  -skip-global-sequences   Keep keyframes of channels bound to a global sequence
  -preserve-order          Keep the input chunk order
  -o <file>                Output file (single input only)
  -dir <dir>               Output directory
  -suffix <suffix>         Output file name suffix (default _optimized.mdx)
  -dry-run                 Report statistics without writing output

Common options:
  -config <file>           Path to config file
  -lenient                 Accept fixed-record chunks of bad size as empty
  -log                     Also log to ` + logger.DefaultLogFile + `
  -debug                   Enable debug logging

Examples:
  mdxopt optimize Footman.mdx -t 0.001 -linearize
  mdxopt optimize -dir out -dry-run units/*.mdx
  mdxopt info Footman.mdx
  mdxopt config -save`)
}

// setup parses args, loads the config and starts logging.
func setup(name string, args []string, register func(*config.Flags, *flag.FlagSet)) (*config.Config, *config.Flags, []string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	f := &config.Flags{}
	register(f, fs)
	positional, err := f.Parse(fs, args)
	if err != nil {
		fatal(err)
	}

	cfg, err := config.Load(f)
	if err != nil {
		fatal(err)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fatal(err)
	}
	if cfg.ClampThreshold() {
		logger.Warn("negative threshold, using 0")
	}
	return cfg, f, positional
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	logger.Sync()
	os.Exit(1)
}

func cmdOptimize(args []string) {
	cfg, f, inputs := setup("optimize", args, (*config.Flags).RegisterOptimize)
	defer logger.Sync()

	if len(inputs) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: mdxopt optimize <file.mdx>... [options]")
		os.Exit(1)
	}

	logger.Debug("effective config", zap.Any("optimizer", cfg.Optimizer), zap.Any("output", cfg.Output))
	results, err := runner.New(cfg, logger.Log).OptimizeAll(inputs, f.Output)

	var before, after, removed int
	for _, res := range results {
		before += res.SizeBefore
		after += res.SizeAfter
		removed += res.Stats.Removed()
	}
	if len(results) > 1 {
		fmt.Printf("%s files: %s -> %s (%s), %s keyframes removed\n",
			encoding.Count(len(results)), encoding.Bytes(before), encoding.Bytes(after),
			encoding.Percent(before, after), encoding.Count(removed))
	}
	if err != nil {
		fatal(err)
	}
}

func cmdInfo(args []string) {
	cfg, _, files := setup("info", args, (*config.Flags).RegisterCommon)
	defer logger.Sync()

	if len(files) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: mdxopt info <file.mdx>")
		os.Exit(1)
	}

	m, size, warnings, err := runner.New(cfg, logger.Log).Load(files[0])
	if err != nil {
		fatal(err)
	}
	s := runner.Summarize(files[0], size, m)

	fmt.Printf("Model:     %s\n", files[0])
	if s.Name != "" {
		fmt.Printf("Name:      %s\n", s.Name)
	}
	fmt.Printf("Version:   %d\n", s.Version)
	fmt.Printf("Size:      %s\n", encoding.Bytes(s.Size))
	if len(warnings) > 0 {
		fmt.Printf("Warnings:  %d\n", len(warnings))
	}
	fmt.Println()

	fmt.Println("Chunks:")
	for _, c := range s.Chunks {
		fmt.Printf("  %-6s %12s\n", c.Tag, encoding.Bytes(int(c.Size)))
	}
	fmt.Println()

	if len(s.Sequences) > 0 {
		fmt.Println("Sequences:")
		for _, seq := range s.Sequences {
			fmt.Printf("  %-24s %8d - %-8d\n", seq.Name, seq.Start, seq.End)
		}
		fmt.Println()
	}

	fmt.Printf("Nodes:     %s\n", encoding.Count(s.Totals.Nodes))
	fmt.Printf("Channels:  %s (%s with tangents)\n", encoding.Count(s.Totals.Channels), encoding.Count(s.Totals.Tangents))
	fmt.Printf("Keyframes: %s\n", encoding.Count(s.Totals.Keyframes))
}

func cmdDump(args []string) {
	cfg, _, files := setup("dump", args, (*config.Flags).RegisterCommon)
	defer logger.Sync()

	if len(files) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: mdxopt dump <file.mdx>")
		os.Exit(1)
	}

	m, size, _, err := runner.New(cfg, logger.Log).Load(files[0])
	if err != nil {
		fatal(err)
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(runner.Summarize(files[0], size, m)); err != nil {
		fatal(err)
	}
	if err := enc.Close(); err != nil {
		fatal(err)
	}
}

func cmdConfig(args []string) {
	var save bool
	var saveTo string
	cfg, _, _ := setup("config", args, func(f *config.Flags, fs *flag.FlagSet) {
		f.RegisterOptimize(fs)
		fs.BoolVar(&save, "save", false, "Write the effective config to the user config directory")
		fs.StringVar(&saveTo, "save-to", "", "Write the effective config to a file")
	})
	defer logger.Sync()

	switch {
	case saveTo != "":
		if err := cfg.SaveTo(saveTo); err != nil {
			fatal(err)
		}
		fmt.Fprintf(os.Stderr, "Saved config to %s\n", saveTo)
	case save:
		path, err := cfg.Save()
		if err != nil {
			fatal(err)
		}
		fmt.Fprintf(os.Stderr, "Saved config to %s\n", path)
	default:
		data, err := cfg.YAML()
		if err != nil {
			fatal(err)
		}
		os.Stdout.Write(data)
	}
}
