// Package main provides the CLI entry point for the UFO normalizer.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ufonorm/internal/config"
	"ufonorm/internal/output"
	"ufonorm/internal/ufo"
	"ufonorm/internal/watcher"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := flag.NewFlagSet("ufonorm", flag.ExitOnError)
	flags.Usage = func() {
		fmt.Fprintln(flags.Output(), "Usage: ufonorm [options] <path to UFO>")
		fmt.Fprintln(flags.Output(), "\nProcesses the contents of a UFO and normalizes all possible files")
		fmt.Fprintln(flags.Output(), "to a standard XML formatting, data structure and file naming scheme.")
		fmt.Fprintln(flags.Output(), "\nOptions:")
		flags.PrintDefaults()
	}
	var (
		outputPath = flags.String("o", "", "output path; if not given, the input path is used")
		all        = flags.Bool("a", false, "normalize all files, not only those modified since the previous normalization")
		verbose    = flags.Bool("v", false, "print more info to console")
		quiet      = flags.Bool("q", false, "suppress all non-error messages")
		noModTimes = flags.Bool("m", false, "do not write normalization time stamps")
		watch      = flags.Bool("w", false, "keep watching the UFO and re-normalize on changes")
		configPath = flags.String("c", "", "path to a JSON configuration file with defaults")
		precision  = flags.Int("float-precision", ufo.DefaultOptions().FloatPrecision,
			"round floats to the specified number of decimal places; -1 means no rounding")
	)
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *verbose && *quiet {
		return fmt.Errorf("-q and -v options are mutually exclusive")
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return fmt.Errorf("no input path was specified")
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = *loaded
	}
	// Explicit flags override the configuration file.
	set := map[string]bool{}
	flags.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["float-precision"] {
		cfg.FloatPrecision = *precision
	}
	if set["a"] {
		cfg.All = *all
	}
	if set["m"] {
		cfg.NoModTimes = *noModTimes
	}
	if set["o"] {
		cfg.OutputPath = *outputPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	inputPath := filepath.Clean(flags.Arg(0))
	if _, err := os.Stat(inputPath); err != nil {
		return fmt.Errorf("input path does not exist: %q", inputPath)
	}
	if !strings.EqualFold(filepath.Ext(inputPath), ".ufo") {
		return fmt.Errorf("input path is not a UFO: %q", inputPath)
	}

	outputConfig := output.DefaultConfig()
	outputConfig.Verbose = *verbose
	outputConfig.Quiet = *quiet
	log := output.New(outputConfig)

	opts := ufo.Options{
		OutputPath:     cfg.OutputPath,
		OnlyModified:   !cfg.All,
		FloatPrecision: cfg.FloatPrecision,
		WriteModTimes:  !cfg.NoModTimes,
		Log:            log,
	}

	message := "Normalizing %q."
	if cfg.All {
		message += " Processing all files."
	}
	log.Info(message, filepath.Base(inputPath))
	start := time.Now()
	if err := ufo.Normalize(inputPath, opts); err != nil {
		return err
	}
	log.Info("Normalization complete (%.4f seconds).", time.Since(start).Seconds())

	if !*watch {
		return nil
	}

	// Watch mode keeps normalizing in place; once the copy exists, later
	// runs work on the output path directly.
	watchPath := inputPath
	if cfg.OutputPath != "" {
		watchPath = cfg.OutputPath
	}
	watchOpts := opts
	watchOpts.OutputPath = ""
	w := watcher.New(watchPath, watcher.DefaultConfig(), func() error {
		log.Info("Change detected, normalizing %q.", filepath.Base(watchPath))
		runStart := time.Now()
		if err := ufo.Normalize(watchPath, watchOpts); err != nil {
			return err
		}
		log.Info("Normalization complete (%.4f seconds).", time.Since(runStart).Seconds())
		return nil
	}, func(err error) {
		log.Error("Watch error: %v", err)
	})
	if err := w.Start(); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	log.Info("Watching %q for changes. Press Ctrl-C to stop.", watchPath)
	waitForInterrupt()
	w.Stop()
	return nil
}
