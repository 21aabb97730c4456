// Command calcdemo loads an .xlsx workbook, runs a full calculation, and
// prints every formula cell's resulting value — a minimal exerciser for
// calc.Engine and xlsxview.View, in the spirit of
// vinodismyname-mcpxcel/cmd/server's flag-driven single-purpose CLI.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/rs/zerolog"

	"github.com/wolfxl/calcengine/calc"
	"github.com/wolfxl/calcengine/xlsxview"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var (
		path         string
		defaultSheet string
		verbose      bool
	)
	flag.StringVar(&path, "file", "", "path to the .xlsx workbook to evaluate")
	flag.StringVar(&defaultSheet, "sheet", "Sheet1", "default sheet name for the engine configuration")
	flag.BoolVar(&verbose, "verbose", false, "log cannot-evaluate diagnostics")
	flag.Parse()

	if path == "" {
		fmt.Fprintln(os.Stderr, "calcdemo: -file is required")
		os.Exit(2)
	}

	logger := zerolog.Nop()
	if verbose {
		logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	if err := run(path, defaultSheet, logger); err != nil {
		fmt.Fprintf(os.Stderr, "calcdemo: %v\n", err)
		os.Exit(1)
	}
}

func run(path, defaultSheet string, logger zerolog.Logger) error {
	view, err := xlsxview.Open(path)
	if err != nil {
		return err
	}
	defer view.Close()

	engine, err := calc.NewEngine(
		calc.WithDefaultSheet(defaultSheet),
		calc.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("configuring engine: %w", err)
	}

	if err := engine.Load(view); err != nil {
		return fmt.Errorf("loading workbook: %w", err)
	}

	results, err := engine.Calculate()
	if err != nil {
		return fmt.Errorf("calculating: %w", err)
	}

	refs := make([]string, 0, len(results))
	for ref := range results {
		refs = append(refs, ref)
	}
	sort.Strings(refs)

	for _, ref := range refs {
		fmt.Printf("%s\t%s\n", ref, calc.ToText(results[ref]))
	}
	return nil
}
