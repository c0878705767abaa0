package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/HealthForge/vitalsim/internal/export"
	"github.com/HealthForge/vitalsim/internal/generator"
	"github.com/HealthForge/vitalsim/pkg/models"
)

// runGenerate produces a series offline and writes it to a file or stdout.
// Useful for generating datasets without running the server.
func runGenerate(args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	duration := fs.Duration("duration", time.Hour, "series duration (e.g. 1h, 30m)")
	interval := fs.Duration("interval", 5*time.Minute, "spacing between readings")
	start := fs.String("start", "", "start timestamp (2006-01-02T15:04:05, local); defaults to now")
	format := fs.String("format", "json", "output format: json, csv, or xlsx")
	out := fs.String("out", "", "output file; defaults to stdout")
	seed := fs.Uint64("seed", 0, "random seed for reproducible output; 0 seeds from the clock")
	_ = fs.Parse(args)

	startAt := time.Now()
	if *start != "" {
		parsed, err := time.ParseInLocation(models.TimeLayout, *start, time.Local)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -start: %v\n", err)
			os.Exit(1)
		}
		startAt = parsed
	}

	f, err := export.ParseFormat(*format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -format: %v\n", err)
		os.Exit(1)
	}

	var synth *generator.Synthesizer
	if *seed != 0 {
		synth = generator.NewSeeded(*seed)
	} else {
		synth = generator.New(nil)
	}

	series, err := synth.Series(startAt, *duration, *interval)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate series: %v\n", err)
		os.Exit(1)
	}

	w := os.Stdout
	if *out != "" {
		file, err := os.Create(*out)
		if err != nil {
			fmt.Fprintf(os.Stderr, "create %s: %v\n", *out, err)
			os.Exit(1)
		}
		defer file.Close()
		w = file
	}

	switch f {
	case export.FormatCSV:
		err = export.WriteCSV(w, series)
	case export.FormatXLSX:
		err = export.WriteXLSX(w, series)
	default:
		err = export.WriteJSON(w, series)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "write output: %v\n", err)
		os.Exit(1)
	}

	if *out != "" {
		summary := generator.Summarize(series)
		fmt.Fprintf(os.Stderr, "wrote %d readings (%d warnings) to %s\n",
			summary.TotalReadings, summary.WarningCount, *out)
	}
}
