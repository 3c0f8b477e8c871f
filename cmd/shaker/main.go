// Package main provides the shaker CLI for dead-code elimination checks.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/shaker/internal/config"
	"dario.cat/shaker/internal/git"
	"dario.cat/shaker/internal/shaker"
	"github.com/sirupsen/logrus"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code.
//
//nolint:funlen // Flag handling and both modes read best in one place.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("shaker", flag.ContinueOnError)
	flags.SetOutput(stderr)

	verbose := flags.Bool("v", false, "show detailed analysis")
	workDir := flags.String("dir", ".", "working directory (default: current directory)")
	configPath := flags.String("config", config.DefaultPath, "expectations file, relative to -dir")
	target := flags.String("target", "", "import path of the package to report on")
	staged := flags.Bool("staged", false, "analyze the staged snapshot instead of the working tree")
	jsonOut := flags.Bool("json", false, "print results as JSON")

	err := flags.Parse(args)
	if err != nil {
		return 2 //nolint:mnd // Usage error, as flag.ExitOnError does.
	}

	log := logrus.New()
	log.SetOutput(stderr)

	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	opts := shaker.Options{
		Dir:     *workDir,
		Target:  *target,
		Entries: flags.Args(),
		Logger:  log,
	}

	if *staged {
		overlay, err := git.StagedOverlay(ctx, *workDir)
		if err != nil {
			return fail(stderr, err)
		}

		log.WithField("files", len(overlay)).Debug("using staged snapshot")

		opts.Overlay = overlay
	}

	// Ad hoc report mode.
	if len(opts.Entries) > 0 {
		reports, err := shaker.Analyze(ctx, opts)
		if err != nil {
			return fail(stderr, err)
		}

		if *jsonOut {
			writeJSON(stdout, reports)
		} else {
			printReports(stdout, reports, *verbose)
		}

		return 0
	}

	// Expectations mode.
	cfg, err := config.Load(resolvePath(*workDir, *configPath))
	if err != nil {
		return fail(stderr, err)
	}

	if opts.Target == "" {
		opts.Target = cfg.Target
	}

	opts.Entries = cfg.Entries()

	reports, err := shaker.Analyze(ctx, opts)
	if err != nil {
		return fail(stderr, err)
	}

	mismatches := shaker.Verify(reports, cfg)

	switch {
	case *jsonOut:
		if mismatches == nil {
			mismatches = []shaker.Mismatch{}
		}

		writeJSON(stdout, result{Reports: reports, Mismatches: mismatches})
	case len(mismatches) > 0:
		printMismatches(stdout, mismatches)
	case *verbose:
		printReports(stdout, reports, true)
		writeString(stdout, "All expectations met\n")
	}

	if len(mismatches) > 0 {
		return 1
	}

	return 0
}

// result is the JSON document printed in expectations mode.
type result struct {
	Reports    []shaker.Report   `json:"reports"`
	Mismatches []shaker.Mismatch `json:"mismatches"`
}

func resolvePath(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(dir, path)
}

func fail(w io.Writer, err error) int {
	writeString(w, "Error: "+err.Error()+"\n")

	return 1
}

func writeString(w io.Writer, s string) {
	_, err := io.WriteString(w, s)
	if err != nil {
		panic(err)
	}
}

func writeJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	err := enc.Encode(v)
	if err != nil {
		panic(err)
	}
}

//nolint:revive // Flag parameter acceptable for output helper.
func printReports(w io.Writer, reports []shaker.Report, why bool) {
	for _, r := range reports {
		writeString(w, r.Entry+" -> "+r.Target+"\n")
		writeString(w, "  retained:   "+joinOrNone(r.Retained)+"\n")

		if why {
			for _, name := range r.Retained {
				writeString(w, "     - "+name+": "+strings.Join(r.Why[name], " -> ")+"\n")
			}
		}

		writeString(w, "  eliminated: "+joinOrNone(r.Eliminated)+"\n")
	}
}

func printMismatches(w io.Writer, mismatches []shaker.Mismatch) {
	writeString(w, "Dead-code expectations not met:\n\n")

	// Group by entry, keeping check order.
	var entries []string

	byEntry := make(map[string][]shaker.Mismatch)

	for _, m := range mismatches {
		if _, seen := byEntry[m.Entry]; !seen {
			entries = append(entries, m.Entry)
		}

		byEntry[m.Entry] = append(byEntry[m.Entry], m)
	}

	for _, entry := range entries {
		writeString(w, "  "+entry+"\n")

		for _, m := range byEntry[entry] {
			writeString(w, "     - "+m.Symbol+": want "+m.Want+", got "+m.Got+"\n")
		}
	}
}

func joinOrNone(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}

	return strings.Join(names, ", ")
}
