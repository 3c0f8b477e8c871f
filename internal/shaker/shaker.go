// Package shaker reports which exported symbols of a package survive
// dead-code elimination from a program's entry points.
package shaker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"

	"dario.cat/shaker/internal/analyzer"
	"dario.cat/shaker/internal/graph"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNoEntries is returned when no entry pattern is given.
	ErrNoEntries = errors.New("no entries")
	// ErrNoTarget is returned when the target package path is empty.
	ErrNoTarget = errors.New("no target package")
	// ErrTargetNotImported is returned when an entry does not import the target.
	ErrTargetNotImported = errors.New("target not imported")
)

// Options configures an analysis run.
type Options struct {
	Dir     string            // Working directory for package loading.
	Target  string            // Import path of the package under test.
	Entries []string          // Package patterns of the programs to analyze.
	Overlay map[string][]byte // Replacement file contents, keyed by absolute path.
	Logger  logrus.FieldLogger
}

// Report is the outcome of analyzing one entry point.
type Report struct {
	Entry      string   `json:"entry"`
	Target     string   `json:"target"`
	Retained   []string `json:"retained"`
	Eliminated []string `json:"eliminated"`

	// Why maps each retained symbol to the dependency chain, root first,
	// that keeps it alive.
	Why map[string][]string `json:"why,omitempty"`
}

// Analyze loads every entry concurrently and classifies the exported
// top-level symbols of the target package. Reports follow entry order.
func Analyze(ctx context.Context, opts Options) ([]Report, error) {
	if len(opts.Entries) == 0 {
		return nil, ErrNoEntries
	}

	if opts.Target == "" {
		return nil, ErrNoTarget
	}

	absDir, err := filepath.Abs(opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("resolving work dir: %w", err)
	}

	log := opts.Logger
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}

	reports := make([]Report, len(opts.Entries))

	g, ctx := errgroup.WithContext(ctx)
	for i, entry := range opts.Entries {
		g.Go(func() error {
			report, err := analyzeEntry(ctx, absDir, entry, opts, log.WithField("entry", entry))
			if err != nil {
				return fmt.Errorf("analyzing %s: %w", entry, err)
			}

			reports[i] = report

			return nil
		})
	}

	err = g.Wait()
	if err != nil {
		return nil, err //nolint:wrapcheck // Already wrapped per entry.
	}

	return reports, nil
}

func analyzeEntry(
	ctx context.Context, absDir, entry string, opts Options, log logrus.FieldLogger,
) (Report, error) {
	err := ctx.Err()
	if err != nil {
		return Report{}, fmt.Errorf("before loading: %w", err)
	}

	pkgs, err := analyzer.LoadPackages(absDir, opts.Overlay, entry)
	if err != nil {
		return Report{}, fmt.Errorf("loading packages: %w", err)
	}

	dg := graph.NewDependencyGraph()
	imported := false
	analyzed := 0

	for _, pkg := range analyzer.AllPackages(pkgs) {
		if pkg.PkgPath == opts.Target {
			imported = true
		}

		if analyzer.IsStdlib(pkg) {
			continue
		}

		dg.AnalyzePackage(pkg)
		analyzed++
	}

	if !imported {
		return Report{}, fmt.Errorf("%w: %s", ErrTargetNotImported, opts.Target)
	}

	log.WithFields(logrus.Fields{
		"packages": analyzed,
		"symbols":  len(dg.Symbols),
		"roots":    len(dg.Roots),
	}).Debug("built dependency graph")

	report := Classify(dg, opts.Target)
	report.Entry = entry

	log.WithFields(logrus.Fields{
		"retained":   len(report.Retained),
		"eliminated": len(report.Eliminated),
	}).Debug("classified target symbols")

	return report, nil
}

// Classify splits the exported top-level symbols of target into those live
// from the graph roots and those that are not, recording why each retained
// symbol is live.
func Classify(dg *graph.DependencyGraph, target string) Report {
	live := dg.Live()

	report := Report{
		Target:     target,
		Retained:   []string{},
		Eliminated: []string{},
		Why:        make(map[string][]string),
	}

	for id, sym := range dg.Symbols {
		if sym.Package != target || !sym.Exported || sym.Receiver != "" {
			continue
		}

		if live[id] {
			report.Retained = append(report.Retained, sym.Name)
			report.Why[sym.Name] = dg.PathFromRoot(id, live)
		} else {
			report.Eliminated = append(report.Eliminated, sym.Name)
		}
	}

	slices.Sort(report.Retained)
	slices.Sort(report.Eliminated)

	return report
}
