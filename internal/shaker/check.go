package shaker

import (
	"dario.cat/shaker/internal/config"
)

// Expectation states for a symbol.
const (
	Retained   = "retained"
	Eliminated = "eliminated"
	Missing    = "missing"
)

// Mismatch represents a symbol whose reachability differs from the expectation.
type Mismatch struct {
	Entry  string `json:"entry"`
	Symbol string `json:"symbol"`
	Want   string `json:"want"` // Retained or Eliminated.
	Got    string `json:"got"`  // Retained, Eliminated or Missing.
}

// Check compares a report against the expectations of a check.
// Mismatches follow the order symbols are listed in the check.
func Check(report Report, check config.Check) []Mismatch {
	state := make(map[string]string, len(report.Retained)+len(report.Eliminated))
	for _, name := range report.Retained {
		state[name] = Retained
	}

	for _, name := range report.Eliminated {
		state[name] = Eliminated
	}

	var mismatches []Mismatch

	compare := func(names []string, want string) {
		for _, name := range names {
			got, ok := state[name]
			if !ok {
				got = Missing
			}

			if got != want {
				mismatches = append(mismatches, Mismatch{
					Entry:  report.Entry,
					Symbol: name,
					Want:   want,
					Got:    got,
				})
			}
		}
	}

	compare(check.Retain, Retained)
	compare(check.Eliminate, Eliminated)

	return mismatches
}

// Verify compares reports, produced in cfg.Entries order, with the checks of cfg.
func Verify(reports []Report, cfg *config.Config) []Mismatch {
	var mismatches []Mismatch

	for i, check := range cfg.Checks {
		if i >= len(reports) {
			break
		}

		mismatches = append(mismatches, Check(reports[i], check)...)
	}

	return mismatches
}
