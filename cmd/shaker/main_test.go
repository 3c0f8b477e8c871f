package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"dario.cat/shaker/internal/shaker"
)

var projectDir = filepath.Join("..", "..", "internal", "shaker", "testdata", "project")

const utilPkg = "example.com/app/util"

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".shaker.yaml")

	err := os.WriteFile(path, []byte(content), 0o600)
	if err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	code := run(context.Background(), args, &stdout, &stderr)

	return code, stdout.String(), stderr.String()
}

func TestRunExpectationsMet(t *testing.T) {
	t.Parallel()

	cfg := writeConfig(t, `target: example.com/app/util
checks:
  - entry: ./cmd/greeter
    retain: [Greet]
    eliminate: [Add, Multiply]
`)

	code, stdout, stderr := runCLI(t, "-dir", projectDir, "-config", cfg)
	if code != 0 {
		t.Fatalf("run() = %d, want 0 (stderr: %s)", code, stderr)
	}

	if stdout != "" {
		t.Errorf("Expected no output without -v, got %q", stdout)
	}
}

func TestRunExpectationsMismatch(t *testing.T) {
	t.Parallel()

	cfg := writeConfig(t, `target: example.com/app/util
checks:
  - entry: ./cmd/greeter
    retain: [Add]
    eliminate: [Greet]
`)

	code, stdout, _ := runCLI(t, "-dir", projectDir, "-config", cfg)
	if code != 1 {
		t.Fatalf("run() = %d, want 1", code)
	}

	want := "Dead-code expectations not met:\n\n" +
		"  ./cmd/greeter\n" +
		"     - Add: want retained, got eliminated\n" +
		"     - Greet: want eliminated, got retained\n"
	if stdout != want {
		t.Errorf("run() output = %q, want %q", stdout, want)
	}
}

func TestRunExpectationsJSON(t *testing.T) {
	t.Parallel()

	cfg := writeConfig(t, `target: example.com/app/util
checks:
  - entry: ./cmd/calc
    retain: [Add, Multiply]
  - entry: ./cmd/greeter
    eliminate: [Greet]
`)

	code, stdout, stderr := runCLI(t, "-dir", projectDir, "-config", cfg, "-json")
	if code != 1 {
		t.Fatalf("run() = %d, want 1 (stderr: %s)", code, stderr)
	}

	var got result

	err := json.Unmarshal([]byte(stdout), &got)
	if err != nil {
		t.Fatalf("Invalid JSON output: %v\n%s", err, stdout)
	}

	if len(got.Reports) != 2 || got.Reports[0].Entry != "./cmd/calc" || got.Reports[1].Entry != "./cmd/greeter" {
		t.Fatalf("Unexpected reports: %+v", got.Reports)
	}

	if got.Reports[0].Target != utilPkg {
		t.Errorf("Expected target %s, got %s", utilPkg, got.Reports[0].Target)
	}

	if len(got.Reports[1].Why["Greet"]) == 0 {
		t.Errorf("Expected a retention chain for Greet, got %v", got.Reports[1].Why)
	}

	wantMismatch := shaker.Mismatch{
		Entry: "./cmd/greeter", Symbol: "Greet", Want: shaker.Eliminated, Got: shaker.Retained,
	}
	if len(got.Mismatches) != 1 || got.Mismatches[0] != wantMismatch {
		t.Errorf("Mismatches = %+v, want [%+v]", got.Mismatches, wantMismatch)
	}
}

func TestRunExpectationsJSONEmptyMismatches(t *testing.T) {
	t.Parallel()

	cfg := writeConfig(t, "target: example.com/app/util\nchecks:\n  - entry: ./cmd/blank\n    eliminate: [Greet]\n")

	code, stdout, _ := runCLI(t, "-dir", projectDir, "-config", cfg, "-json")
	if code != 0 {
		t.Fatalf("run() = %d, want 0", code)
	}

	var raw map[string]json.RawMessage

	err := json.Unmarshal([]byte(stdout), &raw)
	if err != nil {
		t.Fatalf("Invalid JSON output: %v", err)
	}

	if string(raw["mismatches"]) != "[]" {
		t.Errorf("mismatches = %s, want []", raw["mismatches"])
	}
}

func TestRunReportMode(t *testing.T) {
	t.Parallel()

	code, stdout, stderr := runCLI(t, "-dir", projectDir, "-target", utilPkg, "./cmd/calc")
	if code != 0 {
		t.Fatalf("run() = %d, want 0 (stderr: %s)", code, stderr)
	}

	want := "./cmd/calc -> example.com/app/util\n" +
		"  retained:   Add, Multiply\n" +
		"  eliminated: Bundle, Default, Greet\n"
	if stdout != want {
		t.Errorf("run() output = %q, want %q", stdout, want)
	}
}

func TestRunErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want int
	}{
		{name: "missing config", args: []string{"-dir", projectDir, "-config", "missing.yaml"}, want: 1},
		{name: "invalid config", args: []string{"-dir", projectDir, "-config", writeConfig(t, "checks: []\n")}, want: 1},
		{name: "target not imported", args: []string{"-dir", projectDir, "-target", utilPkg, "./cmd/nothing"}, want: 1},
		{name: "unknown flag", args: []string{"-bogus"}, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			code, _, stderr := runCLI(t, tt.args...)
			if code != tt.want {
				t.Errorf("run() = %d, want %d", code, tt.want)
			}

			if stderr == "" {
				t.Error("Expected an error message on stderr")
			}
		})
	}
}

func TestPrintReports(t *testing.T) {
	t.Parallel()

	report := shaker.Report{
		Entry:      "./cmd/hello",
		Target:     "dario.cat/shaker/fixture",
		Retained:   []string{"Greet"},
		Eliminated: []string{},
		Why:        map[string][]string{"Greet": {"dario.cat/shaker/cmd/hello.main", "dario.cat/shaker/fixture.Greet"}},
	}

	var buf bytes.Buffer

	printReports(&buf, []shaker.Report{report}, false)

	want := "./cmd/hello -> dario.cat/shaker/fixture\n" +
		"  retained:   Greet\n" +
		"  eliminated: (none)\n"
	if buf.String() != want {
		t.Errorf("printReports() = %q, want %q", buf.String(), want)
	}

	buf.Reset()
	printReports(&buf, []shaker.Report{report}, true)

	want = "./cmd/hello -> dario.cat/shaker/fixture\n" +
		"  retained:   Greet\n" +
		"     - Greet: dario.cat/shaker/cmd/hello.main -> dario.cat/shaker/fixture.Greet\n" +
		"  eliminated: (none)\n"
	if buf.String() != want {
		t.Errorf("printReports(why) = %q, want %q", buf.String(), want)
	}
}

func TestPrintMismatches(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	printMismatches(&buf, []shaker.Mismatch{
		{Entry: "./b", Symbol: "Add", Want: shaker.Eliminated, Got: shaker.Retained},
		{Entry: "./a", Symbol: "Greet", Want: shaker.Retained, Got: shaker.Eliminated},
		{Entry: "./b", Symbol: "Div", Want: shaker.Eliminated, Got: shaker.Missing},
	})

	want := "Dead-code expectations not met:\n\n" +
		"  ./b\n" +
		"     - Add: want eliminated, got retained\n" +
		"     - Div: want eliminated, got missing\n" +
		"  ./a\n" +
		"     - Greet: want retained, got eliminated\n"
	if buf.String() != want {
		t.Errorf("printMismatches() = %q, want %q", buf.String(), want)
	}
}

func TestResolvePath(t *testing.T) {
	t.Parallel()

	abs := filepath.Join(t.TempDir(), "x.yaml")
	if got := resolvePath("dir", abs); got != abs {
		t.Errorf("resolvePath(abs) = %q, want %q", got, abs)
	}

	if got := resolvePath("dir", ".shaker.yaml"); got != filepath.Join("dir", ".shaker.yaml") {
		t.Errorf("resolvePath(rel) = %q", got)
	}
}
