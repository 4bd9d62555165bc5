package rules

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/classtools/asgn/internal/assignment"
)

func boolPtr(v bool) *bool { return &v }

func testRunner(t *testing.T, exec func(target, workDir string) error) (*Runner, *bytes.Buffer) {
	t.Helper()
	spec := &assignment.Spec{Name: "hw1", Path: t.TempDir()}
	out := &bytes.Buffer{}
	runner := NewRunner(spec, t.TempDir(), true, "make")
	runner.Exec = exec
	runner.Out = out
	return runner, out
}

func failTargets(failing ...string) func(target, workDir string) error {
	return func(target, workDir string) error {
		for _, name := range failing {
			if name == target {
				return errors.New("exit status 2")
			}
		}
		return nil
	}
}

func TestRunRuleset_ToleratedFailureDoesNotStop(t *testing.T) {
	runner, _ := testRunner(t, failTargets("lint"))
	set := &assignment.Ruleset{
		Rules: []assignment.Rule{
			{Target: "lint", FailOkay: boolPtr(true)},
			{Target: "compile", FailOkay: boolPtr(false)},
		},
	}

	report, err := runner.RunRuleset(set, t.TempDir(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Passed != 1 || report.Failed != 1 || report.NotReached() != 0 {
		t.Fatalf("unexpected counts: passed=%d failed=%d not_reached=%d",
			report.Passed, report.Failed, report.NotReached())
	}
}

func TestRunRuleset_FatalShortCircuits(t *testing.T) {
	runner, out := testRunner(t, failTargets("lint", "compile"))
	set := &assignment.Ruleset{
		Rules: []assignment.Rule{
			{Target: "lint", FailOkay: boolPtr(true)},
			{Target: "compile", FailOkay: boolPtr(false)},
			{Target: "test"},
		},
	}

	report, err := runner.RunRuleset(set, t.TempDir(), false)
	if !errors.Is(err, ErrFatal) {
		t.Fatalf("expected ErrFatal, got %v", err)
	}
	if report.Passed != 0 || report.Failed != 2 || report.NotReached() != 1 {
		t.Fatalf("unexpected counts: passed=%d failed=%d not_reached=%d",
			report.Passed, report.Failed, report.NotReached())
	}
	if !strings.Contains(out.String(), "Execution cannot continue") {
		t.Fatalf("missing fatal banner in output:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "3 total targets - 0 passed, 2 failed, 1 not reached.") {
		t.Fatalf("missing summary in output:\n%s", out.String())
	}
}

func TestRunRuleset_CountsAlwaysSum(t *testing.T) {
	cases := [][]string{
		{},
		{"a"},
		{"a", "b"},
		{"a", "b", "c", "d"},
	}
	for _, failing := range cases {
		runner, _ := testRunner(t, failTargets(failing...))
		set := &assignment.Ruleset{
			Rules: []assignment.Rule{
				{Target: "a"}, {Target: "b"}, {Target: "c"}, {Target: "d"},
			},
		}
		report, err := runner.RunRuleset(set, t.TempDir(), false)
		total := report.Passed + report.Failed + report.NotReached()
		if total != report.Total {
			t.Fatalf("counts do not sum for failing=%v: %d != %d", failing, total, report.Total)
		}
		if report.NotReached() > 0 && err == nil {
			t.Fatalf("rules unreached without a fatal for failing=%v", failing)
		}
	}
}

func TestRunRuleset_RulesetDefaultTolerance(t *testing.T) {
	runner, _ := testRunner(t, failTargets("lint"))
	set := &assignment.Ruleset{
		FailOkay: boolPtr(true),
		Rules:    []assignment.Rule{{Target: "lint"}, {Target: "compile"}},
	}

	report, err := runner.RunRuleset(set, t.TempDir(), false)
	if err != nil {
		t.Fatalf("ruleset default fail_okay should tolerate the failure: %v", err)
	}
	if report.Failed != 1 || report.Passed != 1 {
		t.Fatalf("unexpected counts: passed=%d failed=%d", report.Passed, report.Failed)
	}
}

func TestRunRuleset_NilPrintsNoTargets(t *testing.T) {
	runner, out := testRunner(t, failTargets())
	report, err := runner.RunRuleset(nil, t.TempDir(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Total != 0 || report.Metrics.Len() != 0 {
		t.Fatalf("expected empty report, got %+v", report)
	}
	if !strings.Contains(out.String(), "No targets.") {
		t.Fatalf("missing no-targets notice:\n%s", out.String())
	}
}

func kindPtr(kind string) *string { return &kind }

func TestRunRuleset_HarvestsTypedMetrics(t *testing.T) {
	workDir := t.TempDir()
	writeOutput := func(target, contents string) {
		if err := os.WriteFile(filepath.Join(workDir, target), []byte(contents), 0o644); err != nil {
			t.Fatalf("writing %s: %v", target, err)
		}
	}
	writeOutput("passed_style", "true")
	writeOutput("test_count", "42\n")
	writeOutput("coverage", "87.5")

	runner, _ := testRunner(t, failTargets())
	set := &assignment.Ruleset{
		Rules: []assignment.Rule{
			{Target: "passed_style", Kind: kindPtr("bool")},
			{Target: "test_count", Kind: kindPtr("int")},
			{Target: "coverage", Kind: kindPtr("float")},
		},
	}

	report, err := runner.RunRuleset(set, workDir, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Metrics.Len() != 3 {
		t.Fatalf("expected 3 metrics, got %d", report.Metrics.Len())
	}
	if v, _ := report.Metrics.Get("passed_style"); v != true {
		t.Fatalf("bool metric: got %v", v)
	}
	if v, _ := report.Metrics.Get("test_count"); v != int64(42) {
		t.Fatalf("int metric: got %v", v)
	}
	if v, _ := report.Metrics.Get("coverage"); v != 87.5 {
		t.Fatalf("float metric: got %v", v)
	}
}

func TestRunRuleset_UnparseableMetricIsOmittedNotFatal(t *testing.T) {
	workDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(workDir, "test_count"), []byte("abc"), 0o644); err != nil {
		t.Fatalf("writing output: %v", err)
	}

	runner, _ := testRunner(t, failTargets())
	set := &assignment.Ruleset{
		Rules: []assignment.Rule{{Target: "test_count", Kind: kindPtr("int")}},
	}

	report, err := runner.RunRuleset(set, workDir, true)
	if err != nil {
		t.Fatalf("parse failure must not be fatal: %v", err)
	}
	if _, ok := report.Metrics.Get("test_count"); ok {
		t.Fatalf("unparseable metric must be omitted, not defaulted")
	}
}

func TestRunRuleset_MetricWithoutKindIsSkipped(t *testing.T) {
	workDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(workDir, "score"), []byte("12"), 0o644); err != nil {
		t.Fatalf("writing output: %v", err)
	}

	runner, _ := testRunner(t, failTargets())
	set := &assignment.Ruleset{Rules: []assignment.Rule{{Target: "score"}}}

	report, err := runner.RunRuleset(set, workDir, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Metrics.Len() != 0 {
		t.Fatalf("kindless rule must not produce a metric")
	}
}

func TestRunRuleset_LastMetricWins(t *testing.T) {
	workDir := t.TempDir()
	count := 0
	runner, _ := testRunner(t, func(target, dir string) error {
		count++
		contents := fmt.Sprintf("%d", count)
		return os.WriteFile(filepath.Join(workDir, target), []byte(contents), 0o644)
	})
	set := &assignment.Ruleset{
		Rules: []assignment.Rule{
			{Target: "score", Kind: kindPtr("int")},
			{Target: "score", Kind: kindPtr("int")},
		},
	}

	report, err := runner.RunRuleset(set, workDir, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := report.Metrics.Get("score"); v != int64(2) {
		t.Fatalf("expected last write to win, got %v", v)
	}
	if report.Metrics.Len() != 1 {
		t.Fatalf("duplicate targets must share one entry")
	}
}

func TestRunOnSubmit_GateSemantics(t *testing.T) {
	cases := []struct {
		name    string
		set     *assignment.Ruleset
		wantRun bool
	}{
		{"nil ruleset", nil, false},
		{"gate explicitly false", &assignment.Ruleset{OnSubmit: boolPtr(false)}, false},
		{"gate explicitly true", &assignment.Ruleset{OnSubmit: boolPtr(true)}, true},
		{"gate absent", &assignment.Ruleset{}, true},
	}
	for _, tc := range cases {
		runner, out := testRunner(t, failTargets())
		report, err := runner.RunOnSubmit(tc.set, t.TempDir(), "Checking Assignment", false)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		ran := report != nil
		if ran != tc.wantRun {
			t.Fatalf("%s: ran=%t, want %t", tc.name, ran, tc.wantRun)
		}
		if ran != strings.Contains(out.String(), "Checking Assignment") {
			t.Fatalf("%s: title printing does not match gating", tc.name)
		}
	}
}

func TestRunSubmitPipeline_StopsAtFirstFatalStage(t *testing.T) {
	var executed []string
	runner, _ := testRunner(t, func(target, dir string) error {
		executed = append(executed, target)
		if target == "build" {
			return errors.New("exit status 2")
		}
		return nil
	})
	runner.Spec.Build = &assignment.Ruleset{Rules: []assignment.Rule{{Target: "build"}}}
	runner.Spec.Check = &assignment.Ruleset{Rules: []assignment.Rule{{Target: "check"}}}
	runner.Spec.Score = &assignment.Ruleset{Rules: []assignment.Rule{{Target: "score"}}}

	if runner.RunSubmitPipeline(t.TempDir()) {
		t.Fatalf("pipeline with a fatal build must report early stop")
	}
	if len(executed) != 1 || executed[0] != "build" {
		t.Fatalf("later stages must not run after a fatal build, ran %v", executed)
	}
}

func TestRunGradePipeline_GradeRunsDespiteSkippedStages(t *testing.T) {
	var executed []string
	runner, _ := testRunner(t, func(target, dir string) error {
		executed = append(executed, target)
		return nil
	})
	runner.Spec.Check = &assignment.Ruleset{
		OnGrade: boolPtr(false),
		Rules:   []assignment.Rule{{Target: "check"}},
	}
	runner.Spec.Grade = &assignment.Ruleset{Rules: []assignment.Rule{{Target: "grade"}}}

	if !runner.RunGradePipeline(t.TempDir()) {
		t.Fatalf("pipeline should complete")
	}
	if len(executed) != 1 || executed[0] != "grade" {
		t.Fatalf("grade must run even when check is gated off, ran %v", executed)
	}
}

func TestRunGradePipeline_FatalScoreStopsGrade(t *testing.T) {
	var executed []string
	runner, _ := testRunner(t, func(target, dir string) error {
		executed = append(executed, target)
		if target == "score" {
			return errors.New("exit status 2")
		}
		return nil
	})
	runner.Spec.Score = &assignment.Ruleset{Rules: []assignment.Rule{{Target: "score"}}}
	runner.Spec.Grade = &assignment.Ruleset{Rules: []assignment.Rule{{Target: "grade"}}}

	if runner.RunGradePipeline(t.TempDir()) {
		t.Fatalf("pipeline with a fatal score must report early stop")
	}
	for _, target := range executed {
		if target == "grade" {
			t.Fatalf("grade must not run after a fatal score")
		}
	}
}

func TestRunRule_ResetsArtifactPermissions(t *testing.T) {
	workDir := t.TempDir()
	artifact := filepath.Join(workDir, "compile")
	if err := os.WriteFile(artifact, []byte("bin"), 0o600); err != nil {
		t.Fatalf("writing artifact: %v", err)
	}

	runner, _ := testRunner(t, failTargets())
	rule := &assignment.Rule{Target: "compile"}
	passed, err := runner.RunRule(rule, false, workDir)
	if err != nil || !passed {
		t.Fatalf("expected pass, got passed=%t err=%v", passed, err)
	}

	info, err := os.Stat(artifact)
	if err != nil {
		t.Fatalf("stat artifact: %v", err)
	}
	if info.Mode().Perm() != 0o644 {
		t.Fatalf("artifact mode = %o, want 644", info.Mode().Perm())
	}
}
