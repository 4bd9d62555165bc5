package rules

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"github.com/classtools/asgn/internal/assignment"
)

// ErrFatal marks a rule failure that halts the remainder of its
// ruleset. Callers report it and keep the process exit normal.
var ErrFatal = errors.New("rule execution cannot continue")

// Mode applied to a rule's output artifact after it passes, so graders
// and later pipeline steps can read it.
const artifactMode = 0o644

var log = logrus.WithField("category", "rules")

// Report aggregates one ruleset run.
type Report struct {
	Total   int
	Passed  int
	Failed  int
	Metrics *ScoreMap
}

func (r *Report) NotReached() int {
	return r.Total - r.Passed - r.Failed
}

// Runner executes an assignment's rules inside a working directory by
// invoking the course build system, one target per rule. Exec is the
// sole seam: tests replace it, production uses the make invocation.
type Runner struct {
	Spec       *assignment.Spec
	CoursePath string
	Quiet      bool
	Make       string
	Exec       func(target, workDir string) error
	Out        io.Writer
}

func NewRunner(spec *assignment.Spec, coursePath string, quiet bool, makeCmd string) *Runner {
	runner := &Runner{
		Spec:       spec,
		CoursePath: coursePath,
		Quiet:      quiet,
		Make:       makeCmd,
		Out:        os.Stdout,
	}
	runner.Exec = runner.execMake
	return runner
}

// execMake runs `make <target>` against the assignment Makefile with
// the course variable set, inheriting stdio so a human watching a long
// build sees live progress.
func (r *Runner) execMake(target, workDir string) error {
	args := []string{}
	if r.Quiet {
		args = append(args, "--quiet")
	}
	args = append(args,
		"COURSE_PUBLIC="+filepath.Join(r.CoursePath, ".info", "public"),
		"COURSE_PRIVATE="+filepath.Join(r.CoursePath, ".info", "private"),
		"PUBLIC="+filepath.Join(r.Spec.InfoDir(), "public"),
		"PRIVATE="+filepath.Join(r.Spec.InfoDir(), "private"),
		"--file="+r.Spec.MakefilePath(),
		target,
	)

	cmd := exec.Command(r.Make, args...)
	cmd.Dir = workDir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// RunRule executes one rule. The returned bool reports whether the
// rule passed; a non-nil error is always ErrFatal and means the rest
// of the ruleset must not run.
func (r *Runner) RunRule(rule *assignment.Rule, failOkay bool, workDir string) (bool, error) {
	waitText := fmt.Sprintf("Executing '%s'.", rule.Target)
	if rule.WaitText != nil {
		waitText = *rule.WaitText
	}
	color.New(color.FgYellow, color.Bold).Fprintln(r.Out, waitText)

	err := r.Exec(rule.Target, workDir)
	if err == nil {
		passText := fmt.Sprintf("'%s' passed.", rule.Target)
		if rule.PassText != nil {
			passText = *rule.PassText
		}
		color.New(color.FgGreen).Fprintf(r.Out, "! %s\n", passText)

		artifact := filepath.Join(workDir, rule.Target)
		if info, statErr := os.Stat(artifact); statErr == nil && !info.IsDir() {
			if chmodErr := os.Chmod(artifact, artifactMode); chmodErr != nil {
				log.Warnf("could not reset permissions on %s: %v", artifact, chmodErr)
			}
		}
		return true, nil
	}

	failText := fmt.Sprintf("'%s' failed.", rule.Target)
	if rule.FailText != nil {
		failText = *rule.FailText
	}
	color.New(color.FgRed).Fprintf(r.Out, "! %s\n", failText)
	if rule.HelpText != nil {
		color.New(color.FgYellow).Fprintf(r.Out, "> %s\n", *rule.HelpText)
	}

	if failOkay {
		return false, nil
	}
	return false, ErrFatal
}

// RunRuleset executes every rule in declaration order, stopping at the
// first intolerable failure. The report is returned even alongside
// ErrFatal so callers can still see the counts. When wantMetrics is
// set, each passing metric rule's output file is parsed into the
// report's score map.
func (r *Runner) RunRuleset(set *assignment.Ruleset, workDir string, wantMetrics bool) (*Report, error) {
	report := &Report{Metrics: NewScoreMap()}

	if set == nil {
		color.New(color.FgYellow).Fprintln(r.Out, "No targets.")
		return report, nil
	}

	report.Total = len(set.Rules)
	fatal := false
	for i := range set.Rules {
		rule := &set.Rules[i]
		r.hline()

		passed, err := r.RunRule(rule, set.EffectiveFailOkay(rule), workDir)
		if err != nil {
			report.Failed++
			fatal = true
			break
		}
		if !passed {
			report.Failed++
			continue
		}
		report.Passed++

		if wantMetrics {
			if value, ok := r.harvestMetric(rule, workDir); ok {
				report.Metrics.Set(rule.Target, value)
			}
		}
	}

	if fatal {
		color.New(color.FgRed).Fprintln(r.Out, "! Execution cannot continue beyond this error.")
	}
	r.hline()
	fmt.Fprintf(r.Out, "! %d total targets - %d passed, %d failed, %d not reached.\n",
		report.Total, report.Passed, report.Failed, report.NotReached())

	if fatal {
		return report, ErrFatal
	}
	return report, nil
}

// harvestMetric reads and parses a passed rule's output file. Any
// problem is a warning, never a failure: the metric is simply absent.
func (r *Runner) harvestMetric(rule *assignment.Rule, workDir string) (any, bool) {
	if rule.Kind == nil {
		log.Warnf("metric for target '%s' has no kind; skipping", rule.Target)
		return nil, false
	}

	path := filepath.Join(workDir, rule.Target)
	text, err := os.ReadFile(path)
	if err != nil {
		log.Warnf("could not read metric output for target '%s': %v", rule.Target, err)
		return nil, false
	}

	value, err := ParseMetric(*rule.Kind, string(text))
	if err != nil {
		log.Warnf("could not parse metric output for target '%s' as %s: %v", rule.Target, *rule.Kind, err)
		return nil, false
	}
	return value, true
}

// ParseMetric converts a metric rule's output file contents to the
// typed value its kind names.
func ParseMetric(kind, contents string) (any, error) {
	trimmed := strings.TrimSpace(contents)
	switch kind {
	case assignment.MetricBool:
		return strconv.ParseBool(trimmed)
	case assignment.MetricInt:
		return strconv.ParseInt(trimmed, 10, 64)
	case assignment.MetricFloat:
		return strconv.ParseFloat(trimmed, 64)
	default:
		return nil, fmt.Errorf("unknown metric kind %q", kind)
	}
}

// runGated runs a ruleset under one of its gate flags. A nil ruleset
// or an explicitly false gate means nothing to do, reported as a nil
// report with no error.
func (r *Runner) runGated(set *assignment.Ruleset, gate *bool, workDir, title string, wantMetrics bool) (*Report, error) {
	if set == nil {
		return nil, nil
	}
	if gate != nil && !*gate {
		return nil, nil
	}

	r.boldHline()
	color.New(color.FgYellow, color.Bold).Fprintln(r.Out, title)
	return r.RunRuleset(set, workDir, wantMetrics)
}

func (r *Runner) RunOnSubmit(set *assignment.Ruleset, workDir, title string, wantMetrics bool) (*Report, error) {
	var gate *bool
	if set != nil {
		gate = set.OnSubmit
	}
	return r.runGated(set, gate, workDir, title, wantMetrics)
}

func (r *Runner) RunOnGrade(set *assignment.Ruleset, workDir, title string, wantMetrics bool) (*Report, error) {
	var gate *bool
	if set != nil {
		gate = set.OnGrade
	}
	return r.runGated(set, gate, workDir, title, wantMetrics)
}

// RunSubmitPipeline runs Build, Check, and Score under their on_submit
// gates, stopping at the first fatal stage. The return reports whether
// the pipeline ran to completion; a fatal stage is reported, not
// propagated, so the submit command still exits normally.
func (r *Runner) RunSubmitPipeline(workDir string) bool {
	stages := []struct {
		set   *assignment.Ruleset
		title string
	}{
		{r.Spec.Build, "Building Assignment"},
		{r.Spec.Check, "Checking Assignment"},
		{r.Spec.Score, "Scoring Assignment"},
	}

	for _, stage := range stages {
		if _, err := r.RunOnSubmit(stage.set, workDir, stage.title, false); err != nil {
			return false
		}
	}
	return true
}

// RunGradePipeline runs Check and Score under their on_grade gates and
// then Grade. Grade runs even when Check and Score were skipped by
// gating, but not when either of them was fatal.
func (r *Runner) RunGradePipeline(workDir string) bool {
	if _, err := r.RunOnGrade(r.Spec.Check, workDir, "Checking Assignment", false); err != nil {
		return false
	}
	if _, err := r.RunOnGrade(r.Spec.Score, workDir, "Scoring Assignment", false); err != nil {
		return false
	}
	_, err := r.RunOnGrade(r.Spec.Grade, workDir, "Grading Assignment", false)
	return err == nil
}

func (r *Runner) hline() {
	fmt.Fprintln(r.Out, strings.Repeat("-", 80))
}

func (r *Runner) boldHline() {
	fmt.Fprintln(r.Out, strings.Repeat("=", 80))
}
