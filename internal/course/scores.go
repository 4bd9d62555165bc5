package course

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/classtools/asgn/internal/apperr"
	"github.com/classtools/asgn/internal/rules"
	"github.com/classtools/asgn/internal/stats"
)

// UpdateScores refreshes the published score snapshot for one
// assignment from the current submissions. Each stale member is
// rebuilt in a scratch directory: Build runs first and its outcome is
// ignored, then Score harvests metrics. A fatal Score run records an
// empty score set rather than failing the refresh.
func (c *Context) UpdateScores(asgnName string) error {
	spec, err := c.SpecOf(asgnName)
	if err != nil {
		return err
	}

	old, err := stats.Load(spec.ScorePath())
	if err != nil {
		return err
	}

	buildRoot := filepath.Join(spec.InfoDir(), ".internal", "score_build", uuid.NewString())
	if err := os.MkdirAll(buildRoot, 0o700); err != nil {
		return apperr.IO("Creating scratch build directory", buildRoot, err)
	}
	defer os.RemoveAll(buildRoot)

	refresher := &stats.Refresher{
		TurnInTime: func(username string) (*time.Time, error) {
			status, err := c.Slot(spec, username).Status()
			if err != nil {
				return nil, err
			}
			return status.TurnInTime, nil
		},
		Retrieve: spec.RetrieveSubmission,
		Score: func(buildDir string) (map[string]any, error) {
			runner := rules.NewRunner(spec, c.BasePath, c.Role() < RoleGrader, c.Cfg.MakeCommand)
			runner.RunRuleset(spec.Build, buildDir, false)

			report, err := runner.RunRuleset(spec.Score, buildDir, true)
			if err != nil {
				if errors.Is(err, rules.ErrFatal) {
					return map[string]any{}, nil
				}
				return nil, err
			}
			return report.Metrics.AsMap(), nil
		},
	}

	fresh := refresher.Refresh(old, c.Students, buildRoot)
	return fresh.Save(spec.ScorePath())
}

// UpdateAllScores refreshes every loadable assignment, accumulating
// failures instead of stopping at the first.
func (c *Context) UpdateAllScores() error {
	var errLog apperr.Log
	for _, name := range c.Manifest {
		entry, ok := c.Catalog[name]
		if !ok || entry.Err != nil {
			continue
		}
		errLog.Push(c.UpdateScores(name))
	}
	return errLog.Err()
}

// Rank renders the current score snapshot for an assignment sorted by
// one of its score metrics.
func (c *Context) Rank(asgnName, metric string, descending bool) ([][]string, error) {
	spec, err := c.SpecOf(asgnName)
	if err != nil {
		return nil, err
	}
	if spec.Score == nil {
		return nil, apperr.Custom(
			"This assignment has no score rules.",
			apperr.MaybeContactInstructor)
	}

	set, err := stats.Load(spec.ScorePath())
	if err != nil {
		return nil, err
	}
	return stats.Rank(set, c.Students, spec.Score.MetricRules(), metric, descending)
}
