package stats

import (
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("category", "stats")

// Snapshots taken within this window of the live turn-in time are
// treated as current, absorbing filesystem timestamp jitter.
const staleTolerance = time.Second

// Refresher rebuilds score snapshots for an assignment. All three
// collaborators are injected functions so refresh logic can be tested
// without a course tree or a build system.
type Refresher struct {
	// TurnInTime reports a member's live submission time, nil when
	// they have not submitted.
	TurnInTime func(username string) (*time.Time, error)
	// Retrieve copies a member's submission into a scratch directory.
	Retrieve func(dstDir, username string) error
	// Score builds and scores a retrieved submission, returning the
	// harvested metrics. Build failures do not stop scoring.
	Score func(buildDir string) (map[string]any, error)
}

// Latest produces a member's up-to-date block: the cached one when its
// recorded time is within tolerance of the live turn-in time, a fresh
// capture otherwise, or nil when there is no submission.
func (r *Refresher) Latest(old *BlockSet, username, buildRoot string) (*Block, error) {
	turnInTime, err := r.TurnInTime(username)
	if err != nil {
		return nil, err
	}
	if turnInTime == nil {
		return nil, nil
	}

	if cached := old.Get(username); cached != nil {
		if turnInTime.Sub(cached.Time) <= staleTolerance {
			color.New(color.FgYellow, color.Bold).Printf("%s is already up-to-date.\n", username)
			return cached, nil
		}
	}

	buildDir := filepath.Join(buildRoot, username)
	if err := r.Retrieve(buildDir, username); err != nil {
		return nil, err
	}
	scores, err := r.Score(buildDir)
	if err != nil {
		return nil, err
	}

	return &Block{
		Username: username,
		Time:     *turnInTime,
		Scores:   scores,
	}, nil
}

// Refresh walks the membership and collects the latest block for each
// member. Members without submissions are reported and skipped, never
// recorded as zero scores; individual failures are logged and skipped
// so one broken submission cannot block the rest.
func (r *Refresher) Refresh(old *BlockSet, members []string, buildRoot string) *BlockSet {
	fresh := &BlockSet{}
	for _, member := range members {
		block, err := r.Latest(old, member, buildRoot)
		if err != nil {
			log.Warnf("skipping %s: %v", member, err)
			continue
		}
		if block == nil {
			color.New(color.FgYellow, color.Bold).Printf("%s has no submission.\n", member)
			continue
		}
		fresh.Blocks = append(fresh.Blocks, *block)
	}
	return fresh
}
