package stats

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

type fakeCollaborators struct {
	turnIn    map[string]time.Time
	retrieved []string
	scored    []string
	scoreErr  error
}

func (f *fakeCollaborators) refresher() *Refresher {
	return &Refresher{
		TurnInTime: func(username string) (*time.Time, error) {
			when, ok := f.turnIn[username]
			if !ok {
				return nil, nil
			}
			return &when, nil
		},
		Retrieve: func(dstDir, username string) error {
			f.retrieved = append(f.retrieved, username)
			return nil
		},
		Score: func(buildDir string) (map[string]any, error) {
			f.scored = append(f.scored, filepath.Base(buildDir))
			if f.scoreErr != nil {
				return nil, f.scoreErr
			}
			return map[string]any{"test_count": int64(1)}, nil
		},
	}
}

func TestLatestNoSubmission(t *testing.T) {
	fake := &fakeCollaborators{}
	block, err := fake.refresher().Latest(&BlockSet{}, "alice", t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if block != nil {
		t.Fatalf("no submission must yield no block, got %+v", block)
	}
	if len(fake.retrieved) != 0 {
		t.Fatalf("nothing should be retrieved without a submission")
	}
}

func TestLatestReusesCurrentSnapshot(t *testing.T) {
	turnIn := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.Local)
	fake := &fakeCollaborators{turnIn: map[string]time.Time{"alice": turnIn}}
	old := blockSet(Block{
		Username: "alice",
		Time:     turnIn,
		Scores:   map[string]any{"test_count": int64(9)},
	})

	block, err := fake.refresher().Latest(old, "alice", t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if block.Scores["test_count"] != int64(9) {
		t.Fatalf("current snapshot must be reused, got %+v", block)
	}
	if len(fake.retrieved) != 0 || len(fake.scored) != 0 {
		t.Fatalf("a current snapshot must not trigger a rebuild")
	}
}

func TestLatestToleratesTimestampJitter(t *testing.T) {
	turnIn := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.Local)
	fake := &fakeCollaborators{turnIn: map[string]time.Time{"alice": turnIn}}
	old := blockSet(Block{
		Username: "alice",
		Time:     turnIn.Add(-500 * time.Millisecond),
		Scores:   map[string]any{"test_count": int64(9)},
	})

	block, err := fake.refresher().Latest(old, "alice", t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fake.scored) != 0 {
		t.Fatalf("sub-second drift must not trigger a rebuild")
	}
	if block.Scores["test_count"] != int64(9) {
		t.Fatalf("expected the cached block, got %+v", block)
	}
}

func TestLatestRebuildsStaleSnapshot(t *testing.T) {
	turnIn := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.Local)
	fake := &fakeCollaborators{turnIn: map[string]time.Time{"alice": turnIn}}
	old := blockSet(Block{
		Username: "alice",
		Time:     turnIn.Add(-time.Hour),
		Scores:   map[string]any{"test_count": int64(9)},
	})

	block, err := fake.refresher().Latest(old, "alice", t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fake.retrieved) != 1 || fake.retrieved[0] != "alice" {
		t.Fatalf("stale snapshot must retrieve the submission, got %v", fake.retrieved)
	}
	if len(fake.scored) != 1 || fake.scored[0] != "alice" {
		t.Fatalf("stale snapshot must rescore in the member's build dir, got %v", fake.scored)
	}
	if block.Scores["test_count"] != int64(1) || !block.Time.Equal(turnIn) {
		t.Fatalf("fresh block mismatch: %+v", block)
	}
}

func TestRefreshSkipsAbsentAndBrokenMembers(t *testing.T) {
	turnIn := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.Local)
	fake := &fakeCollaborators{
		turnIn: map[string]time.Time{
			"alice": turnIn,
			"bob":   turnIn,
		},
	}
	refresher := fake.refresher()
	baseScore := refresher.Score
	refresher.Score = func(buildDir string) (map[string]any, error) {
		if filepath.Base(buildDir) == "bob" {
			return nil, errors.New("build exploded")
		}
		return baseScore(buildDir)
	}

	fresh := refresher.Refresh(&BlockSet{}, []string{"alice", "bob", "carol"}, t.TempDir())
	if len(fresh.Blocks) != 1 || fresh.Blocks[0].Username != "alice" {
		t.Fatalf("only alice should be recorded, got %+v", fresh.Blocks)
	}
	if fresh.Get("carol") != nil {
		t.Fatalf("a member without a submission must never get a zero-score block")
	}
}

func TestBlockSetLoadMissingFile(t *testing.T) {
	set, err := Load(filepath.Join(t.TempDir(), "score.toml"))
	if err != nil {
		t.Fatalf("missing snapshot must load as empty: %v", err)
	}
	if len(set.Blocks) != 0 {
		t.Fatalf("expected empty set, got %+v", set.Blocks)
	}
}

func TestBlockSetSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "score.toml")
	set := blockSet(Block{
		Username: "alice",
		Time:     time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC),
		Scores:   map[string]any{"test_count": int64(7), "passed_style": true},
	})
	if err := set.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	block := loaded.Get("alice")
	if block == nil {
		t.Fatalf("alice's block did not survive")
	}
	if block.Scores["test_count"] != int64(7) || block.Scores["passed_style"] != true {
		t.Fatalf("scores did not survive: %+v", block.Scores)
	}
	if !block.Time.Equal(set.Blocks[0].Time) {
		t.Fatalf("time did not survive: %v", block.Time)
	}
}
