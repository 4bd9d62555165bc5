package stats

import (
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/classtools/asgn/internal/apperr"
)

// Block is one student's captured score snapshot: the submission time
// it was taken against, and the harvested metric values.
type Block struct {
	Username string         `toml:"username"`
	Time     time.Time      `toml:"time"`
	Scores   map[string]any `toml:"scores"`
}

// BlockSet is the per-assignment snapshot cache, persisted wholesale
// to .info/score.toml on every refresh.
type BlockSet struct {
	Blocks []Block `toml:"stat_block,omitempty"`
}

// Get returns the first block recorded for a username. The list is
// classroom-scale, so a linear scan is intentional.
func (s *BlockSet) Get(username string) *Block {
	for i := range s.Blocks {
		if s.Blocks[i].Username == username {
			return &s.Blocks[i]
		}
	}
	return nil
}

// Load reads a block set; a missing file is an empty set.
func Load(path string) (*BlockSet, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &BlockSet{}, nil
		}
		return nil, apperr.IO("Reading score snapshot", path, err)
	}

	var set BlockSet
	if err := toml.Unmarshal(text, &set); err != nil {
		return nil, apperr.IO("Deserializing score snapshot", path, err)
	}
	return &set, nil
}

// Save rewrites a block set wholesale.
func (s *BlockSet) Save(path string) error {
	text, err := toml.Marshal(s)
	if err != nil {
		return apperr.IO("Serializing score snapshot", path, err)
	}
	if err := os.WriteFile(path, text, 0o644); err != nil {
		return apperr.IO("Writing score snapshot", path, err)
	}
	return nil
}
