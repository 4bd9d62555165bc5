package stats

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/classtools/asgn/internal/apperr"
	"github.com/classtools/asgn/internal/assignment"
)

type rankRow struct {
	username string
	cells    []string
	key      *float64
}

// Rank builds one output row per member with every metric column of
// the given rules, sorted by the chosen metric. Members or values
// without data render as NONE and sort after present values; equal and
// doubly-missing pairs order by username, so the output never depends
// on how the membership list happens to be ordered.
func Rank(set *BlockSet, members []string, metricRules []assignment.Rule, sortKey string, descending bool) ([][]string, error) {
	keyFound := false
	for _, rule := range metricRules {
		if rule.Target == sortKey {
			keyFound = true
			break
		}
	}
	if !keyFound {
		return nil, apperr.Custom(
			fmt.Sprintf("Metric '%s' is not produced by this assignment's score rules.", sortKey),
			apperr.MaybeContactInstructor)
	}

	rows := make([]rankRow, 0, len(members))
	for _, member := range members {
		row := rankRow{username: member}
		block := set.Get(member)
		for _, rule := range metricRules {
			var value any
			present := false
			if block != nil {
				value, present = block.Scores[rule.Target]
			}
			if !present {
				row.cells = append(row.cells, "NONE")
				continue
			}
			row.cells = append(row.cells, formatScore(value))
			if rule.Target == sortKey {
				if key, ok := scoreAsFloat(value); ok {
					row.key = &key
				}
			}
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i].key, rows[j].key
		switch {
		case a != nil && b != nil && *a != *b:
			if descending {
				return *a > *b
			}
			return *a < *b
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		default:
			return rows[i].username < rows[j].username
		}
	})

	out := make([][]string, 0, len(rows)+1)
	header := make([]string, 0, len(metricRules)+1)
	header = append(header, "USER")
	for _, rule := range metricRules {
		header = append(header, rule.Target)
	}
	out = append(out, header)
	for _, row := range rows {
		out = append(out, append([]string{row.username}, row.cells...))
	}
	return out, nil
}

// scoreAsFloat projects a typed score onto a single comparable axis.
// Bools order false before true.
func scoreAsFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

func formatScore(value any) string {
	switch v := value.(type) {
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
