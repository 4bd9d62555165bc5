package rules

// ScoreMap holds harvested metric values keyed by rule target, in the
// order the targets first produced a value. A later rule with the same
// target overwrites the value but keeps the original position.
type ScoreMap struct {
	keys []string
	vals map[string]any
}

func NewScoreMap() *ScoreMap {
	return &ScoreMap{vals: make(map[string]any)}
}

func (m *ScoreMap) Set(key string, value any) {
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = value
}

func (m *ScoreMap) Get(key string) (any, bool) {
	value, ok := m.vals[key]
	return value, ok
}

func (m *ScoreMap) Keys() []string {
	return m.keys
}

func (m *ScoreMap) Len() int {
	return len(m.keys)
}

// AsMap flattens to a plain map for TOML persistence.
func (m *ScoreMap) AsMap() map[string]any {
	flat := make(map[string]any, len(m.vals))
	for key, value := range m.vals {
		flat[key] = value
	}
	return flat
}
