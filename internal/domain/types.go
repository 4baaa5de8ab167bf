package domain

import (
	"database/sql/driver"
	"encoding/json"
)

type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	return json.Marshal(s)
}

func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return nil
	}

	if len(data) == 0 || string(data) == "null" {
		*s = nil
		return nil
	}

	return json.Unmarshal(data, s)
}

// SourceCounts records the play count each source has reported for a taste
// record. Re-reads of the same source take the larger value; the aggregate
// play count is the sum across distinct sources.
type SourceCounts map[string]int

func (s SourceCounts) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "{}", nil
	}
	return json.Marshal(s)
}

func (s *SourceCounts) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return nil
	}

	if len(data) == 0 || string(data) == "null" {
		*s = nil
		return nil
	}

	return json.Unmarshal(data, s)
}

// Observe merges a count reported by a source. The same source reporting a
// smaller count than before is a no-op; a larger count wins outright.
func (s SourceCounts) Observe(source string, count int) {
	if count < 0 {
		count = 0
	}
	if existing, ok := s[source]; !ok || count > existing {
		s[source] = count
	}
}

// Total sums the per-source counts.
func (s SourceCounts) Total() int {
	total := 0
	for _, c := range s {
		total += c
	}
	return total
}

// Names lists the contributing sources.
func (s SourceCounts) Names() []string {
	out := make([]string, 0, len(s))
	for name := range s {
		out = append(out, name)
	}
	return out
}
