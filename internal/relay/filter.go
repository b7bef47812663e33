package relay

import "encoding/json"

// Filter selects which events a subscription delivers. Tags maps a
// single-letter tag key to accepted values and serializes as "#<key>".
type Filter struct {
	Authors []string
	Kinds   []int
	Since   int64
	Limit   int
	Tags    map[string][]string
}

func (f Filter) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, 4+len(f.Tags))
	if len(f.Authors) > 0 {
		m["authors"] = f.Authors
	}
	if len(f.Kinds) > 0 {
		m["kinds"] = f.Kinds
	}
	if f.Since > 0 {
		m["since"] = f.Since
	}
	if f.Limit > 0 {
		m["limit"] = f.Limit
	}
	for key, values := range f.Tags {
		m["#"+key] = values
	}
	return json.Marshal(m)
}
