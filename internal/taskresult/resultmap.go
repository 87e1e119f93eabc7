package taskresult

import (
	"encoding/json"
	"fmt"

	"github.com/aristath/dagsched/internal/graph"
)

// Map is an insertion-ordered mapping from task ID to an arbitrary value,
// used for both the final result map and the "costs" sidecar map. A plain
// Go map cannot serve this role directly: task IDs may be graph.Tuple
// values, which are slices and therefore not comparable, so Map keys
// internally by graph.Key(id) the same way internal/graph.Graph does.
type Map struct {
	order []string
	ids   map[string]graph.ID
	vals  map[string]any
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{ids: make(map[string]graph.ID), vals: make(map[string]any)}
}

// Set stores v under id, preserving the first-insertion position of id in
// iteration order if id was already present.
func (m *Map) Set(id graph.ID, v any) {
	k := graph.Key(id)
	if _, exists := m.vals[k]; !exists {
		m.order = append(m.order, k)
	}
	m.ids[k] = id
	m.vals[k] = v
}

// Get returns the value stored under id, if any.
func (m *Map) Get(id graph.ID) (any, bool) {
	v, ok := m.vals[graph.Key(id)]
	return v, ok
}

// Has reports whether id is present in the map.
func (m *Map) Has(id graph.ID) bool {
	_, ok := m.vals[graph.Key(id)]
	return ok
}

// IDs returns every key in insertion order.
func (m *Map) IDs() []graph.ID {
	ids := make([]graph.ID, 0, len(m.order))
	for _, k := range m.order {
		ids = append(ids, m.ids[k])
	}
	return ids
}

// Len returns the number of entries in the map.
func (m *Map) Len() int { return len(m.vals) }

// MarshalJSON renders Map as a JSON object keyed by each ID's string
// rendering. Map's fields are otherwise unexported, so without this it
// would marshal as "{}" wherever a Map (e.g. the "costs" sidecar) is
// embedded inside another JSON value.
func (m *Map) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.order))
	for _, k := range m.order {
		out[fmt.Sprint(m.ids[k])] = m.vals[k]
	}
	return json.Marshal(out)
}
