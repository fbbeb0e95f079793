package shared

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
)

// Pair is a map entry that serializes as a two element JSON array, [key, value].
// Map-valued entities are persisted as lists of pairs.
type Pair[K cmp.Ordered, V any] struct {
	Key   K
	Value V
}

func (p Pair[K, V]) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{p.Key, p.Value})
}

func (p *Pair[K, V]) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("pair must be a JSON array: %w", err)
	}
	if len(raw) != 2 {
		return fmt.Errorf("pair must have exactly 2 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &p.Key); err != nil {
		return fmt.Errorf("failed to decode pair key: %w", err)
	}
	if err := json.Unmarshal(raw[1], &p.Value); err != nil {
		return fmt.Errorf("failed to decode pair value: %w", err)
	}
	return nil
}

// MapToPairs converts m into pairs sorted by key so the stored form is stable.
func MapToPairs[K cmp.Ordered, V any](m map[K]V) []Pair[K, V] {
	pairs := make([]Pair[K, V], 0, len(m))
	for k, v := range m {
		pairs = append(pairs, Pair[K, V]{Key: k, Value: v})
	}
	slices.SortFunc(pairs, func(a, b Pair[K, V]) int {
		return cmp.Compare(a.Key, b.Key)
	})
	return pairs
}

// PairsToMap converts pairs back into a map. Later duplicates win.
func PairsToMap[K cmp.Ordered, V any](pairs []Pair[K, V]) map[K]V {
	m := make(map[K]V, len(pairs))
	for _, p := range pairs {
		m[p.Key] = p.Value
	}
	return m
}
