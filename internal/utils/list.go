package utils

import (
	"bytes"
	"encoding/json"
)

// List decodes a backend collection that is either a plain JSON array or a
// paginated {"count", "next", "previous", "results"} object.
type List[T any] struct {
	Count    int    `json:"count"`
	Next     string `json:"next,omitempty"`
	Previous string `json:"previous,omitempty"`
	Results  []T    `json:"results"`
}

// listPage has List's fields without its UnmarshalJSON
type listPage[T any] List[T]

func (l *List[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*l = List[T]{Count: len(items), Results: items}
		return nil
	}

	var p listPage[T]
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*l = List[T](p)
	return nil
}
