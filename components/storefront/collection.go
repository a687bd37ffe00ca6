package storefront

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CollectionShape records which wire shape a collection was decoded from.
type CollectionShape int

const (
	// ShapeArray is a bare JSON array of records.
	ShapeArray CollectionShape = iota
	// ShapeEnvelope is a paginated object carrying a results array.
	ShapeEnvelope
)

// Collection is the canonical list payload. Both wire shapes decode into it
// so list consumers never see the ambiguity.
type Collection struct {
	Items    []Record
	Shape    CollectionShape
	Count    int
	Next     string
	Previous string
}

type collectionEnvelope struct {
	Count    *int     `json:"count"`
	Next     *string  `json:"next"`
	Previous *string  `json:"previous"`
	Results  []Record `json:"results"`
}

// UnmarshalJSON accepts either `[...]` or `{"results": [...]}`. Numbers are
// kept as json.Number so identifiers round-trip exactly.
func (c *Collection) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*c = Collection{Items: []Record{}}
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	switch trimmed[0] {
	case '[':
		var items []Record
		if err := dec.Decode(&items); err != nil {
			return fmt.Errorf("storefront: decode collection array: %w", err)
		}
		*c = NewCollection(items)
		return nil
	case '{':
		var env collectionEnvelope
		if err := dec.Decode(&env); err != nil {
			return fmt.Errorf("storefront: decode collection envelope: %w", err)
		}
		out := NewCollection(env.Results)
		out.Shape = ShapeEnvelope
		if env.Count != nil {
			out.Count = *env.Count
		}
		if env.Next != nil {
			out.Next = *env.Next
		}
		if env.Previous != nil {
			out.Previous = *env.Previous
		}
		*c = out
		return nil
	}
	return fmt.Errorf("storefront: unsupported collection payload starting with %q", trimmed[0])
}

// NewCollection wraps records as a bare-array collection.
func NewCollection(items []Record) Collection {
	if items == nil {
		items = []Record{}
	}
	return Collection{Items: items, Shape: ShapeArray, Count: len(items)}
}

// DecodeCollection decodes a raw list response body.
func DecodeCollection(data []byte) (Collection, error) {
	var c Collection
	if err := c.UnmarshalJSON(data); err != nil {
		return Collection{}, err
	}
	return c, nil
}
