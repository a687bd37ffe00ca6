package storefront

import (
	"context"
	"encoding/json"
	"net/url"
	"sort"
)

// Lister fetches a reference or admin collection.
type Lister interface {
	List(ctx context.Context, params Params) (Collection, error)
}

// ResourceClient is the CRUD surface for a single backend entity type.
// Implementations live in pkg/api; tests use in-memory fakes.
type ResourceClient interface {
	Lister
	Retrieve(ctx context.Context, id string) (Record, error)
	Create(ctx context.Context, payload any) (Record, error)
	Update(ctx context.Context, id string, payload any) (Record, error)
	PartialUpdate(ctx context.Context, id string, patch map[string]any) (Record, error)
	Remove(ctx context.Context, id string) error
}

// Exporter downloads a spreadsheet export for a resource.
type Exporter interface {
	Export(ctx context.Context, params Params) ([]byte, error)
}

// BannerSource returns the latest active promotional banner, or nil when none.
type BannerSource interface {
	LatestBanner(ctx context.Context) (*Banner, error)
}

// Params are query parameters sent to list/export endpoints.
type Params map[string]string

// Values converts params into url.Values, skipping empty values.
func (p Params) Values() url.Values {
	if len(p) == 0 {
		return nil
	}
	values := url.Values{}
	for key, value := range p {
		if value == "" {
			continue
		}
		values.Set(key, value)
	}
	return values
}

// Key returns a canonical serialization used to compare params by value.
func (p Params) Key() string {
	if len(p) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(p))
	for key := range p {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	ordered := make([][2]string, 0, len(keys))
	for _, key := range keys {
		ordered = append(ordered, [2]string{key, p[key]})
	}
	data, err := json.Marshal(ordered)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// Clone returns a shallow copy of the params.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	for key, value := range p {
		out[key] = value
	}
	return out
}
