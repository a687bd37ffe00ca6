package storefront

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Option is one entry of a choice control.
type Option struct {
	Value    string
	Label    string
	Disabled bool
	// Custom marks caller-supplied options that do not come from the backend.
	Custom   bool
	Record   Record
}

// SelectorMessages are the placeholder texts shown while loading or after a failure.
type SelectorMessages struct {
	Placeholder string
	Loading     string
	LoadFailed  string
	ErrorHint   string
}

func (m SelectorMessages) withDefaults() SelectorMessages {
	if m.Placeholder == "" {
		m.Placeholder = "Seleccione una categoría"
	}
	if m.Loading == "" {
		m.Loading = "Cargando categorías…"
	}
	if m.LoadFailed == "" {
		m.LoadFailed = "Error al cargar"
	}
	if m.ErrorHint == "" {
		m.ErrorHint = "No se pudo cargar categorías."
	}
	return m
}

// SelectorOptions configures a reference-list selector.
type SelectorOptions struct {
	// Resource names the reference list; it scopes the shared cache key.
	Resource string
	Source   Lister
	Params   Params
	Multiple bool
	Required bool
	Disabled bool
	Extra    []Option
	Label    func(Record) string
	Value    func(Record) string
	Messages SelectorMessages
	Cache    *ReferenceCache

	OnChange      func(value *string)
	OnChangeMulti func(values []string)
	Logger        *slog.Logger
}

// Selector populates a single or multiple choice control from a backend list.
type Selector struct {
	mu       sync.Mutex
	opts     SelectorOptions
	messages SelectorMessages
	label    func(Record) string
	value    func(Record) string
	logger   *slog.Logger

	items    []Record
	loading  bool
	err      error
	fetched  bool
	paramKey string
	seq      uint64
	selected []string
}

// NewSelector builds a selector. Call Refresh to fetch its options.
func NewSelector(opts SelectorOptions) *Selector {
	label := opts.Label
	if label == nil {
		label = DefaultOptionLabel
	}
	value := opts.Value
	if value == nil {
		value = DefaultOptionValue
	}
	return &Selector{
		opts:     opts,
		messages: opts.Messages.withDefaults(),
		label:    label,
		value:    value,
		logger:   normalizeLogger(opts.Logger),
	}
}

// Refresh fetches the list when params differ by value from the last fetch.
// It reports whether a fetch was issued.
func (s *Selector) Refresh(ctx context.Context, params Params) (bool, error) {
	if params == nil {
		params = s.opts.Params
	}
	key := params.Key()

	s.mu.Lock()
	if s.fetched && key == s.paramKey {
		s.mu.Unlock()
		return false, nil
	}
	if s.opts.Source == nil {
		s.mu.Unlock()
		return false, ErrNoClient
	}
	s.fetched = true
	s.paramKey = key
	s.loading = true
	s.err = nil
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	fetch := func() ([]Record, error) {
		collection, err := s.opts.Source.List(ctx, params.Clone())
		if err != nil {
			return nil, err
		}
		return collection.Items, nil
	}
	var (
		items []Record
		err   error
	)
	if s.opts.Cache != nil {
		items, err = s.opts.Cache.GetOrFetch(ReferenceKey(s.opts.Resource, params), fetch)
	} else {
		items, err = fetch()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return true, nil
	}
	s.loading = false
	if err != nil {
		s.err = err
		s.logger.Warn("reference list fetch failed",
			slog.String("resource", s.opts.Resource),
			slog.Any("error", err),
		)
		return true, fmt.Errorf("storefront: load %s options: %w", s.opts.Resource, err)
	}
	s.items = items
	return true, nil
}

// Loading reports whether a fetch is in flight.
func (s *Selector) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the last fetch error.
func (s *Selector) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// ErrorHint is the inline message shown under a control whose list failed.
func (s *Selector) ErrorHint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		return ""
	}
	return s.messages.ErrorHint
}

// Disabled reports whether the control should reject input.
func (s *Selector) Disabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opts.Disabled || s.loading
}

// Options returns the rendered option list: the placeholder (single mode
// only), the extra options and then the fetched items.
func (s *Selector) Options() []Option {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Option, 0, len(s.opts.Extra)+len(s.items)+1)
	if !s.opts.Multiple {
		label := s.messages.Placeholder
		switch {
		case s.loading:
			label = s.messages.Loading
		case s.err != nil:
			label = s.messages.LoadFailed
		}
		hasValue := len(s.selected) > 0 && s.selected[0] != ""
		out = append(out, Option{Value: "", Label: label, Disabled: s.opts.Required && hasValue})
	}
	for _, extra := range s.opts.Extra {
		extra.Custom = true
		out = append(out, extra)
	}
	for _, item := range s.items {
		out = append(out, Option{Value: s.value(item), Label: s.label(item), Record: item})
	}
	return out
}

// SetValue sets the controlled value. Single mode accepts a scalar and
// multiple mode a slice; both are normalized to strings.
func (s *Selector) SetValue(value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.opts.Multiple {
		s.selected = NormalizeValues(value)
		return
	}
	s.selected = []string{NormalizeValue(value)}
}

// Value returns the normalized controlled value for single mode.
func (s *Selector) Value() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.selected) == 0 {
		return ""
	}
	return s.selected[0]
}

// Values returns the normalized controlled values for multiple mode.
func (s *Selector) Values() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.selected...)
}

// SelectSingle handles a single-mode choice. Choosing the placeholder ("")
// reports nil to the consumer.
func (s *Selector) SelectSingle(value string) *string {
	s.mu.Lock()
	s.selected = []string{value}
	cb := s.opts.OnChange
	s.mu.Unlock()

	var out *string
	if value != "" {
		v := value
		out = &v
	}
	if cb != nil {
		cb(out)
	}
	return out
}

// SelectMultiple handles a multiple-mode choice.
func (s *Selector) SelectMultiple(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)

	s.mu.Lock()
	s.selected = append([]string(nil), out...)
	cb := s.opts.OnChangeMulti
	s.mu.Unlock()

	if cb != nil {
		cb(out)
	}
	return out
}

// NormalizeValue converts a controlled single value to its string form. Nil
// becomes "".
func NormalizeValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case *string:
		if v == nil {
			return ""
		}
		return *v
	}
	return stringify(value)
}

// NormalizeValues converts a controlled multiple value. Non-slices become an
// empty selection and nil elements become "".
func NormalizeValues(value any) []string {
	switch v := value.(type) {
	case []string:
		return append([]string{}, v...)
	case []any:
		out := make([]string, len(v))
		for i, item := range v {
			out[i] = NormalizeValue(item)
		}
		return out
	case []int:
		out := make([]string, len(v))
		for i, item := range v {
			out[i] = stringify(item)
		}
		return out
	case []int64:
		out := make([]string, len(v))
		for i, item := range v {
			out[i] = stringify(item)
		}
		return out
	}
	return []string{}
}

// DefaultOptionLabel uses nombre, name, titulo or title, falling back to #id.
func DefaultOptionLabel(item Record) string {
	for _, field := range []string{"nombre", "name", "titulo", "title"} {
		if value, ok := item[field]; ok && value != nil {
			return stringify(value)
		}
	}
	id, _ := item.ID("id")
	if id == "" {
		id = "undefined"
	}
	return "#" + id
}

// DefaultOptionValue uses categoria_id, id or pk.
func DefaultOptionValue(item Record) string {
	for _, field := range []string{"categoria_id", "id", "pk"} {
		if value, ok := item[field]; ok && value != nil {
			return stringify(value)
		}
	}
	return ""
}
