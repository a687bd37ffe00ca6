package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	storefront "github.com/goliatone/go-storefront/components/storefront"
)

// SelectorOptionsInput carries the params the reference list is filtered by.
type SelectorOptionsInput struct {
	Params storefront.Params
}

type selectorService interface {
	Refresh(ctx context.Context, params storefront.Params) (bool, error)
	Options() []storefront.Option
}

// SelectorOptionsQuery refreshes a selector and returns its options.
type SelectorOptionsQuery struct {
	service selectorService
}

// NewSelectorOptionsQuery builds the query.
func NewSelectorOptionsQuery(service selectorService) *SelectorOptionsQuery {
	return &SelectorOptionsQuery{service: service}
}

var _ gocommand.Querier[SelectorOptionsInput, []storefront.Option] = (*SelectorOptionsQuery)(nil)

// Query refetches only when params changed and returns the option list. On a
// failed fetch the options still include the error placeholder.
func (q *SelectorOptionsQuery) Query(ctx context.Context, input SelectorOptionsInput) ([]storefront.Option, error) {
	_, err := q.service.Refresh(ctx, input.Params)
	return q.service.Options(), err
}
