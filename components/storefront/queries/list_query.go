package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	storefront "github.com/goliatone/go-storefront/components/storefront"
)

// ListPageInput selects the page to render. Zero values keep the current
// page and size; Reload refetches the collection first.
type ListPageInput struct {
	Page     int
	PageSize int
	Reload   bool
}

type listService interface {
	Load(ctx context.Context) error
	SetPageSize(size int) error
	SetPage(page int)
	Snapshot() storefront.ListSnapshot
}

// ListPageQuery resolves one page of a client-side paginated list.
type ListPageQuery struct {
	service listService
}

// NewListPageQuery builds the query.
func NewListPageQuery(service listService) *ListPageQuery {
	return &ListPageQuery{service: service}
}

var _ gocommand.Querier[ListPageInput, storefront.ListSnapshot] = (*ListPageQuery)(nil)

// Query returns the snapshot for the requested page. Load failures are
// reflected in the snapshot's Error rather than returned.
func (q *ListPageQuery) Query(ctx context.Context, input ListPageInput) (storefront.ListSnapshot, error) {
	if input.Reload {
		_ = q.service.Load(ctx)
	}
	if input.PageSize > 0 {
		if err := q.service.SetPageSize(input.PageSize); err != nil {
			return storefront.ListSnapshot{}, err
		}
	}
	if input.Page > 0 {
		q.service.SetPage(input.Page)
	}
	return q.service.Snapshot(), nil
}
