package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	storefront "github.com/goliatone/go-storefront/components/storefront"
)

type bannerService interface {
	Fetch(ctx context.Context) (storefront.BannerView, error)
}

// BannerQuery returns the promotional banner view, fetching it on first use.
type BannerQuery struct {
	service bannerService
}

// NewBannerQuery builds the query.
func NewBannerQuery(service bannerService) *BannerQuery {
	return &BannerQuery{service: service}
}

var _ gocommand.Querier[struct{}, storefront.BannerView] = (*BannerQuery)(nil)

// Query fetches (once) and returns the current banner view.
func (q *BannerQuery) Query(ctx context.Context, _ struct{}) (storefront.BannerView, error) {
	return q.service.Fetch(ctx)
}
