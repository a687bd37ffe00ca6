// Package storefront re-exports the client-side state types so callers can
// depend on a stable import path.
package storefront

import (
	core "github.com/goliatone/go-storefront/components/storefront"
	"github.com/goliatone/go-storefront/pkg/api"
)

// List is the paginated, optimistically mutated admin list.
type List = core.List

// ListOptions configures a List.
type ListOptions = core.ListOptions

// BannerLifecycle drives the promotional banner.
type BannerLifecycle = core.BannerLifecycle

// BannerOptions configures a BannerLifecycle.
type BannerOptions = core.BannerOptions

// Selector is the reference-data dropdown.
type Selector = core.Selector

// SelectorOptions configures a Selector.
type SelectorOptions = core.SelectorOptions

// Session holds the authenticated user.
type Session = core.Session

// SessionOptions configures a Session.
type SessionOptions = core.SessionOptions

// Registry lists the known backend resources.
type Registry = core.Registry

// RegistryHook adds resources to a new Registry.
type RegistryHook = core.RegistryHook

// NewList proxies to the internal constructor.
func NewList(opts ListOptions) *List {
	return core.NewList(opts)
}

// NewBannerLifecycle proxies to the internal constructor.
func NewBannerLifecycle(opts BannerOptions) *BannerLifecycle {
	return core.NewBannerLifecycle(opts)
}

// NewSelector proxies to the internal constructor.
func NewSelector(opts SelectorOptions) *Selector {
	return core.NewSelector(opts)
}

// NewRegistry loads the embedded resource manifest, then runs hooks.
func NewRegistry(hooks ...RegistryHook) (*Registry, error) {
	return core.NewRegistry(hooks...)
}

// Client bundles the HTTP services with the registry they resolve against.
type Client struct {
	*api.Services
	HTTP     *api.HTTPClient
	Registry *Registry
}

// NewClient builds the HTTP client and services for the embedded registry.
func NewClient(cfg api.HTTPConfig) (*Client, error) {
	registry, err := core.NewRegistry()
	if err != nil {
		return nil, err
	}
	httpClient, err := api.NewHTTPClient(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{
		Services: api.NewServices(httpClient, registry),
		HTTP:     httpClient,
		Registry: registry,
	}, nil
}

// AdminList builds a List bound to an admin resource.
func (c *Client) AdminList(name string, opts ListOptions) (*List, error) {
	resource, err := c.Admin.Resource(name)
	if err != nil {
		return nil, err
	}
	def := resource.Definition()
	opts.Resource = def.Key()
	opts.IDField = def.IDField
	opts.Client = resource
	return core.NewList(opts), nil
}
