package api

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	storefront "github.com/goliatone/go-storefront/components/storefront"
)

// ResourceClient is the CRUD surface for one backend resource.
type ResourceClient struct {
	http *HTTPClient
	def  storefront.ResourceDefinition
	base string
}

var (
	_ storefront.ResourceClient = (*ResourceClient)(nil)
	_ storefront.Exporter       = (*ResourceClient)(nil)
)

// Resource returns a client for def.
func (c *HTTPClient) Resource(def storefront.ResourceDefinition) *ResourceClient {
	ns := def.Namespace
	if ns == "" {
		ns = storefront.NamespaceAPI
	}
	path := strings.Trim(def.Path, "/")
	if path == "" {
		path = def.Name
	}
	return &ResourceClient{
		http: c,
		def:  def,
		base: "/" + string(ns) + "/" + path,
	}
}

// Definition returns the resource metadata.
func (r *ResourceClient) Definition() storefront.ResourceDefinition { return r.def }

// Path returns the collection path, e.g. "/admin/categorias/".
func (r *ResourceClient) Path() string { return r.base + "/" }

func (r *ResourceClient) itemPath(id string) string {
	return r.base + "/" + url.PathEscape(id) + "/"
}

// List fetches the collection, accepting a bare array or a results envelope.
func (r *ResourceClient) List(ctx context.Context, params storefront.Params) (storefront.Collection, error) {
	var out storefront.Collection
	if err := r.http.Get(ctx, r.Path(), params.Values(), &out); err != nil {
		return storefront.Collection{}, err
	}
	return out, nil
}

// Retrieve fetches one record.
func (r *ResourceClient) Retrieve(ctx context.Context, id string) (storefront.Record, error) {
	if id == "" {
		return nil, fmt.Errorf("api: %s retrieve requires id", r.def.Name)
	}
	var out storefront.Record
	if err := r.http.Get(ctx, r.itemPath(id), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create posts a new record. payload may be a *Form for uploads.
func (r *ResourceClient) Create(ctx context.Context, payload any) (storefront.Record, error) {
	var out storefront.Record
	if err := r.http.Post(ctx, r.Path(), payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update replaces a record (PUT).
func (r *ResourceClient) Update(ctx context.Context, id string, payload any) (storefront.Record, error) {
	if id == "" {
		return nil, fmt.Errorf("api: %s update requires id", r.def.Name)
	}
	var out storefront.Record
	if err := r.http.Put(ctx, r.itemPath(id), payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PartialUpdate patches a record.
func (r *ResourceClient) PartialUpdate(ctx context.Context, id string, patch map[string]any) (storefront.Record, error) {
	if id == "" {
		return nil, fmt.Errorf("api: %s partial update requires id", r.def.Name)
	}
	var out storefront.Record
	if err := r.http.Patch(ctx, r.itemPath(id), patch, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Remove deletes a record.
func (r *ResourceClient) Remove(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("api: %s remove requires id", r.def.Name)
	}
	return r.http.Delete(ctx, r.itemPath(id), nil)
}

// Export downloads the spreadsheet export as raw bytes.
func (r *ResourceClient) Export(ctx context.Context, params storefront.Params) ([]byte, error) {
	var out []byte
	if err := r.http.Get(ctx, r.base+"/export/", params.Values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}
