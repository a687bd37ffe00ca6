package storefront

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	manifestVersionV1 = "1"
	// ManifestVersion exposes the current manifest format version for tooling.
	ManifestVersion = manifestVersionV1
)

// Namespace selects the backend URL prefix a resource lives under.
type Namespace string

const (
	NamespaceAPI   Namespace = "api"
	NamespaceAdmin Namespace = "admin"
)

// ResourceDefinition describes one backend entity type.
type ResourceDefinition struct {
	Name       string         `json:"name" yaml:"name"`
	Title      string         `json:"title,omitempty" yaml:"title,omitempty"`
	Namespace  Namespace      `json:"namespace" yaml:"namespace"`
	Path       string         `json:"path" yaml:"path"`
	IDField    string         `json:"id_field,omitempty" yaml:"id_field,omitempty"`
	Flags      []string       `json:"flags,omitempty" yaml:"flags,omitempty"`
	Exportable bool           `json:"exportable,omitempty" yaml:"exportable,omitempty"`
	Schema     map[string]any `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// Key identifies the definition within a registry, e.g. "admin/categorias".
func (d ResourceDefinition) Key() string {
	return ResourceKey(d.Namespace, d.Name)
}

// HasFlag reports whether flag is a toggleable boolean of the resource.
func (d ResourceDefinition) HasFlag(flag string) bool {
	for _, f := range d.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// ResourceKey builds the registry key for a namespace and name.
func ResourceKey(ns Namespace, name string) string {
	return string(ns) + "/" + name
}

// ResourceManifestDocument models a YAML manifest describing resources.
type ResourceManifestDocument struct {
	Version   string               `json:"version" yaml:"version"`
	Name      string               `json:"name,omitempty" yaml:"name,omitempty"`
	Resources []ResourceDefinition `json:"resources" yaml:"resources"`
	Source    string               `json:"-" yaml:"-"`
}

// ReadManifest loads a manifest file from disk without registering it.
func ReadManifest(path string) (*ResourceManifestDocument, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("storefront: open manifest %s: %w", path, err)
	}
	defer f.Close()
	doc, err := DecodeManifest(f)
	if err != nil {
		return nil, fmt.Errorf("storefront: decode manifest %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// DecodeManifest reads a manifest from any reader.
func DecodeManifest(r io.Reader) (*ResourceManifestDocument, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var doc ResourceManifestDocument
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("storefront: manifest is empty")
		}
		return nil, fmt.Errorf("storefront: parse manifest: %w", err)
	}
	doc.applyDefaults()
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate ensures the manifest satisfies required fields.
func (doc *ResourceManifestDocument) Validate() error {
	if doc.Version != manifestVersionV1 {
		return fmt.Errorf("storefront: unsupported manifest version %q", doc.Version)
	}
	seen := make(map[string]struct{}, len(doc.Resources))
	for idx, def := range doc.Resources {
		if def.Name == "" {
			return fmt.Errorf("storefront: manifest resource at index %d is missing name", idx)
		}
		switch def.Namespace {
		case NamespaceAPI, NamespaceAdmin:
		default:
			return fmt.Errorf("storefront: manifest resource %s has unknown namespace %q", def.Name, def.Namespace)
		}
		if _, exists := seen[def.Key()]; exists {
			return fmt.Errorf("storefront: manifest duplicates resource %s", def.Key())
		}
		seen[def.Key()] = struct{}{}
	}
	return nil
}

func (doc *ResourceManifestDocument) applyDefaults() {
	if doc.Version == "" {
		doc.Version = manifestVersionV1
	}
	for i := range doc.Resources {
		def := &doc.Resources[i]
		if def.Namespace == "" {
			def.Namespace = NamespaceAPI
		}
		if def.Path == "" {
			def.Path = def.Name
		}
		def.Path = strings.Trim(def.Path, "/")
		if def.IDField == "" {
			def.IDField = "id"
		}
	}
}
