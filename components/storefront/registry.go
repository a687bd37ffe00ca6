package storefront

import (
	"bytes"
	_ "embed"
	"fmt"
	"sort"
	"sync"
)

//go:embed resources.yaml
var defaultManifest []byte

// RegistryHook registers extra resources against a new registry.
type RegistryHook func(reg *Registry) error

// Registry holds resource definitions keyed by namespace and name.
type Registry struct {
	mu          sync.RWMutex
	definitions map[string]ResourceDefinition
}

// NewRegistry builds a registry seeded with the embedded default resources,
// then runs hooks in order.
func NewRegistry(hooks ...RegistryHook) (*Registry, error) {
	reg := NewEmptyRegistry()
	doc, err := DecodeManifest(bytes.NewReader(defaultManifest))
	if err != nil {
		return nil, fmt.Errorf("storefront: default manifest: %w", err)
	}
	doc.Source = "embedded"
	if err := reg.LoadManifestDocument(doc); err != nil {
		return nil, err
	}
	if err := reg.ApplyHooks(hooks...); err != nil {
		return nil, err
	}
	return reg, nil
}

// NewEmptyRegistry builds a registry without defaults or hooks.
func NewEmptyRegistry() *Registry {
	return &Registry{definitions: map[string]ResourceDefinition{}}
}

// ApplyHooks runs hooks against the registry, stopping at the first error.
func (r *Registry) ApplyHooks(hooks ...RegistryHook) error {
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		if err := hook(r); err != nil {
			return fmt.Errorf("storefront: registry hook: %w", err)
		}
	}
	return nil
}

// ManifestFileHook loads the manifest at path into new registries.
func ManifestFileHook(path string) RegistryHook {
	return func(reg *Registry) error {
		_, err := reg.LoadManifestFile(path)
		return err
	}
}

// LoadManifestFile reads a manifest from disk and registers its resources,
// replacing definitions with the same key.
func (r *Registry) LoadManifestFile(path string) (*ResourceManifestDocument, error) {
	doc, err := ReadManifest(path)
	if err != nil {
		return nil, err
	}
	if err := r.LoadManifestDocument(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadManifestDocument registers definitions from a decoded manifest.
func (r *Registry) LoadManifestDocument(doc *ResourceManifestDocument) error {
	if doc == nil {
		return fmt.Errorf("storefront: manifest document is nil")
	}
	for _, def := range doc.Resources {
		if err := r.RegisterDefinition(def); err != nil {
			return fmt.Errorf("storefront: register resource %s from %s: %w", def.Key(), doc.Source, err)
		}
	}
	return nil
}

// RegisterDefinition stores resource metadata.
func (r *Registry) RegisterDefinition(def ResourceDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("resource definition name is required")
	}
	if def.Namespace == "" {
		def.Namespace = NamespaceAPI
	}
	if def.Path == "" {
		def.Path = def.Name
	}
	if def.IDField == "" {
		def.IDField = "id"
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.definitions[def.Key()] = def
	return nil
}

// Definition fetches a resource definition.
func (r *Registry) Definition(ns Namespace, name string) (ResourceDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.definitions[ResourceKey(ns, name)]
	return def, ok
}

// Definitions lists definitions sorted by key.
func (r *Registry) Definitions() []ResourceDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ResourceDefinition, 0, len(r.definitions))
	for _, def := range r.definitions {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// Namespace lists definitions of one namespace sorted by name.
func (r *Registry) Namespace(ns Namespace) []ResourceDefinition {
	var out []ResourceDefinition
	for _, def := range r.Definitions() {
		if def.Namespace == ns {
			out = append(out, def)
		}
	}
	return out
}
