// Package extension is the typed store through which independently registered
// components publish capabilities to each other.
//
// Every entry is addressed by a Key[T] carrying both a namespaced name and the
// value type, so a consumer can never read a value as the wrong type. Publishing
// is claim-based: the first publisher of a key wins.
package extension

import (
	"fmt"
	"sort"
	"sync"
)

// Key identifies a published capability of type T.
type Key[T any] struct {
	name string
}

// NewKey creates a key. Names should be namespaced by component, e.g. "toc/index".
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

// Name returns the namespaced key name.
func (k Key[T]) Name() string { return k.name }

// Registry is a concurrent name -> value store. The zero value is ready to use.
type Registry struct {
	entries sync.Map
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Publish stores v under k unless the key is already claimed. It reports whether
// this call won the claim.
func Publish[T any](r *Registry, k Key[T], v T) bool {
	_, loaded := r.entries.LoadOrStore(k.name, v)
	return !loaded
}

// Replace stores v under k unconditionally. Callers that replace a value read by
// concurrent renders must hold whatever lock the owning component publishes.
func Replace[T any](r *Registry, k Key[T], v T) {
	r.entries.Store(k.name, v)
}

// Lookup returns the value stored under k.
func Lookup[T any](r *Registry, k Key[T]) (T, bool) {
	var zero T
	raw, ok := r.entries.Load(k.name)
	if !ok {
		return zero, false
	}
	v, ok := raw.(T)
	if !ok {
		// Two keys with the same name but different types were declared.
		panic(fmt.Sprintf("extension %q holds %T, not the requested type", k.name, raw))
	}
	return v, true
}

// MustLookup is Lookup for capabilities whose absence is a programming error.
func MustLookup[T any](r *Registry, k Key[T]) T {
	v, ok := Lookup(r, k)
	if !ok {
		panic(fmt.Sprintf("extension %q not published", k.name))
	}
	return v
}

// Names lists the published key names in lexical order.
func (r *Registry) Names() []string {
	var names []string
	r.entries.Range(func(key, _ any) bool {
		names = append(names, key.(string))
		return true
	})
	sort.Strings(names)
	return names
}
