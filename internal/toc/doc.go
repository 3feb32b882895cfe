// Package toc loads navigation documents and bakes them into one index.
//
// A navigation document is a tree of elements (JSON or YAML) whose URLs are
// relative to the document's directory. An element whose URL starts with "::"
// is an include: the referenced document's tree is spliced in at that point.
// Baking merges every loaded document into a lookup index from content path
// to (tree root, element) while rejecting duplicate and cyclic includes.
//
// Enable wires the baked navigation into an engine: it publishes the index,
// the rebake function and the shared lock in the engine's extension registry
// and adds a model override that hands every page a private clone of its
// navigation tree with the page's element marked active.
//
// Bake idempotence and clone isolation have gopter properties behind the
// property tag:
//
//	go test -tags property ./internal/toc/
package toc
