// Package plugins hosts species trait-pack subpackages. It intentionally
// contains no production runtime code itself; this file exists to satisfy
// tooling (go vet, import guards) for the architectural test that lives
// alongside it.
//
// Trait packs depend on the service surface in internal/core and the pure
// engine in pkg/genetics. They must not import crosscore/pkg/domain
// directly: every entity a pack touches is re-exported through internal/core
// so the persistence-facing shapes can evolve without breaking packs.
package plugins
