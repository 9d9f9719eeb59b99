package genetics

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Slugify lowercases s, collapses every run of non-alphanumeric characters
// into a single underscore, and trims leading and trailing underscores. The
// result is empty when s carries no alphanumerics.
func Slugify(s string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
		default:
			pending = true
		}
	}
	return b.String()
}

// NewGeneUID returns the stable internal identifier assigned to a gene at
// build time. It never changes, regardless of renames.
func NewGeneUID() string {
	return uuid.NewString()
}

// FallbackGeneID builds a random gene identifier for traits whose key and
// name both slugify to nothing.
func FallbackGeneID() string {
	return "gene_" + uuid.NewString()[:8]
}

// EffectID derives the canonical effect identifier for an allele of a gene.
// Derived identifiers are recomputed whenever the owning gene is renamed.
func EffectID(geneID, alleleID string) string {
	return geneID + "_" + alleleID + "_effect"
}

// UniqueGeneID returns id, or id with the first free numeric suffix appended
// when id is already taken. The chosen identifier is recorded in taken.
func UniqueGeneID(taken map[string]struct{}, id string) string {
	candidate := id
	for n := 2; ; n++ {
		if _, exists := taken[candidate]; !exists {
			break
		}
		candidate = fmt.Sprintf("%s_%d", id, n)
	}
	taken[candidate] = struct{}{}
	return candidate
}

// Rename rewrites the gene's identifier, records the old identifier for
// genotype carry-forward, and cascades the change into derived effect
// identifiers and effect trait references that pointed at the old id.
// Renaming to the current or an empty identifier is a no-op.
func (g *Gene) Rename(newID string) {
	if g == nil || newID == "" || newID == g.ID {
		return
	}
	oldID := g.ID
	prior := make([]string, 0, len(g.PriorIDs)+1)
	if oldID != "" {
		prior = append(prior, oldID)
	}
	for _, p := range g.PriorIDs {
		if p != oldID && p != newID {
			prior = append(prior, p)
		}
	}
	g.PriorIDs = prior
	g.ID = newID
	for ai := range g.Alleles {
		allele := &g.Alleles[ai]
		for ei := range allele.Effects {
			effect := &allele.Effects[ei]
			if effect.ID == "" || effect.ID == EffectID(oldID, allele.ID) {
				effect.ID = EffectID(newID, allele.ID)
			}
			if effect.TraitID == oldID {
				effect.TraitID = newID
			}
		}
	}
}
