package genetics

// SlotCount returns the number of allele slots a parent of the given sex
// carries for a gene on the given chromosome:
//
//	autosomal  female 2  male 2
//	x          female 2  male 1
//	y          female 0  male 1
//
// Unrecognized chromosome values fall back to the autosomal rule.
func SlotCount(chromosome ChromosomeType, sex Sex) int {
	switch chromosome {
	case ChromosomeX:
		if sex == SexMale {
			return 1
		}
		return 2
	case ChromosomeY:
		if sex == SexMale {
			return 1
		}
		return 0
	default:
		return 2
	}
}

// ResolveDefaultAlleleID returns the gene's default allele when it still
// exists, falling back to the first allele, or empty for an allele-less
// gene.
func ResolveDefaultAlleleID(g Gene) string {
	if g.DefaultAlleleID != "" && g.HasAllele(g.DefaultAlleleID) {
		return g.DefaultAlleleID
	}
	if len(g.Alleles) > 0 {
		return g.Alleles[0].ID
	}
	return ""
}

// DefaultSlots returns SlotCount copies of the resolved default allele. The
// result is empty when the chromosome/sex combination carries no slots or
// the gene has no alleles.
func DefaultSlots(g Gene, sex Sex) []string {
	count := SlotCount(g.Chromosome, sex)
	def := ResolveDefaultAlleleID(g)
	slots := make([]string, 0, count)
	if def == "" {
		return slots
	}
	for i := 0; i < count; i++ {
		slots = append(slots, def)
	}
	return slots
}

// NormalizeAlleles repairs an allele slot assignment for one gene. Each
// required slot keeps its current value when that value is still a valid
// allele id, then falls back to the first valid value anywhere in current,
// then to the resolved default. Normalizing an already normalized
// assignment returns it unchanged. Invalid or missing input never raises;
// it degrades to defaults.
func NormalizeAlleles(g Gene, current []string, sex Sex) []string {
	count := SlotCount(g.Chromosome, sex)
	def := ResolveDefaultAlleleID(g)
	slots := make([]string, 0, count)
	if def == "" {
		return slots
	}
	firstValid := ""
	for _, id := range current {
		if g.HasAllele(id) {
			firstValid = id
			break
		}
	}
	for i := 0; i < count; i++ {
		switch {
		case i < len(current) && g.HasAllele(current[i]):
			slots = append(slots, current[i])
		case firstValid != "":
			slots = append(slots, firstValid)
		default:
			slots = append(slots, def)
		}
	}
	return slots
}

// SyncGenotype recomputes a parent's genotype for the current gene
// collection. The result holds exactly one entry per gene, keyed by the
// gene's current identifier; previous selections are carried forward when
// found under the current identifier, the gene's uid, or any prior
// identifier recorded by a rename, newest first. Genes absent from the
// collection drop out. Pure; callers re-run it for each parent whenever the
// collection, a chromosome type, or that parent's sex changes.
func SyncGenotype(genes []Gene, sex Sex, previous ParentGenotype) ParentGenotype {
	next := make(ParentGenotype, len(genes))
	for _, g := range genes {
		next[g.ID] = NormalizeAlleles(g, previousSlots(g, previous), sex)
	}
	return next
}

func previousSlots(g Gene, previous ParentGenotype) []string {
	if slots, ok := previous[g.ID]; ok {
		return slots
	}
	if g.UID != "" {
		if slots, ok := previous[g.UID]; ok {
			return slots
		}
	}
	for _, prior := range g.PriorIDs {
		if slots, ok := previous[prior]; ok {
			return slots
		}
	}
	return nil
}
