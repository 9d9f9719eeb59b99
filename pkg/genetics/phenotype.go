package genetics

// phenotypeSeparators lists the canonical phenotype-map key formats in probe
// order. The pipe form only appears for heterozygous pairs.
var phenotypeSeparators = []string{"", "/", "-", " ", "|"}

// ResolvePhenotypeLabel finds the label for the unordered allele pair
// {alleleA, alleleB} in a sparse genotype-to-phenotype map. The pair is
// canonicalized before candidate keys are generated, so swapped arguments
// always resolve to the same label. For each separator both concatenation
// orders are probed and the first present key wins. The boolean reports
// whether any candidate matched; absence is an expected outcome and callers
// fall back to the raw allele identifier.
func ResolvePhenotypeLabel(phenotypes map[string]string, alleleA, alleleB string) (string, bool) {
	if len(phenotypes) == 0 {
		return "", false
	}
	lo, hi := alleleA, alleleB
	if hi < lo {
		lo, hi = hi, lo
	}
	for _, sep := range phenotypeSeparators {
		if sep == "|" && lo == hi {
			continue
		}
		if label, ok := phenotypes[lo+sep+hi]; ok {
			return label, true
		}
		if lo == hi {
			continue
		}
		if label, ok := phenotypes[hi+sep+lo]; ok {
			return label, true
		}
	}
	return "", false
}
