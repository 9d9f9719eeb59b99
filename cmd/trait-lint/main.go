// Command trait-lint checks a trait pack file for catalog problems before
// the pack ships: duplicate or missing keys, empty allele lists, phenotype
// map keys no allele pair can reach, and inheritance text whose inferred
// classification is worth a second look.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"crosscore/pkg/genetics"
)

var exitFunc = os.Exit

// main runs the command-line interface using the program arguments and exits
// the process with the status code returned by cli.
func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

// pack mirrors the trait pack file format. YAML is the canonical form; JSON
// packs parse through the same shape.
type pack struct {
	Species string      `yaml:"species" json:"species"`
	Traits  []packTrait `yaml:"traits" json:"traits"`
}

type packTrait struct {
	Key                string            `yaml:"key" json:"key"`
	Name               string            `yaml:"name" json:"name"`
	InheritancePattern string            `yaml:"inheritance_pattern" json:"inheritance_pattern"`
	Alleles            []string          `yaml:"alleles" json:"alleles"`
	Phenotypes         map[string]string `yaml:"phenotypes" json:"phenotypes"`
	Chromosomes        []string          `yaml:"chromosomes" json:"chromosomes"`
}

type lintSeverity string

const (
	severityError lintSeverity = "error"
	severityNote  lintSeverity = "note"
)

// finding is one lint result. TraitKey falls back to the positional label
// traits[i] when the trait has no key of its own.
type finding struct {
	Severity lintSeverity
	TraitKey string
	Message  string
}

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("trait-lint", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var packPath string
	fs.StringVar(&packPath, "pack", "", "path to trait pack yaml or json")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if strings.TrimSpace(packPath) == "" {
		if _, writeErr := fmt.Fprintln(stderr, "trait-lint: -pack is required"); writeErr != nil {
			return 1
		}
		return 2
	}

	findings, err := run(packPath)
	if err != nil {
		if _, writeErr := fmt.Fprintf(stderr, "Trait pack lint failed: %v\n", err); writeErr != nil {
			return 1
		}
		return 1
	}

	errorCount := 0
	for _, f := range findings {
		if f.Severity == severityError {
			errorCount++
		}
		if _, writeErr := fmt.Fprintf(stdout, "%s %s: %s\n", strings.ToUpper(string(f.Severity)), f.TraitKey, f.Message); writeErr != nil {
			return 1
		}
	}
	if errorCount > 0 {
		if _, writeErr := fmt.Fprintf(stdout, "Trait pack lint found %d problem(s).\n", errorCount); writeErr != nil {
			return 1
		}
		return 1
	}
	if _, writeErr := fmt.Fprintln(stdout, "Trait pack lint passed."); writeErr != nil {
		return 1
	}
	return 0
}

// validatePath ensures a file path is within the working tree and not an
// absolute or path-traversing reference. This mitigates G304 concerns around
// variable-based file inclusion.
func validatePath(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", fmt.Errorf("empty path")
	}
	if filepath.IsAbs(p) {
		return "", fmt.Errorf("absolute paths not allowed: %s", p)
	}
	clean := filepath.Clean(p)
	if strings.Contains(clean, "..") { // prevents traversal outside working dir
		return "", fmt.Errorf("path traversal not allowed: %s", p)
	}
	return clean, nil
}

func run(packPath string) ([]finding, error) {
	safePath, err := validatePath(packPath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(safePath) // #nosec G304: path validated by validatePath
	if err != nil {
		return nil, fmt.Errorf("read pack: %w", err)
	}
	p, err := parsePack(safePath, data)
	if err != nil {
		return nil, fmt.Errorf("parse pack: %w", err)
	}
	if len(p.Traits) == 0 {
		return nil, errors.New("traits entry is empty")
	}
	return lint(p), nil
}

func parsePack(path string, data []byte) (pack, error) {
	var p pack
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, &p); err != nil {
			return pack{}, err
		}
		return p, nil
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return pack{}, err
	}
	return p, nil
}

// lint walks the pack once and collects findings per trait in declaration
// order. Findings never abort the walk; the caller decides the exit code
// from the error count.
func lint(p pack) []finding {
	var findings []finding
	if strings.TrimSpace(p.Species) == "" {
		findings = append(findings, finding{Severity: severityNote, TraitKey: "pack", Message: "no species declared; registered traits will be unscoped"})
	}

	seen := make(map[string]struct{}, len(p.Traits))
	for i, trait := range p.Traits {
		label := strings.TrimSpace(trait.Key)
		if label == "" {
			label = fmt.Sprintf("traits[%d]", i)
		}

		key := strings.TrimSpace(trait.Key)
		if key == "" {
			findings = append(findings, finding{Severity: severityError, TraitKey: label, Message: "missing key"})
		} else if _, dup := seen[key]; dup {
			findings = append(findings, finding{Severity: severityError, TraitKey: label, Message: fmt.Sprintf("duplicate trait key %q", key)})
		} else {
			seen[key] = struct{}{}
		}

		findings = append(findings, lintAlleles(label, trait)...)
		findings = append(findings, lintPhenotypes(label, trait)...)
		findings = append(findings, classificationNotes(label, trait)...)
	}
	return findings
}

func lintAlleles(label string, trait packTrait) []finding {
	if len(trait.Alleles) == 0 {
		return []finding{{Severity: severityError, TraitKey: label, Message: "no alleles declared"}}
	}
	var findings []finding
	seen := make(map[string]struct{}, len(trait.Alleles))
	for i, allele := range trait.Alleles {
		if strings.TrimSpace(allele) == "" {
			findings = append(findings, finding{Severity: severityError, TraitKey: label, Message: fmt.Sprintf("allele %d has an empty identifier", i)})
			continue
		}
		if _, dup := seen[allele]; dup {
			findings = append(findings, finding{Severity: severityError, TraitKey: label, Message: fmt.Sprintf("duplicate allele %q", allele)})
			continue
		}
		seen[allele] = struct{}{}
	}
	return findings
}

// lintPhenotypes flags phenotype map keys that no unordered pair of declared
// alleles resolves to. Resolution runs through the engine's own lookup so
// the lint stays in step with what the dashboard will actually display.
func lintPhenotypes(label string, trait packTrait) []finding {
	if len(trait.Phenotypes) == 0 {
		return nil
	}
	keys := make([]string, 0, len(trait.Phenotypes))
	for key := range trait.Phenotypes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var findings []finding
	for _, key := range keys {
		if !keyResolvable(key, trait.Alleles) {
			findings = append(findings, finding{Severity: severityError, TraitKey: label, Message: fmt.Sprintf("phenotype key %q matches no pair of declared alleles", key)})
		}
	}
	return findings
}

// keyResolvable reports whether some unordered pair of the declared alleles
// resolves to the given phenotype map key.
func keyResolvable(key string, alleles []string) bool {
	probe := map[string]string{key: "reachable"}
	for i := range alleles {
		for j := i; j < len(alleles); j++ {
			if _, ok := genetics.ResolvePhenotypeLabel(probe, alleles[i], alleles[j]); ok {
				return true
			}
		}
	}
	return false
}

// classificationNotes reports how the engine will read the trait's free-text
// inheritance pattern, plus a warning-grade note for incomplete-dominance
// traits whose blended heterozygote has no label to fall back on.
func classificationNotes(label string, trait packTrait) []finding {
	dominance := genetics.InferDominance(trait.InheritancePattern)
	chromosome := genetics.InferChromosome(trait.InheritancePattern, trait.Chromosomes)

	var findings []finding
	if strings.TrimSpace(trait.InheritancePattern) == "" {
		findings = append(findings, finding{
			Severity: severityNote,
			TraitKey: label,
			Message:  fmt.Sprintf("no inheritance pattern declared; defaulting to pattern %q on carrier %q", dominance, chromosome),
		})
	} else {
		findings = append(findings, finding{
			Severity: severityNote,
			TraitKey: label,
			Message:  fmt.Sprintf("inheritance %q reads as pattern %q on carrier %q", trait.InheritancePattern, dominance, chromosome),
		})
	}

	if dominance == genetics.DominanceIncomplete && len(trait.Alleles) >= 2 {
		if _, ok := genetics.ResolvePhenotypeLabel(trait.Phenotypes, trait.Alleles[0], trait.Alleles[1]); !ok {
			findings = append(findings, finding{
				Severity: severityNote,
				TraitKey: label,
				Message:  fmt.Sprintf("no blended phenotype label for the %s/%s pair; the raw allele identifier will show instead", trait.Alleles[0], trait.Alleles[1]),
			})
		}
	}
	return findings
}
