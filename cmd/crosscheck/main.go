// Command crosscheck validates a stored cross configuration file and emits
// the payload consumed by the external cross-simulation engine.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"crosscore/pkg/domain"
	"crosscore/pkg/genetics"
)

var exitFunc = os.Exit

// main runs the command-line interface using the program arguments and exits
// the process with the status code returned by cli.
func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

type options struct {
	configPath  string
	outPath     string
	pretty      bool
	simulations int
}

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("crosscheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var opts options
	fs.StringVar(&opts.configPath, "config", "", "path to cross configuration json")
	fs.StringVar(&opts.outPath, "out", "", "write the payload to this file instead of stdout")
	fs.BoolVar(&opts.pretty, "pretty", false, "indent the payload json")
	fs.IntVar(&opts.simulations, "simulations", 0, "override the simulation count (0 keeps the stored value)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if strings.TrimSpace(opts.configPath) == "" {
		if _, writeErr := fmt.Fprintln(stderr, "crosscheck: -config is required"); writeErr != nil {
			return 1
		}
		return 2
	}
	if err := run(opts, stdout); err != nil {
		if _, writeErr := fmt.Fprintf(stderr, "Configuration check failed: %v\n", err); writeErr != nil {
			return 1
		}
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

// run loads the configuration, recomputes both parent genotypes against the
// current gene collection, validates completeness, and emits the engine
// payload. The genotype re-sync happens before validation so a hand-edited
// file with stale or missing slot assignments still checks out when its gene
// collection is sound.
func run(opts options, stdout io.Writer) error {
	cfg, err := loadConfiguration(opts.configPath)
	if err != nil {
		return err
	}
	if opts.simulations != 0 {
		cfg.Simulations = opts.simulations
	}
	if cfg.Simulations < 1 {
		return fmt.Errorf("simulations must be at least 1, got %d", cfg.Simulations)
	}
	if cfg.Mother.Sex == "" {
		cfg.Mother.Sex = genetics.SexFemale
	}
	if cfg.Father.Sex == "" {
		cfg.Father.Sex = genetics.SexMale
	}

	cfg.Mother.Genotype = genetics.SyncGenotype(cfg.Genes, cfg.Mother.Sex, cfg.Mother.Genotype)
	cfg.Father.Genotype = genetics.SyncGenotype(cfg.Genes, cfg.Father.Sex, cfg.Father.Genotype)

	if err := genetics.ValidateGenes(cfg.Genes); err != nil {
		return fmt.Errorf("configuration incomplete: %w", err)
	}

	payload := genetics.BuildPayload(genetics.BuildInput{
		Genes:          cfg.Genes,
		MotherSex:      cfg.Mother.Sex,
		MotherGenotype: cfg.Mother.Genotype,
		FatherSex:      cfg.Father.Sex,
		FatherGenotype: cfg.Father.Genotype,
		Simulations:    cfg.Simulations,
	})

	data, err := encodePayload(payload, opts.pretty)
	if err != nil {
		return err
	}

	if opts.outPath == "" {
		if _, err := stdout.Write(data); err != nil {
			return fmt.Errorf("write payload: %w", err)
		}
		return nil
	}

	safeOut, err := validatePath(opts.outPath)
	if err != nil {
		return err
	}
	if err := os.WriteFile(safeOut, data, 0o600); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}
	if _, err := fmt.Fprintf(stdout, "Configuration valid. Payload written to %s.\n", safeOut); err != nil {
		return fmt.Errorf("report result: %w", err)
	}
	return nil
}

func loadConfiguration(path string) (domain.CrossConfiguration, error) {
	safePath, err := validatePath(path)
	if err != nil {
		return domain.CrossConfiguration{}, err
	}
	data, err := os.ReadFile(safePath) // #nosec G304: path validated by validatePath
	if err != nil {
		return domain.CrossConfiguration{}, fmt.Errorf("read configuration: %w", err)
	}
	var cfg domain.CrossConfiguration
	if err := json.Unmarshal(data, &cfg); err != nil {
		return domain.CrossConfiguration{}, fmt.Errorf("parse configuration: %w", err)
	}
	return cfg, nil
}

func encodePayload(payload genetics.CrossPayload, pretty bool) ([]byte, error) {
	var data []byte
	var err error
	if pretty {
		data, err = json.MarshalIndent(payload, "", "  ")
	} else {
		data, err = json.Marshal(payload)
	}
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return append(data, '\n'), nil
}
