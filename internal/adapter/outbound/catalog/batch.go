// Package catalog provides batch registries that implement
// verification.BatchVerifier: an in-memory registry seeded from YAML and a
// SQL registry backed by SQLite or PostgreSQL.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pharmaledger/pharmaledger/internal/domain/verification"
)

// ErrInvalidBatch is returned for batches missing required fields.
var ErrInvalidBatch = errors.New("invalid batch")

// Batch is a registered product lot.
type Batch struct {
	ID           string `yaml:"id" db:"batch_id"`
	ProductName  string `yaml:"product" db:"product_name"`
	Manufacturer string `yaml:"manufacturer" db:"manufacturer_name"`
}

// Validate checks required fields and normalizes the id.
func (b *Batch) Validate() error {
	b.ID = verification.Normalize(b.ID)
	b.ProductName = strings.TrimSpace(b.ProductName)
	b.Manufacturer = strings.TrimSpace(b.Manufacturer)
	if b.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidBatch)
	}
	if b.ProductName == "" {
		return fmt.Errorf("%w: %s: missing product", ErrInvalidBatch, b.ID)
	}
	if b.Manufacturer == "" {
		return fmt.Errorf("%w: %s: missing manufacturer", ErrInvalidBatch, b.ID)
	}
	return nil
}

// seedFile is the YAML layout of a catalog seed:
//
//	batches:
//	  - id: DP001/2024
//	    product: Paracetamol 500mg
//	    manufacturer: Demo Pharmaceuticals Ltd.
type seedFile struct {
	Batches []Batch `yaml:"batches"`
}

// ParseSeed decodes and validates a YAML seed document.
func ParseSeed(data []byte) ([]Batch, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog seed: %w", err)
	}
	seen := make(map[string]bool, len(f.Batches))
	for i := range f.Batches {
		if err := f.Batches[i].Validate(); err != nil {
			return nil, fmt.Errorf("batch %d: %w", i, err)
		}
		if seen[f.Batches[i].ID] {
			return nil, fmt.Errorf("batch %d: %w: duplicate id %s", i, ErrInvalidBatch, f.Batches[i].ID)
		}
		seen[f.Batches[i].ID] = true
	}
	return f.Batches, nil
}

// LoadSeed reads a YAML seed file.
func LoadSeed(path string) ([]Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog seed: %w", err)
	}
	return ParseSeed(data)
}

// MarshalSeed encodes batches in the seed layout.
func MarshalSeed(batches []Batch) ([]byte, error) {
	return yaml.Marshal(seedFile{Batches: batches})
}
