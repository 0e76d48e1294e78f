package catalog

import (
	"context"
	"sync"

	"github.com/pharmaledger/pharmaledger/internal/domain/verification"
)

// MemoryCatalog implements verification.BatchVerifier with a map.
// Thread-safe for concurrent access.
type MemoryCatalog struct {
	batches map[string]Batch
	mu      sync.RWMutex
}

// NewMemoryCatalog creates a catalog holding batches. Invalid entries are
// rejected.
func NewMemoryCatalog(batches ...Batch) (*MemoryCatalog, error) {
	c := &MemoryCatalog{batches: make(map[string]Batch, len(batches))}
	for _, b := range batches {
		if err := c.Add(b); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Add registers or replaces a batch.
func (c *MemoryCatalog) Add(b Batch) error {
	if err := b.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batches[b.ID] = b
	return nil
}

// Len returns the number of registered batches.
func (c *MemoryCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.batches)
}

// Lookup implements verification.BatchVerifier.
func (c *MemoryCatalog) Lookup(ctx context.Context, batchID string) (verification.Lookup, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	b, ok := c.batches[verification.Normalize(batchID)]
	if !ok {
		return verification.Lookup{Found: false}, nil
	}
	return verification.Lookup{
		Found:            true,
		ProductName:      b.ProductName,
		ManufacturerName: b.Manufacturer,
	}, nil
}

// Compile-time interface verification.
var _ verification.BatchVerifier = (*MemoryCatalog)(nil)
