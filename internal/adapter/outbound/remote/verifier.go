package remote

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pharmaledger/pharmaledger/internal/domain/verification"
)

type batchResponse struct {
	BatchNumber  string `json:"batchNumber"`
	ProductName  string `json:"productName"`
	Manufacturer string `json:"manufacturer"`
}

// BatchVerifier implements verification.BatchVerifier against an HTTP
// registry: GET {base}/batches/{id}. 200 means registered, 404 means not
// registered.
type BatchVerifier struct {
	c *client
}

// NewBatchVerifier creates a verifier for baseURL.
func NewBatchVerifier(baseURL string, opts ...Option) *BatchVerifier {
	return &BatchVerifier{c: newClient(baseURL, opts...)}
}

// Lookup implements verification.BatchVerifier.
func (v *BatchVerifier) Lookup(ctx context.Context, batchID string) (verification.Lookup, error) {
	var resp batchResponse
	code, err := v.c.do(ctx, http.MethodGet, "/batches/"+url.PathEscape(batchID), nil, &resp,
		http.StatusOK, http.StatusNotFound)
	if err != nil {
		return verification.Lookup{}, err
	}
	if code == http.StatusNotFound {
		return verification.Lookup{Found: false}, nil
	}
	return verification.Lookup{
		Found:            true,
		ProductName:      resp.ProductName,
		ManufacturerName: resp.Manufacturer,
	}, nil
}

// Compile-time interface verification.
var _ verification.BatchVerifier = (*BatchVerifier)(nil)
