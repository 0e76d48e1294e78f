// Package verification classifies medicine batch identifiers as authentic
// or counterfeit by asking a batch verifier.
package verification

import "context"

// Status is the classification of one query.
type Status string

const (
	StatusAuthentic   Status = "authentic"
	StatusCounterfeit Status = "counterfeit"
	// StatusEmpty means the query was blank and nothing was looked up.
	StatusEmpty Status = "empty"
	// StatusUnavailable means the verifier could not answer; the batch is
	// neither authentic nor counterfeit.
	StatusUnavailable Status = "unavailable"
)

// Lookup is a batch verifier's answer.
type Lookup struct {
	Found            bool
	ProductName      string
	ManufacturerName string
}

// BatchVerifier looks up batch identifiers in a registry.
// Implementations: in-memory catalog, SQL catalog, remote registry.
type BatchVerifier interface {
	// Lookup reports whether batchID is registered. An unregistered id is
	// Found=false with a nil error; errors mean the registry could not answer.
	Lookup(ctx context.Context, batchID string) (Lookup, error)
}

// Decoder extracts a batch identifier from a scanned frame.
type Decoder interface {
	// Decode returns the batch id carried by frame, or ErrNoCodeDetected.
	Decode(ctx context.Context, frame []byte) (string, error)
}

// Result is the outcome of one verification. It is never persisted.
type Result struct {
	BatchID          string `json:"batchNumber"`
	IsAuthentic      bool   `json:"isAuthentic"`
	ProductName      string `json:"productName"`
	ManufacturerName string `json:"manufacturer"`
	Status           Status `json:"status"`
}
