package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Sentinel errors for verification.
var (
	// ErrBlankInput is returned when the batch id is empty after trimming.
	ErrBlankInput = errors.New("blank batch number")

	// ErrVerifierUnavailable is returned when the batch verifier fails.
	ErrVerifierUnavailable = errors.New("batch verifier unavailable")

	// ErrNoCodeDetected is returned when a scanned frame holds no code.
	ErrNoCodeDetected = errors.New("no code detected")
)

// MessageUnavailable is shown when the verifier could not answer.
const MessageUnavailable = "Verification failed. Please try again."

// Flow verifies batch identifiers. It holds no per-query state and is safe
// for concurrent use. Results are never cached.
type Flow struct {
	verifier BatchVerifier
	decoder  Decoder
	logger   *slog.Logger
	tracer   trace.Tracer
}

// Option configures a Flow.
type Option func(*Flow)

// WithDecoder sets the decoder used by Scan. Default: PayloadDecoder.
func WithDecoder(d Decoder) Option {
	return func(f *Flow) {
		if d != nil {
			f.decoder = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Flow) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithTracer sets the tracer used for verification spans.
func WithTracer(t trace.Tracer) Option {
	return func(f *Flow) {
		if t != nil {
			f.tracer = t
		}
	}
}

// NewFlow creates a Flow backed by verifier.
func NewFlow(verifier BatchVerifier, opts ...Option) *Flow {
	f := &Flow{
		verifier: verifier,
		decoder:  PayloadDecoder{},
		logger:   slog.Default(),
		tracer:   otel.Tracer("github.com/pharmaledger/pharmaledger/verification"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Normalize trims and upper-cases a batch id.
func Normalize(batchID string) string {
	return strings.ToUpper(strings.TrimSpace(batchID))
}

// Verify classifies batchID.
//
// A blank id yields StatusEmpty with ErrBlankInput and no lookup. Ids the
// verifier does not know are classified as counterfeit. When the verifier
// fails the result has StatusUnavailable and the error wraps
// ErrVerifierUnavailable.
func (f *Flow) Verify(ctx context.Context, batchID string) (Result, error) {
	id := Normalize(batchID)
	if id == "" {
		return Result{Status: StatusEmpty}, ErrBlankInput
	}

	ctx, span := f.tracer.Start(ctx, "verification.Verify",
		trace.WithAttributes(attribute.String("batch.id", id)))
	defer span.End()

	lookup, err := f.verifier.Lookup(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "verifier unavailable")
		f.logger.Warn("batch lookup failed", "batch_id", id, "error", err)
		return Result{BatchID: id, Status: StatusUnavailable}, fmt.Errorf("%w: %v", ErrVerifierUnavailable, err)
	}

	res := classify(id, lookup)
	span.SetAttributes(attribute.String("verification.status", string(res.Status)))
	f.logger.Debug("batch verified", "batch_id", id, "status", res.Status)
	return res, nil
}

// Scan decodes frame and verifies the batch id it carries.
func (f *Flow) Scan(ctx context.Context, frame []byte) (Result, error) {
	id, err := f.decoder.Decode(ctx, frame)
	if err != nil {
		if errors.Is(err, ErrNoCodeDetected) {
			return Result{Status: StatusEmpty}, err
		}
		return Result{Status: StatusEmpty}, fmt.Errorf("decode frame: %w", err)
	}
	if strings.TrimSpace(id) == "" {
		return Result{Status: StatusEmpty}, ErrNoCodeDetected
	}
	return f.Verify(ctx, id)
}

// classify turns a lookup into a result. Absence from the registry is
// reported as counterfeit; there is no separate "unknown" status.
func classify(id string, l Lookup) Result {
	if !l.Found {
		return Result{
			BatchID:          id,
			IsAuthentic:      false,
			ProductName:      unknownProduct,
			ManufacturerName: unknownManufacturer,
			Status:           StatusCounterfeit,
		}
	}
	return Result{
		BatchID:          id,
		IsAuthentic:      true,
		ProductName:      l.ProductName,
		ManufacturerName: l.ManufacturerName,
		Status:           StatusAuthentic,
	}
}
