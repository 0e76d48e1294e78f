package verification

import (
	"context"
	"fmt"
	"strings"
)

// PayloadPrefix marks QR payloads printed on PharmaLedger packaging:
// PHARMALEDGER:<batch>:<product>.
const PayloadPrefix = "PHARMALEDGER"

// Payload is a decoded packaging code.
type Payload struct {
	BatchID     string
	ProductName string
}

// ParsePayload parses a PHARMALEDGER:<batch>:<product> string.
// The product part is optional and may itself contain colons.
func ParsePayload(s string) (Payload, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 3)
	if len(parts) < 2 || parts[0] != PayloadPrefix {
		return Payload{}, fmt.Errorf("%w: not a %s payload", ErrNoCodeDetected, PayloadPrefix)
	}
	batch := strings.TrimSpace(parts[1])
	if batch == "" {
		return Payload{}, fmt.Errorf("%w: payload has no batch number", ErrNoCodeDetected)
	}
	p := Payload{BatchID: batch}
	if len(parts) == 3 {
		p.ProductName = strings.TrimSpace(parts[2])
	}
	return p, nil
}

// String formats the payload as printed on packaging.
func (p Payload) String() string {
	if p.ProductName == "" {
		return PayloadPrefix + ":" + p.BatchID
	}
	return PayloadPrefix + ":" + p.BatchID + ":" + p.ProductName
}

// PayloadDecoder decodes frames that already hold the text of a code, such
// as the output of a hardware scanner. It does not decode images.
type PayloadDecoder struct{}

// Decode implements Decoder.
func (PayloadDecoder) Decode(_ context.Context, frame []byte) (string, error) {
	p, err := ParsePayload(string(frame))
	if err != nil {
		return "", err
	}
	return p.BatchID, nil
}
