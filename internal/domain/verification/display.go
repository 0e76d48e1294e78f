package verification

import "fmt"

// Placeholders shown for batches the registry does not know.
const (
	unknownProduct      = "Unknown Product"
	unknownManufacturer = "Unknown"
)

// Headline returns the title shown above the result.
func (r Result) Headline() string {
	switch r.Status {
	case StatusAuthentic:
		return "Medicine Verified"
	case StatusEmpty:
		return "Please enter a batch number"
	default:
		return "Verification Failed"
	}
}

// Details returns the explanatory text shown under the headline.
func (r Result) Details() string {
	switch r.Status {
	case StatusAuthentic:
		return fmt.Sprintf("%s by %s is authentic and safe to use.", r.ProductName, r.ManufacturerName)
	case StatusEmpty:
		return ""
	case StatusUnavailable:
		return MessageUnavailable
	default:
		return "This batch number was not found in our database. This may indicate a counterfeit product."
	}
}

// Label returns a short status label.
func (s Status) Label() string {
	switch s {
	case StatusAuthentic:
		return "Authentic"
	case StatusCounterfeit:
		return "Counterfeit - Not Found in Database"
	case StatusUnavailable:
		return "Unavailable"
	default:
		return "Empty"
	}
}
