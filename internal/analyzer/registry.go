package analyzer

import (
	"errors"
	"fmt"
)

var ErrUnknownDetector = errors.New("unknown detector")

// NewDetector creates a detector based on the specified variant
func NewDetector(variant string) (Detector, error) {
	switch variant {
	case "alpha", "":
		return NewAlphaDetector(), nil
	case "contrast":
		return NewContrastDetector(), nil
	default:
		return nil, fmt.Errorf("%q: %w", variant, ErrUnknownDetector)
	}
}
