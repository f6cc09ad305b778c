package gocalculus

import (
	"errors"
	"fmt"
)

// Sentinel errors. Only ErrInvalidBounds and ErrInvalidDirection (together with
// *ParseError) fail a whole request; the others describe degraded results.
var (
	// ErrInvalidBounds is returned for non-finite or reversed interval bounds.
	ErrInvalidBounds = errors.New("invalid bounds")

	// ErrInvalidDirection is returned for a limit direction other than "", "+" or "-".
	ErrInvalidDirection = errors.New("invalid limit direction")

	// ErrUnsolvable marks a derivative root that could not be isolated within the
	// iteration budget. Such roots are dropped from results.
	ErrUnsolvable = errors.New("root did not converge")

	// ErrExpressionTooLarge marks a derivative tree that outgrew its node budget.
	ErrExpressionTooLarge = errors.New("expression too large")

	// ErrNumericalInstability marks a quadrature whose aggregated error estimate
	// exceeds tolerance. The area is still returned.
	ErrNumericalInstability = errors.New("numerical error")
)

// ParseError reports malformed expression text.
type ParseError struct {
	Pos int // byte offset into the input, -1 when not tied to a position
	Msg string
}

func (e *ParseError) Error() string {
	if e.Pos < 0 {
		return "parse error: " + e.Msg
	}
	return fmt.Sprintf("parse error at %d: %s", e.Pos, e.Msg)
}

// DomainError reports that an expression has no real value at X.
type DomainError struct {
	Op     string
	X      float64
	Reason string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("domain error in %s at x=%g: %s", e.Op, e.X, e.Reason)
}

// IsDomainError reports whether err is, or wraps, a *DomainError.
func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}
