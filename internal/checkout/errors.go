package checkout

import (
	"errors"
	"sort"
	"strings"

	"github.com/diewo77/go-storefront/validation"
)

// Failure outcomes a Processor may report.
var (
	ErrPaymentDeclined = errors.New("payment declined")
	ErrPaymentGateway  = errors.New("payment gateway error")
	ErrNetwork         = errors.New("network error")
)

// ValidationError carries the per-field violations of a checkout form.
type ValidationError struct {
	Violations validation.Violations
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Violations))
	for f := range e.Violations {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return "checkout form invalid: " + strings.Join(fields, ", ")
}

// Retryable reports whether the same order may succeed on a later attempt.
func Retryable(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrPaymentGateway)
}
