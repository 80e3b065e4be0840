package intake

import (
	"fmt"
	"sort"

	"github.com/careplan/careplan/internal/outcome"
)

// Adapter converts one partner wire format into the canonical order.
// Implementations are stateless; per-call scratch state lives in the
// intermediate value passed between Parse and Transform.
type Adapter interface {
	// Source returns the registry identifier this adapter handles.
	Source() string
	// Parse decodes raw payload bytes into the adapter's intermediate form.
	Parse(body []byte) (interface{}, error)
	// Transform maps a previously parsed intermediate onto the canonical order.
	Transform(intermediate interface{}) (*Order, error)
}

// registry is the immutable source → adapter mapping, built once at
// process start. Adding a partner format means adding an entry here and
// nothing else.
var registry = map[string]Adapter{
	"clinic_b":   clinicBAdapter{},
	"hospital_a": hospitalAAdapter{},
	"riverside":  riversideAdapter{},
	"summit":     summitAdapter{},
}

// Sources lists every registered source identifier, sorted.
func Sources() []string {
	out := make([]string, 0, len(registry))
	for s := range registry {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Resolve returns the adapter registered for the source identifier.
// Unknown sources fail with a validation failure enumerating every
// registered identifier; there is no fallback adapter.
func Resolve(source string) (Adapter, error) {
	a, ok := registry[source]
	if !ok {
		return nil, outcome.Validation(
			"UNKNOWN_SOURCE",
			fmt.Sprintf("Unknown order source: %q.", source),
			map[string]interface{}{"known_sources": Sources()},
		)
	}
	return a, nil
}

// Process runs parse, transform and field validation for one submission.
// Malformed payloads surface as validation failures, never as panics. A
// canonical order is returned only when every structural check passes,
// with its source tag and raw payload set from the submission itself.
func Process(a Adapter, body []byte) (*Order, error) {
	intermediate, err := a.Parse(body)
	if err != nil {
		return nil, outcome.Validation(
			"MALFORMED_PAYLOAD",
			fmt.Sprintf("Unable to parse %s payload: %v.", a.Source(), err),
			nil,
		)
	}

	ord, err := a.Transform(intermediate)
	if err != nil {
		return nil, outcome.Validation(
			"MALFORMED_PAYLOAD",
			fmt.Sprintf("Unable to normalize %s payload: %v.", a.Source(), err),
			nil,
		)
	}

	ord.Source = a.Source()
	ord.RawPayload = append([]byte(nil), body...)

	if errs := ValidateOrder(ord); len(errs) > 0 {
		return nil, outcome.FieldValidation(errs)
	}
	return ord, nil
}
