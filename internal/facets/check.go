package facets

import "github.com/xmlschema-go/xmlschema/internal/value"

// Violation wraps a facet failure so callers can distinguish facet
// violations from lexical-space errors with errors.As.
type Violation struct {
	Facet string
	Err   error
}

func (v *Violation) Error() string { return v.Err.Error() }

func (v *Violation) Unwrap() error { return v.Err }

// checkOrder is the fixed facet application order: pattern, then
// enumeration, then bounds, then digit facets, then length facets.
func checkOrder(f Facet) int {
	switch f.(type) {
	case *Pattern:
		return 0
	case *Enumeration:
		return 1
	case *Range:
		return 2
	case *TotalDigits, *FractionDigits:
		return 3
	case *Length:
		return 4
	}
	return 5
}

// Check applies the facets to a value in the fixed order. With
// collectAll unset it stops at the first failing facet; otherwise it
// accumulates every failure.
func Check(facets []Facet, v value.Value, lexical string, collectAll bool) []error {
	var errs []error
	for order := 0; order <= 5; order++ {
		for _, f := range facets {
			if checkOrder(f) != order {
				continue
			}
			if err := f.Validate(v, lexical); err != nil {
				errs = append(errs, &Violation{Facet: f.Name(), Err: err})
				if !collectAll {
					return errs
				}
			}
		}
	}
	return errs
}

// CheckCounts applies only the length facets against an explicit item
// count; used for list values where length means item count.
func CheckCounts(facets []Facet, count int, lexical string, collectAll bool) []error {
	var errs []error
	for _, f := range facets {
		lf, ok := f.(*Length)
		if !ok {
			continue
		}
		if err := lf.ValidateCount(count, lexical); err != nil {
			errs = append(errs, &Violation{Facet: lf.Name(), Err: err})
			if !collectAll {
				return errs
			}
		}
	}
	return errs
}
