package facets

import (
	"fmt"

	"github.com/xmlschema-go/xmlschema/internal/value"
)

// CheckRestriction verifies that the derived facet set narrows the base
// facet set. It reports every facet that is provably looser than the
// base, per the derivation-valid (restriction) rules.
func CheckRestriction(derived, base []Facet) []error {
	var errs []error

	for _, df := range derived {
		for _, bf := range base {
			if err := checkPair(df, bf); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errs
}

func checkPair(derived, base Facet) error {
	switch b := base.(type) {
	case *Enumeration:
		d, ok := derived.(*Enumeration)
		if !ok {
			return nil
		}
		return checkEnumerationSubset(d, b)
	case *Range:
		d, ok := derived.(*Range)
		if !ok {
			return nil
		}
		return checkRangeNarrows(d, b)
	case *Length:
		d, ok := derived.(*Length)
		if !ok {
			return nil
		}
		return checkLengthNarrows(d, b)
	case *TotalDigits:
		if d, ok := derived.(*TotalDigits); ok && d.Digits > b.Digits {
			return fmt.Errorf("totalDigits %d is looser than base totalDigits %d", d.Digits, b.Digits)
		}
	case *FractionDigits:
		if d, ok := derived.(*FractionDigits); ok && d.Digits > b.Digits {
			return fmt.Errorf("fractionDigits %d is looser than base fractionDigits %d", d.Digits, b.Digits)
		}
	}
	if base.Fixed() && derived.Name() == base.Name() {
		if err := checkFixedUnchanged(derived, base); err != nil {
			return err
		}
	}
	return nil
}

// checkEnumerationSubset rejects a derived enumeration that widens the
// base enumeration: every derived member must already be a base member.
func checkEnumerationSubset(derived, base *Enumeration) error {
	for i, dv := range derived.Values {
		found := false
		for _, bv := range base.Values {
			if value.Equal(dv, bv) {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("enumeration value %q is not in the base enumeration", derived.Lexicals[i])
		}
	}
	return nil
}

func checkRangeNarrows(derived, base *Range) error {
	dMin := derived.Bound == MinInclusive || derived.Bound == MinExclusive
	bMin := base.Bound == MinInclusive || base.Bound == MinExclusive
	if dMin != bMin {
		return nil
	}
	cmp, ok := value.Compare(derived.Limit, base.Limit)
	if !ok {
		return fmt.Errorf("%s value %q is not comparable to base %s %q",
			derived.Bound, derived.Limit.Lexical, base.Bound, base.Limit.Lexical)
	}
	if bMin && cmp < 0 {
		return fmt.Errorf("%s %q is looser than base %s %q",
			derived.Bound, derived.Limit.Lexical, base.Bound, base.Limit.Lexical)
	}
	if !bMin && cmp > 0 {
		return fmt.Errorf("%s %q is looser than base %s %q",
			derived.Bound, derived.Limit.Lexical, base.Bound, base.Limit.Lexical)
	}
	return nil
}

func checkLengthNarrows(derived, base *Length) error {
	switch {
	case derived.Kind == LengthMin && base.Kind == LengthMin && derived.Value < base.Value:
		return fmt.Errorf("minLength %d is looser than base minLength %d", derived.Value, base.Value)
	case derived.Kind == LengthMax && base.Kind == LengthMax && derived.Value > base.Value:
		return fmt.Errorf("maxLength %d is looser than base maxLength %d", derived.Value, base.Value)
	case derived.Kind == LengthExact && base.Kind == LengthExact && derived.Value != base.Value:
		return fmt.Errorf("length %d differs from base length %d", derived.Value, base.Value)
	case derived.Kind == LengthMax && base.Kind == LengthMin && derived.Value < base.Value:
		return fmt.Errorf("maxLength %d is below base minLength %d", derived.Value, base.Value)
	}
	return nil
}

func checkFixedUnchanged(derived, base Facet) error {
	switch b := base.(type) {
	case *Range:
		d := derived.(*Range)
		if cmp, ok := value.Compare(d.Limit, b.Limit); !ok || cmp != 0 {
			return fmt.Errorf("facet %s is fixed in the base type and cannot change", base.Name())
		}
	case *Length:
		d := derived.(*Length)
		if d.Value != b.Value {
			return fmt.Errorf("facet %s is fixed in the base type and cannot change", base.Name())
		}
	case *TotalDigits:
		if derived.(*TotalDigits).Digits != b.Digits {
			return fmt.Errorf("facet totalDigits is fixed in the base type and cannot change")
		}
	case *FractionDigits:
		if derived.(*FractionDigits).Digits != b.Digits {
			return fmt.Errorf("facet fractionDigits is fixed in the base type and cannot change")
		}
	}
	return nil
}
