package model

import (
	"fmt"

	"promohypo/domain/core"
)

// WithInteractions extends a base family with every categorical × continuous cross-product.
// Groups must be disjoint sets of simple terms. Group members missing from the base are
// appended before the interactions so the result always contains its main effects.
// Interactions are ordered categorical-major.
func WithInteractions(base TermSet, name string, categorical, continuous []Term) (TermSet, error) {
	groupA := make(map[string]bool, len(categorical))
	for _, t := range categorical {
		if t.Kind != KindSimple {
			return TermSet{}, core.NewValidationError("categorical group", fmt.Sprintf("%s is not a simple term", t.Name()))
		}
		groupA[t.Key()] = true
	}
	for _, t := range continuous {
		if t.Kind != KindSimple {
			return TermSet{}, core.NewValidationError("continuous group", fmt.Sprintf("%s is not a simple term", t.Name()))
		}
		if groupA[t.Key()] {
			return TermSet{}, core.NewValidationError("interaction groups", fmt.Sprintf("%s appears in both groups", t.Name()))
		}
	}

	terms := base.Terms()
	for _, group := range [][]Term{categorical, continuous} {
		for _, t := range group {
			if !containsTerm(terms, t) {
				terms = append(terms, t)
			}
		}
	}

	for _, c := range categorical {
		for _, x := range continuous {
			cross, err := Interaction(c, x)
			if err != nil {
				return TermSet{}, err
			}
			if !containsTerm(terms, cross) {
				terms = append(terms, cross)
			}
		}
	}

	return NewTermSet(name, terms...)
}

func containsTerm(terms []Term, t Term) bool {
	for _, existing := range terms {
		if existing.Key() == t.Key() {
			return true
		}
	}
	return false
}
