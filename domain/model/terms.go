package model

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"promohypo/domain/core"
)

// TermKind identifies how a predictor term is derived from dataset columns
type TermKind string

const (
	KindSimple       TermKind = "simple"        // a single encoded column
	KindInteraction  TermKind = "interaction"   // product of two simple terms
	KindLogTransform TermKind = "log_transform" // x·ln(x) of a simple term (linearity diagnostic)
)

// ColumnReader is satisfied by the encoded dataset
type ColumnReader interface {
	Column(name string) ([]float64, error)
}

// Term is a single predictor in a model family.
// Terms are values; build them with Simple, Interaction and LogTransform.
type Term struct {
	Kind  TermKind `json:"kind"`
	Left  string   `json:"left"`            // column of a simple/log term, first factor of an interaction
	Right string   `json:"right,omitempty"` // second factor of an interaction
}

// Simple creates a term referencing one encoded column
func Simple(column string) Term {
	return Term{Kind: KindSimple, Left: column}
}

// SimpleTerms creates simple terms for each column in order
func SimpleTerms(columns ...string) []Term {
	terms := make([]Term, len(columns))
	for i, c := range columns {
		terms[i] = Simple(c)
	}
	return terms
}

// Interaction creates the cross-product of two distinct simple terms
func Interaction(a, b Term) (Term, error) {
	if a.Kind != KindSimple || b.Kind != KindSimple {
		return Term{}, core.NewValidationError("interaction", fmt.Sprintf("%s × %s: both factors must be simple terms", a.Name(), b.Name()))
	}
	if a.Left == b.Left {
		return Term{}, core.NewValidationError("interaction", fmt.Sprintf("%s cannot interact with itself", a.Name()))
	}
	return Term{Kind: KindInteraction, Left: a.Left, Right: b.Left}, nil
}

// LogTransform creates the Box-Tidwell x·ln(x) term for a simple term
func LogTransform(t Term) (Term, error) {
	if t.Kind != KindSimple {
		return Term{}, core.NewValidationError("log_transform", fmt.Sprintf("%s is not a simple term", t.Name()))
	}
	return Term{Kind: KindLogTransform, Left: t.Left}, nil
}

// Name is the display name used in coefficient tables
func (t Term) Name() string {
	switch t.Kind {
	case KindInteraction:
		return t.Left + ":" + t.Right
	case KindLogTransform:
		return t.Left + ":log(" + t.Left + ")"
	default:
		return t.Left
	}
}

// Key identifies the term for set membership; interactions are order-insensitive
func (t Term) Key() string {
	if t.Kind == KindInteraction {
		pair := []string{t.Left, t.Right}
		sort.Strings(pair)
		return string(KindInteraction) + "|" + pair[0] + "|" + pair[1]
	}
	return string(t.Kind) + "|" + t.Left
}

// Constituents returns the simple terms a derived term is built from
func (t Term) Constituents() []Term {
	switch t.Kind {
	case KindInteraction:
		return []Term{Simple(t.Left), Simple(t.Right)}
	case KindLogTransform:
		return []Term{Simple(t.Left)}
	default:
		return nil
	}
}

// Values evaluates the term for every row of the dataset
func (t Term) Values(ds ColumnReader) ([]float64, error) {
	left, err := ds.Column(t.Left)
	if err != nil {
		return nil, err
	}

	switch t.Kind {
	case KindSimple:
		return left, nil
	case KindInteraction:
		right, err := ds.Column(t.Right)
		if err != nil {
			return nil, err
		}
		out := make([]float64, len(left))
		for i := range left {
			out[i] = left[i] * right[i]
		}
		return out, nil
	case KindLogTransform:
		out := make([]float64, len(left))
		for i, x := range left {
			if x <= 0 {
				return nil, core.NewDomainError(t.Left, fmt.Sprintf("row %d value %g is not strictly positive", i, x))
			}
			out[i] = x * math.Log(x)
		}
		return out, nil
	}
	return nil, core.NewValidationError("term", fmt.Sprintf("unknown term kind %q", t.Kind))
}

// TermSet is an ordered, duplicate-free set of terms defining a model family.
// The empty set is the intercept-only (null) model.
type TermSet struct {
	name  string
	terms []Term
}

// NewTermSet validates and builds a named term set
func NewTermSet(name string, terms ...Term) (TermSet, error) {
	if strings.TrimSpace(name) == "" {
		return TermSet{}, core.NewValidationError("term_set", "name is required")
	}

	seen := make(map[string]bool, len(terms))
	out := make([]Term, 0, len(terms))
	for _, t := range terms {
		if t.Left == "" || (t.Kind == KindInteraction && t.Right == "") {
			return TermSet{}, core.NewValidationError("term_set", fmt.Sprintf("%s: term %+v references no column", name, t))
		}
		switch t.Kind {
		case KindSimple, KindInteraction, KindLogTransform:
		default:
			return TermSet{}, core.NewValidationError("term_set", fmt.Sprintf("%s: unknown term kind %q", name, t.Kind))
		}
		if seen[t.Key()] {
			return TermSet{}, core.NewValidationError("term_set", fmt.Sprintf("%s: duplicate term %s", name, t.Name()))
		}
		seen[t.Key()] = true
		out = append(out, t)
	}
	return TermSet{name: name, terms: out}, nil
}

// MustTermSet is NewTermSet for statically known sets
func MustTermSet(name string, terms ...Term) TermSet {
	s, err := NewTermSet(name, terms...)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the model family name
func (s TermSet) Name() string { return s.name }

// Len returns the number of terms (excluding the intercept)
func (s TermSet) Len() int { return len(s.terms) }

// IsNull reports whether this is the intercept-only family
func (s TermSet) IsNull() bool { return len(s.terms) == 0 }

// Terms returns a copy of the ordered terms
func (s TermSet) Terms() []Term {
	out := make([]Term, len(s.terms))
	copy(out, s.terms)
	return out
}

// Names returns the display names in order
func (s TermSet) Names() []string {
	names := make([]string, len(s.terms))
	for i, t := range s.terms {
		names[i] = t.Name()
	}
	return names
}

// Contains reports whether a term is a member of the set
func (s TermSet) Contains(t Term) bool {
	for _, existing := range s.terms {
		if existing.Key() == t.Key() {
			return true
		}
	}
	return false
}

// Closure returns the keys of every term plus the simple constituents of derived terms
func (s TermSet) Closure() map[string]Term {
	closure := make(map[string]Term, len(s.terms)*2)
	for _, t := range s.terms {
		closure[t.Key()] = t
		for _, c := range t.Constituents() {
			closure[c.Key()] = c
		}
	}
	return closure
}

// NestedIn checks structurally that every term of s lies in full's simple-term closure
// and that full has at least as many terms. It returns a NotNested error otherwise.
func (s TermSet) NestedIn(full TermSet) error {
	closure := full.Closure()
	var missing []string
	for _, t := range s.terms {
		if _, ok := closure[t.Key()]; !ok {
			missing = append(missing, t.Name())
		}
	}
	if len(missing) > 0 {
		return core.NewNotNestedError(s.name, full.name, "missing "+strings.Join(missing, ", "))
	}
	if full.Len() < s.Len() {
		return core.NewNotNestedError(s.name, full.name, fmt.Sprintf("full model has %d terms, reduced has %d", full.Len(), s.Len()))
	}
	return nil
}

// With returns a new named set with extra terms appended
func (s TermSet) With(name string, extra ...Term) (TermSet, error) {
	terms := make([]Term, 0, len(s.terms)+len(extra))
	terms = append(terms, s.terms...)
	terms = append(terms, extra...)
	return NewTermSet(name, terms...)
}

// String renders the family as "name: a + b + a:b"
func (s TermSet) String() string {
	if s.IsNull() {
		return s.name + ": (intercept only)"
	}
	return s.name + ": " + strings.Join(s.Names(), " + ")
}
