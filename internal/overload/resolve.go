// Package overload implements Flow's overload-resolution algorithm (spec
// §4.4): given a name and a list of argument types, score every visible
// overload and pick the unique best match.
package overload

import (
	"fmt"
	"strings"

	"github.com/noahfreelove/flow/internal/types"
)

// Candidate is anything carrying a callable signature. values.Overload
// implements this so interp can resolve directly over *values.Overload
// slices without this package importing values (avoiding a cycle: values
// already needs ast and musicctx, and overload only needs types).
type Candidate interface {
	Signature() types.Signature
}

const (
	scoreExact      = 1000
	scoreCompatible = 500
	scoreConvertible = 100
)

// matchScore scores one (argument type, parameter type) pair per spec §4.4
// step 2.
func matchScore(arg, param *types.Type) (int, bool) {
	if arg.Equals(param) {
		return scoreExact, true
	}
	if arg.IsCompatibleWith(param) {
		return scoreCompatible, true
	}
	if arg.CanConvertTo(param) {
		return scoreConvertible, true
	}
	return 0, false
}

// candidateScore computes the total score for one candidate against
// argTypes, respecting varargs (spec §4.4 step 4): surplus arguments beyond
// the fixed parameters must each be compatible with the varargs element
// type, except when a single surplus argument is already an Array of that
// element type, which passes through unscored-per-element as one exact
// match.
func candidateScore(sig types.Signature, argTypes []*types.Type) (int, bool) {
	fixedCount := len(sig.Params)
	if sig.Variadic {
		fixedCount--
	}
	if fixedCount < 0 {
		fixedCount = 0
	}

	if !sig.Variadic {
		if len(argTypes) != len(sig.Params) {
			return 0, false
		}
	} else if len(argTypes) < fixedCount {
		return 0, false
	}

	total := 0
	for i := 0; i < fixedCount; i++ {
		s, ok := matchScore(argTypes[i], sig.Params[i])
		if !ok {
			return 0, false
		}
		total += s
	}
	if !sig.Variadic {
		return total, true
	}

	elem := sig.Params[len(sig.Params)-1].Elem
	surplus := argTypes[fixedCount:]

	// Pass-through special case: one surplus argument that is already
	// Array<elem> (or Array<Void>) is not re-wrapped.
	if len(surplus) == 1 && surplus[0].Kind == types.KindArray &&
		(surplus[0].Elem.Equals(elem) || surplus[0].Elem.Kind == types.KindVoid || elem.Kind == types.KindVoid) {
		return total + scoreExact, true
	}

	for _, a := range surplus {
		// A Void varargs element type (the `list(items: Void...)` shape) is
		// the universal acceptor: it takes any argument type, scored as a
		// plain compatible match rather than rejected outright.
		if elem.Kind == types.KindVoid {
			total += scoreCompatible
			continue
		}
		s, ok := matchScore(a, elem)
		if !ok {
			return 0, false
		}
		total += s
	}
	return total, true
}

// aggregateSpecificity sums the declared specificity of a candidate's
// parameter types (varargs element counted once), used to break ties (spec
// §4.4 step 2, §9 Design Notes: "prefer the one with higher aggregate
// specificity").
func aggregateSpecificity(sig types.Signature) int {
	total := 0
	for _, p := range sig.Params {
		total += p.Specificity()
	}
	return total
}

// Result is the outcome of a successful resolution.
type Result struct {
	Index int
	Score int
}

// Resolve picks the unique best-scoring candidate for argTypes. It returns
// a descriptive error matching spec §4.4/§7's Resolution diagnostics
// ("not found", "no matching overload", "ambiguous") on failure.
func Resolve(name string, candidates []Candidate, argTypes []*types.Type) (Result, error) {
	if len(candidates) == 0 {
		return Result{}, fmt.Errorf("%q not found", name)
	}

	bestScore := -1
	var tied []int
	for i, c := range candidates {
		score, ok := candidateScore(c.Signature(), argTypes)
		if !ok {
			continue
		}
		if score > bestScore {
			bestScore = score
			tied = []int{i}
		} else if score == bestScore {
			tied = append(tied, i)
		}
	}

	if len(tied) == 0 {
		return Result{}, fmt.Errorf("no overload of %q matches argument types %s", name, describeArgs(argTypes))
	}
	if len(tied) == 1 {
		return Result{Index: tied[0], Score: bestScore}, nil
	}

	// Tie-break on aggregate specificity.
	bestSpec := -1
	var specTied []int
	for _, i := range tied {
		spec := aggregateSpecificity(candidates[i].Signature())
		if spec > bestSpec {
			bestSpec = spec
			specTied = []int{i}
		} else if spec == bestSpec {
			specTied = append(specTied, i)
		}
	}
	if len(specTied) == 1 {
		return Result{Index: specTied[0], Score: bestScore}, nil
	}
	return Result{}, fmt.Errorf("ambiguous call to %q with argument types %s", name, describeArgs(argTypes))
}

// TryResolve performs the same scoring without constructing diagnostic
// text, for callers that only need a yes/no probe (spec §4.4 "try-resolve
// variant" — e.g. the interpreter deciding whether a bare identifier is a
// zero-arg call or a variable reference).
func TryResolve(candidates []Candidate, argTypes []*types.Type) (Result, bool) {
	bestScore := -1
	var tied []int
	for i, c := range candidates {
		score, ok := candidateScore(c.Signature(), argTypes)
		if !ok {
			continue
		}
		if score > bestScore {
			bestScore = score
			tied = []int{i}
		} else if score == bestScore {
			tied = append(tied, i)
		}
	}
	if len(tied) == 0 {
		return Result{}, false
	}
	if len(tied) == 1 {
		return Result{Index: tied[0], Score: bestScore}, true
	}
	bestSpec := -1
	var specTied []int
	for _, i := range tied {
		spec := aggregateSpecificity(candidates[i].Signature())
		if spec > bestSpec {
			bestSpec = spec
			specTied = []int{i}
		} else if spec == bestSpec {
			specTied = append(specTied, i)
		}
	}
	if len(specTied) == 1 {
		return Result{Index: specTied[0], Score: bestScore}, true
	}
	return Result{}, false
}

func describeArgs(argTypes []*types.Type) string {
	parts := make([]string, len(argTypes))
	for i, t := range argTypes {
		parts[i] = t.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
