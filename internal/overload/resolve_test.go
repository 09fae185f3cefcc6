package overload

import (
	"testing"

	"github.com/noahfreelove/flow/internal/types"
)

type fakeCandidate struct {
	sig types.Signature
}

func (f fakeCandidate) Signature() types.Signature { return f.sig }

func sig(name string, variadic bool, params ...*types.Type) types.Signature {
	return types.Signature{Name: name, Params: params, Variadic: variadic}
}

func TestResolveExactMatch(t *testing.T) {
	candidates := []Candidate{
		fakeCandidate{sig("add", false, types.Int, types.Int)},
		fakeCandidate{sig("add", false, types.Double, types.Double)},
	}
	res, err := Resolve("add", candidates, []*types.Type{types.Int, types.Int})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Index != 0 {
		t.Fatalf("expected exact Int,Int overload (index 0), got %d", res.Index)
	}
}

func TestResolveConvertiblePrefersHigherRungOverExactMismatch(t *testing.T) {
	// Int argument against (Double) and (Number) overloads: all three are
	// numeric, so both overloads score as compatible (same score) — the tie
	// falls to aggregate specificity, and Double has higher specificity than
	// Number.
	candidates := []Candidate{
		fakeCandidate{sig("f", false, types.Number)},
		fakeCandidate{sig("f", false, types.Double)},
	}
	res, err := Resolve("f", candidates, []*types.Type{types.Int})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Index != 1 {
		t.Fatalf("expected Double overload (index 1) to win specificity tie-break, got %d", res.Index)
	}
}

func TestResolveNotFound(t *testing.T) {
	_, err := Resolve("missing", nil, []*types.Type{types.Int})
	if err == nil {
		t.Fatal("expected error for empty candidate list")
	}
}

func TestResolveNoMatchingOverload(t *testing.T) {
	candidates := []Candidate{
		fakeCandidate{sig("f", false, types.String)},
	}
	_, err := Resolve("f", candidates, []*types.Type{types.Bool})
	if err == nil {
		t.Fatal("expected error when no overload accepts the argument types")
	}
}

func TestResolveAmbiguous(t *testing.T) {
	candidates := []Candidate{
		fakeCandidate{sig("f", false, types.Number)},
		fakeCandidate{sig("f", false, types.Number)},
	}
	_, err := Resolve("f", candidates, []*types.Type{types.Double})
	if err == nil {
		t.Fatal("expected ambiguous-call error for two identically-scored, identically-specific overloads")
	}
}

func TestResolveVariadicArrayPassthrough(t *testing.T) {
	listSig := types.Signature{Name: "list", Params: []*types.Type{types.VoidArray}, Variadic: true}
	candidates := []Candidate{fakeCandidate{listSig}}

	// A single Array<Int> argument should pass straight through rather than
	// being treated as one element to wrap.
	res, err := Resolve("list", candidates, []*types.Type{types.ArrayOf(types.Int)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Index != 0 {
		t.Fatalf("expected the single overload to win, got %d", res.Index)
	}
}

func TestResolveVariadicElementwise(t *testing.T) {
	listSig := types.Signature{Name: "list", Params: []*types.Type{types.VoidArray}, Variadic: true}
	candidates := []Candidate{fakeCandidate{listSig}}

	res, err := Resolve("list", candidates, []*types.Type{types.Int, types.Int, types.Int})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Index != 0 {
		t.Fatalf("expected variadic elementwise match, got %d", res.Index)
	}
}

func TestTryResolveNoCandidates(t *testing.T) {
	if _, ok := TryResolve(nil, nil); ok {
		t.Fatal("expected TryResolve to fail with no candidates")
	}
}

func TestTryResolveZeroArg(t *testing.T) {
	candidates := []Candidate{
		fakeCandidate{sig("now", false)},
	}
	res, ok := TryResolve(candidates, nil)
	if !ok {
		t.Fatal("expected zero-arg overload to resolve")
	}
	if res.Index != 0 {
		t.Fatalf("expected index 0, got %d", res.Index)
	}
}
