// Package musicctx implements Flow's lexically-scoped musical-context
// resolution (spec §3 "Musical context", §4.7). Every stack frame may carry
// a Context snapshot with some fields set and others absent ("inherit");
// Resolve walks a stack of snapshots top-to-bottom, takes the first
// non-absent value per field, then fills in documented defaults.
package musicctx

import "fmt"

// Context is one frame's musical-context snapshot. A nil field pointer
// means "inherit from the enclosing scope" (spec §3).
type Context struct {
	TimeSigNum *int
	TimeSigDen *int
	TempoBPM   *float64
	Swing      *float64
	Key        *string
	Dynamics   *string
}

// Effective is the fully-resolved context at a program point, after
// coalescing the stack and filling defaults.
type Effective struct {
	TimeSigNum int
	TimeSigDen int
	TempoBPM   float64
	Swing      float64
	Key        string // "" = no key
	Dynamics   string
}

// Default documents spec §3's stated defaults: 4/4, 120 BPM, 0.5 swing, no
// key, mezzo-forte dynamics.
var Default = Effective{TimeSigNum: 4, TimeSigDen: 4, TempoBPM: 120, Swing: 0.5, Key: "", Dynamics: "mf"}

// dynamicsVelocity is the closed dynamics-name set (`dynamics ident { … }`,
// spec §4.2), mapped to a default MIDI velocity for notes compiled without
// an explicit velocity under that scope.
var dynamicsVelocity = map[string]int{
	"pp": 16, "p": 32, "mp": 48, "mf": 64, "f": 96, "ff": 112,
}

// ValidateDynamics reports membership in the closed dynamics-name set.
func ValidateDynamics(name string) error {
	if _, ok := dynamicsVelocity[name]; !ok {
		return fmt.Errorf("unknown dynamics marking %q", name)
	}
	return nil
}

// DynamicsVelocity resolves a dynamics name to its default MIDI velocity,
// falling back to "mf"'s velocity for an unrecognized name.
func DynamicsVelocity(name string) int {
	if v, ok := dynamicsVelocity[name]; ok {
		return v
	}
	return dynamicsVelocity["mf"]
}

// Resolve coalesces a stack of snapshots. stack[0] is the innermost
// (current) scope; later entries are progressively outer ancestors. The
// first non-nil field wins per spec §4.7 ("first non-absent value per
// field"); anything still absent falls back to Default.
func Resolve(stack []*Context) Effective {
	eff := Default
	var gotNum, gotDen, gotBPM, gotSwing, gotKey, gotDynamics bool
	for _, c := range stack {
		if c == nil {
			continue
		}
		if !gotNum && c.TimeSigNum != nil {
			eff.TimeSigNum = *c.TimeSigNum
			gotNum = true
		}
		if !gotDen && c.TimeSigDen != nil {
			eff.TimeSigDen = *c.TimeSigDen
			gotDen = true
		}
		if !gotBPM && c.TempoBPM != nil {
			eff.TempoBPM = *c.TempoBPM
			gotBPM = true
		}
		if !gotSwing && c.Swing != nil {
			eff.Swing = *c.Swing
			gotSwing = true
		}
		if !gotKey && c.Key != nil {
			eff.Key = *c.Key
			gotKey = true
		}
		if !gotDynamics && c.Dynamics != nil {
			eff.Dynamics = *c.Dynamics
			gotDynamics = true
		}
	}
	return eff
}

// ValidateTempo reports spec §4.7's "tempo > 0".
func ValidateTempo(bpm float64) error {
	if bpm <= 0 {
		return fmt.Errorf("tempo must be > 0, got %v", bpm)
	}
	return nil
}

// ValidateSwing reports spec §4.7's "swing ∈ [0, 1]".
func ValidateSwing(swing float64) error {
	if swing < 0 || swing > 1 {
		return fmt.Errorf("swing must be in [0, 1], got %v", swing)
	}
	return nil
}

// ValidateTimeSig reports spec §4.7's "denominator must be a power of two".
func ValidateTimeSig(num, den int) error {
	if num <= 0 {
		return fmt.Errorf("time signature numerator must be > 0, got %d", num)
	}
	if den <= 0 || den&(den-1) != 0 {
		return fmt.Errorf("time signature denominator must be a power of two, got %d", den)
	}
	return nil
}

// ValidateKey reports spec §4.7's fixed 24-name key set membership. Empty
// string means "no key" and is always valid.
func ValidateKey(name string) error {
	if name == "" {
		return nil
	}
	if _, ok := CanonicalKey(name); !ok {
		return fmt.Errorf("unknown key %q", name)
	}
	return nil
}
