// Package diag implements Flow's diagnostic accumulator.
//
// Flow never lets an internal error abort a running program (spec §7): lexer,
// parser, type, resolution, runtime, module, musical and audio/export failures
// are all reported through a Bag and the producing operation falls back to a
// sentinel value (usually values.Void) so execution can continue.
package diag

import "fmt"

// Kind identifies which stage of the pipeline produced a Diagnostic.
type Kind int

const (
	Lex Kind = iota
	Parse
	Type
	Resolution
	Runtime
	Module
	Musical
	Audio
)

func (k Kind) String() string {
	switch k {
	case Lex:
		return "lex"
	case Parse:
		return "parse"
	case Type:
		return "type"
	case Resolution:
		return "resolution"
	case Runtime:
		return "runtime"
	case Module:
		return "module"
	case Musical:
		return "musical"
	case Audio:
		return "audio"
	default:
		return "unknown"
	}
}

// Location is a source position: file path plus 1-based line/column.
type Location struct {
	File   string
	Line   int
	Column int
}

func (l Location) String() string {
	file := l.File
	if file == "" {
		file = "<input>"
	}
	return fmt.Sprintf("%s:%d:%d", file, l.Line, l.Column)
}

// Diagnostic is one accumulated error, always carrying a source location.
type Diagnostic struct {
	Kind    Kind
	Loc     Location
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Loc, d.Kind, d.Message)
}

// Bag accumulates diagnostics for one engine run. It is not safe for concurrent
// use — the interpreter is single-threaded (spec §5) and owns its Bag.
type Bag struct {
	items []Diagnostic
}

// NewBag returns an empty diagnostic accumulator.
func NewBag() *Bag {
	return &Bag{}
}

// Add records a diagnostic.
func (b *Bag) Add(kind Kind, loc Location, format string, args ...any) {
	b.items = append(b.items, Diagnostic{Kind: kind, Loc: loc, Message: fmt.Sprintf(format, args...)})
}

// Lexf, Parsef, Typef, Resolutionf, Runtimef, Modulef, Musicalf, Audiof are
// convenience wrappers for Add with a fixed Kind.
func (b *Bag) Lexf(loc Location, format string, args ...any) { b.Add(Lex, loc, format, args...) }
func (b *Bag) Parsef(loc Location, format string, args ...any) {
	b.Add(Parse, loc, format, args...)
}
func (b *Bag) Typef(loc Location, format string, args ...any) { b.Add(Type, loc, format, args...) }
func (b *Bag) Resolutionf(loc Location, format string, args ...any) {
	b.Add(Resolution, loc, format, args...)
}
func (b *Bag) Runtimef(loc Location, format string, args ...any) {
	b.Add(Runtime, loc, format, args...)
}
func (b *Bag) Modulef(loc Location, format string, args ...any) {
	b.Add(Module, loc, format, args...)
}
func (b *Bag) Musicalf(loc Location, format string, args ...any) {
	b.Add(Musical, loc, format, args...)
}
func (b *Bag) Audiof(loc Location, format string, args ...any) { b.Add(Audio, loc, format, args...) }

// Items returns the accumulated diagnostics in order.
func (b *Bag) Items() []Diagnostic { return b.items }

// Empty reports whether no diagnostics have been recorded. A run is
// "successful" (spec §7) iff the Bag is empty at program end.
func (b *Bag) Empty() bool { return len(b.items) == 0 }

// Len reports how many diagnostics have accumulated.
func (b *Bag) Len() int { return len(b.items) }
