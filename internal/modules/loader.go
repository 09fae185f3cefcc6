// Package modules implements Flow's `use` resolution and load bookkeeping
// (spec §4.6, §6 "Module resolution"). The loader only resolves, reads, and
// parses a module file into an ast.Program; executing its statements into
// the caller's frame (spec: "loaded modules execute in the caller's current
// frame — no namespace isolation") is internal/interp's job, since that's
// the only package holding a Frame.
package modules

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/noahfreelove/flow/internal/ast"
	"github.com/noahfreelove/flow/internal/diag"
	"github.com/noahfreelove/flow/internal/lexer"
	"github.com/noahfreelove/flow/internal/parser"
)

// Loader resolves `use` paths and caches parsed modules, keyed by their
// canonicalized filesystem path (spec §4.6: "fully-loaded modules (keyed by
// canonical path)").
type Loader struct {
	stdlibDir  string
	workingDir string

	loaded  map[string]*ast.Program
	loading map[string]bool
}

// NewLoader constructs a Loader rooted at the given standard-library
// directory (resolves `@name` imports) and working directory (the fallback
// base for a relative path when there is no importing file, e.g. in the
// REPL).
func NewLoader(stdlibDir, workingDir string) *Loader {
	if workingDir == "" {
		if wd, err := os.Getwd(); err == nil {
			workingDir = wd
		}
	}
	return &Loader{
		stdlibDir:  stdlibDir,
		workingDir: workingDir,
		loaded:     make(map[string]*ast.Program),
		loading:    make(map[string]bool),
	}
}

// ResolvePath canonicalizes a `use` path per spec §4.6 / §6: `@name` →
// `<stdlib-dir>/name.flow` (appending `.flow` if absent); a rooted path to
// itself; a relative path against the importing file's directory; otherwise
// against the process working directory.
func (l *Loader) ResolvePath(path, importingFile string) string {
	if name, ok := strings.CutPrefix(path, "@"); ok {
		if !strings.HasSuffix(name, ".flow") {
			name += ".flow"
		}
		return filepath.Clean(filepath.Join(l.stdlibDir, name))
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	base := l.workingDir
	if importingFile != "" {
		base = filepath.Dir(importingFile)
	}
	return filepath.Clean(filepath.Join(base, path))
}

// Load resolves, reads and parses a `use` target. It returns (program,
// alreadyLoaded). alreadyLoaded is true when the canonical path was fully
// loaded — parsed AND executed — by an earlier `use` (spec §6: "canonicalized
// paths de-duplicate loads"); the caller must not re-execute it. A nil
// program with alreadyLoaded=false means resolution failed or a cycle was
// detected; a diagnostic was recorded and the caller should treat the `use`
// as a no-op.
//
// On success (prog != nil, alreadyLoaded=false) the canonical path is left
// marked "loading", not "loaded": the caller must call EndLoading once it
// has finished executing the module's statements into its frame. Marking it
// loaded only after execution — rather than the moment it's parsed — is
// what lets a nested `use` that loops back to a module still in the middle
// of executing observe it as "loading" and report a cycle (spec §8 item 5),
// instead of finding it already cached and silently no-op'ing.
func (l *Loader) Load(use *ast.UseStmt, importingFile string, bag *diag.Bag) (*ast.Program, bool) {
	canonical := l.ResolvePath(use.Path, importingFile)

	if prog, ok := l.loaded[canonical]; ok {
		return prog, true
	}
	if l.loading[canonical] {
		bag.Modulef(use.Loc, "import cycle detected while loading %q", use.Path)
		return nil, false
	}

	data, err := os.ReadFile(canonical)
	if err != nil {
		bag.Modulef(use.Loc, "cannot load module %q: %v", use.Path, err)
		return nil, false
	}

	toks := lexer.Tokenize(string(data), canonical, bag)
	prog := parser.Parse(toks, bag)
	l.loading[canonical] = true
	return prog, false
}

// BeginLoading marks canonical as currently loading, without parsing
// anything. The entry program executed by Interp.Run has no `use` statement
// of its own pointing at itself, so nothing would otherwise ever call Load
// for it; without this, a module loaded later that `use`s its way back to
// the entry file would find canonical absent from both loaded and loading
// and silently re-read/re-execute it instead of hitting the cycle guard.
func (l *Loader) BeginLoading(canonical string) {
	l.loading[canonical] = true
}

// EndLoading marks canonical's execution complete: it moves from "loading"
// to "loaded" under prog, so a later `use` of the same path is deduplicated
// (Load returns the cached program with alreadyLoaded=true) instead of
// being re-executed or mistaken for a cycle.
func (l *Loader) EndLoading(canonical string, prog *ast.Program) {
	delete(l.loading, canonical)
	l.loaded[canonical] = prog
}
