// Package repl implements Flow's interactive read-eval-print loop as a
// Bubble Tea program, grounded on the teacher's own terminal UI
// (pkg/tui/model.go): an Init/Update/View model reacting to tea.KeyMsg,
// styled with lipgloss, driven by a single-line text cursor plus a
// scrollback of submitted lines and their output.
//
// Flow statements can span multiple lines (an open `proc ... end` or a
// `timesig 4/4 { ... }` block), so the model accumulates raw source lines
// into a pending block and only hands it to engine.RunSource once every
// `proc`/`end` and `{`/`}` it has seen so far balances out (SPEC_FULL.md
// §12 "REPL history & multi-line paste handling").
package repl

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/noahfreelove/flow/internal/diag"
	"github.com/noahfreelove/flow/internal/engine"
	"github.com/noahfreelove/flow/internal/lexer"
)

var (
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	contStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// Model is the REPL's Bubble Tea model. One Engine backs the whole
// session, so declarations and variables from earlier submissions persist
// in its root frame exactly as they would across `use`d modules.
type Model struct {
	Engine *engine.Engine

	Width, Height int

	// pending holds source lines already submitted with Enter but not yet
	// handed to the interpreter, because their proc/brace nesting has not
	// yet closed.
	pending []string

	// line is the line currently being typed.
	line string

	// history is every complete line the user has submitted, most recent
	// last; historyIdx walks it on up/down.
	history    []string
	historyIdx int

	// scrollback holds rendered transcript entries (echoed input plus any
	// resulting diagnostics or success marker) for View to render.
	scrollback []string

	replCount int
}

// New constructs a REPL model over an already-configured Engine.
func New(eng *engine.Engine) Model {
	return Model{Engine: eng}
}

func (m Model) Init() tea.Cmd {
	return tea.EnterAltScreen
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEnter:
		return m.submitLine(), nil
	case tea.KeyBackspace:
		if len(m.line) > 0 {
			m.line = m.line[:len(m.line)-1]
		}
		return m, nil
	case tea.KeyUp:
		return m.recallHistory(-1), nil
	case tea.KeyDown:
		return m.recallHistory(1), nil
	case tea.KeyRunes, tea.KeySpace:
		text := string(msg.Runes)
		if msg.Type == tea.KeySpace {
			text = " "
		}
		// A bracketed paste delivers the whole clipboard as one KeyMsg,
		// possibly containing embedded newlines; split it the same way a
		// human typing line-by-line would.
		if msg.Paste && strings.Contains(text, "\n") {
			return m.pasteLines(text), nil
		}
		m.line += text
		return m, nil
	}
	return m, nil
}

// pasteLines splits a bracketed paste on its embedded newlines and submits
// each complete line exactly as Enter would. The final segment is only
// submitted if the paste itself ended in a newline; otherwise it's left on
// the current line for the user to keep typing or press Enter on.
func (m Model) pasteLines(text string) Model {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		m.line += l
		if i < len(lines)-1 {
			m = m.submitLine()
		}
	}
	return m
}

func (m Model) recallHistory(dir int) Model {
	if len(m.history) == 0 {
		return m
	}
	idx := m.historyIdx + dir
	if idx < 0 {
		idx = 0
	}
	if idx >= len(m.history) {
		m.historyIdx = len(m.history)
		m.line = ""
		return m
	}
	m.historyIdx = idx
	m.line = m.history[idx]
	return m
}

// submitLine appends the current line to the pending block, echoes it to
// the scrollback, and — once the block's proc/brace nesting balances —
// hands the whole block to the engine and records its diagnostics.
func (m Model) submitLine() Model {
	line := m.line
	m.history = append(m.history, line)
	m.historyIdx = len(m.history)
	m.pending = append(m.pending, line)

	prefix := "> "
	if len(m.pending) > 1 {
		prefix = "... "
	}
	m.scrollback = append(m.scrollback, prefix+line)
	m.line = ""

	if !blockBalanced(m.pending) {
		return m
	}

	source := strings.Join(m.pending, "\n")
	m.pending = nil
	m.replCount++
	file := fmt.Sprintf("<repl:%d>", m.replCount)

	before := m.Engine.Bag.Len()
	m.Engine.RunSource(source, file)
	items := m.Engine.Bag.Items()
	if len(items) > before {
		for _, d := range items[before:] {
			m.scrollback = append(m.scrollback, errStyle.Render(d.String()))
		}
	}
	return m
}

// blockBalanced tokenizes every line submitted so far and reports whether
// every `proc` has a matching `end` and every `{` a matching `}`. A
// throwaway diag.Bag absorbs lexer diagnostics from partial input (e.g. an
// unterminated string mid-paste); they're not meaningful until the block
// is complete.
func blockBalanced(lines []string) bool {
	toks := lexer.Tokenize(strings.Join(lines, "\n"), "<repl>", diag.NewBag())
	depth := 0
	for _, tok := range toks {
		switch tok.Kind {
		case lexer.TokProc, lexer.TokLBrace:
			depth++
		case lexer.TokEnd, lexer.TokRBrace:
			depth--
		}
	}
	return depth <= 0
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(promptStyle.Render("flow repl") + " — ctrl+c to quit\n\n")
	for _, entry := range m.scrollback {
		b.WriteString(entry)
		b.WriteString("\n")
	}
	prompt := "> "
	if len(m.pending) > 0 {
		prompt = contStyle.Render("... ")
	} else {
		prompt = promptStyle.Render("> ")
	}
	b.WriteString(prompt + m.line)
	return b.String()
}
