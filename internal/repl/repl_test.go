package repl

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/noahfreelove/flow/internal/engine"
)

func key(runes string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(runes)}
}

func typeLine(t *testing.T, m Model, line string) Model {
	t.Helper()
	for _, r := range line {
		updated, _ := m.Update(key(string(r)))
		m = updated.(Model)
	}
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return updated.(Model)
}

func TestBlockBalancedSingleLine(t *testing.T) {
	require.True(t, blockBalanced([]string{"Int x = 1;"}))
}

func TestBlockBalancedOpenProcIsUnbalanced(t *testing.T) {
	require.False(t, blockBalanced([]string{"proc double(Int n)"}))
}

func TestBlockBalancedClosedProcIsBalanced(t *testing.T) {
	require.True(t, blockBalanced([]string{"proc double(Int n)", "return n * 2", "end"}))
}

func TestSubmitLineRunsOnceBalanced(t *testing.T) {
	eng := engine.New("<repl>", engine.WithSeed(1))
	m := New(eng)

	m = typeLine(t, m, "Int x = 3 + 4 * 2;")
	require.Empty(t, m.pending, "a single balanced line should execute immediately")
	require.True(t, eng.Ok())
}

func TestSubmitLineHoldsOpenBlock(t *testing.T) {
	eng := engine.New("<repl>", engine.WithSeed(1))
	m := New(eng)

	m = typeLine(t, m, "proc double(Int n)")
	require.Len(t, m.pending, 1, "an unterminated proc should not be executed yet")

	m = typeLine(t, m, "return n * 2")
	require.Len(t, m.pending, 2)

	m = typeLine(t, m, "end")
	require.Empty(t, m.pending, "the matching 'end' should flush the pending block")
	require.True(t, eng.Ok())
}

func TestPasteWithEmbeddedNewlinesSplitsIntoLines(t *testing.T) {
	eng := engine.New("<repl>", engine.WithSeed(1))
	m := New(eng)

	msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("proc triple(Int n)\nreturn n * 3\nend\n"), Paste: true}
	updated, _ := m.Update(msg)
	m = updated.(Model)

	require.Empty(t, m.pending)
	require.True(t, eng.Ok())
}

func TestBackspaceRemovesLastRune(t *testing.T) {
	m := Model{}
	updated, _ := m.Update(key("a"))
	m = updated.(Model)
	updated, _ = m.Update(key("b"))
	m = updated.(Model)
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	m = updated.(Model)
	require.Equal(t, "a", m.line)
}
