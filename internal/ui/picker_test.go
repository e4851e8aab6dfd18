package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m pickerModel, keys ...string) pickerModel {
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(pickerModel)
	}
	return m
}

var accounts = []PickerItem{
	{Label: "dev0", Value: "dev0"},
	{Label: "dev1", Value: "dev1", Current: true},
	{Label: "attacker", Value: "attacker"},
}

func TestPickerStartsOnCurrent(t *testing.T) {
	m := newPickerModel("Accounts", accounts)
	assert.Equal(t, 1, m.cursor)
	assert.Contains(t, m.View(), "dev1")
}

func TestPickerNavigationClamps(t *testing.T) {
	m := newPickerModel("Accounts", accounts)
	m = press(m, "j", "j", "j")
	assert.Equal(t, 2, m.cursor)
	m = press(m, "k", "k", "k", "k")
	assert.Equal(t, 0, m.cursor)
	m = press(m, "G")
	assert.Equal(t, 2, m.cursor)
	m = press(m, "g")
	assert.Equal(t, 0, m.cursor)
}

func TestPickerSelect(t *testing.T) {
	m := press(newPickerModel("Accounts", accounts), "j", "enter")
	require.NotNil(t, m.selected)
	assert.Equal(t, "attacker", m.selected.Value)
}

func TestPickerCancel(t *testing.T) {
	m := press(newPickerModel("Accounts", accounts), "esc")
	assert.True(t, m.quitting)
	assert.Nil(t, m.selected)
	assert.Empty(t, m.View())
}

func TestPickItemEmpty(t *testing.T) {
	_, err := PickItem("Accounts", nil)
	assert.ErrorIs(t, err, ErrNothingToPick)
}
