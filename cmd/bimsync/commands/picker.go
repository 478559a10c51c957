// Copyright 2026 The Bimsync Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/baps-project/bimsync/extract"
)

// errPickerAborted is returned when the user quits the picker without
// confirming a selection.
var errPickerAborted = errors.New("selection aborted")

// pickerKeyMap defines the key bindings for the selector picker.
type pickerKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Toggle  key.Binding
	All     key.Binding
	None    key.Binding
	Confirm key.Binding
	Quit    key.Binding
}

var defaultPickerKeys = pickerKeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Toggle: key.NewBinding(
		key.WithKeys(" ", "x"),
		key.WithHelp("space", "toggle"),
	),
	All: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "select all"),
	),
	None: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "select none"),
	),
	Confirm: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "confirm"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "abort"),
	),
}

var (
	pickerTitleStyle    = lipgloss.NewStyle().Bold(true)
	pickerCursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	pickerSelectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	pickerHelpStyle     = lipgloss.NewStyle().Faint(true)
)

type pickerItem struct {
	selector extract.Selector
	selected bool
}

type pickerModel struct {
	items   []pickerItem
	cursor  int
	keys    pickerKeyMap
	aborted bool
}

func newPickerModel(selectors []extract.Selector) pickerModel {
	items := make([]pickerItem, len(selectors))
	for i, selector := range selectors {
		items[i] = pickerItem{selector: selector, selected: true}
	}
	return pickerModel{items: items, keys: defaultPickerKeys}
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, m.keys.Down):
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, m.keys.Toggle):
		m.items[m.cursor].selected = !m.items[m.cursor].selected
	case key.Matches(keyMsg, m.keys.All):
		for i := range m.items {
			m.items[i].selected = true
		}
	case key.Matches(keyMsg, m.keys.None):
		for i := range m.items {
			m.items[i].selected = false
		}
	case key.Matches(keyMsg, m.keys.Confirm):
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.Quit):
		m.aborted = true
		return m, tea.Quit
	}
	return m, nil
}

func (m pickerModel) View() string {
	var view strings.Builder
	view.WriteString(pickerTitleStyle.Render("Select element groups to sync"))
	view.WriteString("\n\n")

	for i, item := range m.items {
		cursor := "  "
		if i == m.cursor {
			cursor = pickerCursorStyle.Render("▸ ")
		}
		checkbox := "[ ]"
		label := fmt.Sprintf("%s (%s)", item.selector.Name, item.selector.Category)
		if item.selected {
			checkbox = pickerSelectedStyle.Render("[x]")
			label = pickerSelectedStyle.Render(label)
		}
		fmt.Fprintf(&view, "%s%s %s\n", cursor, checkbox, label)
	}

	view.WriteString("\n")
	view.WriteString(pickerHelpStyle.Render("j/k move · space toggle · a all · n none · enter confirm · q abort"))
	view.WriteString("\n")
	return view.String()
}

// pickSelectors runs the interactive picker and returns the chosen
// selectors. All selectors start selected.
func pickSelectors(selectors []extract.Selector) ([]extract.Selector, error) {
	program := tea.NewProgram(newPickerModel(selectors), tea.WithOutput(os.Stderr))
	final, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("running picker: %w", err)
	}

	m := final.(pickerModel)
	if m.aborted {
		return nil, errPickerAborted
	}

	picked := make([]extract.Selector, 0, len(m.items))
	for _, item := range m.items {
		if item.selected {
			picked = append(picked, item.selector)
		}
	}
	return picked, nil
}
