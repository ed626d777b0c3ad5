// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// ErrPromptCancelled is returned when the user abandons a prompt.
var ErrPromptCancelled = errors.New("prompt cancelled")

// Interactive reports whether stdin is a terminal a prompt can read.
func Interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

type promptKeys struct {
	Submit key.Binding
	Cancel key.Binding
}

var defaultPromptKeys = promptKeys{
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "accept"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc", "ctrl+c"),
		key.WithHelp("esc", "cancel"),
	),
}

// promptModel is a single-line text input that refuses to submit until
// validate accepts the value.
type promptModel struct {
	label     string
	input     textinput.Model
	validate  func(string) error
	keys      promptKeys
	err       error
	submitted bool
	cancelled bool
}

func newPromptModel(label, placeholder string, validate func(string) error) promptModel {
	input := textinput.New()
	input.Placeholder = placeholder
	input.Focus()
	return promptModel{label: label, input: input, validate: validate, keys: defaultPromptKeys}
}

func (m promptModel) Init() tea.Cmd { return textinput.Blink }

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Cancel):
			m.cancelled = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Submit):
			value := strings.TrimSpace(m.input.Value())
			if m.validate != nil {
				if err := m.validate(value); err != nil {
					m.err = err
					return m, nil
				}
			}
			m.submitted = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.err = nil
	return m, cmd
}

func (m promptModel) View() string {
	if m.submitted || m.cancelled {
		return ""
	}
	label := lipgloss.NewStyle().Foreground(colorHeader).Bold(true).Render(m.label)
	view := fmt.Sprintf("%s %s\n", label, m.input.View())
	if m.err != nil {
		view += lipgloss.NewStyle().Foreground(colorFailure).Render("  "+m.err.Error()) + "\n"
	}
	return view
}

// Prompt reads one value from the terminal. validate may be nil.
func Prompt(label, placeholder string, validate func(string) error) (string, error) {
	final, err := tea.NewProgram(newPromptModel(label, placeholder, validate), tea.WithOutput(os.Stderr)).Run()
	if err != nil {
		return "", fmt.Errorf("prompting for %s: %w", label, err)
	}
	model := final.(promptModel)
	if model.cancelled {
		return "", ErrPromptCancelled
	}
	return strings.TrimSpace(model.input.Value()), nil
}

// PromptIfEmpty fills *value by prompting when it is empty and stdin is
// a terminal. A still-empty value is an error naming flag.
func PromptIfEmpty(value *string, flag, label string, validate func(string) error) error {
	if *value != "" {
		return nil
	}
	if !Interactive() {
		return fmt.Errorf("--%s is required", flag)
	}
	answer, err := Prompt(label, "", validate)
	if err != nil {
		return err
	}
	if answer == "" {
		return fmt.Errorf("--%s is required", flag)
	}
	*value = answer
	return nil
}
