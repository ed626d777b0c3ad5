// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Palette, as ANSI 256-color codes.
var (
	colorLabel   = lipgloss.Color("245")
	colorValue   = lipgloss.Color("252")
	colorSuccess = lipgloss.Color("42")
	colorFailure = lipgloss.Color("196")
	colorBorder  = lipgloss.Color("240")
	colorHeader  = lipgloss.Color("39")
)

// Printer writes styled status output.
type Printer struct {
	w          io.Writer
	labelWidth int
}

// NewPrinter returns a Printer writing to w. Field labels are padded to
// a common width so values line up.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, labelWidth: 16}
}

// Success writes a status line marked as succeeded.
func (p *Printer) Success(format string, args ...any) {
	mark := lipgloss.NewStyle().Foreground(colorSuccess).Bold(true).Render("✓")
	fmt.Fprintf(p.w, "%s %s\n", mark, fmt.Sprintf(format, args...))
}

// Field writes one "label  value" line.
func (p *Printer) Field(label string, value any) {
	labelStyle := lipgloss.NewStyle().Foreground(colorLabel).Width(p.labelWidth)
	valueStyle := lipgloss.NewStyle().Foreground(colorValue)
	fmt.Fprintf(p.w, "  %s%s\n", labelStyle.Render(label), valueStyle.Render(fmt.Sprint(value)))
}

// Table writes rows under headers with a rounded border.
func (p *Printer) Table(headers []string, rows [][]string) {
	headerStyle := lipgloss.NewStyle().Foreground(colorHeader).Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Foreground(colorValue).Padding(0, 1)
	rendered := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	fmt.Fprintln(p.w, rendered.Render())
}

// Failure writes err as a styled error line.
func Failure(w io.Writer, err error) {
	label := lipgloss.NewStyle().Foreground(colorFailure).Bold(true).Render("error:")
	fmt.Fprintf(w, "%s %v\n", label, err)
}
