// Package ui holds the terminal styles shared by the CLI commands.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/deltatask/deltatask/internal/task"
)

func init() {
	// Respect NO_COLOR and dumb terminals.
	lipgloss.SetColorProfile(termenv.EnvColorProfile())
}

var (
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	titleStyle  = lipgloss.NewStyle().Bold(true)
)

// RenderAccent renders emphasized text (headings, identifiers).
func RenderAccent(s string) string { return accentStyle.Render(s) }

// RenderPass renders success text.
func RenderPass(s string) string { return passStyle.Render(s) }

// RenderWarn renders warning text.
func RenderWarn(s string) string { return warnStyle.Render(s) }

// RenderErr renders error text.
func RenderErr(s string) string { return errStyle.Render(s) }

// RenderMuted renders de-emphasized text (ids, timestamps).
func RenderMuted(s string) string { return mutedStyle.Render(s) }

// TaskLine formats one task for list output.
func TaskLine(t *task.Task) string {
	var b strings.Builder

	if t.Completed {
		b.WriteString(passStyle.Render("✓") + " ")
	} else {
		b.WriteString("  ")
	}
	b.WriteString(titleStyle.Render(t.Title))

	meta := []string{fmt.Sprintf("urgency %d", t.Urgency), fmt.Sprintf("effort %d", t.Effort)}
	if t.Deadline != "" {
		meta = append(meta, "due "+t.Deadline)
	}
	if len(t.Tags) > 0 {
		meta = append(meta, "#"+strings.Join(t.Tags, " #"))
	}
	b.WriteString("  " + mutedStyle.Render("("+strings.Join(meta, ", ")+")"))
	b.WriteString("\n    " + mutedStyle.Render(t.ID))

	return b.String()
}

// Urgency renders an urgency level with escalating color.
func Urgency(level int) string {
	label := fmt.Sprintf("urgency %d", level)
	switch {
	case level >= 4:
		return errStyle.Render(label)
	case level == 3:
		return warnStyle.Render(label)
	default:
		return mutedStyle.Render(label)
	}
}
