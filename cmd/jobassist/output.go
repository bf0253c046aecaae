package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kalambet/jobassist/internal/matching"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	labelStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	replyStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func colorize(style lipgloss.Style, text string) string {
	if noColor {
		return text
	}
	return style.Render(text)
}

func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(successStyle, "✓ "+msg))
}

func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(errorStyle, "✗ "+msg))
}

func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(warningStyle, "⚠ "+msg))
}

func printStatus(label string, format string, args ...any) {
	val := fmt.Sprintf(format, args...)
	l := colorize(labelStyle, label+":")
	fmt.Fprintf(os.Stderr, "  %s %s\n", l, val)
}

func printStep(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(stepStyle, "→ "+msg))
}

// chatReply is a decoded /v1/chat response. Data stays generic because its
// shape depends on the intent.
type chatReply struct {
	Intent   string         `json:"intent"`
	Message  string         `json:"message"`
	Data     any            `json:"data"`
	Metadata map[string]any `json:"metadata"`
}

func renderReply(w io.Writer, r chatReply) {
	var b strings.Builder
	b.WriteString(r.Message)

	switch data := r.Data.(type) {
	case []any:
		for _, item := range data {
			b.WriteString("\n  • " + summarize(item))
		}
	case map[string]any:
		b.WriteString("\n  " + summarize(data))
	}

	if noColor {
		fmt.Fprintln(w, b.String())
	} else {
		fmt.Fprintln(w, replyStyle.Render(b.String()))
	}
	fmt.Fprintln(w, colorize(mutedStyle, r.Intent))
}

// summarize renders one data item on a single line. Postings, candidates
// and match scores get their identifying fields; anything else is printed
// as is.
func summarize(item any) string {
	m, ok := item.(map[string]any)
	if !ok {
		return fmt.Sprint(item)
	}
	switch {
	case m["title"] != nil:
		return joinNonEmpty(" · ", m["title"], m["company"], m["location"])
	case m["jobTitle"] != nil:
		return fmt.Sprintf("%v: %v%%", m["jobTitle"], m["matchScore"])
	case m["name"] != nil:
		return joinNonEmpty(" · ", m["name"], m["location"], m["skills"])
	default:
		var parts []string
		for k, v := range m {
			parts = append(parts, fmt.Sprintf("%s=%v", k, v))
		}
		return strings.Join(parts, " ")
	}
}

func joinNonEmpty(sep string, values ...any) string {
	var parts []string
	for _, v := range values {
		if v == nil {
			continue
		}
		if s := fmt.Sprint(v); s != "" && s != "[]" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, sep)
}

func renderMatches(w io.Writer, matches []matching.MatchResult) {
	if len(matches) == 0 {
		fmt.Fprintln(w, "No matching jobs found.")
		return
	}
	for i, m := range matches {
		fmt.Fprintf(w, "%2d. %s %s\n", i+1,
			colorize(labelStyle, fmt.Sprintf("%6.2f%%", m.MatchScore)),
			joinNonEmpty(" · ", m.Title, m.Company, m.Location),
		)
	}
}
