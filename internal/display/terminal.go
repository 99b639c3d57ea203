// Package display renders the countdown view on a terminal.
package display

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/ykvlv/sunrise-countdown/internal/domain"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	counterStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	sunStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	rowStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	nextStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

// Terminal writes a frame to w whenever the rendered view changes.
type Terminal struct {
	mu   sync.Mutex
	w    io.Writer
	last string
}

func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

// Render implements scheduler.Display.
func (t *Terminal) Render(v domain.View) {
	frame := Frame(v)
	t.mu.Lock()
	defer t.mu.Unlock()
	if frame == t.last {
		return
	}
	t.last = frame
	// clear screen, cursor home
	_, _ = io.WriteString(t.w, "\x1b[H\x1b[2J"+frame+"\n")
}

// Frame renders v as plain lines decorated with lipgloss styles.
func Frame(v domain.View) string {
	var b strings.Builder

	if !v.HasSunrise {
		if v.Err != "" {
			b.WriteString(errStyle.Render(v.Err) + "\n")
		}
		b.WriteString(titleStyle.Render("Enter sunrise time") + "\n")
		b.WriteString("Sunrise could not be determined automatically.\n")
		return b.String()
	}

	if v.Next != nil {
		b.WriteString(titleStyle.Render("Time until "+v.Next.Name) + "\n")
	} else {
		b.WriteString(titleStyle.Render("Done for today") + "\n")
	}
	b.WriteString(counterStyle.Render(domain.FormatCountdown(v.Remaining)) + "\n\n")
	b.WriteString(sunStyle.Render("Sunrise "+domain.FormatClock(v.Sunrise)) + "\n")

	for i, s := range v.Stages {
		line := fmt.Sprintf("%-14s %s", s.Name, domain.FormatClock(s.At))
		if i == v.NextIndex {
			b.WriteString(nextStyle.Render("> "+line) + "\n")
			continue
		}
		b.WriteString(rowStyle.Render("  "+line) + "\n")
	}
	if v.Err != "" {
		b.WriteString("\n" + errStyle.Render(v.Err) + "\n")
	}
	return b.String()
}

// Bell rings the terminal bell when a stage is reached.
type Bell struct {
	mu sync.Mutex
	w  io.Writer
}

func NewBell(w io.Writer) *Bell { return &Bell{w: w} }

func (b *Bell) Name() string { return "bell" }

// Notify implements scheduler.Notifier.
func (b *Bell) Notify(_ context.Context, _ domain.DerivedStage) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := io.WriteString(b.w, "\a")
	return err
}
