// SPDX-License-Identifier: MPL-2.0

package dirselect

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

var (
	promptTitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	promptExampleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	promptHintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Italic(true)
)

// RenderPrompt formats a prompt request for a line-oriented console.
func RenderPrompt(req PromptRequest) string {
	var b strings.Builder
	b.WriteString(promptTitleStyle.Render(req.Title))
	b.WriteString("\n")
	if len(req.Examples) > 0 {
		b.WriteString(promptExampleStyle.Render("Examples:"))
		b.WriteString("\n")
		for _, ex := range req.Examples {
			b.WriteString(promptExampleStyle.Render("  " + ex))
			b.WriteString("\n")
		}
	}
	b.WriteString(promptHintStyle.Render("Leave empty to use the default location."))
	b.WriteString("\n> ")
	return b.String()
}

// readLine reads one line from r, giving up when ctx is done. The reading
// goroutine is left blocked on r in that case.
func readLine(ctx context.Context, r io.Reader) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := bufio.NewReader(r).ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			ch <- result{err: err}
			return
		}
		ch <- result{line: strings.TrimRight(line, "\r\n")}
	}()

	select {
	case res := <-ch:
		return res.line, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// formPrompt asks through a huh input form.
func formPrompt(ctx context.Context, req PromptRequest, out io.Writer) (string, error) {
	var value string
	description := ""
	if len(req.Examples) > 0 {
		description = "e.g. " + strings.Join(req.Examples, ", ")
	}

	input := huh.NewInput().
		Title(req.Title).
		Description(description).
		Placeholder("leave empty for the default location").
		Value(&value)

	form := huh.NewForm(huh.NewGroup(input)).
		WithTheme(huh.ThemeCharm()).
		WithOutput(out)
	if deadline, ok := ctx.Deadline(); ok {
		form = form.WithTimeout(timeUntil(deadline))
	}

	if err := form.RunWithContext(ctx); err != nil {
		switch {
		case errors.Is(err, huh.ErrUserAborted):
			return "", ErrCancelled
		case errors.Is(err, huh.ErrTimeout):
			return "", context.DeadlineExceeded
		default:
			return "", fmt.Errorf("prompt failed: %w", err)
		}
	}
	return value, nil
}
