// SPDX-License-Identifier: MPL-2.0

package sfxrun

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/sfxpack/sfxpack/pkg/extractor"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Width(10)
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)
)

// renderSummary formats the result of a run for the console.
func renderSummary(appName string, outcome *extractor.Outcome, err error) string {
	name := appName
	if name == "" {
		name = "Package"
	}

	var lines []string
	lines = append(lines, titleStyle.Render(name))

	switch {
	case err == nil && outcome != nil && outcome.Succeeded:
		lines = append(lines,
			successStyle.Render("Extraction complete"),
			row("Location", outcome.TargetDirectory),
			row("Files", fmt.Sprintf("%d", outcome.ExtractedCount)),
			row("Size", humanize.IBytes(uint64(outcome.TotalBytes))),
			row("Method", outcome.Tier),
		)
	default:
		lines = append(lines, errorStyle.Render("Extraction failed"))
		var failure *extractor.ExtractionFailedError
		var notFound *extractor.ArchiveNotFoundError
		switch {
		case errors.As(err, &notFound):
			lines = append(lines, "The package archive could not be found. Keep the .zip file next to this program.")
			for _, tried := range notFound.Tried {
				lines = append(lines, "  - "+tried)
			}
		case errors.As(err, &failure) && failure.ArchiveCopy != "":
			lines = append(lines,
				"The archive was copied next to the destination. Extract it manually:",
				row("Archive", failure.ArchiveCopy),
				row("Into", failure.Target),
			)
		case err != nil:
			lines = append(lines, err.Error())
		}
	}

	return boxStyle.Render(strings.Join(lines, "\n"))
}

func row(label, value string) string {
	return labelStyle.Render(label) + " " + value
}
