package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorPrimary = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	colorDim     = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#626262"}
	colorBorder  = lipgloss.AdaptiveColor{Light: "#DBDBDB", Dark: "#383838"}

	previewHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorPrimary).
				PaddingLeft(1)

	previewBodyStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorBorder).
				Padding(0, 1)

	previewMetaStyle = lipgloss.NewStyle().
				Foreground(colorDim).
				Italic(true).
				PaddingLeft(1)
)

// previewSink prints the message instead of delivering it.
type previewSink struct {
	w io.Writer
}

func (p previewSink) Send(_ context.Context, text string) error {
	_, err := fmt.Fprintln(p.w, renderPreview(text))
	return err
}

func renderPreview(text string) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		previewHeaderStyle.Render("dry run"),
		previewBodyStyle.Render(text),
		previewMetaStyle.Render(fmt.Sprintf("%d characters, not sent", len([]rune(text)))),
	)
}
