// Package render formats augmentation results for the terminal.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	originStyle  = lipgloss.NewStyle().Faint(true)
	indexStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(4).Align(lipgloss.Right)
	variantStyle = lipgloss.NewStyle().PaddingLeft(1)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Italic(true).PaddingLeft(2)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")).Padding(0, 1)
)

// Variant is one generated text, with the augmentations that produced it.
type Variant struct {
	Text   string
	Labels []string
}

// Variants renders the variants of original under title. warnings are listed after them.
func Variants(title, original string, variants []Variant, warnings ...string) string {
	lines := []string{
		titleStyle.Render(title),
		originStyle.Render(original),
		"",
	}
	for ii, v := range variants {
		line := lipgloss.JoinHorizontal(lipgloss.Top, indexStyle.Render(fmt.Sprintf("%d.", ii+1)), variantStyle.Render(v.Text))
		if len(v.Labels) > 0 {
			line = lipgloss.JoinHorizontal(lipgloss.Top, line, labelStyle.Render(strings.Join(v.Labels, " > ")))
		}
		lines = append(lines, line)
	}
	for _, w := range warnings {
		lines = append(lines, warnStyle.Render("! "+w))
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// Texts converts texts without labels to variants.
func Texts(texts []string) []Variant {
	variants := make([]Variant, len(texts))
	for ii, t := range texts {
		variants[ii] = Variant{Text: t}
	}
	return variants
}
