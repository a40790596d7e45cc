package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rubiojr/postsearch/pkg/document"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")).
			Margin(1, 0, 1, 0)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	docStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			Margin(0, 0, 1, 2)

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	tagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33"))

	noDataStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true).
			Margin(1, 0)
)

const snippetLength = 240

// renderHeader prints the section header of a result listing.
func renderHeader(w io.Writer, query, order string) {
	header := fmt.Sprintf("%s results for %q", cases.Title(language.English).String(order), query)
	fmt.Fprintln(w, headerStyle.Render(header))
}

// renderDocs prints each document as a bordered block.
func renderDocs(w io.Writer, docs []document.Document) {
	if len(docs) == 0 {
		fmt.Fprintln(w, noDataStyle.Render("No results found"))
		return
	}

	for _, d := range docs {
		var b strings.Builder
		b.WriteString(titleStyle.Render(d.Title))
		b.WriteString("\n")
		b.WriteString(metaStyle.Render(fmt.Sprintf("#%s · %s · score %s · %s views", d.ID, d.CreationDate, d.Score, d.ViewCount)))
		if tags := d.TagList(); len(tags) > 0 {
			b.WriteString("\n")
			b.WriteString(tagStyle.Render(strings.Join(tags, " ")))
		}
		if snippet := d.Snippet(snippetLength); snippet != "" {
			b.WriteString("\n\n")
			b.WriteString(snippet)
		}
		fmt.Fprintln(w, docStyle.Width(100).Render(b.String()))
	}
}

// renderCursor prints the pagination footer.
func renderCursor(w io.Writer, cursor string) {
	if cursor == "" {
		fmt.Fprintln(w, metaStyle.Render("End of results"))
		return
	}
	fmt.Fprintln(w, metaStyle.Render("Next page: --cursor "+cursor))
}
