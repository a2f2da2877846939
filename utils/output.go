package utils

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("37"))            // dark green
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))             // red
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))            // yellow
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))            // cyan
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))            // purple
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69")) // purple
)

func PrintSuccess(text string) {
	fmt.Println(successStyle.Render(text))
}
func PrintError(text string) {
	fmt.Println(errorStyle.Render(text))
}
func PrintWarning(text string) {
	fmt.Println(warningStyle.Render(text))
}
func PrintInfo(text string) {
	fmt.Println(infoStyle.Render(text))
}
func PrintDetail(text string) {
	fmt.Println(detailStyle.Render(text))
}
func PrintHeader(text string) {
	fmt.Println(headerStyle.Render(text))
}

// Table renders tabular command output, optionally as markdown.
type Table struct {
	Headers []string
	Rows    [][]string
}

func NewTable(headers []string) *Table {
	return &Table{
		Headers: headers,
		Rows:    [][]string{},
	}
}

// FormatTable renders headers and rows; safe to call more than once on the
// same Table.
func (t *Table) FormatTable(useMarkdown bool) string {
	tbl := table.New().Headers(t.Headers...)
	tbl = tbl.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return lipgloss.NewStyle().Bold(true).Align(lipgloss.Center).Padding(0, 1)
		}
		return lipgloss.NewStyle().Padding(0, 1)
	})
	for _, row := range t.Rows {
		tbl.Row(row...)
	}
	if useMarkdown {
		return tbl.Border(lipgloss.MarkdownBorder()).String()
	}
	return tbl.String()
}

func (t *Table) PrintTable(useMarkdown bool) {
	fmt.Println(t.FormatTable(useMarkdown))
}

func (t *Table) WriteMarkdownTableToFile(outputPath string) error {
	return os.WriteFile(outputPath, []byte(t.FormatTable(true)), 0644)
}
