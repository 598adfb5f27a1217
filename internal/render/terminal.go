package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lepinkainen/storefront/internal/view"
)

const (
	// DefaultWidth is the card width when the terminal size is unknown.
	DefaultWidth = 72
	minWidth     = 40

	booksHeading = "Best-Selling Books"
	noBooks      = "No Data Available"
)

type cardStyles struct {
	card    lipgloss.Style
	name    lipgloss.Style
	country lipgloss.Style
	rating  lipgloss.Style
	heading lipgloss.Style
	title   lipgloss.Style
	author  lipgloss.Style
	empty   lipgloss.Style
	faint   lipgloss.Style
}

func newCardStyles() cardStyles {
	asciiBorder := lipgloss.Border{
		Top:         "-",
		Bottom:      "-",
		Left:        "|",
		Right:       "|",
		TopLeft:     "+",
		TopRight:    "+",
		BottomLeft:  "+",
		BottomRight: "+",
	}

	return cardStyles{
		card: lipgloss.NewStyle().
			Border(asciiBorder).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1),
		name: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("254")),
		country: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("110")),
		rating: lipgloss.NewStyle().
			Foreground(lipgloss.Color("178")),
		heading: lipgloss.NewStyle().
			Bold(true).
			Underline(true).
			Foreground(lipgloss.Color("214")),
		title: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),
		author: lipgloss.NewStyle().
			Foreground(lipgloss.Color("248")),
		empty: lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("244")),
		faint: lipgloss.NewStyle().
			Foreground(lipgloss.Color("247")).
			Faint(true),
	}
}

var styles = newCardStyles()

// Card renders one store as a bordered card of the given outer width.
func Card(rec view.DisplayRecord, width int) string {
	if width < minWidth {
		width = minWidth
	}
	inner := width - 4

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		styles.name.Render(truncate(rec.Name, inner-20)),
		" ",
		styles.country.Render(countryMarker(rec)),
		" ",
		styles.rating.Render(Stars(rec.Rating)),
	)

	lines := []string{header, styles.heading.Render(booksHeading)}
	lines = append(lines, bookRows(rec, inner)...)
	lines = append(lines, styles.faint.Render(truncate(Footer(rec), inner)))
	if rec.HasFlag() {
		lines = append(lines, styles.faint.Render(truncate("Flag: "+rec.FlagURL, inner)))
	}

	return styles.card.Width(inner).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func countryMarker(rec view.DisplayRecord) string {
	if rec.HasFlag() {
		return fmt.Sprintf("⚑ %s", rec.CountryCode)
	}
	return fmt.Sprintf("[%s]", rec.CountryCode)
}

func bookRows(rec view.DisplayRecord, inner int) []string {
	if !rec.HasBooks() {
		return []string{styles.empty.Render(noBooks)}
	}

	titleWidth := inner / 2
	authorWidth := inner - titleWidth - 1
	rows := make([]string, 0, len(rec.Books))
	for _, b := range rec.Books {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top,
			styles.title.Width(titleWidth).Render(truncate(b.Title, titleWidth)),
			" ",
			styles.author.Width(authorWidth).Render(truncate(b.Author, authorWidth)),
		))
	}
	return rows
}

// Cards renders every record as a card, separated by blank lines.
func Cards(records []view.DisplayRecord, width int) string {
	if len(records) == 0 {
		return styles.empty.Render("No stores found")
	}

	cards := make([]string, 0, len(records))
	for _, rec := range records {
		cards = append(cards, Card(rec, width))
	}
	return strings.Join(cards, "\n\n")
}

// Terminal writes the cards for records to w.
func Terminal(w io.Writer, records []view.DisplayRecord, width int) error {
	if width <= 0 {
		width = DefaultWidth
	}
	if _, err := fmt.Fprintln(w, Cards(records, width)); err != nil {
		return fmt.Errorf("write cards: %w", err)
	}
	return nil
}

func truncate(value string, width int) string {
	value = strings.Join(strings.Fields(value), " ")
	runes := []rune(value)
	if width <= 0 || len(runes) <= width {
		return value
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
