package tui

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/livescores/scoreboard/pkg/types"
)

const (
	defaultWidth = 80
	minNameWidth = 8
	podiumWidth  = 22
)

// Render draws b for a terminal width columns wide.
func Render(b types.Board, width int, now time.Time) string {
	if width <= 0 {
		width = defaultWidth
	}
	st := newStyles(b.BrandColor)

	var sb strings.Builder
	sb.WriteString(st.Title.Render(b.Title))
	sb.WriteString("\n")
	sb.WriteString(status(b, now, st))
	sb.WriteString("\n\n")

	if b.Loading && len(b.Entries) == 0 {
		return sb.String()
	}
	if len(b.Entries) == 0 {
		sb.WriteString(st.Muted.Render("No scores yet."))
		sb.WriteString("\n")
		return sb.String()
	}

	cards := make([]string, 0, len(b.Podium))
	for _, e := range b.Podium {
		cards = append(cards, st.Podium.Width(podiumWidth).Render(podiumCard(e, st)))
	}
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	sb.WriteString("\n")

	if len(b.Rest) > 0 {
		sb.WriteString("\n")
		nameWidth := width - 28 // rank, score, count, avg columns and gaps
		if nameWidth < minNameWidth {
			nameWidth = minNameWidth
		}
		for _, e := range b.Rest {
			sb.WriteString(row(e, nameWidth, st))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func status(b types.Board, now time.Time, st styles) string {
	var parts []string
	if b.Loading {
		parts = append(parts, st.Muted.Render("Loading…"))
	}
	if b.LastUpdated != nil {
		parts = append(parts, st.Muted.Render(fmt.Sprintf("Updated %s (%s ago)",
			b.LastUpdated.Local().Format("15:04:05"), b.Age(now).Truncate(time.Second))))
	}
	if b.HasError() {
		parts = append(parts, st.Error.Render("Error: "+*b.Error))
	}
	return strings.Join(parts, "  ")
}

func podiumCard(e types.BoardEntry, st styles) string {
	name := runewidth.Truncate(e.Name, podiumWidth-4, "…")
	return strings.Join([]string{
		st.Rank.Render("#" + strconv.Itoa(e.Rank)),
		st.Initial.Render(e.Initials),
		name,
		st.Score.Render(Score(e.ScoreNum)),
	}, "\n")
}

func row(e types.BoardEntry, nameWidth int, st styles) string {
	name := runewidth.FillRight(runewidth.Truncate(e.Name, nameWidth, "…"), nameWidth)
	return fmt.Sprintf("%s  %s  %s  %s  %s",
		st.Rank.Render(fmt.Sprintf("%4s", "#"+strconv.Itoa(e.Rank))),
		name,
		st.Score.Render(fmt.Sprintf("%8s", Score(e.ScoreNum))),
		st.Muted.Render(fmt.Sprintf("%4s", e.Count)),
		st.Muted.Render(fmt.Sprintf("%6s", e.Avg)),
	)
}

// Score formats a coerced score without trailing zeros.
func Score(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WritePlain writes b as an unstyled, tab-separated table with a header.
func WritePlain(w io.Writer, b types.Board) error {
	if b.HasError() {
		if _, err := fmt.Fprintf(w, "# error: %s\n", *b.Error); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, "rank\tname\tscore\tcount\tavg"); err != nil {
		return err
	}
	for _, e := range b.Entries {
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			e.Rank, e.Name, Score(e.ScoreNum), e.Count, e.Avg); err != nil {
			return err
		}
	}
	return nil
}
