// Package uiutil holds Brazilian Portuguese formatting helpers for templates.
package uiutil

import (
	"strconv"
	"strings"
	"time"
)

// DateLayout is the dd/mm/yyyy layout used across the site.
const DateLayout = "02/01/2006"

var saoPaulo = loadLocation("America/Sao_Paulo")

func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("BRT", -3*60*60)
	}
	return loc
}

// FormatDate returns t as dd/mm/yyyy in Brasília time, or "" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(saoPaulo).Format(DateLayout)
}

// FormatDateTime returns t as "dd/mm/yyyy às hh:mm" in Brasília time.
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(saoPaulo).Format("02/01/2006 às 15:04")
}

// FriendlyRelativeTime describes how long ago t occurred, relative to now.
func FriendlyRelativeTime(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "agora mesmo"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minuto", "minutos")
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hora", "horas")
	case diff < 7*24*time.Hour:
		return plural(int(diff.Hours()/24), "dia", "dias")
	default:
		return FormatDate(t)
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "há 1 " + one
	}
	return "há " + strconv.Itoa(n) + " " + many
}

// FormatThousands groups digits with dots: 12345 -> "12.345".
func FormatThousands(n int) string {
	neg := n < 0
	s := strconv.Itoa(n)
	if neg {
		s = s[1:]
	}
	if len(s) > 3 {
		var b strings.Builder
		head := len(s) % 3
		if head == 0 {
			head = 3
		}
		b.WriteString(s[:head])
		for i := head; i < len(s); i += 3 {
			b.WriteByte('.')
			b.WriteString(s[i : i+3])
		}
		s = b.String()
	}
	if neg {
		return "-" + s
	}
	return s
}

// TruncateWithEllipsis shortens text to the provided rune limit and appends an ellipsis when truncated.
func TruncateWithEllipsis(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	if limit <= 1 {
		return "…"
	}
	return strings.TrimSpace(string(runes[:limit-1])) + "…"
}

// Paragraphs splits free text into non-empty trimmed lines.
func Paragraphs(text string) []string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
