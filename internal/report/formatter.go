// Package report serializes record sets for export and display.
//
// The pretty report format is a contract of its own: key order (incomes
// before expenses) and the exact indentation discipline are fixed, which is
// why the pretty-printer is a small state machine over the compact
// serialization instead of a wrapper around a formatting library.
package report

import (
	"bytes"
	"encoding/json"
	"strings"

	"ledger/internal/core"
)

type reportEntry struct {
	ID          int64       `json:"id"`
	Date        string      `json:"date"`
	Category    string      `json:"category"`
	Amount      json.Number `json:"amount"`
	Description string      `json:"description"`
}

// Format renders the records as a pretty-printed report object holding an
// "expenses" array and, when incomes are supplied (non-nil), an "incomes"
// array listed first. Amounts are emitted as numbers, not strings.
func Format(expenses, incomes []core.Record) (string, error) {
	var payload any
	if incomes != nil {
		payload = struct {
			Incomes  []reportEntry `json:"incomes"`
			Expenses []reportEntry `json:"expenses"`
		}{toEntries(incomes), toEntries(expenses)}
	} else {
		payload = struct {
			Expenses []reportEntry `json:"expenses"`
		}{toEntries(expenses)}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return "", err
	}

	compact := strings.TrimRight(buf.String(), "\n")
	return prettyPrint(compact), nil
}

func toEntries(records []core.Record) []reportEntry {
	entries := make([]reportEntry, len(records))
	for i, r := range records {
		entries[i] = reportEntry{
			ID:          r.ID,
			Date:        r.OccurredOn.String(),
			Category:    r.CategoryName,
			Amount:      json.Number(r.Amount.String()),
			Description: r.Description,
		}
	}
	return entries
}

// prettyPrint reflows a compact JSON document: two-space indentation after
// every opening brace/bracket, a newline after every comma, one space after
// each colon, other whitespace outside strings stripped. The only state is
// whether the cursor sits inside a quoted string; string contents pass
// through untouched.
func prettyPrint(compact string) string {
	var b strings.Builder
	b.Grow(len(compact) * 2)

	indent := 0
	inString := false
	for i := 0; i < len(compact); i++ {
		c := compact[i]

		if inString {
			b.WriteByte(c)
			if c == '"' && !escaped(compact, i) {
				inString = false
			}
			continue
		}

		switch c {
		case '{', '[':
			b.WriteByte(c)
			b.WriteByte('\n')
			indent++
			writeIndent(&b, indent)
		case '}', ']':
			b.WriteByte('\n')
			indent--
			writeIndent(&b, indent)
			b.WriteByte(c)
		case ',':
			b.WriteByte(c)
			b.WriteByte('\n')
			writeIndent(&b, indent)
		case ':':
			b.WriteByte(c)
			b.WriteByte(' ')
		case '"':
			b.WriteByte(c)
			inString = true
		default:
			if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
				b.WriteByte(c)
			}
		}
	}

	return b.String()
}

// escaped reports whether the byte at i is preceded by an odd run of
// backslashes, i.e. the quote belongs to the string body.
func escaped(s string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

func writeIndent(b *strings.Builder, level int) {
	for i := 0; i < level; i++ {
		b.WriteString("  ")
	}
}
