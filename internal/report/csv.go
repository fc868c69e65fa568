package report

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"ledger/internal/core"
)

const csvHeader = "ID,Date,Category,Description,Amount"

// WriteCSV writes records in the flat export format: header
// `ID,Date,Category,Description,Amount`, dates as yyyy-MM-dd, descriptions
// double-quoted with inner quotes doubled, amounts with exactly two decimals.
func WriteCSV(w io.Writer, records []core.Record) error {
	if _, err := fmt.Fprintln(w, csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		description := strings.ReplaceAll(r.Description, `"`, `""`)
		if _, err := fmt.Fprintf(w, "%d,%s,%s,\"%s\",%s\n",
			r.ID,
			r.OccurredOn.String(),
			r.CategoryName,
			description,
			r.Amount.StringFixed(2)); err != nil {
			return err
		}
	}
	return nil
}

// ReadCSV parses the flat export format back into records. A line that does
// not parse is skipped with a logged warning; the import continues with the
// remaining lines. Category ids are not resolvable from the file, so only
// the category name is populated.
func ReadCSV(r io.Reader) ([]core.Record, error) {
	scanner := bufio.NewScanner(r)

	// Header line.
	if scanner.Scan() && scanner.Text() != csvHeader {
		slog.Warn("unexpected csv header", "header", scanner.Text())
	}

	records := make([]core.Record, 0)
	lineNo := 1
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		rec, err := parseCSVRecord(line)
		if err != nil {
			slog.Warn("skipping unparseable csv line", "line", lineNo, "error", err)
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func parseCSVRecord(line string) (core.Record, error) {
	fields := splitCSVLine(line)
	if len(fields) < 5 {
		return core.Record{}, fmt.Errorf("expected 5 fields, got %d", len(fields))
	}

	id, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return core.Record{}, fmt.Errorf("bad id %q: %w", fields[0], err)
	}
	date, err := core.ParseDate(fields[1])
	if err != nil {
		return core.Record{}, fmt.Errorf("bad date %q: %w", fields[1], err)
	}
	amount, err := core.ParseAmount(fields[4])
	if err != nil {
		return core.Record{}, fmt.Errorf("bad amount %q: %w", fields[4], err)
	}

	return core.Record{
		ID:           id,
		OccurredOn:   date,
		CategoryName: fields[2],
		Description:  fields[3],
		Amount:       amount,
	}, nil
}

// splitCSVLine splits on commas outside double quotes. A doubled quote
// inside a quoted field yields a literal quote.
func splitCSVLine(line string) []string {
	fields := make([]string, 0, 5)
	var field strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				field.WriteByte('"')
				i++
				continue
			}
			inQuotes = !inQuotes
		case c == ',' && !inQuotes:
			fields = append(fields, field.String())
			field.Reset()
		default:
			field.WriteByte(c)
		}
	}
	fields = append(fields, field.String())
	return fields
}
