package report

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"ledger/internal/core"
)

// jsonRecord is the structured export element. Amount travels as a string so
// the full decimal precision survives the round trip.
type jsonRecord struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

// WriteJSON writes records as a flat array of export objects.
func WriteJSON(w io.Writer, records []core.Record) error {
	out := make([]jsonRecord, len(records))
	for i, r := range records {
		out[i] = jsonRecord{
			ID:          r.ID,
			Date:        r.OccurredOn.String(),
			Category:    r.CategoryName,
			Description: r.Description,
			Amount:      r.Amount.String(),
		}
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(out)
}

// ReadJSON parses a structured export back into records. Elements with
// unparseable dates or amounts are skipped with a logged warning; a document
// that is not valid JSON at all fails the import.
func ReadJSON(r io.Reader) ([]core.Record, error) {
	var raw []jsonRecord
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse export document: %w", err)
	}

	records := make([]core.Record, 0, len(raw))
	for i, jr := range raw {
		date, err := core.ParseDate(jr.Date)
		if err != nil {
			slog.Warn("skipping export element with bad date", "index", i, "date", jr.Date)
			continue
		}
		amount, err := core.ParseAmount(jr.Amount)
		if err != nil {
			slog.Warn("skipping export element with bad amount", "index", i, "amount", jr.Amount)
			continue
		}
		records = append(records, core.Record{
			ID:           jr.ID,
			OccurredOn:   date,
			CategoryName: jr.Category,
			Description:  jr.Description,
			Amount:       amount,
		})
	}

	return records, nil
}
