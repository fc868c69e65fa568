package http

import (
	"net/http"
	"strings"

	"ledger/internal/core"
	"ledger/internal/insight"
	applog "ledger/internal/log"
	"ledger/internal/report"
)

// handleReport renders both record sets as one pretty-printed document,
// incomes first.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	expenses, err := s.ledgers[core.KindExpense].ListForUser(r.Context(), user.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	incomes, err := s.ledgers[core.KindIncome].ListForUser(r.Context(), user.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	out, err := report.Format(expenses, incomes)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out + "\n"))
}

func (s *Server) handleExportCSV(kind core.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := userFrom(r.Context())

		records, err := s.ledgers[kind].ListForUser(r.Context(), user.ID)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="`+string(kind)+`s.csv"`)
		if err := report.WriteCSV(w, records); err != nil {
			s.logger.ErrorContext(r.Context(), "csv export failed", applog.FieldError, err)
		}
	}
}

func (s *Server) handleExportJSON(kind core.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := userFrom(r.Context())

		records, err := s.ledgers[kind].ListForUser(r.Context(), user.ID)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := report.WriteJSON(w, records); err != nil {
			s.logger.ErrorContext(r.Context(), "json export failed", applog.FieldError, err)
		}
	}
}

// handleImport re-creates records from a CSV or JSON export. Categories are
// matched by name; rows naming an unknown category or failing validation are
// skipped and counted, not fatal.
func (s *Server) handleImport(kind core.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := userFrom(r.Context())

		var (
			records []core.Record
			err     error
		)
		if strings.Contains(r.Header.Get("Content-Type"), "text/csv") {
			records, err = report.ReadCSV(r.Body)
		} else {
			records, err = report.ReadJSON(r.Body)
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, "unparseable import document")
			return
		}

		categories, err := s.ledgers[kind].ListCategories(r.Context())
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		byName := make(map[string]int64, len(categories))
		for _, c := range categories {
			byName[c.Name] = c.ID
		}

		imported, skipped := 0, 0
		for _, rec := range records {
			categoryID, ok := byName[rec.CategoryName]
			if !ok {
				s.logger.WarnContext(r.Context(), "skipping import row with unknown category",
					applog.FieldKind, kind,
					"category", rec.CategoryName)
				skipped++
				continue
			}

			if _, err := s.ledgers[kind].CreateRecord(r.Context(), user.ID, categoryID, rec.Amount, rec.Description, rec.OccurredOn); err != nil {
				if core.IsValidationError(err) {
					s.logger.WarnContext(r.Context(), "skipping invalid import row",
						applog.FieldKind, kind,
						applog.FieldError, err)
					skipped++
					continue
				}
				s.writeServiceError(w, r, err)
				return
			}
			imported++
		}

		writeJSON(w, http.StatusOK, map[string]int{
			"imported": imported,
			"skipped":  skipped,
		})
	}
}

// handleInsight runs the expense analysis through the external service and
// maps the tagged result onto HTTP statuses.
func (s *Server) handleInsight(w http.ResponseWriter, r *http.Request) {
	if s.insight == nil {
		writeError(w, http.StatusServiceUnavailable, "insight service not configured")
		return
	}

	user := userFrom(r.Context())
	expenses, err := s.ledgers[core.KindExpense].ListForUser(r.Context(), user.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	res := s.insight.AnalyzeRecords(r.Context(), expenses)
	switch res.Status {
	case insight.StatusOK:
		writeJSON(w, http.StatusOK, map[string]string{"prediction": res.Text})
	case insight.StatusUnavailable:
		writeError(w, http.StatusServiceUnavailable, res.Text)
	case insight.StatusTimeout:
		writeError(w, http.StatusGatewayTimeout, res.Text)
	default:
		writeError(w, http.StatusBadGateway, res.Text)
	}
}
