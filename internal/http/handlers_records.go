package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"ledger/internal/core"
)

type recordResponse struct {
	ID          int64  `json:"id"`
	CategoryID  int64  `json:"category_id"`
	Category    string `json:"category,omitempty"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

type recordRequest struct {
	CategoryID  int64  `json:"category_id"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

func toRecordResponse(r core.Record) recordResponse {
	return recordResponse{
		ID:          r.ID,
		CategoryID:  r.CategoryID,
		Category:    r.CategoryName,
		Amount:      r.Amount.String(),
		Description: r.Description,
		Date:        r.OccurredOn.String(),
	}
}

// parseRecordRequest decodes and converts the shared create/update payload.
// Malformed JSON or an unparseable date are 400s; amount strings go through
// the domain parser so bad amounts surface as validation errors later.
func (s *Server) parseRecordRequest(w http.ResponseWriter, r *http.Request) (recordRequest, core.Date, bool) {
	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return recordRequest{}, core.Date{}, false
	}

	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be in yyyy-MM-dd format")
		return recordRequest{}, core.Date{}, false
	}

	return req, date, true
}

func (s *Server) handleList(kind core.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := userFrom(r.Context())

		records, err := s.ledgers[kind].ListForUser(r.Context(), user.ID)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}

		out := make([]recordResponse, len(records))
		for i, rec := range records {
			out[i] = toRecordResponse(rec)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) handleCreate(kind core.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := userFrom(r.Context())

		req, date, ok := s.parseRecordRequest(w, r)
		if !ok {
			return
		}

		amount, err := core.ParseAmount(req.Amount)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}

		rec, err := s.ledgers[kind].CreateRecord(r.Context(), user.ID, req.CategoryID, amount, req.Description, date)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toRecordResponse(rec))
	}
}

func (s *Server) handleUpdate(kind core.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := userFrom(r.Context())

		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid record id")
			return
		}

		req, date, ok := s.parseRecordRequest(w, r)
		if !ok {
			return
		}

		amount, err := core.ParseAmount(req.Amount)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}

		matched, err := s.ledgers[kind].UpdateRecord(r.Context(), core.Record{
			ID:          id,
			UserID:      user.ID,
			CategoryID:  req.CategoryID,
			Amount:      amount,
			Description: req.Description,
			OccurredOn:  date,
		})
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		if !matched {
			writeError(w, http.StatusNotFound, "record not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleDelete(kind core.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid record id")
			return
		}

		matched, err := s.ledgers[kind].DeleteRecord(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		if !matched {
			writeError(w, http.StatusNotFound, "record not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleSummary(kind core.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := userFrom(r.Context())
		now := time.Now()

		year := queryInt(r, "year", now.Year())
		month := queryInt(r, "month", int(now.Month()))
		if month < 1 || month > 12 {
			writeError(w, http.StatusBadRequest, "month must be between 1 and 12")
			return
		}

		totals, err := s.ledgers[kind].MonthlySummary(r.Context(), user.ID, year, month)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}

		out := make(map[string]string, len(totals))
		for name, total := range totals {
			out[name] = total.String()
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"year":   year,
			"month":  month,
			"totals": out,
		})
	}
}

func (s *Server) handleCategories(kind core.Kind) http.HandlerFunc {
	type categoryResponse struct {
		ID          int64  `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := s.ledgers[kind].ListCategories(r.Context())
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}

		out := make([]categoryResponse, len(categories))
		for i, c := range categories {
			out[i] = categoryResponse{ID: c.ID, Name: c.Name, Description: c.Description}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
