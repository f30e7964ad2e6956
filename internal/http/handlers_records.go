package http

import (
	"errors"
	"net/http"
	"strings"

	"fieldlog/internal/core"
	"fieldlog/internal/log"
	"fieldlog/internal/report"
)

// handleListRecords returns the company's records in stored order, optionally
// filtered to one day and sorted newest first.
func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	company, ok := companyFromPath(w, r)
	if !ok {
		return
	}
	q, err := ParseListQuery(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	list, err := s.records.List(r.Context(), company)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "List records failed",
			log.FieldCompany, company, log.FieldOperation, log.OpList, log.FieldError, err)
		writeServiceError(w, err)
		return
	}
	if q.Date != "" {
		list = report.FilterByDate(list, q.Date)
	}
	if q.Newest {
		list = report.SortNewestFirst(list)
	}
	NewResponse().JSON(list).Write(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	company, ok := companyFromPath(w, r)
	if !ok {
		return
	}
	summary, err := s.records.Summary(r.Context(), company, s.today())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Records summary failed", log.FieldCompany, company, log.FieldError, err)
		writeServiceError(w, err)
		return
	}
	NewResponse().JSON(summary).Write(w)
}

// handleSaveRecord upserts one record. Invalid bodies get 400 with the
// structured field errors.
func (s *Server) handleSaveRecord(w http.ResponseWriter, r *http.Request) {
	company, ok := companyFromPath(w, r)
	if !ok {
		return
	}

	parser := NewRequestBodyParser(r)
	rec, err := parser.ActivityRecord()
	if err != nil {
		var verr core.ValidationErrors
		switch {
		case errors.As(err, &verr):
			s.logger.InfoContext(r.Context(), "Record rejected",
				log.FieldCompany, company, log.FieldOperation, log.OpValidate, log.FieldError, err)
			ValidationErrorResponse(verr).Write(w)
		case errors.Is(err, ErrBodyTooLarge):
			ErrorResponse(http.StatusRequestEntityTooLarge, err.Error()).Write(w)
		default:
			v := core.ValidationErrors{}
			v.Add("", "invalid request body")
			ValidationErrorResponse(v).Write(w)
		}
		return
	}

	saved, err := s.records.Save(r.Context(), company, rec)
	if err != nil {
		s.events.LogError(r.Context(), "Save record failed", err, log.ComponentHTTP, log.OpUpsert,
			log.NewFields().WithCompany(string(company)).WithRecord(rec.ID, rec.Date, string(rec.Type), rec.Quantity))
		writeServiceError(w, err)
		return
	}
	s.events.LogRecordSaved(r.Context(), string(company), saved.ID, saved.Date, string(saved.Type), saved.Quantity)
	OKResponse().Write(w)
}

func (s *Server) handleRemoveRecord(w http.ResponseWriter, r *http.Request) {
	company, ok := companyFromPath(w, r)
	if !ok {
		return
	}
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		NotFoundError("missing record id").Write(w)
		return
	}

	if err := s.records.Remove(r.Context(), company, id); err != nil {
		s.logger.ErrorContext(r.Context(), "Remove record failed",
			log.FieldCompany, company, log.FieldRecordID, id, log.FieldError, err)
		writeServiceError(w, err)
		return
	}
	s.events.LogRecordsChanged(r.Context(), string(company), log.OpDelete, id)
	OKResponse().Write(w)
}

func (s *Server) handleClearRecords(w http.ResponseWriter, r *http.Request) {
	company, ok := companyFromPath(w, r)
	if !ok {
		return
	}
	if err := s.records.Clear(r.Context(), company); err != nil {
		s.logger.ErrorContext(r.Context(), "Clear records failed", log.FieldCompany, company, log.FieldError, err)
		writeServiceError(w, err)
		return
	}
	s.events.LogRecordsChanged(r.Context(), string(company), log.OpClear, "")
	OKResponse().Write(w)
}
