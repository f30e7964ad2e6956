package http

import (
	"errors"
	"net/http"
	"strings"

	"fieldlog/internal/core"
)

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	// Remove control characters except tab, newline, carriage return
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// companyFromPath resolves the {company} path value. Unknown companies get a
// 404 and ok=false.
func companyFromPath(w http.ResponseWriter, r *http.Request) (core.CompanyID, bool) {
	company, err := core.ParseCompany(r.PathValue("company"))
	if err != nil {
		NotFoundError("unknown company").Write(w)
		return "", false
	}
	return company, true
}

// writeServiceError maps a service error onto a response.
func writeServiceError(w http.ResponseWriter, err error) {
	var verr core.ValidationErrors
	switch {
	case errors.As(err, &verr):
		ValidationErrorResponse(verr).Write(w)
	case errors.Is(err, core.ErrUnknownCompany):
		NotFoundError("unknown company").Write(w)
	default:
		InternalServerError("internal error").Write(w)
	}
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
