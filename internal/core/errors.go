package core

import (
	"sort"
	"strings"
)

// ValidationErrors is a structured rejection of a record, shaped like
// {"formErrors": [...], "fieldErrors": {"field": [...]}}.
type ValidationErrors struct {
	FormErrors  []string            `json:"formErrors"`
	FieldErrors map[string][]string `json:"fieldErrors"`
}

// Add records a message for a field. An empty field records a form-level error.
func (v *ValidationErrors) Add(field, msg string) {
	if field == "" {
		v.FormErrors = append(v.FormErrors, msg)
		return
	}
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string][]string)
	}
	v.FieldErrors[field] = append(v.FieldErrors[field], msg)
}

func (v ValidationErrors) Error() string {
	parts := append([]string(nil), v.FormErrors...)
	fields := make([]string, 0, len(v.FieldErrors))
	for f := range v.FieldErrors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(v.FieldErrors[f], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Normalized returns a copy with nil slices and maps replaced by empty ones
// so the JSON shape is stable.
func (v ValidationErrors) Normalized() ValidationErrors {
	out := ValidationErrors{FormErrors: v.FormErrors, FieldErrors: v.FieldErrors}
	if out.FormErrors == nil {
		out.FormErrors = []string{}
	}
	if out.FieldErrors == nil {
		out.FieldErrors = map[string][]string{}
	}
	return out
}
