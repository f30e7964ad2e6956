package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"fieldlog/internal/core"
)

func TestParseListQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   url.Values
		want    ListQuery
		wantErr bool
	}{
		{name: "empty", query: url.Values{}, want: ListQuery{}},
		{name: "date and newest", query: url.Values{"date": {"2025-08-01"}, "sort": {"NEWEST"}}, want: ListQuery{Date: "2025-08-01", Newest: true}},
		{name: "stored order", query: url.Values{"sort": {"stored"}}, want: ListQuery{}},
		{name: "impossible day", query: url.Values{"date": {"2025-02-30"}}, wantErr: true},
		{name: "unknown sort", query: url.Values{"sort": {"oldest"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseListQuery(tt.query)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseListQuery() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseListQuery() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRequestBodyParser_JSON(t *testing.T) {
	body := `{"id": "123", "name": "test", "qty": 42, "flag": true, "code": 7}`
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if !parser.IsJSON() {
		t.Error("IsJSON() should be true")
	}
	if got := parser.Get("id"); got != "123" {
		t.Errorf("Get(id) = %q, want %q", got, "123")
	}
	if got := parser.Get("flag"); got != "" {
		t.Errorf("Get(flag) = %q, want non-string JSON to read empty", got)
	}
	if got := parser.Get("code"); got != "" {
		t.Errorf("Get(code) = %q, want non-string JSON to read empty", got)
	}
	if qty, err := parser.Int("qty"); err != nil || qty != 42 {
		t.Errorf("Int(qty) = %d, %v", qty, err)
	}
	if parser.Has("missing") {
		t.Error("Has(missing) should be false")
	}
}

func TestRequestBodyParser_Form(t *testing.T) {
	body := "id=abc&notes=%20poste%0012%20&qty=7"
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if parser.IsJSON() {
		t.Error("IsJSON() should be false for form data")
	}
	if got := parser.Get("notes"); got != "poste12" {
		t.Errorf("Get(notes) = %q, want control characters stripped", got)
	}
	if qty, err := parser.Int("qty"); err != nil || qty != 7 {
		t.Errorf("Int(qty) = %d, %v", qty, err)
	}
}

func TestRequestBodyParser_Int(t *testing.T) {
	tests := []struct {
		body    string
		want    int
		wantErr bool
	}{
		{`{"qty": 3}`, 3, false},
		{`{"qty": "4"}`, 0, true},
		{`{"qty": 0}`, 0, false},
		{`{"qty": 2.5}`, 0, true},
		{`{"qty": 1e12}`, 0, true},
		{`{"qty": true}`, 0, true},
		{`qty=abc`, 0, true},
		{`qty=-2`, -2, false},
		{`qty=4`, 4, false},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(tt.body))
		parser := NewRequestBodyParser(req)
		if err := parser.Parse(); err != nil {
			t.Fatalf("Parse(%s) error = %v", tt.body, err)
		}
		got, err := parser.Int("qty")
		if (err != nil) != tt.wantErr {
			t.Errorf("Int(%s) error = %v, wantErr %v", tt.body, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("Int(%s) = %d, want %d", tt.body, got, tt.want)
		}
	}
}

func TestRequestBodyParser_ActivityRecord(t *testing.T) {
	body := `{"id":" r1 ","date":"2025-08-27","type":"Espacador","qty":17,"notes":"ok"}`
	req := httptest.NewRequest(http.MethodPost, "/records/EMS", strings.NewReader(body))

	rec, err := NewRequestBodyParser(req).ActivityRecord()
	if err != nil {
		t.Fatalf("ActivityRecord() error = %v", err)
	}
	want := core.ActivityRecord{ID: "r1", Date: "2025-08-27", Type: core.Spacer, Quantity: 17, Notes: "ok"}
	if rec != want {
		t.Errorf("ActivityRecord() = %+v, want %+v", rec, want)
	}
}

func TestRequestBodyParser_ActivityRecordCollectsErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/records/EMS", strings.NewReader(`{"date":"2025-13-01","qty":"many"}`))

	_, err := NewRequestBodyParser(req).ActivityRecord()

	var verr core.ValidationErrors
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	for _, f := range []string{"id", "date", "type", "qty"} {
		if len(verr.FieldErrors[f]) == 0 {
			t.Errorf("missing field error for %s: %v", f, verr)
		}
	}
	if got := verr.FieldErrors["qty"]; len(got) != 1 || got[0] != "must be an integer" {
		t.Errorf("qty errors = %v", got)
	}
}

func TestRequestBodyParser_ActivityRecordRequiresJSONTypes(t *testing.T) {
	body := `{"id":12,"date":"2025-08-01","type":"prune","qty":"5","notes":3}`
	req := httptest.NewRequest(http.MethodPost, "/records/EMS", strings.NewReader(body))

	_, err := NewRequestBodyParser(req).ActivityRecord()

	var verr core.ValidationErrors
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	want := map[string]string{"id": "must be a string", "notes": "must be a string", "qty": "must be an integer"}
	for field, msg := range want {
		if got := verr.FieldErrors[field]; len(got) == 0 || got[0] != msg {
			t.Errorf("%s errors = %v, want first %q", field, got, msg)
		}
	}
	if _, ok := verr.FieldErrors["date"]; ok {
		t.Errorf("date is valid, got %v", verr.FieldErrors["date"])
	}
}

func TestRequestBodyParser_ActivityRecordFormQuantity(t *testing.T) {
	body := "id=7&date=2025-08-01&type=prune&qty=5"
	req := httptest.NewRequest(http.MethodPost, "/records/EMS", strings.NewReader(body))

	rec, err := NewRequestBodyParser(req).ActivityRecord()
	if err != nil {
		t.Fatalf("ActivityRecord() error = %v", err)
	}
	if rec.ID != "7" || rec.Quantity != 5 {
		t.Errorf("ActivityRecord() = %+v", rec)
	}
}

func TestRequestBodyParser_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"json array", `[1,2]`, nil},
		{"broken json", `{"id":`, nil},
		{"too large", `{"notes":"` + strings.Repeat("x", maxBodyBytes) + `"}`, ErrBodyTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(tt.body))
			err := NewRequestBodyParser(req).Parse()
			if err == nil {
				t.Fatal("Parse() should fail")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("Parse() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  a\x00b\tc\n "); got != "ab\tc" {
		t.Errorf("sanitizeInput() = %q", got)
	}
}
