package core

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	Prune  ActivityType = "prune"
	Spacer ActivityType = "spacer"

	Operator Role = "operator"
	Manager  Role = "manager"

	EMS CompanyID = "EMS"
	ESS CompanyID = "ESS"
)

type (
	ActivityType string

	Role string

	CompanyID string

	// ActivityRecord is one logged maintenance action for a company.
	ActivityRecord struct {
		ID       string       `json:"id"`
		Date     string       `json:"date"`
		Type     ActivityType `json:"type"`
		Quantity int          `json:"qty"`
		Notes    string       `json:"notes,omitempty"`
	}

	Company struct {
		ID   CompanyID `json:"id"`
		Name string    `json:"name"`
	}

	// TypeInfo describes how an activity type is presented.
	TypeInfo struct {
		Type  ActivityType `json:"type"`
		Label string       `json:"label"`
		Short string       `json:"short"`
	}
)

var (
	ErrUnknownCompany = errors.New("unknown company")
	ErrUnknownType    = errors.New("unknown activity type")
	ErrInvalidDate    = errors.New("invalid date")
	ErrUnknownRole    = errors.New("unknown role")
)

var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Registered activity types in display order. Adding a type here is enough
// for aggregation, export and charts to pick it up.
var typeRegistry = []TypeInfo{
	{Type: Prune, Label: "Poda de Árvore", Short: "Poda"},
	{Type: Spacer, Label: "Instalação Espaçador", Short: "Espaçador"},
}

// Legacy tags accepted on input.
var typeAliases = map[string]ActivityType{
	"poda":      Prune,
	"espacador": Spacer,
	"espaçador": Spacer,
}

var companies = []Company{
	{ID: EMS, Name: "Energisa Mato Grosso do Sul"},
	{ID: ESS, Name: "Energisa Sul Sudeste"},
}

// KnownTypes returns the registered activity types in display order.
func KnownTypes() []ActivityType {
	out := make([]ActivityType, len(typeRegistry))
	for i, ti := range typeRegistry {
		out[i] = ti.Type
	}
	return out
}

// Types returns a copy of the type registry.
func Types() []TypeInfo {
	return append([]TypeInfo(nil), typeRegistry...)
}

func lookupType(t ActivityType) (TypeInfo, bool) {
	for _, ti := range typeRegistry {
		if ti.Type == t {
			return ti, true
		}
	}
	return TypeInfo{}, false
}

// IsKnown reports whether t is a registered activity type.
func (t ActivityType) IsKnown() bool {
	_, ok := lookupType(t)
	return ok
}

// Label returns the human readable label, or the raw tag for unknown types.
func (t ActivityType) Label() string {
	if ti, ok := lookupType(t); ok {
		return ti.Label
	}
	return string(t)
}

// ParseActivityType accepts canonical tags and legacy aliases, case-insensitively.
func ParseActivityType(s string) (ActivityType, error) {
	tag := strings.ToLower(strings.TrimSpace(s))
	if t := ActivityType(tag); t.IsKnown() {
		return t, nil
	}
	if t, ok := typeAliases[tag]; ok {
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// Companies returns the fixed company list.
func Companies() []Company {
	return append([]Company(nil), companies...)
}

// ParseCompany upper-cases the identifier and checks it against the company list.
func ParseCompany(s string) (CompanyID, error) {
	id := CompanyID(strings.ToUpper(strings.TrimSpace(s)))
	for _, c := range companies {
		if c.ID == id {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCompany, s)
}

func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case Operator, Manager:
		return r, nil
	case "operador":
		return Operator, nil
	case "gestor":
		return Manager, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

// CanWrite reports whether the role may create, edit, delete, clear or export.
func (r Role) CanWrite() bool {
	return r == Manager
}

// Normalize trims the id and maps legacy type tags to canonical ones.
// Unrecognized types are left as given for Validate to reject.
func (r ActivityRecord) Normalize() ActivityRecord {
	r.ID = strings.TrimSpace(r.ID)
	if t, err := ParseActivityType(string(r.Type)); err == nil {
		r.Type = t
	}
	return r
}

// Validate checks the record shape accepted at the boundary.
func (r ActivityRecord) Validate() error {
	verr := ValidationErrors{}
	if strings.TrimSpace(r.ID) == "" {
		verr.Add("id", "must not be empty")
	}
	if !isoDate.MatchString(r.Date) {
		verr.Add("date", "must match YYYY-MM-DD")
	} else if _, err := ParseDate(r.Date); err != nil {
		verr.Add("date", "must be a valid calendar date")
	}
	if !r.Type.IsKnown() {
		verr.Add("type", "must be one of "+strings.Join(typeTags(), ", "))
	}
	if r.Quantity < 0 {
		verr.Add("qty", "must be a non-negative integer")
	}
	if len(verr.FieldErrors) > 0 || len(verr.FormErrors) > 0 {
		return verr
	}
	return nil
}

func typeTags() []string {
	tags := make([]string, len(typeRegistry))
	for i, ti := range typeRegistry {
		tags[i] = string(ti.Type)
	}
	return tags
}
