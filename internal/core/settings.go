package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-set/v2"
)

// Role selects how much of a record a viewer may see.
type Role string

const (
	// RoleAdmin sees every non-empty field.
	RoleAdmin Role = "admin"
	// RoleGuest sees only always-visible and configured visible fields.
	RoleGuest Role = "guest"
)

// ParseRole maps a view name to a Role. Unknown names report false.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleGuest:
		return RoleGuest, true
	}
	return "", false
}

// Restricted reports whether the role is subject to the visible-column list.
func (r Role) Restricted() bool {
	return r != RoleAdmin
}

// Limits on administrative settings payloads.
const (
	maxVisibleColumns = 200
	maxColumnNameLen  = 256
)

// ErrInvalidSettings marks every settings validation failure.
var ErrInvalidSettings = errors.New("invalid display settings")

// ValidationError describes one rejected settings field.
type ValidationError struct {
	Field   string
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is makes every ValidationError match ErrInvalidSettings.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidSettings
}

// DisplaySettings controls field visibility for restricted viewers.
type DisplaySettings struct {
	VisibleColumns []string `json:"visibleColumns"`
	IDColumn       string   `json:"idColumn"`
	AlwaysVisible  []string `json:"alwaysVisible"`
}

// DefaultDisplaySettings returns the built-in settings: name visible, id always visible.
func DefaultDisplaySettings() DisplaySettings {
	return DisplaySettings{
		VisibleColumns: []string{FieldName},
		AlwaysVisible:  []string{FieldID},
	}
}

func (d DisplaySettings) clone() DisplaySettings {
	return DisplaySettings{
		VisibleColumns: append([]string{}, d.VisibleColumns...),
		IDColumn:       d.IDColumn,
		AlwaysVisible:  append([]string{}, d.AlwaysVisible...),
	}
}

// allowed returns the set of field names a restricted viewer may see.
func (d DisplaySettings) allowed() *set.Set[string] {
	s := set.From(d.AlwaysVisible)
	s.InsertSlice(d.VisibleColumns)
	return s
}

// IsVisible applies the visibility rule to one field. Empty values are never
// visible. Admins see every other field; guests only allowed ones.
func (d DisplaySettings) IsVisible(role Role, field, value string) bool {
	if strings.TrimSpace(value) == "" {
		return false
	}
	if !role.Restricted() {
		return true
	}
	return d.allowed().Contains(field)
}

// Filter returns a copy of rec holding only the fields role may see. The id
// is kept when it is visible to role.
func (d DisplaySettings) Filter(role Role, rec Record) Record {
	out := Record{}
	if d.IsVisible(role, FieldID, rec.ID) {
		out.ID = rec.ID
	}
	for _, f := range rec.Fields {
		if d.IsVisible(role, f.Name, f.Value) {
			out.Fields = append(out.Fields, f)
		}
	}
	return out
}

// FilterAll applies Filter to every record.
func (d DisplaySettings) FilterAll(role Role, records []Record) []Record {
	out := make([]Record, len(records))
	for i, rec := range records {
		out[i] = d.Filter(role, rec)
	}
	return out
}

// AvailableColumns lists every field name present across records: canonical
// fields first in matching order, then custom fields alphabetically.
func AvailableColumns(records []Record) []string {
	seen := set.New[string](16)
	for _, rec := range records {
		seen.InsertSlice(rec.Names())
	}

	cols := seen.Slice()
	sort.Slice(cols, func(i, j int) bool {
		ri, rj := canonicalRank(cols[i]), canonicalRank(cols[j])
		switch {
		case ri >= 0 && rj >= 0:
			return ri < rj
		case ri >= 0:
			return true
		case rj >= 0:
			return false
		}
		return cols[i] < cols[j]
	})
	return cols
}

// SettingsUpdate is a partial settings change. Nil fields are left alone.
type SettingsUpdate struct {
	VisibleColumns *[]string
	IDColumn       *string
}

// ParseSettingsUpdate decodes an administrative update body. Absent keys are
// left unset; present keys must have the right JSON type, null included.
func ParseSettingsUpdate(body []byte) (SettingsUpdate, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return SettingsUpdate{}, &ValidationError{
			Field:   "body",
			Code:    "VAL003",
			Message: "request body must be a JSON object",
		}
	}

	var upd SettingsUpdate

	if v, ok := raw["visibleColumns"]; ok {
		var cols []string
		if !isJSONArray(v) || json.Unmarshal(v, &cols) != nil {
			return SettingsUpdate{}, &ValidationError{
				Field:   "visibleColumns",
				Code:    "VAL001",
				Message: "visibleColumns must be an array",
			}
		}
		if cols == nil {
			cols = []string{}
		}
		upd.VisibleColumns = &cols
	}

	if v, ok := raw["idColumn"]; ok {
		var col string
		if json.Unmarshal(v, &col) != nil || !bytes.HasPrefix(bytes.TrimSpace(v), []byte(`"`)) {
			return SettingsUpdate{}, &ValidationError{
				Field:   "idColumn",
				Code:    "VAL002",
				Message: "idColumn must be a string",
			}
		}
		upd.IDColumn = &col
	}

	return upd, nil
}

func isJSONArray(v json.RawMessage) bool {
	return bytes.HasPrefix(bytes.TrimSpace(v), []byte("["))
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the bounds of an update.
func (u SettingsUpdate) Validate() error {
	if u.VisibleColumns != nil {
		cols := *u.VisibleColumns
		tag := fmt.Sprintf("max=%d,dive,max=%d", maxVisibleColumns, maxColumnNameLen)
		if err := validate.Var(cols, tag); err != nil {
			return &ValidationError{
				Field:   "visibleColumns",
				Code:    "VAL004",
				Message: "visibleColumns may hold at most 200 names of up to 256 characters",
			}
		}
	}
	if u.IDColumn != nil {
		if err := validate.Var(*u.IDColumn, fmt.Sprintf("max=%d", maxColumnNameLen)); err != nil {
			return &ValidationError{
				Field:   "idColumn",
				Code:    "VAL004",
				Message: "idColumn may be at most 256 characters",
			}
		}
	}
	return nil
}

// SettingsStore holds the current display settings. Readers always observe
// a complete value; updates replace the whole value.
type SettingsStore struct {
	current  atomic.Pointer[DisplaySettings]
	defaults DisplaySettings
}

// NewSettingsStore creates a store seeded with defaults. The id field is
// always added to AlwaysVisible.
func NewSettingsStore(defaults DisplaySettings) *SettingsStore {
	d := defaults.clone()
	d.VisibleColumns = dedupe(d.VisibleColumns)
	d.AlwaysVisible = dedupe(append([]string{FieldID}, d.AlwaysVisible...))
	d.IDColumn = strings.TrimSpace(d.IDColumn)

	s := &SettingsStore{defaults: d}
	s.Reset()
	return s
}

// Get returns a copy of the current settings.
func (s *SettingsStore) Get() DisplaySettings {
	return s.current.Load().clone()
}

// Update merges upd into the current settings and returns the result.
// AlwaysVisible cannot be changed.
func (s *SettingsStore) Update(upd SettingsUpdate) (DisplaySettings, error) {
	if err := upd.Validate(); err != nil {
		return DisplaySettings{}, err
	}

	for {
		old := s.current.Load()
		next := old.clone()
		if upd.VisibleColumns != nil {
			next.VisibleColumns = dedupe(*upd.VisibleColumns)
		}
		if upd.IDColumn != nil {
			next.IDColumn = strings.TrimSpace(*upd.IDColumn)
		}
		if s.current.CompareAndSwap(old, &next) {
			slog.Info("display settings updated",
				"visible_columns", next.VisibleColumns,
				"id_column", next.IDColumn,
			)
			return next.clone(), nil
		}
	}
}

// Reset restores the defaults the store was created with.
func (s *SettingsStore) Reset() DisplaySettings {
	d := s.defaults.clone()
	s.current.Store(&d)
	return d.clone()
}

// dedupe drops empty and repeated names, keeping first occurrence order.
func dedupe(names []string) []string {
	seen := set.New[string](len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || !seen.Insert(n) {
			continue
		}
		out = append(out, n)
	}
	return out
}
