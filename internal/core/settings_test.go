package core

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func sampleRecord() Record {
	r := Record{ID: "KH00001"}
	r.Set(FieldName, "Ann")
	r.Set(FieldEmail, "a@x.com")
	r.Set(FieldPhone, "")
	r.Set("Department", "Ops")
	return r
}

func TestNewSettingsStore_Defaults(t *testing.T) {
	s := NewSettingsStore(DefaultDisplaySettings())

	got := s.Get()
	assert.Equal(t, []string{"name"}, got.VisibleColumns)
	assert.Equal(t, []string{"id"}, got.AlwaysVisible)
	assert.Empty(t, got.IDColumn)
}

func TestNewSettingsStore_AlwaysIncludesID(t *testing.T) {
	s := NewSettingsStore(DisplaySettings{
		VisibleColumns: []string{"email", " email ", ""},
		AlwaysVisible:  []string{"name"},
		IDColumn:       " Employee ID ",
	})

	got := s.Get()
	assert.Equal(t, []string{"email"}, got.VisibleColumns)
	assert.Equal(t, []string{"id", "name"}, got.AlwaysVisible)
	assert.Equal(t, "Employee ID", got.IDColumn)
}

func TestUpdate_MergesPartially(t *testing.T) {
	s := NewSettingsStore(DefaultDisplaySettings())

	got, err := s.Update(SettingsUpdate{IDColumn: ptr("Employee ID")})
	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, got.VisibleColumns)
	assert.Equal(t, "Employee ID", got.IDColumn)

	got, err = s.Update(SettingsUpdate{VisibleColumns: ptr([]string{"name", "email"})})
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "email"}, got.VisibleColumns)
	assert.Equal(t, "Employee ID", got.IDColumn)
	assert.Equal(t, []string{"id"}, got.AlwaysVisible)
}

func TestUpdate_RejectsOversizedPayload(t *testing.T) {
	s := NewSettingsStore(DefaultDisplaySettings())

	_, err := s.Update(SettingsUpdate{IDColumn: ptr(strings.Repeat("x", 300))})
	assert.ErrorIs(t, err, ErrInvalidSettings)

	cols := make([]string, 201)
	for i := range cols {
		cols[i] = "c"
	}
	_, err = s.Update(SettingsUpdate{VisibleColumns: &cols})
	assert.ErrorIs(t, err, ErrInvalidSettings)

	assert.Equal(t, []string{"name"}, s.Get().VisibleColumns)
}

func TestGet_ReturnsCopy(t *testing.T) {
	s := NewSettingsStore(DefaultDisplaySettings())

	got := s.Get()
	got.VisibleColumns[0] = "mutated"

	assert.Equal(t, []string{"name"}, s.Get().VisibleColumns)
}

func TestReset(t *testing.T) {
	s := NewSettingsStore(DefaultDisplaySettings())
	_, err := s.Update(SettingsUpdate{VisibleColumns: ptr([]string{"email"}), IDColumn: ptr("ID")})
	require.NoError(t, err)

	got := s.Reset()

	assert.Equal(t, []string{"name"}, got.VisibleColumns)
	assert.Empty(t, got.IDColumn)
}

func TestUpdate_ConcurrentReadersSeeWholeValues(t *testing.T) {
	s := NewSettingsStore(DefaultDisplaySettings())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = s.Update(SettingsUpdate{VisibleColumns: ptr([]string{"email", "phone"}), IDColumn: ptr("ID")})
		}()
		go func() {
			defer wg.Done()
			got := s.Get()
			if got.IDColumn == "ID" {
				assert.Equal(t, []string{"email", "phone"}, got.VisibleColumns)
			}
		}()
	}
	wg.Wait()
}

func TestParseSettingsUpdate(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
		check    func(t *testing.T, u SettingsUpdate)
	}{
		{
			name: "both fields",
			body: `{"visibleColumns":["name","email"],"idColumn":"Employee ID"}`,
			check: func(t *testing.T, u SettingsUpdate) {
				require.NotNil(t, u.VisibleColumns)
				assert.Equal(t, []string{"name", "email"}, *u.VisibleColumns)
				require.NotNil(t, u.IDColumn)
				assert.Equal(t, "Employee ID", *u.IDColumn)
			},
		},
		{
			name: "absent fields stay unset",
			body: `{}`,
			check: func(t *testing.T, u SettingsUpdate) {
				assert.Nil(t, u.VisibleColumns)
				assert.Nil(t, u.IDColumn)
			},
		},
		{
			name: "empty array clears",
			body: `{"visibleColumns":[]}`,
			check: func(t *testing.T, u SettingsUpdate) {
				require.NotNil(t, u.VisibleColumns)
				assert.Empty(t, *u.VisibleColumns)
			},
		},
		{name: "visibleColumns string", body: `{"visibleColumns":"name"}`, wantCode: "VAL001"},
		{name: "visibleColumns null", body: `{"visibleColumns":null}`, wantCode: "VAL001"},
		{name: "visibleColumns numbers", body: `{"visibleColumns":[1,2]}`, wantCode: "VAL001"},
		{name: "idColumn number", body: `{"idColumn":5}`, wantCode: "VAL002"},
		{name: "idColumn null", body: `{"idColumn":null}`, wantCode: "VAL002"},
		{name: "not json", body: `visibleColumns=name`, wantCode: "VAL003"},
		{name: "json array", body: `["name"]`, wantCode: "VAL003"},
		{name: "json null", body: `null`, wantCode: "VAL003"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := ParseSettingsUpdate([]byte(tt.body))
			if tt.wantCode == "" {
				require.NoError(t, err)
				tt.check(t, u)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantCode, verr.Code)
			assert.ErrorIs(t, err, ErrInvalidSettings)
		})
	}
}

func TestIsVisible(t *testing.T) {
	d := DefaultDisplaySettings()

	assert.True(t, d.IsVisible(RoleAdmin, "Department", "Ops"))
	assert.False(t, d.IsVisible(RoleAdmin, "Department", "  "))
	assert.True(t, d.IsVisible(RoleGuest, "name", "Ann"))
	assert.True(t, d.IsVisible(RoleGuest, "id", "KH00001"))
	assert.False(t, d.IsVisible(RoleGuest, "email", "a@x.com"))
	assert.False(t, d.IsVisible(RoleGuest, "name", ""))
}

func TestFilter(t *testing.T) {
	d := DefaultDisplaySettings()
	rec := sampleRecord()

	admin := d.Filter(RoleAdmin, rec)
	assert.Equal(t, "KH00001", admin.ID)
	assert.Equal(t, []string{"name", "email", "Department"}, admin.Names())

	guest := d.Filter(RoleGuest, rec)
	assert.Equal(t, "KH00001", guest.ID)
	assert.Equal(t, []string{"name"}, guest.Names())

	d.AlwaysVisible = nil
	hidden := d.Filter(RoleGuest, rec)
	assert.Empty(t, hidden.ID)
}

func TestFilter_AgreesWithIsVisible(t *testing.T) {
	d := DisplaySettings{VisibleColumns: []string{"email"}, AlwaysVisible: []string{"Department"}}
	rec := sampleRecord()
	rec.Set("phone", " ")

	for _, role := range []Role{RoleAdmin, RoleGuest} {
		out := d.Filter(role, rec)

		var want []string
		for _, f := range rec.Fields {
			if d.IsVisible(role, f.Name, f.Value) {
				want = append(want, f.Name)
			}
		}
		assert.Equal(t, want, out.Names(), role)
		assert.Equal(t, d.IsVisible(role, FieldID, rec.ID), out.ID != "", role)
	}
}

func TestFilter_VisibilityMonotonic(t *testing.T) {
	rec := sampleRecord()
	narrow := DisplaySettings{VisibleColumns: []string{"name"}, AlwaysVisible: []string{"id"}}
	wide := DisplaySettings{VisibleColumns: []string{"name", "Department"}, AlwaysVisible: []string{"id"}}

	n := narrow.Filter(RoleGuest, rec).Names()
	w := wide.Filter(RoleGuest, rec).Names()

	all := wide.Filter(RoleAdmin, rec).Names()

	assert.Subset(t, w, n)
	assert.Subset(t, all, w)
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole(" Guest ")
	assert.True(t, ok)
	assert.Equal(t, RoleGuest, r)

	_, ok = ParseRole("root")
	assert.False(t, ok)

	assert.False(t, RoleAdmin.Restricted())
	assert.True(t, RoleGuest.Restricted())
}

func TestAvailableColumns(t *testing.T) {
	a := Record{ID: "1"}
	a.Set("zeta", "z")
	a.Set(FieldEmail, "a@x.com")
	b := Record{ID: "2"}
	b.Set("Department", "Ops")
	b.Set(FieldName, "Bob")

	assert.Equal(t, []string{"name", "email", "Department", "zeta"}, AvailableColumns([]Record{a, b}))
	assert.Empty(t, AvailableColumns(nil))
}
