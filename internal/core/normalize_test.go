package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Full Name", FieldName},
		{"NAME", FieldName},
		{"first_name", FieldName},
		{"E-mail Address", FieldEmail},
		{"Work Email", FieldEmail},
		{"Phone #", FieldPhone},
		{"Mobile", FieldPhone},
		{"Tel.", FieldPhone},
		{"Hotel", FieldPhone},
		{"Street Address", FieldAddress},
		{"Location", FieldAddress},
		{"Company", FieldCompany},
		{"Organization", FieldCompany},
		{"Job Title", FieldPosition},
		{"Position", FieldPosition},
		{"Company Name", FieldName},
		{"Department", "Department"},
		{"Unmapped Col", "Unmapped Col"},
		{"  ", ""},
		{"#!?", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.header))
		})
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	for _, h := range []string{"Full Name", "Department", "E-mail", "x"} {
		assert.Equal(t, Normalize(h), Normalize(h), h)
	}
}

func TestCanonicalFields(t *testing.T) {
	assert.Equal(t,
		[]string{"name", "email", "phone", "address", "company", "position"},
		CanonicalFields(),
	)
	assert.True(t, IsCanonical("email"))
	assert.False(t, IsCanonical("Department"))
	assert.False(t, IsCanonical(FieldID))
}
