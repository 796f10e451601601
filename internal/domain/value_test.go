package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/doeshing/unigraph/internal/domain"
)

func TestRowGetReturnsAbsentForUnboundVariable(t *testing.T) {
	row := domain.Row{"name": domain.StringValue("Alice", "")}

	assert.Equal(t, "Alice", row.Get("?name").String())
	assert.True(t, row.Get("email").IsAbsent())
	assert.True(t, domain.Row(nil).Get("name").IsAbsent())
}

func TestValueLocalName(t *testing.T) {
	tests := []struct {
		value domain.Value
		want  string
	}{
		{domain.ReferenceValue(domain.UniversityNamespace + "Student_1"), "Student_1"},
		{domain.ReferenceValue("http://xmlns.com/foaf/0.1/Person"), "Person"},
		{domain.ReferenceValue("http://example.org/people/"), "people"},
		{domain.ReferenceValue("_:b0"), "_:b0"},
		{domain.StringValue("a/b#c", ""), "a/b#c"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.value.LocalName(), tt.value.Lexical)
	}
}

func TestResultSetCloneIsIndependent(t *testing.T) {
	original := domain.ResultSet{
		Vars: []string{"s"},
		Rows: []domain.Row{{"s": domain.ReferenceValue("urn:a")}},
	}
	cp := original.Clone()
	cp.Rows[0]["s"] = domain.ReferenceValue("urn:b")
	cp.Vars[0] = "x"

	assert.Equal(t, "urn:a", original.Rows[0].Get("s").String())
	assert.Equal(t, "s", original.Vars[0])
}

func TestResultSetRecords(t *testing.T) {
	rs := domain.ResultSet{
		Vars: []string{"student", "gpa", "email"},
		Rows: []domain.Row{{
			"student": domain.ReferenceValue(domain.UniversityNamespace + "Student_1"),
			"gpa":     domain.NumberValue(3.5, "3.50", ""),
		}},
	}

	records := rs.Records()

	assert.Equal(t, []map[string]interface{}{{
		"student": domain.UniversityNamespace + "Student_1",
		"gpa":     3.5,
		"email":   nil,
	}}, records)
}
