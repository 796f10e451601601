// Package domain defines core entities and value objects for unigraph.
//
// This file contains the typed result model returned by graph stores. The
// domain layer is independent of infrastructure concerns: a store adapter
// decodes its wire format into these types and everything above it (the query
// tracker, renderers, tool servers) works only with them.
package domain

import (
	"strconv"
	"strings"
	"time"
)

// ValueKind tags the variant held by a Value.
type ValueKind string

const (
	// KindAbsent marks a variable left unbound by an OPTIONAL pattern.
	KindAbsent    ValueKind = ""
	KindString    ValueKind = "string"
	KindNumber    ValueKind = "number"
	KindDate      ValueKind = "date"
	KindReference ValueKind = "reference"
)

// Value is a single bound term in a result row.
// The zero Value is absent.
type Value struct {
	Kind ValueKind `json:"kind,omitempty"`
	// Lexical is the term exactly as the store returned it.
	Lexical  string    `json:"lexical,omitempty"`
	Number   float64   `json:"number,omitempty"`
	Time     time.Time `json:"time,omitempty"`
	Datatype string    `json:"datatype,omitempty"`
	Lang     string    `json:"lang,omitempty"`
}

// StringValue builds a plain or language-tagged literal.
func StringValue(text, lang string) Value {
	return Value{Kind: KindString, Lexical: text, Lang: lang}
}

// TypedStringValue builds a literal carrying a datatype the model does not interpret.
func TypedStringValue(text, datatype string) Value {
	return Value{Kind: KindString, Lexical: text, Datatype: datatype}
}

// NumberValue builds a numeric literal, keeping the lexical form for display.
func NumberValue(n float64, lexical, datatype string) Value {
	if lexical == "" {
		lexical = strconv.FormatFloat(n, 'f', -1, 64)
	}
	return Value{Kind: KindNumber, Lexical: lexical, Number: n, Datatype: datatype}
}

// DateValue builds a date or dateTime literal.
func DateValue(t time.Time, lexical, datatype string) Value {
	if lexical == "" {
		lexical = t.Format(time.RFC3339)
	}
	return Value{Kind: KindDate, Lexical: lexical, Time: t, Datatype: datatype}
}

// ReferenceValue builds an IRI or blank node reference.
func ReferenceValue(id string) Value {
	return Value{Kind: KindReference, Lexical: id}
}

// IsAbsent reports whether the variable was unbound.
func (v Value) IsAbsent() bool {
	return v.Kind == KindAbsent
}

// String returns the lexical form; absent values render as "".
func (v Value) String() string {
	return v.Lexical
}

// LocalName shortens a reference to the fragment after '#' or the last '/'.
// Non-reference values are returned unchanged.
func (v Value) LocalName() string {
	if v.Kind != KindReference {
		return v.Lexical
	}
	if i := strings.LastIndex(v.Lexical, "#"); i >= 0 && i < len(v.Lexical)-1 {
		return v.Lexical[i+1:]
	}
	trimmed := strings.TrimSuffix(v.Lexical, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 && i < len(trimmed)-1 {
		return trimmed[i+1:]
	}
	return v.Lexical
}

// Row maps a projected variable name to its binding.
type Row map[string]Value

// Get returns the binding for name, or an absent Value.
func (r Row) Get(name string) Value {
	if r == nil {
		return Value{}
	}
	return r[strings.TrimLeft(name, "?$")]
}

// ResultSet is an ordered query result.
type ResultSet struct {
	Vars []string `json:"vars"`
	Rows []Row    `json:"rows"`
}

// Len returns the number of rows.
func (rs ResultSet) Len() int {
	return len(rs.Rows)
}

// Clone returns a copy whose slices and rows can be mutated independently.
func (rs ResultSet) Clone() ResultSet {
	out := ResultSet{
		Vars: append([]string(nil), rs.Vars...),
		Rows: make([]Row, len(rs.Rows)),
	}
	for i, row := range rs.Rows {
		cp := make(Row, len(row))
		for k, v := range row {
			cp[k] = v
		}
		out.Rows[i] = cp
	}
	return out
}

// Plain returns the value as a JSON-friendly scalar: float64 for numbers,
// nil for absent bindings, the lexical form otherwise.
func (v Value) Plain() interface{} {
	switch v.Kind {
	case KindAbsent:
		return nil
	case KindNumber:
		return v.Number
	default:
		return v.Lexical
	}
}

// Records flattens rows into plain maps keyed by variable name.
// Unbound variables map to nil.
func (rs ResultSet) Records() []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		rec := make(map[string]interface{}, len(rs.Vars))
		for _, name := range rs.Vars {
			rec[name] = row.Get(name).Plain()
		}
		out = append(out, rec)
	}
	return out
}
