package query

import (
	"fmt"
	"sort"

	"github.com/doeshing/unigraph/internal/domain"
)

var commonQueries = map[string]string{
	"all_students": `SELECT ?student ?name ?email ?gpa ?program
WHERE {
    ?student rdf:type univ:Student .
    ?student univ:name ?name .
    OPTIONAL { ?student univ:email ?email }
    OPTIONAL { ?student univ:gpa ?gpa }
    OPTIONAL { ?student univ:enrolledIn ?program }
}
ORDER BY ?name
LIMIT 50`,

	"all_professors": `SELECT ?prof ?name ?email ?department ?title
WHERE {
    ?prof rdf:type univ:Professor .
    ?prof univ:name ?name .
    OPTIONAL { ?prof univ:email ?email }
    OPTIONAL { ?prof univ:worksIn ?dept . ?dept univ:name ?department }
    OPTIONAL { ?prof univ:title ?title }
}
ORDER BY ?name
LIMIT 50`,

	"course_prerequisites": `SELECT ?course ?name ?prereq ?prereqName
WHERE {
    ?course rdf:type univ:Course .
    ?course univ:name ?name .
    OPTIONAL {
        ?course univ:hasPrerequisite ?prereq .
        ?prereq univ:name ?prereqName
    }
}
ORDER BY ?course
LIMIT 50`,

	"department_structure": `SELECT ?dept ?deptName ?program ?programName ?course ?courseName
WHERE {
    ?dept rdf:type univ:Department .
    ?dept univ:name ?deptName .
    OPTIONAL {
        ?dept univ:offersProgram ?program .
        ?program univ:name ?programName .
        OPTIONAL {
            ?program univ:hasCourse ?course .
            ?course univ:name ?courseName
        }
    }
}
ORDER BY ?dept ?program ?course
LIMIT 100`,

	"student_enrollments": `SELECT ?student ?studentName ?course ?courseName ?prof ?profName
WHERE {
    ?student rdf:type univ:Student .
    ?student univ:name ?studentName .
    ?student univ:takesCourse ?course .
    ?course univ:name ?courseName .
    OPTIONAL {
        ?prof univ:teaches ?course .
        ?prof univ:name ?profName
    }
}
ORDER BY ?studentName
LIMIT 50`,
}

// CommonQueries returns the built-in query templates keyed by name.
// The map is a fresh copy on every call.
func CommonQueries() map[string]string {
	out := make(map[string]string, len(commonQueries))
	for name, text := range commonQueries {
		out[name] = text
	}
	return out
}

// TemplateNames lists template names in sorted order.
func TemplateNames() []string {
	names := make([]string, 0, len(commonQueries))
	for name := range commonQueries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Template returns a single template by name.
func Template(name string) (string, error) {
	text, ok := commonQueries[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownTemplate, name)
	}
	return text, nil
}
