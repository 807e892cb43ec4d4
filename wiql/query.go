package wiql

import (
	"fmt"
	"strings"
)

// MaxQueryLength is the 32KB query ceiling documented for the remote query
// service.
const MaxQueryLength = 32000

// Query is a WIQL query that passed structural validation. The zero value
// is invalid; obtain one through ValidateQuery.
type Query struct {
	text string
}

// String returns the validated query text.
func (q Query) String() string {
	return q.text
}

// ValidateQuery enforces the structural rules every outbound WIQL query
// must satisfy: non-empty, within the length ceiling, containing SELECT and
// FROM clauses, targeting WorkItems or WorkItemLinks, with balanced square
// brackets.
func ValidateQuery(query string) (Query, error) {
	if query == "" {
		return Query{}, &ValidationError{Field: "query", Message: "WIQL query cannot be empty"}
	}
	if len(query) > MaxQueryLength {
		return Query{}, &ValidationError{
			Field: "query",
			Message: fmt.Sprintf("WIQL query exceeds maximum length of %d characters (current length: %d)",
				MaxQueryLength, len(query)),
		}
	}

	upper := strings.ToUpper(query)
	if !strings.Contains(upper, "SELECT") {
		return Query{}, &ValidationError{Field: "query", Message: "WIQL query must contain a SELECT clause"}
	}
	if !strings.Contains(upper, "FROM") {
		return Query{}, &ValidationError{Field: "query", Message: "WIQL query must contain a FROM clause"}
	}
	if !strings.Contains(upper, "WORKITEMS") && !strings.Contains(upper, "WORKITEMLINKS") {
		return Query{}, &ValidationError{
			Field:   "query",
			Message: "WIQL query FROM clause must specify WorkItems or WorkItemLinks",
		}
	}
	if !balancedBrackets(query) {
		return Query{}, &ValidationError{Field: "query", Message: "WIQL query has unbalanced square brackets"}
	}

	return Query{text: query}, nil
}

func balancedBrackets(query string) bool {
	depth := 0
	for _, r := range query {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
		}
		if depth < 0 {
			return false
		}
	}
	return depth == 0
}

// SanitizeLiteral escapes a string for embedding inside a single-quoted
// WIQL literal. Single quotes are doubled so the value cannot terminate
// the literal.
func SanitizeLiteral(value string) string {
	return strings.ReplaceAll(value, "'", "''")
}

// ValidateIterationPath rejects traversal sequences and prefixes the path
// with the project name when it is not already qualified.
func ValidateIterationPath(iterationPath, project string) (string, error) {
	if iterationPath == "" {
		return "", &ValidationError{Field: "iteration path", Message: "iteration path cannot be empty"}
	}
	if project == "" {
		return "", &ValidationError{Field: "iteration path", Message: "project name is required for iteration path validation"}
	}
	if strings.Contains(iterationPath, "..") || strings.Contains(iterationPath, "//") {
		return "", &ValidationError{
			Field:   "iteration path",
			Value:   iterationPath,
			Message: fmt.Sprintf("%q contains path traversal characters", iterationPath),
		}
	}
	if !strings.HasPrefix(iterationPath, project+`\`) {
		iterationPath = project + `\` + iterationPath
	}
	return iterationPath, nil
}
