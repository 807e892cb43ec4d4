package wiql

import (
	"fmt"
	"regexp"
)

// valueKind is the semantic type expected for a field's value.
type valueKind int

const (
	kindState valueKind = iota
	kindWorkItemType
	kindBoundedInt
	kindNumber
	kindText
)

// fieldValueKinds maps field reference names to the semantic type their
// values must carry. Fields absent from the table accept free text.
var fieldValueKinds = map[string]valueKind{
	"System.State":                               kindState,
	"System.WorkItemType":                        kindWorkItemType,
	"Microsoft.VSTS.Common.Priority":             kindBoundedInt,
	"Microsoft.VSTS.Common.Severity":             kindBoundedInt,
	"Microsoft.VSTS.Scheduling.StoryPoints":      kindNumber,
	"Microsoft.VSTS.Scheduling.Effort":           kindNumber,
	"Microsoft.VSTS.Scheduling.RemainingWork":    kindNumber,
	"Microsoft.VSTS.Scheduling.CompletedWork":    kindNumber,
	"Microsoft.VSTS.Scheduling.OriginalEstimate": kindNumber,
	"Microsoft.VSTS.Common.StackRank":            kindNumber,
	"Microsoft.VSTS.Common.BusinessValue":        kindNumber,
	"System.Title":                               kindText,
	"System.Description":                         kindText,
	"System.History":                             kindText,
	"System.Tags":                                kindText,
	"Microsoft.VSTS.Common.AcceptanceCriteria":   kindText,
	"Microsoft.VSTS.TCM.ReproSteps":              kindText,
	"Microsoft.VSTS.TCM.SystemInfo":              kindText,
}

// Patterns the remote system would reject or render dangerously. The remote
// side sanitizes too; rejecting here keeps bad content out of the request
// entirely.
var scriptPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<\s*script`),
	regexp.MustCompile(`(?i)javascript\s*:`),
	regexp.MustCompile(`(?i)\bon\w+\s*=`),
}

// ValidateFieldValue checks that value matches the semantic type expected
// for the named field. The field name must already be validated; unknown
// fields are treated as free text.
func ValidateFieldValue(fieldName string, value any) error {
	kind, ok := fieldValueKinds[fieldName]
	if !ok {
		kind = kindText
	}

	switch kind {
	case kindState:
		s, ok := value.(string)
		if !ok {
			return typeMismatch(fieldName, "string", value)
		}
		_, err := ValidateState(s)
		return err

	case kindWorkItemType:
		s, ok := value.(string)
		if !ok {
			return typeMismatch(fieldName, "string", value)
		}
		_, err := ValidateWorkItemType(s)
		return err

	case kindBoundedInt:
		n, ok := asInt(value)
		if !ok {
			return typeMismatch(fieldName, "integer", value)
		}
		if n < 1 || n > 4 {
			return &ValidationError{
				Field:   fieldName,
				Value:   fmt.Sprintf("%d", n),
				Message: fmt.Sprintf("value %d is out of range, must be 1-4", n),
			}
		}
		return nil

	case kindNumber:
		if _, ok := asFloat(value); !ok {
			return typeMismatch(fieldName, "number", value)
		}
		return nil

	default:
		s, ok := value.(string)
		if !ok {
			return typeMismatch(fieldName, "string", value)
		}
		for _, p := range scriptPatterns {
			if p.MatchString(s) {
				return &ValidationError{
					Field:   fieldName,
					Message: "value contains script content",
				}
			}
		}
		return nil
	}
}

func typeMismatch(fieldName, want string, got any) error {
	return &ValidationError{
		Field:   fieldName,
		Message: fmt.Sprintf("expected %s value, got %T", want, got),
	}
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
		return 0, false
	default:
		return 0, false
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
