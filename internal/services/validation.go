package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"teamcalendar/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateStruct runs the struct tags of v and returns one message per failed field.
func validateStruct(v any) []string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, fieldProblem(fieldName(fe.Field()), fe.Tag()))
	}
	return problems
}

func fieldProblem(field, tag string) string {
	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "uuid4":
		return fmt.Sprintf("%s must be a UUID v4", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// fieldName turns a Go field name such as "TeamIDs[1]" into "team_ids[1]".
func fieldName(goName string) string {
	index := ""
	if i := strings.IndexByte(goName, '['); i >= 0 {
		goName, index = goName[:i], goName[i:]
	}
	var b strings.Builder
	runes := []rune(goName)
	for i, r := range runes {
		upper := r >= 'A' && r <= 'Z'
		if upper && i > 0 {
			prevLower := runes[i-1] >= 'a' && runes[i-1] <= 'z'
			nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z' && runes[i+1] != 's'
			if prevLower || nextLower {
				b.WriteByte('_')
			}
		}
		if upper {
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String() + index
}

// checkID validates a single path or query id.
func checkID(field, id string) []string {
	if id == "" {
		return []string{fieldProblem(field, "required")}
	}
	if !domain.IsUUID(id) {
		return []string{fieldProblem(field, "uuid4")}
	}
	return nil
}

func checkIDs(field string, ids []string) []string {
	var problems []string
	for i, id := range ids {
		if !domain.IsUUID(id) {
			problems = append(problems, fieldProblem(fmt.Sprintf("%s[%d]", field, i), "uuid4"))
		}
	}
	return problems
}

// uniqueIDs drops repeated ids and keeps first-seen order.
func uniqueIDs(ids []string) []string {
	if ids == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
