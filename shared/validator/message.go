package validator

import (
	"errors"
	"strings"

	val "github.com/go-playground/validator/v10"
)

var messages = map[string]string{
	"required": "{field} is required",
	"oneof":    "{field} must be one of {param}",
	"numeric":  "{field} must be numeric",
	"gte":      "{field} must be at least {param}",
}

const fallbackMessage = "{field} failed the {tag} rule"

// Problems validates data against its `validate` tags and describes every broken rule, one sentence
// each. Fields are named by their lower-cased path below the root struct, e.g. "server.port".
func Problems(data any) []string {
	err := validate.Struct(data)
	if err == nil {
		return nil
	}

	var valErrors val.ValidationErrors
	if !errors.As(err, &valErrors) {
		return []string{err.Error()}
	}

	problems := make([]string, 0, len(valErrors))
	for _, fieldErr := range valErrors {
		problems = append(problems, message(fieldErr))
	}

	return problems
}

func message(fieldErr val.FieldError) string {
	template, ok := messages[fieldErr.Tag()]
	if !ok {
		template = fallbackMessage
	}

	_, field, found := strings.Cut(fieldErr.Namespace(), ".")
	if !found {
		field = fieldErr.Field()
	}

	return strings.NewReplacer(
		"{field}", strings.ToLower(field),
		"{param}", fieldErr.Param(),
		"{tag}", fieldErr.Tag(),
	).Replace(template)
}
