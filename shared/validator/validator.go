package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	val "github.com/go-playground/validator/v10"

	"todo/shared/failure"
)

var validate = val.New(val.WithRequiredStructEnabled())

// Validate reads from the given io.Reader into the given struct, and then performs validation
// on the struct using the validator package. Malformed or empty bodies and structs that break
// their `validate` tags come back as a bad request failure.
// https://github.com/go-playground/validator
func Validate[T any](r io.Reader, data *T) error {
	decoder := json.NewDecoder(r)

	if err := decoder.Decode(data); err != nil {
		if errors.Is(err, io.EOF) {
			return failure.BadRequestFromString("request body is required") //nolint:wrapcheck
		}

		return failure.BadRequest(fmt.Errorf("failed to decode request body: %w", err)) //nolint:wrapcheck
	}

	return ValidateStruct(data)
}

// ValidateStruct reports the first broken rule of data as a bad request failure.
func ValidateStruct[T any](data *T) error {
	if problems := Problems(data); len(problems) > 0 {
		return failure.BadRequestFromString(problems[0]) //nolint:wrapcheck
	}

	return nil
}
