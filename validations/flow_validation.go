package validations

import (
	"context"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	pkgError "github.com/sharebite/sharebite-bot/pkg/error"
)

func ValidateEmail(ctx context.Context, email string) error {
	err := validation.Validate(email,
		validation.Required,
		is.Email,
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

// ValidateRadiusKm parses and bounds a user-entered search radius.
func ValidateRadiusKm(ctx context.Context, raw string) (float64, error) {
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, pkgError.ValidationError("radius must be a number of kilometers")
	}

	if err := validation.Validate(value, validation.Min(0.1), validation.Max(50.0)); err != nil {
		return 0, pkgError.ValidationError(err.Error())
	}

	return value, nil
}
