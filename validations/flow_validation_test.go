package validations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	pkgError "github.com/sharebite/sharebite-bot/pkg/error"
)

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail(context.Background(), "alice@example.com"))

	for _, bad := range []string{"", "not-an-email", "alice@", "@example.com"} {
		err := ValidateEmail(context.Background(), bad)
		assert.Error(t, err, "input %q", bad)
		assert.True(t, pkgError.IsClientFault(err), "input %q", bad)
	}
}

func TestValidateRadiusKm(t *testing.T) {
	radius, err := ValidateRadiusKm(context.Background(), "2.5")
	assert.NoError(t, err)
	assert.Equal(t, 2.5, radius)

	for _, bad := range []string{"abc", "", "0.05", "200"} {
		_, err := ValidateRadiusKm(context.Background(), bad)
		assert.Error(t, err, "input %q", bad)
	}
}
