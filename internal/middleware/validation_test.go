package middleware

import (
	"testing"

	"product-store/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRequestRequiredFields(t *testing.T) {
	product := &domain.Product{}

	err := ValidateRequest(product)
	require.Error(t, err)

	errors := FormatValidationErrors(err)
	fields := make([]string, 0, len(errors))
	for _, e := range errors {
		fields = append(fields, e.Field)
		assert.Equal(t, "This field is required", e.Message)
	}
	assert.Contains(t, fields, "Name")
	assert.Contains(t, fields, "Category")
}

func TestValidateRequestPassesCompleteProduct(t *testing.T) {
	product := &domain.Product{
		Name:     "kettle",
		Category: domain.CategoryHousewares,
	}

	assert.NoError(t, ValidateRequest(product))
}

func TestFormatValidationErrorsIgnoresOtherErrors(t *testing.T) {
	assert.Empty(t, FormatValidationErrors(assert.AnError))
}
