package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationResultAggregation(t *testing.T) {
	result := &ValidationResult{}
	assert.True(t, result.Valid())

	result.Add(nil) // nil errors are ignored
	assert.True(t, result.Valid())

	result.Add(Invalid(ErrSourceInStorm, "from_sector", "sector %d stormed", 3))
	result.Add(Invalid(ErrInsufficientForces, "forces", "not enough"))
	assert.False(t, result.Valid())
	assert.True(t, result.Has(ErrSourceInStorm))
	assert.False(t, result.Has(ErrNoPathAvailable))
	assert.Len(t, result.Errors, 2)

	other := &ValidationResult{}
	other.Add(Invalid(ErrCardNotHeld, "weapon_card", "no such card"))
	result.Merge(other)
	assert.True(t, result.Has(ErrCardNotHeld))
}

func TestNilValidationResult(t *testing.T) {
	var result *ValidationResult
	assert.True(t, result.Valid())
	assert.False(t, result.Has(ErrInvalidCard))
}

func TestStepResultReject(t *testing.T) {
	result := StepResult{Status: StepPending}
	bad := &ValidationResult{}
	bad.Add(Invalid(ErrInvalidResponse, "dial", "out of range"))
	result.Reject("req-1", bad)

	assert.Contains(t, result.Rejections, "req-1")
	assert.True(t, result.Rejections["req-1"].Has(ErrInvalidResponse))
}
