package handler

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterValidators_DateTag(t *testing.T) {
	require.NotPanics(t, RegisterValidators)
	require.NotPanics(t, RegisterValidators, "registration is idempotent")

	type stay struct {
		CheckIn string `binding:"required,date"`
	}
	assert.NoError(t, binding.Validator.ValidateStruct(&stay{CheckIn: "2024-03-01"}))
	assert.Error(t, binding.Validator.ValidateStruct(&stay{CheckIn: "03/01/2024"}))
	assert.Error(t, binding.Validator.ValidateStruct(&stay{CheckIn: "2024-02-30"}))
}
