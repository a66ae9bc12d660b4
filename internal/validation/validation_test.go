package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupForm struct {
	Name    string `form:"name" validate:"required,min=2"`
	Email   string `form:"email" validate:"required,email"`
	Secret  string `form:"password" validate:"required,min=6"`
	Confirm string `form:"confirm_password" validate:"eqfield=Secret"`
	Type    string `form:"type" validate:"property_type"`
}

func TestValidator_Struct(t *testing.T) {
	v := New()

	ok := signupForm{Name: "Ana", Email: "ana@example.com", Secret: "123456", Confirm: "123456", Type: "Casa"}
	require.NoError(t, v.Struct(ok))

	bad := signupForm{Name: "A", Email: "nope", Secret: "123", Confirm: "321", Type: "Castelo"}
	err := v.Struct(bad)
	require.Error(t, err)

	fields := FieldsOf(err)
	assert.Equal(t, "Use pelo menos 2 caracteres.", fields["name"])
	assert.Equal(t, "Informe um e-mail válido.", fields["email"])
	assert.Equal(t, "Use pelo menos 6 caracteres.", fields["password"])
	assert.Equal(t, "As senhas não coincidem.", fields["confirm_password"])
	assert.Equal(t, "Tipo de imóvel inválido.", fields["type"])

	var verr *Errors
	require.True(t, errors.As(err, &verr))
	field, msg := verr.First()
	assert.Equal(t, "name", field)
	assert.NotEmpty(t, msg)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestFieldsOf_NonValidation(t *testing.T) {
	assert.Nil(t, FieldsOf(errors.New("boom")))
	assert.Nil(t, FieldsOf(nil))
}
