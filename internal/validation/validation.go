// Package validation wraps go-playground/validator with the form field names
// and Portuguese messages the site shows next to inputs.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/model"
)

// Validator validates tagged request structs.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator. Field names come from the `form` tag.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("property_type", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || model.IsPropertyType(s)
	})
	return &Validator{validate: v}
}

// Struct validates s and returns *Errors when any rule fails.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &Errors{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		if _, seen := out.Fields[fe.Field()]; seen {
			continue
		}
		out.order = append(out.order, fe.Field())
		out.Fields[fe.Field()] = message(fe)
	}
	return out
}

// Errors maps form field names to user-facing messages.
type Errors struct {
	Fields map[string]string
	order  []string
}

func (e *Errors) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// First returns the first failing field in declaration order and its message.
func (e *Errors) First() (field, msg string) {
	if len(e.order) == 0 {
		return "", ""
	}
	return e.order[0], e.Fields[e.order[0]]
}

// FieldsOf returns the field messages carried by err, or nil.
func FieldsOf(err error) map[string]string {
	var e *Errors
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Campo obrigatório."
	case "email":
		return "Informe um e-mail válido."
	case "min":
		return fmt.Sprintf("Use pelo menos %s caracteres.", fe.Param())
	case "max":
		return fmt.Sprintf("Use no máximo %s caracteres.", fe.Param())
	case "eqfield":
		return "As senhas não coincidem."
	case "property_type":
		return "Tipo de imóvel inválido."
	case "oneof":
		return "Valor inválido."
	case "url", "uri":
		return "Informe um endereço válido."
	default:
		return "Valor inválido."
	}
}
