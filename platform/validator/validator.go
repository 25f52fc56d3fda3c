// Package validator provides validation infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package validator

import (
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Validator wraps the go-playground validator for structured validation.
// Using a struct allows for dependency injection and easier testing.
type Validator struct {
	v *validator.Validate
}

// New creates a new Validator instance with the decimal rules registered.
// Domain-specific validation rules can be registered using RegisterValidation.
func New() *Validator {
	v := validator.New()
	// Decimals are structs; present them as strings so field tags apply.
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	_ = v.RegisterValidation("decimal_gte0", decimalGTE0)
	_ = v.RegisterValidation("decimal_gt0", decimalGT0)
	return &Validator{v: v}
}

// Struct validates a struct based on validation tags.
func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

// Var validates a single variable against a tag.
func (val *Validator) Var(field interface{}, tag string) error {
	return val.v.Var(field, tag)
}

// RegisterValidation registers a custom validation function.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}

func decimalGTE0(fl validator.FieldLevel) bool {
	d, ok := decimalField(fl.Field())
	if !ok {
		return true
	}
	return !d.IsNegative()
}

func decimalGT0(fl validator.FieldLevel) bool {
	d, ok := decimalField(fl.Field())
	if !ok {
		return true
	}
	return d.IsPositive()
}

func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.String()
	}
	return nil
}

// decimalField reads a decimal from its string form or from decimal.Decimal
// and *decimal.Decimal values. A nil pointer reports ok=false so optional fields pass.
func decimalField(field reflect.Value) (decimal.Decimal, bool) {
	if field.Kind() == reflect.String {
		d, err := decimal.NewFromString(field.String())
		return d, err == nil
	}
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			return decimal.Decimal{}, false
		}
		field = field.Elem()
	}
	d, ok := field.Interface().(decimal.Decimal)
	return d, ok
}
