package util

import (
	"database/sql/driver"
	"reflect"

	"github.com/go-playground/validator/v10"
	"gopkg.in/guregu/null.v3"
)

func NewValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterCustomTypeFunc(nullStringValuer, null.String{})
	validate.RegisterCustomTypeFunc(nullBoolValuer, null.Bool{})

	return validate
}

func nullStringValuer(field reflect.Value) interface{} {
	return valuer(field)
}

func nullBoolValuer(field reflect.Value) interface{} {
	return valuer(field)
}

func valuer(field reflect.Value) interface{} {
	if v, ok := field.Interface().(driver.Valuer); ok {
		val, err := v.Value()
		if err == nil {
			return val
		}
	}
	return nil
}
