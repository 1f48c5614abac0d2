package http

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate performs structural request validation before the body reaches a
// service. Field names in error output follow the JSON tags.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		tag := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return field.Name
		}
		return tag
	})
	return v
}

// validateRequest returns a field error map, or nil when the request passes.
func validateRequest(req any) map[string]string {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	vErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"request": err.Error()}
	}

	out := make(map[string]string, len(vErrs))
	for _, fe := range vErrs {
		switch fe.Tag() {
		case "required":
			out[fe.Field()] = "this field is required"
		case "gte":
			out[fe.Field()] = "must be greater than or equal to " + fe.Param()
		default:
			out[fe.Field()] = "failed validation rule " + fe.Tag()
		}
	}
	return out
}
