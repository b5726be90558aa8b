package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"go-pos-rd/pkg/rnc"
)

type ErrorResponse struct {
	FailedField string `json:"field"`
	Tag         string `json:"tag"`
	Value       string `json:"-"`
	Message     string `json:"message"`
}

var (
	validate = validator.New()

	ncfPattern   = regexp.MustCompile(`^(B\d{10}|E\d{12})$`)
	phonePattern = regexp.MustCompile(`^1?(809|829|849)\d{7}$`)
	ncfTypes     = map[string]bool{"B01": true, "B02": true, "B04": true, "B14": true, "B15": true}
)

func init() {
	// Report json names so messages match the request body.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	validate.RegisterValidation("uuid_required", func(fl validator.FieldLevel) bool {
		if id, ok := fl.Field().Interface().(uuid.UUID); ok {
			return id != uuid.Nil
		}
		return false
	})
	validate.RegisterValidation("rnc", func(fl validator.FieldLevel) bool {
		return rnc.IsValid(fl.Field().String())
	})
	validate.RegisterValidation("ncf", func(fl validator.FieldLevel) bool {
		return ncfPattern.MatchString(strings.ToUpper(strings.TrimSpace(fl.Field().String())))
	})
	validate.RegisterValidation("ncf_type", func(fl validator.FieldLevel) bool {
		return ncfTypes[strings.ToUpper(fl.Field().String())]
	})
	validate.RegisterValidation("phone_do", func(fl validator.FieldLevel) bool {
		return IsDominicanPhone(fl.Field().String())
	})
}

// IsDominicanPhone accepts 809/829/849 numbers with or without the leading 1
// and any punctuation.
func IsDominicanPhone(s string) bool {
	return phonePattern.MatchString(rnc.Normalize(s))
}

func ValidateStruct(data interface{}) []*ErrorResponse {
	var errors []*ErrorResponse
	err := validate.Struct(data)
	if err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return []*ErrorResponse{{Tag: "invalid", Message: err.Error()}}
		}
		for _, err := range verrs {
			var element ErrorResponse
			element.FailedField = err.Field()
			element.Tag = err.Tag()
			element.Value = err.Param()
			element.Message = message(err)
			errors = append(errors, &element)
		}
	}
	return errors
}

func message(fe validator.FieldError) string {
	f := fe.Field()
	switch fe.Tag() {
	case "required", "uuid_required":
		return fmt.Sprintf("%s es obligatorio", f)
	case "email":
		return fmt.Sprintf("%s debe ser un correo válido", f)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s debe tener al menos %s caracteres", f, fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s debe tener al menos %s elementos", f, fe.Param())
		}
		return fmt.Sprintf("%s debe ser mayor o igual a %s", f, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s no puede exceder %s caracteres", f, fe.Param())
		}
		return fmt.Sprintf("%s debe ser menor o igual a %s", f, fe.Param())
	case "gt":
		return fmt.Sprintf("%s debe ser mayor que %s", f, fe.Param())
	case "gte":
		return fmt.Sprintf("%s debe ser mayor o igual a %s", f, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s debe ser uno de: %s", f, fe.Param())
	case "rnc":
		return fmt.Sprintf("%s debe ser un RNC (9 dígitos) o cédula (11 dígitos)", f)
	case "ncf":
		return fmt.Sprintf("%s no es un NCF válido", f)
	case "ncf_type":
		return fmt.Sprintf("%s debe ser B01, B02, B04, B14 o B15", f)
	case "phone_do":
		return fmt.Sprintf("%s debe ser un teléfono dominicano (809, 829 u 849)", f)
	}
	return fmt.Sprintf("%s no es válido (%s)", f, fe.Tag())
}
