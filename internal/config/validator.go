package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

func newValidator() (*validator.Validate, ut.Translator, error) {
	validate := validator.New()

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, nil, fmt.Errorf("failed to register default translations: %w", err)
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := validate.RegisterValidation("duration_positive", isPositiveDuration); err != nil {
		return nil, nil, fmt.Errorf("failed to register duration_positive validation: %w", err)
	}
	if err := validate.RegisterTranslation("duration_positive", trans, func(ut ut.Translator) error {
		return ut.Add("duration_positive", "{0} must be a positive duration such as 300ms or 10s", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("duration_positive", strings.TrimPrefix(fe.Namespace(), "Config."))
		return t
	}); err != nil {
		return nil, nil, fmt.Errorf("failed to register duration_positive translation: %w", err)
	}

	return validate, trans, nil
}

func isPositiveDuration(fl validator.FieldLevel) bool {
	field := fl.Field()
	switch field.Kind() {
	case reflect.Int64:
		return field.Int() > 0
	default:
		return false
	}
}
