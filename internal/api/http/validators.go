package http

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

const notBlankTag = "notblank"

// newValidator returns a validator that reports JSON field names with english
// messages.
func newValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlankValidation)
	_ = validate.RegisterTranslation(notBlankTag, translator,
		func(t ut.Translator) error { return t.Add(notBlankTag, "{0} cannot be blank", true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(notBlankTag, fe.Field())
			return s
		},
	)
	return validate, translator
}

func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return true
}

// translateErrors flattens validation errors into one message.
func translateErrors(err error, translator ut.Translator) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Translate(translator))
	}
	return strings.Join(msgs, "; ")
}
