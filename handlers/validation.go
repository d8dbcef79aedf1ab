// handlers/validation.go
package handlers

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/gofiber/fiber/v2"
)

type requestValidator struct {
	validate   *validator.Validate
	translator ut.Translator
}

var bodyValidator = newRequestValidator()

func newRequestValidator() *requestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, translator)

	// field errors are keyed by the JSON name clients send
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &requestValidator{validate: v, translator: translator}
}

// check returns nil when s is valid, otherwise field -> messages.
func (rv *requestValidator) check(s any) map[string][]string {
	err := rv.validate.Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string][]string{"body": {err.Error()}}
	}
	out := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = append(out[fe.Field()], fe.Translate(rv.translator))
	}
	return out
}

// bindBody parses and validates the JSON body into dst. On failure the 422 response
// has already been written and the returned error is what the handler should return.
func bindBody(c *fiber.Ctx, dst any) (bool, error) {
	if err := c.BodyParser(dst); err != nil {
		return false, validationFailed(c, map[string][]string{"body": {"invalid JSON body"}})
	}
	if errs := bodyValidator.check(dst); errs != nil {
		return false, validationFailed(c, errs)
	}
	return true, nil
}
