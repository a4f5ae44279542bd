package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/DukeRupert/busroute/internal/domain"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 64 << 10

var (
	validate   *validator.Validate
	translator ut.Translator

	// custom validation tags
	notBlankTag   = "notblank"
	tierTag       = "tier"
	singleLineTag = "singleline"
)

func init() {
	validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Report JSON field names instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlankValidation)
	_ = validate.RegisterValidation(tierTag, tierValidation)
	_ = validate.RegisterValidation(singleLineTag, singleLineValidation)

	// Default translations are already registered; the noop satisfies the API.
	registerFn := func(ut.Translator) error { return nil }
	for _, tag := range []string{notBlankTag, tierTag, singleLineTag} {
		_ = validate.RegisterTranslation(tag, translator, registerFn, translateCustomValidationErrs)
	}
}

func translateCustomValidationErrs(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return fmt.Sprintf("%s cannot be blank", fe.Field())
	case tierTag:
		return fmt.Sprintf("%s must be one of BASIC, PROFESSIONAL, ENTERPRISE", fe.Field())
	case singleLineTag:
		return fmt.Sprintf("%s must not contain line breaks or control characters", fe.Field())
	default:
		return ""
	}
}

func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

// singleLineValidation rejects control characters. These fields end up in
// email headers and PDF lines.
func singleLineValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return !domain.HasControlChars(str)
	}
	return false
}

func tierValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return domain.ParseTier(str).IsValid()
	}
	return false
}

// decodeJSON reads a JSON body into dst and validates it. Malformed bodies
// return domain.EINVALID; constraint failures return a *domain.ValidationError.
func decodeJSON(w http.ResponseWriter, r *http.Request, op string, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return domain.Invalid(op, "request body is required")
		case errors.As(err, &maxErr):
			return domain.Invalid(op, "request body is too large")
		case errors.As(err, &typeErr) && typeErr.Field != "":
			return domain.NewValidationError(op, typeErr.Field, fmt.Sprintf("%s has the wrong type", typeErr.Field))
		default:
			return domain.Invalid(op, "request body must be valid JSON")
		}
	}
	if dec.More() {
		return domain.Invalid(op, "request body must contain a single JSON object")
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return domain.Internal(err, op, "failed to validate request")
		}
		ve := &domain.ValidationError{Op: op}
		for _, fe := range verrs {
			ve.Add(fe.Field(), fe.Translate(translator))
		}
		return ve
	}
	return nil
}
