package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Validator couples a validator engine with an English translator so that
// failures can be rendered as field -> message maps.
type Validator struct {
	engine *validator.Validate
	trans  ut.Translator
}

// New builds a standalone validator that names fields after the given struct
// tag (e.g. "json" or "mapstructure").
func New(tagKey string) *Validator {
	return wrap(validator.New(), tagKey)
}

var (
	ginOnce      sync.Once
	ginValidator *Validator
)

// ForGin configures gin's binding engine the same way and returns it, so that
// ShouldBindJSON failures translate with the json field names.
func ForGin() *Validator {
	ginOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			ginValidator = New("json")
			return
		}
		ginValidator = wrap(engine, "json")
	})
	return ginValidator
}

func wrap(engine *validator.Validate, tagKey string) *Validator {
	engine.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get(tagKey), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	locale := en.New()
	uni := ut.New(locale, locale)
	trans, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(engine, trans)

	return &Validator{engine: engine, trans: trans}
}

// Struct validates s according to its `validate` tags.
func (v *Validator) Struct(s any) error {
	return v.engine.Struct(s)
}

// Var validates a single value against a tag expression.
func (v *Validator) Var(field any, tag string) error {
	return v.engine.Var(field, tag)
}

// ParseError converts validation errors into a namespace -> message map.
// The namespace drops the root struct name, so nested fields read as
// "llm.provider".
func (v *Validator) ParseError(err error) map[string]string {
	errMap := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			ns := e.Namespace()
			if i := strings.Index(ns, "."); i != -1 {
				ns = ns[i+1:]
			}

			msg := e.Translate(v.trans)
			if e.Tag() == "oneof" {
				msg = fmt.Sprintf("must be one of [%s]", strings.ReplaceAll(e.Param(), " ", ", "))
			}

			errMap[ns] = msg
		}
		return errMap
	}

	errMap["body"] = "Invalid request body format. Please fix your payload."
	return errMap
}
