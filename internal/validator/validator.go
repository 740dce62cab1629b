package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// FieldError は最初に見つかった入力エラー。Messageをそのまま利用者に返す
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Message
}

type Validator struct {
	v *validator.Validate
}

var (
	defaultOnce sync.Once
	defaultV    *Validator
)

// Default はプロセス内で共有するValidator
func Default() *Validator {
	defaultOnce.Do(func() { defaultV = New() })
	return defaultV
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	//エラーのフィールド名はjsonタグ名にする
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})

	//前後の空白だけの文字列を弾く
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return &Validator{v: v}
}

// Validate はechoのValidatorとしても使う
func (v *Validator) Validate(i interface{}) error {
	return v.Struct(i)
}

// Struct は最初のフィールドエラーを *FieldError で返す
func (v *Validator) Struct(i interface{}) error {
	err := v.v.Struct(i)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		fe := ves[0]
		return &FieldError{Field: fe.Field(), Message: message(fe)}
	}
	return err
}

func message(fe validator.FieldError) string {
	f := fe.Field()
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", f)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", f, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", f, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", f, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", f, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", f, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be %s or more", f, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be %s or less", f, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", f, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", f)
	case "username":
		return fmt.Sprintf("%s may only contain letters, digits and underscores", f)
	case "url", "uri":
		return fmt.Sprintf("%s must be a valid url", f)
	case "numeric":
		return fmt.Sprintf("%s must be numeric", f)
	}
	return fmt.Sprintf("%s is invalid", f)
}
