package util

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

var (
	Validate      *validator.Validate
	validatorOnce sync.Once
)

// InitValidator sets up the shared validator. Field names in validation errors
// are reported by their env tag so a failing config names the variable to fix.
func InitValidator() {
	validatorOnce.Do(func() {
		Validate = validator.New()
		Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("env"), ",", 2)[0]
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
	})
}

// ValidationMessages flattens a validator error into one message per field.
func ValidationMessages(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	return lo.Map(verrs, func(item validator.FieldError, index int) string {
		if item.Param() != "" {
			return fmt.Sprintf("%s failed on the '%s=%s' rule", item.Field(), item.Tag(), item.Param())
		}
		return fmt.Sprintf("%s failed on the '%s' rule", item.Field(), item.Tag())
	})
}
