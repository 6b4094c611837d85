package employee

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var profileValidator = newProfileValidator()

func newProfileValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateProfile は可変構造の属性を境界で検証します。
func validateProfile(p Profile) error {
	err := profileValidator.Struct(p)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}

	fields := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		fields = append(fields, fmt.Sprintf("%s(%s)", strings.TrimPrefix(fe.Namespace(), "Profile."), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidProfile, strings.Join(fields, ", "))
}

func normalizeProfile(p Profile) Profile {
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.Phone = strings.TrimSpace(p.Phone)
	p.DateOfBirth = cloneTime(p.DateOfBirth)
	return p
}
