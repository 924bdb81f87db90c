package validator

import (
	"errors"
	"fmt"
	"realestate-backend/internal/models"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

func Username(username string) error {
	length := len(username)
	if length < 3 {
		return fmt.Errorf("short_username")
	} else if length > 32 {
		return fmt.Errorf("long_username")
	}

	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("bad_format")
	}
	return nil
}

// Password only checks length, bcrypt ignores everything past 72 bytes.
func Password(password string) error {
	length := len(password)
	if length < 6 {
		return fmt.Errorf("short_password")
	} else if length > 72 {
		return fmt.Errorf("long_password")
	}
	return nil
}

func Role(role string) error {
	if !models.Role(role).Valid() {
		return fmt.Errorf("unknown_role")
	}
	return nil
}

func PropertyType(propertyType string) error {
	for _, t := range models.PropertyTypes {
		if models.PropertyType(propertyType) == t {
			return nil
		}
	}
	return fmt.Errorf("unknown_property_type")
}

// MaxMessageContent is the longest message content in bytes.
const MaxMessageContent = 4096

// MessageContent rejects content that is blank after trimming or longer than
// MaxMessageContent bytes.
func MessageContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("empty_content")
	} else if len(content) > MaxMessageContent {
		return fmt.Errorf("long_content")
	}
	return nil
}

func stringRule(rule func(string) error) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return rule(fl.Field().String()) == nil
	}
}

// New returns a validator that knows the username, password, role, propertytype and
// messagecontent tags and reports fields by their json names.
func New() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})

	// registering a fixed set of tags can only fail on a programming error
	mustRegister(validate, "username", stringRule(Username))
	mustRegister(validate, "password", stringRule(Password))
	mustRegister(validate, "role", stringRule(Role))
	mustRegister(validate, "propertytype", stringRule(PropertyType))
	mustRegister(validate, "messagecontent", stringRule(MessageContent))

	return validate
}

func mustRegister(validate *validator.Validate, tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// Errors turns validation errors into a field -> failed tag map, fields are their
// json paths like "address.city". ok is false when err is not a validation error.
func Errors(err error) (map[string]string, bool) {
	var validateErrs validator.ValidationErrors
	if !errors.As(err, &validateErrs) {
		return nil, false
	}

	fieldErrors := make(map[string]string, len(validateErrs))
	for _, e := range validateErrs {
		namespace := e.Namespace()
		// drop the root struct name
		if i := strings.Index(namespace, "."); i >= 0 {
			namespace = namespace[i+1:]
		}
		fieldErrors[namespace] = e.Tag()
	}
	return fieldErrors, true
}
