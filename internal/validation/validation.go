// Package validation checks request DTOs before they reach the domain layer.
// Struct rules are declared as go-playground/validator tags on the models; the
// school-specific name formats are registered here as custom tags.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/unnme/school-schedule/internal/apperr"
)

var (
	// Иванов, Римский-Корсаков
	personNamePattern = regexp.MustCompile(`^[А-ЯЁ][а-яё]+(-[А-ЯЁ][а-яё]+)?$`)

	// 1-А .. 11-Я
	groupNamePattern = regexp.MustCompile(`^(?:[1-9]|1[0-1])-[А-Я]$`)

	// Алгебра, Русский язык, ИЗО, ОБЖ-ПДД
	subjectNamePattern = regexp.MustCompile(`^[А-ЯЁ][а-яё]+(?:[-\s][А-ЯЁа-яё]+)*$|^[А-ЯЁ]+(?:-[А-ЯЁ]+)?$`)

	// 1 .. 1000 with an optional lowercase letter suffix: 204-а
	classroomNamePattern = regexp.MustCompile(`^(?:[1-9][0-9]{0,2}|1000)(?:-[а-я])?$`)

	// Control characters except newline and tab
	controlChars = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)
)

var tagMessages = map[string]string{
	"person_name":    "must be a capitalized Cyrillic word, optionally hyphenated",
	"group_name":     "must look like 5-А: grade 1-11, a hyphen and a capital Cyrillic letter",
	"subject_name":   "must be capitalized Cyrillic words or an uppercase abbreviation",
	"classroom_name": "must be a number from 1 to 1000 with an optional -letter suffix",
	"password":       "must be at least 8 characters with upper- and lowercase letters and a digit",
}

// Validator validates request structs and translates failures into
// *apperr.ValidationError with JSON field paths.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator with the school name rules registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "person_name", patternRule(personNamePattern))
	mustRegister(v, "group_name", patternRule(groupNamePattern))
	mustRegister(v, "subject_name", patternRule(subjectNamePattern))
	mustRegister(v, "classroom_name", patternRule(classroomNamePattern))
	mustRegister(v, "password", func(fl validator.FieldLevel) bool {
		return ValidatePassword(fl.Field().String()) == nil
	})

	return &Validator{validate: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s: %v", tag, err))
	}
}

func patternRule(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// Struct validates s. It returns nil, a *apperr.ValidationError, or an
// unexpected validator error (e.g. s is not a struct).
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := &apperr.ValidationError{Fields: make([]apperr.FieldError, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Fields = append(out.Fields, apperr.FieldError{
			Field:   fieldPath(fe.Namespace()),
			Message: message(fe),
		})
	}
	return out
}

// fieldPath drops the struct name: "TeacherCreateRequest.subjects[0].id" -> "subjects[0].id".
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func message(fe validator.FieldError) string {
	if msg, ok := tagMessages[fe.Tag()]; ok {
		return msg
	}

	isCollection := fe.Kind() == reflect.Slice || fe.Kind() == reflect.Array
	isString := fe.Kind() == reflect.String

	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if isCollection {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		if isString {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return "must be greater than or equal to " + fe.Param()
	case "max":
		if isString {
			return fmt.Sprintf("must be %s characters or less", fe.Param())
		}
		return "must be less than or equal to " + fe.Param()
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "failed on the " + fe.Tag() + " rule"
	}
}

// ValidatePassword checks that a password meets minimum strength requirements:
// 8 to 128 characters, containing an uppercase letter, a lowercase letter and a digit.
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password is required")
	}

	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	if len(password) > 128 {
		return fmt.Errorf("password must be less than 128 characters")
	}

	if !strings.ContainsAny(password, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}

	if !strings.ContainsAny(password, "abcdefghijklmnopqrstuvwxyz") {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}

	if !strings.ContainsAny(password, "0123456789") {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

// SanitizeString removes control characters and surrounding whitespace.
func SanitizeString(input string) string {
	return strings.TrimSpace(controlChars.ReplaceAllString(input, ""))
}
