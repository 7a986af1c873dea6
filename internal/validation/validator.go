// Package validation checks decoded input records with go-playground/validator.
//
// A single validator instance is shared (struct metadata is cached on first
// use). Field names in errors are the JSON keys of the source data, so a
// failure reads "userId is required" rather than naming the Go field.
package validation

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/cesargomez89/songplays/internal/domain"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Kind classifies a field failure.
type Kind string

const (
	KindMissing Kind = "missing"
	KindInvalid Kind = "invalid"
)

// FieldError is a single field validation failure.
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Kind    Kind
	Value   interface{}
	message string
}

func (e *FieldError) Error() string {
	return e.message
}

// RecordError holds every failed field of one record.
type RecordError struct {
	Fields []FieldError
}

func (e *RecordError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}

	messages := make([]string, len(e.Fields))
	for i := range e.Fields {
		messages[i] = e.Fields[i].Error()
	}
	return strings.Join(messages, "; ")
}

// Kind reports KindMissing when any required field is absent.
func (e *RecordError) Kind() Kind {
	for _, f := range e.Fields {
		if f.Kind == KindMissing {
			return KindMissing
		}
	}
	return KindInvalid
}

func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		// Nullable scalars validate as their value; NULL counts as empty.
		validate.RegisterCustomTypeFunc(nullableValue, domain.NullFloat64{}, domain.NullInt64{})
	})

	return validate
}

func nullableValue(field reflect.Value) interface{} {
	valuer, ok := field.Interface().(driver.Valuer)
	if !ok {
		return nil
	}
	v, err := valuer.Value()
	if err != nil {
		return nil
	}
	return v
}

// ValidateStruct returns nil when s passes, otherwise a *RecordError.
func ValidateStruct(s interface{}) *RecordError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return &RecordError{
			Fields: []FieldError{{
				Field:   "unknown",
				Tag:     "unknown",
				Kind:    KindInvalid,
				message: err.Error(),
			}},
		}
	}

	fields := make([]FieldError, len(validationErrs))
	for i, fe := range validationErrs {
		kind := KindInvalid
		if fe.Tag() == "required" {
			kind = KindMissing
		}
		fields[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Kind:    kind,
			Value:   fe.Value(),
			message: translateError(fe),
		}
	}

	return &RecordError{Fields: fields}
}

// DecodeError turns the failure to decode one record into target into a
// RecordError of kind invalid, naming the offending JSON field when known.
func DecodeError(target interface{}, err error) *RecordError {
	field := "record"
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		field = jsonFieldName(reflect.TypeOf(target), typeErr.Field)
	}

	return &RecordError{
		Fields: []FieldError{{
			Field:   field,
			Tag:     "type",
			Kind:    KindInvalid,
			message: fmt.Sprintf("%s has an invalid value: %v", field, err),
		}},
	}
}

// jsonFieldName maps a decoder field reference, a Go field name or a dotted
// path, to the JSON key declared on t.
func jsonFieldName(t reflect.Type, name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return name
	}

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if f.Name == name || tag == name {
			if tag == "" || tag == "-" {
				return f.Name
			}
			return tag
		}
	}
	return name
}

var errorMessageTemplates = map[string]string{
	"required": "%s is required",
}

var errorMessageWithParam = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
	"gt":    "%s must be greater than %s",
	"lt":    "%s must be less than %s",
}

func translateError(fe validator.FieldError) string {
	field := fe.Field()

	if template, ok := errorMessageTemplates[fe.Tag()]; ok {
		return fmt.Sprintf(template, field)
	}
	if template, ok := errorMessageWithParam[fe.Tag()]; ok {
		return fmt.Sprintf(template, field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}
