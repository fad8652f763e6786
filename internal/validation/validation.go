// Package validation holds the declarative rule sets for every form the console submits.
// Rules are `validate` struct tags evaluated by go-playground/validator; failures are reported
// per field with the messages users see next to the input.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/garyjia/payroll-console/internal/domain/entity"
	"github.com/go-playground/validator/v10"
)

var payPeriodPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

var (
	once     sync.Once
	instance *validator.Validate
)

func engine() *validator.Validate {
	once.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
		// Dates are validated as their wire string so `required` means "not the zero date".
		v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			if d, ok := field.Interface().(entity.Date); ok {
				return d.String()
			}
			return nil
		}, entity.Date{})
		mustRegister(v, "payperiod", func(fl validator.FieldLevel) bool {
			return payPeriodPattern.MatchString(fl.Field().String())
		})
		mustRegister(v, "category", func(fl validator.FieldLevel) bool {
			return entity.Category(fl.Field().String()).IsValid()
		})
		instance = v
	})
	return instance
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// Errors maps field names (as sent to the API) to a single message each
type Errors struct {
	order  []string
	fields map[string]string
}

func (e *Errors) add(field, msg string) {
	if e.fields == nil {
		e.fields = make(map[string]string)
	}
	if _, exists := e.fields[field]; exists {
		return
	}
	e.order = append(e.order, field)
	e.fields[field] = msg
}

func (e *Errors) Error() string {
	parts := make([]string, 0, len(e.order))
	for _, f := range e.order {
		parts = append(parts, f+": "+e.fields[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields returns a copy of the per-field messages
func (e *Errors) Fields() map[string]string {
	out := make(map[string]string, len(e.fields))
	for k, v := range e.fields {
		out[k] = v
	}
	return out
}

// First returns the message of the first failing field in form order
func (e *Errors) First() string {
	if len(e.order) == 0 {
		return ""
	}
	return e.fields[e.order[0]]
}

// Field returns the message for one field, or empty if it passed
func (e *Errors) Field(name string) string {
	return e.fields[name]
}

// Len returns the number of failing fields
func (e *Errors) Len() int {
	return len(e.order)
}

// Validate checks a form against its rule set. It returns nil or *Errors.
func Validate(form any) error {
	err := engine().Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate form: %w", err)
	}

	out := &Errors{}
	for _, fe := range verrs {
		out.add(fe.Field(), message(fe.Field(), fe.Tag(), fe.Param()))
	}
	return out
}

// ValidateField checks a single field of a form, as done when an input loses focus.
// It returns the message for that field or an empty string.
func ValidateField(form any, field string) string {
	err := Validate(form)
	var verrs *Errors
	if errors.As(err, &verrs) {
		return verrs.Field(field)
	}
	return ""
}
