package apperr

import (
	"errors"
	"fmt"
)

// FieldErrors is implemented by validation results that carry per-field messages
type FieldErrors interface {
	error
	Fields() map[string]string
	First() string
}

// UserMessage returns the single human readable message for err. action describes what was
// being attempted in gerund form ("creating the salary slip").
func UserMessage(err error, action string) string {
	if err == nil {
		return ""
	}

	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe.First()
	}

	e, ok := As(err)
	if !ok {
		return fmt.Sprintf("Failed to complete %s. Please try again.", action)
	}

	switch e.Kind {
	case KindNetwork:
		return MsgNetwork
	case KindServer:
		return fmt.Sprintf("Something went wrong while %s. Please try again.", action)
	case KindUnauthorized:
		return MsgSessionExpire
	case KindClient, KindLocal:
		if e.Detail != "" {
			return e.Detail
		}
		return MsgInvalidInput
	}
	return fmt.Sprintf("Failed to complete %s. Please try again.", action)
}

// KindOf returns the category of err. Unclassified errors are reported as KindLocal.
func KindOf(err error) Kind {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return KindValidation
	}
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindLocal
}
