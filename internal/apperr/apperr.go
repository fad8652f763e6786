// Package apperr classifies failures into the categories the console shows to users:
// unreachable network, client (4xx) errors, server (5xx) errors, local validation and
// local rule violations. Every error maps to exactly one human readable message.
package apperr

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind is the category of a failure
type Kind string

const (
	KindNetwork      Kind = "network"
	KindClient       Kind = "client"
	KindUnauthorized Kind = "unauthorized"
	KindServer       Kind = "server"
	KindValidation   Kind = "validation"
	KindLocal        Kind = "local"
)

// Fallback messages shown when the server gives no usable detail
const (
	MsgNetwork       = "Network connection error. Please check your internet and try again."
	MsgInvalidInput  = "Invalid request. Please check your inputs and try again."
	MsgSessionExpire = "Your session has expired. Please log in again."
)

// Error is a classified failure
type Error struct {
	Kind   Kind
	Status int    // HTTP status, 0 when no response was received
	Detail string // flattened server detail, may be empty
	Err    error  // underlying cause
}

func (e *Error) Error() string {
	switch {
	case e.Detail != "" && e.Status != 0:
		return fmt.Sprintf("%s error (status %d): %s", e.Kind, e.Status, e.Detail)
	case e.Status != 0:
		return fmt.Sprintf("%s error (status %d)", e.Kind, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s error", e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Network wraps a transport failure where no response was received
func Network(err error) *Error {
	return &Error{Kind: KindNetwork, Err: err}
}

// Local wraps a rule violation detected before any network call
func Local(err error) *Error {
	return &Error{Kind: KindLocal, Detail: err.Error(), Err: err}
}

// FromResponse classifies a non-2xx response. body is the raw response body.
func FromResponse(status int, body []byte) *Error {
	e := &Error{Status: status, Detail: DetailFromBody(body)}
	switch {
	case status == http.StatusUnauthorized:
		e.Kind = KindUnauthorized
	case status >= 500:
		e.Kind = KindServer
	default:
		e.Kind = KindClient
	}
	return e
}

// DetailFromBody extracts and flattens the `detail` field of an error body.
// Bodies that are not JSON objects yield an empty detail.
func DetailFromBody(body []byte) string {
	var envelope struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if d := FlattenDetail(envelope.Detail); d != "" {
		return d
	}
	return envelope.Message
}

// FlattenDetail turns a detail value into one display string. Strings pass through,
// arrays become each element's "msg" (or its JSON) joined with ", ", objects become their JSON.
func FlattenDetail(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err == nil {
			parts := make([]string, 0, len(items))
			for _, item := range items {
				parts = append(parts, flattenItem(item))
			}
			return strings.Join(parts, ", ")
		}
	case '{':
		return compactJSON(raw)
	}
	return compactJSON(raw)
}

func flattenItem(item json.RawMessage) string {
	var withMsg struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(item, &withMsg); err == nil && withMsg.Msg != "" {
		return withMsg.Msg
	}
	var s string
	if err := json.Unmarshal(item, &s); err == nil {
		return s
	}
	return compactJSON(item)
}

func compactJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// As returns the classified error in err's chain, if any
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsUnauthorized reports whether err is a 401 from the API
func IsUnauthorized(err error) bool {
	e, ok := As(err)
	return ok && e.Kind == KindUnauthorized
}
