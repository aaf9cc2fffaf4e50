// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"
	"sort"
	"strings"
)

// Error classes the domain sentinels belong to. RespondError maps a class to
// its status when a handler has no more specific message.
var (
	ErrNotFound   = errors.New("resource not found")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
)

type classified struct {
	msg   string
	class error
}

func (e *classified) Error() string { return e.msg }

func (e *classified) Unwrap() error { return e.class }

// NotFound returns a sentinel with message msg that matches ErrNotFound.
func NotFound(msg string) error {
	return &classified{msg: msg, class: ErrNotFound}
}

// Conflict returns a sentinel with message msg that matches ErrConflict.
func Conflict(msg string) error {
	return &classified{msg: msg, class: ErrConflict}
}

// FieldErrors collects validation messages keyed by field name.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+f[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is lets errors.Is(err, ErrValidation) match.
func (f FieldErrors) Is(target error) bool {
	return target == ErrValidation
}

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var fields FieldErrors
	switch {
	case errors.As(err, &fields):
		JSON(w, http.StatusBadRequest, ProblemDetail{
			Title:  "Validation Failed",
			Status: http.StatusBadRequest,
			Detail: "one or more fields are invalid",
			Errors: fields,
		})
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
