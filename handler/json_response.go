package handler

import (
	"encoding/json"
	"errors"
	"maps"
	"net/http"

	"github.com/dmitrymomot/projectquota/binder"
	"github.com/dmitrymomot/projectquota/pkg/requestid"
)

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	Error     string              `json:"error"`
	Message   string              `json:"message,omitempty"`
	Details   map[string][]string `json:"details,omitempty"`
	RequestID string              `json:"request_id,omitempty"`
}

// ErrorMapper translates a domain error into an HTTPError.
// It returns false when it does not recognize err.
type ErrorMapper func(err error) (HTTPError, bool)

// jsonResponse implements Response for JSON rendering
type jsonResponse struct {
	status int
	header http.Header
	body   any
}

func (j jsonResponse) Render(w http.ResponseWriter, r *http.Request) error {
	maps.Copy(w.Header(), j.header)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSONOption configures JSON response
type JSONOption func(*jsonResponse)

// WithJSONStatus sets custom HTTP status code
func WithJSONStatus(status int) JSONOption {
	return func(r *jsonResponse) {
		r.status = status
	}
}

// WithJSONHeader adds a response header.
func WithJSONHeader(key, value string) JSONOption {
	return func(r *jsonResponse) {
		if r.header == nil {
			r.header = make(http.Header)
		}
		r.header.Add(key, value)
	}
}

// JSON writes v as the response body, 200 OK unless overridden.
func JSON(v any, opts ...JSONOption) Response {
	r := &jsonResponse{status: http.StatusOK, body: v}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// JSONError writes err as an ErrorBody. Status and code come from
// ClassifyError with the given mappers.
func JSONError(err error, mappers ...ErrorMapper) Response {
	return &errorResponse{err: err, mappers: mappers}
}

type errorResponse struct {
	err     error
	mappers []ErrorMapper
}

func (e *errorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	httpErr := ClassifyError(e.err, e.mappers...)
	body := errorBody(e.err, httpErr)
	body.RequestID = requestid.FromContext(r.Context())
	return JSON(body, WithJSONStatus(httpErr.Code)).Render(w, r)
}

// ClassifyError picks the HTTPError for err. Mappers run first in order,
// then HTTPError values in the chain, then binding failures. Anything
// else is a 500.
func ClassifyError(err error, mappers ...ErrorMapper) HTTPError {
	for _, m := range mappers {
		if m == nil {
			continue
		}
		if httpErr, ok := m(err); ok {
			return httpErr
		}
	}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	switch {
	case errors.Is(err, binder.ErrValidation):
		return ErrUnprocessableEntity
	case errors.Is(err, binder.ErrInvalidJSON):
		return ErrBadRequest
	case errors.Is(err, binder.ErrBodyTooLarge):
		return ErrRequestEntityTooLarge
	case errors.Is(err, binder.ErrMissingContentType), errors.Is(err, binder.ErrUnsupportedMediaType):
		return ErrUnsupportedMediaType
	}

	return ErrInternalServerError
}

// errorBody builds the client-facing body. Server errors never expose
// the underlying error text.
func errorBody(err error, httpErr HTTPError) ErrorBody {
	body := ErrorBody{
		Error:   httpErr.Key,
		Message: http.StatusText(httpErr.Code),
	}

	if httpErr.Code < http.StatusInternalServerError {
		if isBindingError(err) {
			body.Message = err.Error()
		}
	}

	var validationErr binder.ValidationError
	if errors.As(err, &validationErr) && len(validationErr) > 0 {
		body.Message = "validation failed"
		body.Details = make(map[string][]string, len(validationErr))
		maps.Copy(body.Details, validationErr)
	}

	return body
}

func isBindingError(err error) bool {
	return errors.Is(err, binder.ErrInvalidJSON) ||
		errors.Is(err, binder.ErrBodyTooLarge) ||
		errors.Is(err, binder.ErrMissingContentType) ||
		errors.Is(err, binder.ErrUnsupportedMediaType)
}
