package binder

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

// DefaultMaxBodySize caps JSON request bodies.
const DefaultMaxBodySize int64 = 1 << 20

// Bind parses an HTTP request into v.
type Bind func(r *http.Request, v any) error

// BindJSON decodes an application/json body into v in strict mode:
// unknown fields and trailing data are rejected.
//
// Example:
//
//	var req CreateProjectRequest
//	if err := binder.BindJSON()(r, &req); err != nil {
//		return handler.JSONError(err)
//	}
func BindJSON() Bind {
	return BindJSONWithLimit(DefaultMaxBodySize)
}

// BindJSONWithLimit is BindJSON with a custom body size cap in bytes.
func BindJSONWithLimit(maxBytes int64) Bind {
	return func(r *http.Request, v any) error {
		contentType := r.Header.Get("Content-Type")
		if contentType == "" {
			return fmt.Errorf("%w: expected application/json", ErrMissingContentType)
		}

		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil || mediaType != "application/json" {
			return fmt.Errorf("%w: got %s, expected application/json", ErrUnsupportedMediaType, contentType)
		}

		body := io.Reader(r.Body)
		if maxBytes > 0 {
			body = io.LimitReader(r.Body, maxBytes+1)
		}
		raw, err := io.ReadAll(body)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
		if maxBytes > 0 && int64(len(raw)) > maxBytes {
			return fmt.Errorf("%w: limit is %d bytes", ErrBodyTooLarge, maxBytes)
		}
		if len(raw) == 0 {
			return fmt.Errorf("%w: empty body", ErrInvalidJSON)
		}

		decoder := json.NewDecoder(bytes.NewReader(raw))
		decoder.DisallowUnknownFields()

		if err := decoder.Decode(v); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			switch {
			case errors.As(err, &syntaxErr):
				return fmt.Errorf("%w: malformed JSON at offset %d", ErrInvalidJSON, syntaxErr.Offset)
			case errors.As(err, &typeErr):
				return fmt.Errorf("%w: field %q must be %s", ErrInvalidJSON, typeErr.Field, typeErr.Type)
			default:
				return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
			}
		}

		var extra json.RawMessage
		if err := decoder.Decode(&extra); !errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: unexpected data after JSON object", ErrInvalidJSON)
		}

		return nil
	}
}
