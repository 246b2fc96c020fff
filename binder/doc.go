// Package binder decodes and validates HTTP request bodies.
//
// BindJSON decodes application/json bodies in strict mode: unknown fields,
// trailing data and oversized bodies are rejected with errors wrapping
// ErrInvalidJSON, ErrBodyTooLarge, ErrMissingContentType or
// ErrUnsupportedMediaType.
//
// Validate chains struct validation (github.com/go-playground/validator/v10)
// after binding. Failures are reported as a ValidationError keyed by the
// json field name:
//
//	type createProjectRequest struct {
//		Name string `json:"name" validate:"required,max=200"`
//	}
//
//	var req createProjectRequest
//	if err := binder.Validate(binder.BindJSON())(r, &req); err != nil {
//		var verr binder.ValidationError
//		if errors.As(err, &verr) {
//			// verr.Get("name") == "is required"
//		}
//	}
package binder
