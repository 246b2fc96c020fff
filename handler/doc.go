// Package handler provides type-safe JSON HTTP handlers.
//
// A HandlerFunc receives a Context and a bound request value and returns a
// Response. Wrap adapts it to http.HandlerFunc, running binders from the
// binder package, decorators and a single ErrorHandler:
//
//	type createProjectRequest struct {
//		Name string `json:"name" validate:"required,max=200"`
//	}
//
//	func create(ctx handler.Context, req createProjectRequest) handler.Response {
//		receipt, err := gate.TryConsume(ctx, userID, entitlement.ProjectPayload{Name: req.Name})
//		if err != nil {
//			return handler.Fail(err)
//		}
//		return handler.JSON(receipt, handler.WithJSONStatus(http.StatusCreated))
//	}
//
//	errs := handler.NewErrorHandler(log, handler.WithErrorMappers(mapDomainErrors))
//	r.Post("/projects", handler.Wrap(create,
//		handler.WithBinders[handler.Context, createProjectRequest](binder.Validate(binder.BindJSON())),
//		handler.WithErrorHandler[handler.Context, createProjectRequest](errs),
//	))
//
// # Errors
//
// Every error response is an ErrorBody:
//
//	{"error": "LIMIT_REACHED", "message": "Forbidden", "request_id": "..."}
//
// ClassifyError chooses the status and code. ErrorMapper functions
// registered with WithErrorMappers translate domain errors first; then
// HTTPError values in the error chain are used as-is; binder failures map
// to 400, 413, 415 or 422 (with per-field details); everything else is a
// 500 whose message never leaks the underlying error text.
//
// NewHTTPErrorHandler exposes the same logic with a plain net/http
// signature for middleware such as the JWT authenticator.
package handler
