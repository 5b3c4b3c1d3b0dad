package http

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
)

//go:embed openapi.yaml
var rawSpec []byte

// GetSwagger parses and validates the embedded OpenAPI document.
func GetSwagger() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(rawSpec)
	if err != nil {
		return nil, fmt.Errorf("failed to load openapi spec: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid openapi spec: %w", err)
	}
	return doc, nil
}

// requestValidator rejects requests that do not match the OpenAPI document.
// Requests on routes the document does not describe (multipart uploads, metrics, media files) pass through.
type requestValidator struct {
	router routers.Router
}

func newRequestValidator(doc *openapi3.T) (*requestValidator, error) {
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to build openapi router: %w", err)
	}
	return &requestValidator{router: router}, nil
}

func (v *requestValidator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route, pathParams, err := v.router.FindRoute(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		input := &openapi3filter.RequestValidationInput{
			Request:    r,
			PathParams: pathParams,
			Route:      route,
			Options: &openapi3filter.Options{
				// Bearer tokens are checked by requireAdmin.
				AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
				MultiError:         false,
			},
		}
		if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody(validationMessage(err)))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// validationMessage keeps the reason and drops the schema dump kin-openapi appends.
func validationMessage(err error) string {
	switch e := err.(type) {
	case *openapi3filter.RequestError:
		if e.Parameter != nil {
			return fmt.Sprintf("invalid parameter %q: %s", e.Parameter.Name, reason(e))
		}
		return "invalid request body: " + reason(e)
	default:
		return err.Error()
	}
}

func reason(e *openapi3filter.RequestError) string {
	if se, ok := e.Err.(*openapi3.SchemaError); ok {
		if p := se.JSONPointer(); len(p) > 0 {
			return fmt.Sprintf("%s: %s", p[0], se.Reason)
		}
		return se.Reason
	}
	if e.Reason != "" {
		return e.Reason
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "invalid"
}
