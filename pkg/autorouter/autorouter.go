package autorouter

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"go.uber.org/zap"

	"github.com/danghamo/warpgate/pkg/logger"
)

// Middleware represents middleware function signature
type Middleware func(http.Handler) http.Handler

// RegistrationOptions configures how handlers are registered
type RegistrationOptions struct {
	Prefix       string       // URL prefix (e.g., "/api/v1/")
	MethodPrefix string       // Method prefix (e.g., "warp." -> "warp.Teleport")
	HTTPMethod   string       // Restricts routes to one HTTP method when set (e.g., "POST")
	Middleware   []Middleware // Middleware chain to apply
	Logger       *logger.Logger
}

// HandlerInfo describes one registered route
type HandlerInfo struct {
	Pattern    string
	URLPath    string
	MethodName string
}

// AutoRouter registers the exported func(http.ResponseWriter, *http.Request)
// methods of a handler struct as routes named after the method
type AutoRouter struct {
	mux     *http.ServeMux
	options RegistrationOptions
}

// NewAutoRouter creates a new auto router
func NewAutoRouter(mux *http.ServeMux, options RegistrationOptions) *AutoRouter {
	return &AutoRouter{
		mux:     mux,
		options: options,
	}
}

// With returns a router sharing the mux whose routes also run mw first
func (ar *AutoRouter) With(mw ...Middleware) *AutoRouter {
	options := ar.options
	options.Middleware = append(append([]Middleware{}, mw...), ar.options.Middleware...)
	return &AutoRouter{mux: ar.mux, options: options}
}

// WithMethodPrefix returns a router sharing the mux that names routes prefix+Method
func (ar *AutoRouter) WithMethodPrefix(prefix string) *AutoRouter {
	options := ar.options
	options.MethodPrefix = prefix
	return &AutoRouter{mux: ar.mux, options: options}
}

// RegisterHandlers registers every handler method of handler and returns the routes it added.
// Methods named Handle* are left for manual wiring.
func (ar *AutoRouter) RegisterHandlers(handler any) ([]HandlerInfo, error) {
	routes, err := ar.Routes(handler)
	if err != nil {
		return nil, err
	}

	value := reflect.ValueOf(handler)
	for _, route := range routes {
		method := value.MethodByName(route.MethodName)
		fn, ok := method.Interface().(func(http.ResponseWriter, *http.Request))
		if !ok {
			return nil, fmt.Errorf("method %s does not match handler signature", route.MethodName)
		}

		ar.mux.Handle(route.Pattern, ar.applyMiddleware(http.HandlerFunc(fn)))

		if ar.options.Logger != nil {
			ar.options.Logger.Debug("Auto-registered route",
				zap.String("pattern", route.Pattern),
				zap.String("method", route.MethodName),
			)
		}
	}

	return routes, nil
}

// Routes lists the routes RegisterHandlers would add for handler
func (ar *AutoRouter) Routes(handler any) ([]HandlerInfo, error) {
	handlerType := reflect.TypeOf(handler)
	if handlerType == nil {
		return nil, fmt.Errorf("handler must be a struct or pointer to struct")
	}

	base := handlerType
	if base.Kind() == reflect.Ptr {
		base = base.Elem()
	}
	if base.Kind() != reflect.Struct {
		return nil, fmt.Errorf("handler must be a struct or pointer to struct")
	}

	var routes []HandlerInfo
	for i := 0; i < handlerType.NumMethod(); i++ {
		method := handlerType.Method(i)

		if strings.HasPrefix(method.Name, "Handle") {
			continue
		}
		if !isHandlerFunc(method.Type) {
			continue
		}

		urlPath := ar.buildURLPath(method.Name)
		pattern := urlPath
		if ar.options.HTTPMethod != "" {
			pattern = ar.options.HTTPMethod + " " + urlPath
		}

		routes = append(routes, HandlerInfo{
			Pattern:    pattern,
			URLPath:    urlPath,
			MethodName: method.Name,
		})
	}

	return routes, nil
}

var (
	responseWriterType = reflect.TypeOf((*http.ResponseWriter)(nil)).Elem()
	requestType        = reflect.TypeOf((*http.Request)(nil))
)

// isHandlerFunc checks a method type, receiver included, against
// func(http.ResponseWriter, *http.Request)
func isHandlerFunc(methodType reflect.Type) bool {
	return methodType.NumIn() == 3 &&
		methodType.NumOut() == 0 &&
		methodType.In(1) == responseWriterType &&
		methodType.In(2) == requestType
}

// buildURLPath constructs the URL path from method name
func (ar *AutoRouter) buildURLPath(methodName string) string {
	if ar.options.MethodPrefix != "" {
		return ar.options.Prefix + ar.options.MethodPrefix + methodName
	}
	return ar.options.Prefix + strings.ToLower(methodName)
}

// applyMiddleware applies the configured middleware, first listed runs first
func (ar *AutoRouter) applyMiddleware(handler http.Handler) http.Handler {
	for i := len(ar.options.Middleware) - 1; i >= 0; i-- {
		handler = ar.options.Middleware[i](handler)
	}
	return handler
}
