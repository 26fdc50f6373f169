package autorouter

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleHandler struct {
	name string
}

func (h *sampleHandler) Create(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusCreated)
	fmt.Fprintf(w, "created by %s", h.name)
}

func (h *sampleHandler) Get(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "got from %s", h.name)
}

// skipped: manual wiring
func (h *sampleHandler) HandleSomething(w http.ResponseWriter, r *http.Request) {}

// skipped: wrong signature
func (h *sampleHandler) Describe() string { return h.name }

// skipped: returns a value
func (h *sampleHandler) Check(w http.ResponseWriter, r *http.Request) error { return nil }

func TestRegisterHandlers(t *testing.T) {
	mux := http.NewServeMux()
	router := NewAutoRouter(mux, RegistrationOptions{
		Prefix:       "/api/v1/",
		MethodPrefix: "sample.",
	})

	routes, err := router.RegisterHandlers(&sampleHandler{name: "test"})
	require.NoError(t, err)

	var names []string
	for _, r := range routes {
		names = append(names, r.MethodName)
		assert.Equal(t, "/api/v1/sample."+r.MethodName, r.URLPath)
	}
	assert.ElementsMatch(t, []string{"Create", "Get"}, names)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/sample.Create", nil))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "created by test", w.Body.String())

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/sample.HandleSomething", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegisterHandlers_HTTPMethod(t *testing.T) {
	mux := http.NewServeMux()
	router := NewAutoRouter(mux, RegistrationOptions{
		Prefix:       "/api/v1/",
		MethodPrefix: "sample.",
		HTTPMethod:   http.MethodPost,
	})

	routes, err := router.RegisterHandlers(&sampleHandler{name: "post"})
	require.NoError(t, err)
	for _, r := range routes {
		assert.Equal(t, "POST "+r.URLPath, r.Pattern)
	}

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sample.Get", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/sample.Get", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLowercasePathWithoutMethodPrefix(t *testing.T) {
	router := NewAutoRouter(http.NewServeMux(), RegistrationOptions{Prefix: "/"})

	routes, err := router.Routes(&sampleHandler{})
	require.NoError(t, err)

	var paths []string
	for _, r := range routes {
		paths = append(paths, r.URLPath)
	}
	assert.ElementsMatch(t, []string{"/create", "/get"}, paths)
}

func TestWith_MiddlewareOrder(t *testing.T) {
	mux := http.NewServeMux()

	tag := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Add("X-Order", name)
				next.ServeHTTP(w, r)
			})
		}
	}

	router := NewAutoRouter(mux, RegistrationOptions{
		Prefix:       "/api/v1/",
		MethodPrefix: "sample.",
		Middleware:   []Middleware{tag("inner")},
	})

	_, err := router.With(tag("auth")).RegisterHandlers(&sampleHandler{name: "mw"})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/sample.Get", nil))
	assert.Equal(t, []string{"auth", "inner"}, w.Header().Values("X-Order"))
}

func TestRoutes_RejectsNonStruct(t *testing.T) {
	router := NewAutoRouter(http.NewServeMux(), RegistrationOptions{})

	_, err := router.Routes(func() {})
	assert.Error(t, err)

	_, err = router.Routes(nil)
	assert.Error(t, err)
}

func TestWithMethodPrefix(t *testing.T) {
	mux := http.NewServeMux()
	router := NewAutoRouter(mux, RegistrationOptions{Prefix: "/api/v1/"})

	_, err := router.WithMethodPrefix("one.").RegisterHandlers(&sampleHandler{name: "one"})
	require.NoError(t, err)
	_, err = router.WithMethodPrefix("two.").RegisterHandlers(&sampleHandler{name: "two"})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/two.Get", nil))
	assert.Equal(t, "got from two", w.Body.String())
}
