package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/zdunecki/graphfleet/test"
)

func TestMiddlewaresWrapInOrder(t *testing.T) {
	var calls []string

	mark := func(name string) MiddleWare {
		return func(next http.HandlerFunc) http.HandlerFunc {
			return func(w http.ResponseWriter, r *http.Request) {
				calls = append(calls, name)
				next(w, r)
			}
		}
	}

	a := New(chi.NewMux())
	a.Get("/ping", func(c Context) {
		calls = append(calls, "handler")
		c.NoContent()
	}, mark("outer"), mark("inner"))

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	test.Diff(t, "status should equal", http.StatusNoContent, rec.Code)
	test.Diff(t, "calls should equal", []string{"outer", "inner", "handler"}, calls)
}

func TestWithMaxBytes(t *testing.T) {
	var bindErr error

	a := New(chi.NewMux())
	a.Post("/echo", func(c Context) {
		var body map[string]string
		bindErr = c.Bind(&body)
		c.NoContent()
	}, WithMaxBytes(8))

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"a":"`+strings.Repeat("x", 64)+`"}`)))

	var tooLarge *http.MaxBytesError
	if !errors.As(bindErr, &tooLarge) {
		t.Errorf("oversized body should fail with max bytes error, got %v", bindErr)
	}

	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{}`)))

	if bindErr != nil {
		t.Errorf("small body should bind, got %v", bindErr)
	}
}
