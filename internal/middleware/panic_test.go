package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stagepass/stagepass/internal/middleware"
)

func TestPanicRecoveryMiddleware(t *testing.T) {
	t.Run("should recover and answer 500", func(t *testing.T) {
		handler := middleware.PanicRecoveryMiddleware()(
			http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				panic("boom")
			}))

		w := httptest.NewRecorder()

		assert.NotPanics(t, func() {
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		})

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("should pass through without panic", func(t *testing.T) {
		handler := middleware.PanicRecoveryMiddleware()(
			http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusTeapot)
			}))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusTeapot, w.Code)
	})
}
