package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

type fixedSessions int

func (f fixedSessions) Len() int { return int(f) }

func TestStatusRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(NewHandler(fixedSessions(3)))

	tests := []struct {
		path string
		want map[string]any
	}{
		{path: "/health", want: map[string]any{"status": "ok"}},
		{path: "/sessions", want: map[string]any{"active": float64(3)}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			var got map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("decode body %q: %v", rec.Body.String(), err)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("%s = %v, want %v", k, got[k], v)
				}
			}
		})
	}
}

func TestUnknownRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(NewHandler(fixedSessions(0)))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
