package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestEngineRunsInReleaseMode(t *testing.T) {
	h := NewHandler(nil, nil, nil, nil)
	r := h.engine()

	if gin.Mode() != gin.ReleaseMode {
		t.Errorf("gin mode = %s, want %s", gin.Mode(), gin.ReleaseMode)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", w.Code)
	}
}
