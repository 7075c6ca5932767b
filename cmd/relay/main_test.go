package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

type readerState bool

func (s readerState) Alive() bool { return bool(s) }

func TestHealthReportsReader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name   string
		alive  bool
		status int
	}{
		{"reader running", true, http.StatusOK},
		{"reader lost", false, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/healthz", health(readerState(tc.alive)))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			if w.Code != tc.status {
				t.Errorf("status = %d, want %d", w.Code, tc.status)
			}
		})
	}
}
