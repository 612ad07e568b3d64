package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	ok := func(context.Context) error { return nil }
	bad := func(context.Context) error { return assertErr{} }

	cases := []struct {
		name   string
		checks map[string]Check
		path   string
		want   int
		status string
	}{
		{name: "healthz ok", checks: map[string]Check{"postgres": bad}, path: "/healthz", want: 200, status: "ok"},
		{name: "readyz ok", checks: map[string]Check{"postgres": ok}, path: "/readyz", want: 200, status: "ready"},
		{name: "readyz without checks", checks: map[string]Check{"postgres": nil}, path: "/readyz", want: 200, status: "ready"},
		{name: "readyz degraded", checks: map[string]Check{"postgres": bad, "reference": ok}, path: "/readyz", want: 503, status: "degraded"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			NewHealthHandler(tc.checks).Register(r)
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			r.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("want %d got %d", tc.want, w.Code)
			}
			var body struct {
				Status string            `json:"status"`
				Checks map[string]string `json:"checks"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.Status != tc.status {
				t.Fatalf("body=%s", w.Body.String())
			}
			if tc.status == "degraded" && (body.Checks["postgres"] != "err" || body.Checks["reference"] != "ok") {
				t.Fatalf("checks=%v", body.Checks)
			}
		})
	}
}

type assertErr struct{}

func (assertErr) Error() string { return "err" }
