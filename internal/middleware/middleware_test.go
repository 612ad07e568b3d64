package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/lookthrough/internal/domain/dto"
)

func TestErrorHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name       string
		handler    gin.HandlerFunc
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "plain error becomes 500",
			handler:    func(c *gin.Context) { _ = c.Error(assertErr{}) },
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "Internal Server Error",
		},
		{
			name: "handler status kept",
			handler: func(c *gin.Context) {
				c.Status(http.StatusBadGateway)
				_ = c.Error(assertErr{})
			},
			wantStatus: http.StatusBadGateway,
			wantMsg:    "Bad Gateway",
		},
		{
			name: "error response passes through",
			handler: func(c *gin.Context) {
				c.Status(http.StatusNotFound)
				_ = c.Error(dto.NewErrorResponse("no such ticker", nil))
			},
			wantStatus: http.StatusNotFound,
			wantMsg:    "no such ticker",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(ErrorHandler)
			r.GET("/", tc.handler)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			if w.Code != tc.wantStatus {
				t.Fatalf("code=%d want %d", w.Code, tc.wantStatus)
			}
			var body dto.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.Message != tc.wantMsg {
				t.Fatalf("body=%s err=%v", w.Body.String(), err)
			}
		})
	}
}

func TestErrorHandler_WrittenResponseUntouched(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler)
	r.GET("/", func(c *gin.Context) {
		_ = c.Error(assertErr{})
		c.String(http.StatusOK, "done")
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK || w.Body.String() != "done" {
		t.Fatalf("code=%d body=%q", w.Code, w.Body.String())
	}
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }

func TestRecoveryMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RecoveryMiddleware())
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	if w.Code != 500 {
		t.Fatalf("code=%d", w.Code)
	}
	var body dto.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.ErrorDetails != "boom" {
		t.Fatalf("body=%s", w.Body.String())
	}
}

func TestRateLimiter(t *testing.T) {
	cases := []struct {
		name   string
		reqs   int
		burst  int
		expect int
	}{
		{name: "within burst", reqs: 2, burst: 3, expect: http.StatusOK},
		{name: "exceed burst", reqs: 5, burst: 3, expect: http.StatusTooManyRequests},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			r := gin.New()
			// a very low refill rate so only the burst counts
			r.Use(RateLimiter(0.001, tc.burst))
			r.GET("/", func(c *gin.Context) { c.String(200, "ok") })
			var last int
			for i := 0; i < tc.reqs; i++ {
				w := httptest.NewRecorder()
				r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
				last = w.Code
			}
			if last != tc.expect {
				t.Fatalf("expected %d, got %d", tc.expect, last)
			}
		})
	}
}

func TestRateLimiter_PerClientAndDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimiter(0.001, 1))
	r.GET("/", func(c *gin.Context) { c.String(200, "ok") })

	for _, ip := range []string{"10.0.0.1:1234", "10.0.0.2:1234"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("first request from %s got %d", ip, w.Code)
		}
	}

	open := gin.New()
	open.Use(RateLimiter(0, 0))
	open.GET("/", func(c *gin.Context) { c.String(200, "ok") })
	for i := 0; i < 10; i++ {
		w := httptest.NewRecorder()
		open.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("disabled limiter rejected request %d", i)
		}
	}
}

func TestIPLimiter_SweepsIdleVisitors(t *testing.T) {
	l := newIPLimiter(1, 1)
	now := time.Unix(1000, 0)
	l.now = func() time.Time { return now }

	l.allow("a")
	now = now.Add(l.ttl + time.Second)
	l.allow("b")
	if _, ok := l.visitors["a"]; ok {
		t.Fatalf("idle visitor not evicted")
	}
	if len(l.visitors) != 1 {
		t.Fatalf("visitors=%d", len(l.visitors))
	}
}

func TestTimeout(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Timeout(50 * time.Millisecond))
	var deadline bool
	r.GET("/", func(c *gin.Context) {
		_, deadline = c.Request.Context().Deadline()
		c.Status(http.StatusNoContent)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !deadline {
		t.Fatalf("request context has no deadline")
	}

	none := gin.New()
	none.Use(Timeout(0))
	none.GET("/", func(c *gin.Context) {
		_, deadline = c.Request.Context().Deadline()
	})
	none.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if deadline {
		t.Fatalf("zero timeout must not set a deadline")
	}
}

func TestAbortWithError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/err", func(c *gin.Context) {
		AbortWithError(c, http.StatusBadRequest, "bad stuff", assertErr{})
		if len(c.Errors) != 1 {
			t.Errorf("error not recorded on context")
		}
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/err", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("code=%d", w.Code)
	}
	var body dto.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.Message != "bad stuff" || body.ErrorDetails != "boom" {
		t.Fatalf("body=%s", w.Body.String())
	}
}
