package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestRequestTimeout_CompletesWithinDeadline(t *testing.T) {
	c, _ := newTestContext(http.MethodGet, "/api/consultations")
	called := false
	handler := func(c echo.Context) error {
		called = true
		if _, ok := c.Request().Context().Deadline(); !ok {
			t.Error("expected deadline on request context")
		}
		return c.String(http.StatusOK, "ok")
	}

	if err := RequestTimeout(5*time.Second)(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected handler to be called")
	}
}

func TestRequestTimeout_ReturnsTimeoutOnExpiry(t *testing.T) {
	c, _ := newTestContext(http.MethodGet, "/api/consultations")
	handler := func(c echo.Context) error {
		<-c.Request().Context().Done()
		return nil
	}

	err := RequestTimeout(20*time.Millisecond)(handler)(c)
	expectHTTPStatus(t, err, http.StatusGatewayTimeout)
}

func TestRequestTimeout_WaitsForHandler(t *testing.T) {
	c, _ := newTestContext(http.MethodGet, "/api/consultations")
	finished := false
	handler := func(c echo.Context) error {
		<-c.Request().Context().Done()
		time.Sleep(10 * time.Millisecond)
		finished = true
		return nil
	}

	err := RequestTimeout(10*time.Millisecond)(handler)(c)
	expectHTTPStatus(t, err, http.StatusGatewayTimeout)
	if !finished {
		t.Error("expected handler to finish before the middleware returned")
	}
}

func TestRequestTimeout_CommittedResponseKept(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/api/consultations")
	handler := func(c echo.Context) error {
		<-c.Request().Context().Done()
		return c.String(http.StatusOK, "late")
	}

	if err := RequestTimeout(10*time.Millisecond)(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK || rec.Body.String() != "late" {
		t.Errorf("expected written response kept, got %d %q", rec.Code, rec.Body.String())
	}
}

// Slow handlers must not touch their context after echo has pooled it for
// the next request. Run with -race.
func TestRequestTimeout_PooledContextReuse(t *testing.T) {
	e := echo.New()
	e.Use(RequestTimeout(20 * time.Millisecond))
	e.GET("/slow", func(c echo.Context) error {
		<-c.Request().Context().Done()
		time.Sleep(40 * time.Millisecond)
		c.Set("path", c.Path())
		return c.Request().Context().Err()
	})
	e.GET("/fast", func(c echo.Context) error {
		return c.String(http.StatusOK, c.Path())
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/slow", nil))
			if rec.Code != http.StatusGatewayTimeout {
				t.Errorf("slow: expected 504, got %d", rec.Code)
			}
		}()
		go func() {
			defer wg.Done()
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fast", nil))
			if rec.Code != http.StatusOK || rec.Body.String() != "/fast" {
				t.Errorf("fast: unexpected response %d %q", rec.Code, rec.Body.String())
			}
		}()
	}
	wg.Wait()
}

func TestRequestTimeout_Disabled(t *testing.T) {
	c, _ := newTestContext(http.MethodGet, "/api/consultations")
	handler := func(c echo.Context) error {
		if _, ok := c.Request().Context().Deadline(); ok {
			t.Error("expected no deadline when disabled")
		}
		return nil
	}
	if err := RequestTimeout(0)(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
