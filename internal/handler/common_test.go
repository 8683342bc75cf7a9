package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/stagepass/seat-reservation/internal/model"
)

func newTestContext(t *testing.T) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestWriteErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", model.Validationf("bad input"), http.StatusBadRequest},
		{"seat conflict", &model.SeatConflictError{Code: "A1", Status: model.SeatReserved}, http.StatusConflict},
		{"invalid transition", &model.InvalidTransitionError{Code: "A1", From: model.SeatReserved, Op: "confirm"}, http.StatusConflict},
		{"invalid state", model.ErrInvalidState, http.StatusConflict},
		{"forbidden", model.ErrForbidden, http.StatusForbidden},
		{"not found", model.ErrNotFound, http.StatusNotFound},
		{"lock timeout", model.ErrLockTimeout, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newTestContext(t)
			if err := writeError(c, tc.err); err != nil {
				t.Fatalf("writeError: %v", err)
			}
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestWriteErrorLockTimeoutSetsRetryAfter(t *testing.T) {
	c, rec := newTestContext(t)
	if err := writeError(c, model.ErrLockTimeout); err != nil {
		t.Fatalf("writeError: %v", err)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("Retry-After header not set")
	}
}

func TestCurrentUserAcceptsClaimShapes(t *testing.T) {
	cases := []struct {
		name  string
		value interface{}
		want  uint64
		ok    bool
	}{
		{"float64 claim", float64(42), 42, true},
		{"string claim", "42", 42, true},
		{"uint64 claim", uint64(42), 42, true},
		{"garbage string", "abc", 0, false},
		{"missing", nil, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestContext(t)
			if tc.value != nil {
				c.Set("user_id", tc.value)
			}
			got, ok := currentUser(c)
			if got != tc.want || ok != tc.ok {
				t.Fatalf("currentUser = %d, %v; want %d, %v", got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestPathID(t *testing.T) {
	c, _ := newTestContext(t)
	c.SetParamNames("postID")
	c.SetParamValues("17")
	if id, err := pathID(c, "postID"); err != nil || id != 17 {
		t.Fatalf("pathID = %d, %v", id, err)
	}

	for _, bad := range []string{"", "0", "-1", "abc"} {
		c, _ := newTestContext(t)
		c.SetParamNames("postID")
		c.SetParamValues(bad)
		if _, err := pathID(c, "postID"); err == nil {
			t.Errorf("pathID(%q) accepted", bad)
		}
	}
}
