package middleware

import (
	"context"
	"net/http/httptest"
	"testing"
)

// Background writes spawned during auth must survive the end of the
// request: the detached context ignores cancellation but keeps
// request-scoped values.
func TestDetachedContextOutlivesRequest(t *testing.T) {
	t.Parallel()

	reqCtx, cancel := context.WithCancel(context.Background())
	reqCtx = context.WithValue(reqCtx, RequestIDKey, "req-123")

	r := httptest.NewRequest("GET", "/api/v1/models", nil).WithContext(reqCtx)
	detached := detachedContext(r)

	cancel()

	if reqCtx.Err() == nil {
		t.Fatal("request context should be cancelled")
	}
	if detached.Err() != nil {
		t.Errorf("detached context err = %v, want nil after request cancellation", detached.Err())
	}
	if got := GetRequestID(detached); got != "req-123" {
		t.Errorf("request id = %q, want req-123", got)
	}
}
