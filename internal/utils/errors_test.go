package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppErrorFormatting(t *testing.T) {
	cause := errors.New("boom")

	cases := []struct {
		name string
		err  error
		want string
	}{
		{"full", E(CodeInternal, "Op.Do", "failed", cause), "Op.Do: failed: boom"},
		{"op and message", E(CodeInternal, "Op.Do", "failed", nil), "Op.Do: failed"},
		{"op and cause", E(CodeInternal, "Op.Do", "", cause), "Op.Do: boom"},
		{"message only", E(CodeInternal, "", "failed", nil), "failed"},
	}
	for _, tc := range cases {
		if got := tc.err.Error(); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestCodeOfUnwrapsChains(t *testing.T) {
	inner := E(CodeCaptureFailed, "Worker.CaptureFrame", "encode failed", nil)
	wrapped := fmt.Errorf("launch: %w", inner)

	if got := CodeOf(wrapped, CodeInternal); got != CodeCaptureFailed {
		t.Fatalf("got %s, want %s", got, CodeCaptureFailed)
	}
	if got := CodeOf(errors.New("plain"), CodeAnalysisFailed); got != CodeAnalysisFailed {
		t.Fatalf("fallback not applied, got %s", got)
	}
	if !IsCode(wrapped, CodeCaptureFailed) {
		t.Fatalf("IsCode should see through fmt wrapping")
	}
	if MessageOf(wrapped) != "encode failed" {
		t.Fatalf("unexpected message %q", MessageOf(wrapped))
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeConflict:         http.StatusConflict,
		CodePermissionDenied: http.StatusForbidden,
		CodeAnalysisFailed:   http.StatusBadGateway,
		CodeTimeout:          http.StatusGatewayTimeout,
		CodeInvalidArgument:  http.StatusBadRequest,
	}
	for code, want := range cases {
		if got := HTTPStatus(E(code, "", "x", nil)); got != want {
			t.Errorf("%s: got %d, want %d", code, got, want)
		}
	}
	if got := HTTPStatus(ErrNotFound); got != http.StatusNotFound {
		t.Errorf("sentinel not found: got %d", got)
	}
}
