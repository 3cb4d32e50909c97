package fault

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"not found", NotFound("element %s not found", "node_1"), KindElementNotFound},
		{"wrapped action failed", fmt.Errorf("click: %w", ActionFailed("disabled")), KindActionFailed},
		{"invalid params", InvalidParams("missing %q", "by"), KindInvalidParams},
		{"permission", PermissionDenied("not ready"), KindPermissionDenied},
		{"timeout", Timeout("slow"), KindTimeout},
		{"bare deadline", context.DeadlineExceeded, KindTimeout},
		{"context fault", FromContext(context.Canceled), KindTimeout},
		{"untyped", errors.New("boom"), KindInternal},
		{"internal", Internal(errors.New("boom"), "scan failed"), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPublicMessage_HidesInternalDetail(t *testing.T) {
	err := Internal(errors.New("handle 0xdead freed"), "scan failed")
	if got := PublicMessage(err); got != "internal error" {
		t.Errorf("PublicMessage() = %q, want %q", got, "internal error")
	}
	if got := PublicMessage(errors.New("secret")); got != "internal error" {
		t.Errorf("PublicMessage(untyped) = %q", got)
	}
	if got := PublicMessage(NotFound("element %s not found", "node_abc")); got != "element node_abc not found" {
		t.Errorf("PublicMessage(not found) = %q", got)
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("cause")
	err := Internal(cause, "outer")
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if err.Error() != "outer: cause" {
		t.Errorf("Error() = %q", err.Error())
	}
}
