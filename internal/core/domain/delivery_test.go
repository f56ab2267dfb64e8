package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestDeliveryKindOf(t *testing.T) {
	cause := errors.New("telegram: Forbidden")

	tests := []struct {
		name      string
		err       error
		wantKind  DeliveryKind
		wantRetry time.Duration
	}{
		{"plain error", cause, DeliveryFailed, 0},
		{"flood wait", NewFloodWait(3*time.Second, cause), DeliveryFloodWait, 3 * time.Second},
		{"wrapped blocked", fmt.Errorf("copy: %w", NewDeliveryError(DeliveryBlocked, cause)), DeliveryBlocked, 0},
		{"deactivated", NewDeliveryError(DeliveryDeactivated, cause), DeliveryDeactivated, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, retry := DeliveryKindOf(tt.err)
			if kind != tt.wantKind {
				t.Errorf("kind = %v, want %v", kind, tt.wantKind)
			}
			if retry != tt.wantRetry {
				t.Errorf("retry = %v, want %v", retry, tt.wantRetry)
			}
		})
	}
}

func TestDeliveryKind_Permanent(t *testing.T) {
	tests := map[DeliveryKind]bool{
		DeliveryFailed:      false,
		DeliveryFloodWait:   false,
		DeliveryBlocked:     true,
		DeliveryDeactivated: true,
	}
	for k, want := range tests {
		if got := k.Permanent(); got != want {
			t.Errorf("%v.Permanent() = %v, want %v", k, got, want)
		}
	}
}

func TestDeliveryError_Unwrap(t *testing.T) {
	cause := errors.New("root")
	err := NewDeliveryError(DeliveryBlocked, cause)
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause")
	}
	if err.Error() != "delivery blocked: root" {
		t.Errorf("Error() = %q", err.Error())
	}
}
