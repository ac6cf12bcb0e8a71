package orderstatus

import (
	"errors"
	"testing"
)

func TestByName(t *testing.T) {
	tests := []struct {
		name  string
		found bool
	}{
		{name: "pending", found: true},
		{name: "preparing", found: true},
		{name: "ready", found: true},
		{name: "delivered", found: true},
		{name: "cancelled", found: true},
		{name: "delivering", found: false},
		{name: "unknown", found: false},
		{name: "", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ByName(tt.name)
			if (got != nil) != tt.found {
				t.Errorf("ByName(%q): expected found=%v, got %v", tt.name, tt.found, got)
			}
		})
	}
}

func TestNext(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		want    Status
		wantErr bool
	}{
		{name: "pendingToPreparing", from: Statuses.Pending, want: Statuses.Preparing},
		{name: "preparingToReady", from: Statuses.Preparing, want: Statuses.Ready},
		{name: "readyToDelivered", from: Statuses.Ready, want: Statuses.Delivered},
		{name: "deliveredIsTerminal", from: Statuses.Delivered, wantErr: true},
		{name: "cancelledIsTerminal", from: Statuses.Cancelled, wantErr: true},
		{name: "deliveringNeverTransitions", from: Statuses.Delivering, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.from.Next()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Fatalf("expected ErrInvalidTransition, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name    string
		current Status
		action  string
		want    Status
		wantErr bool
	}{
		{name: "prepareFromPending", current: Statuses.Pending, action: "prepare", want: Statuses.Preparing},
		{name: "readyFromPreparing", current: Statuses.Preparing, action: "ready", want: Statuses.Ready},
		{name: "deliverFromReady", current: Statuses.Ready, action: "deliver", want: Statuses.Delivered},
		{name: "cancelFromPending", current: Statuses.Pending, action: "cancel", want: Statuses.Cancelled},
		{name: "cancelFromReady", current: Statuses.Ready, action: "cancel", want: Statuses.Cancelled},
		{name: "prepareFromReady", current: Statuses.Ready, action: "prepare", wantErr: true},
		{name: "deliverFromPending", current: Statuses.Pending, action: "deliver", wantErr: true},
		{name: "cancelFromDelivered", current: Statuses.Delivered, action: "cancel", wantErr: true},
		{name: "cancelFromCancelled", current: Statuses.Cancelled, action: "cancel", wantErr: true},
		{name: "unknownAction", current: Statuses.Pending, action: "explode", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(tt.current, tt.action)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Fatalf("expected ErrInvalidTransition, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestAdvanceAction(t *testing.T) {
	tests := []struct {
		status Status
		action string
		ok     bool
	}{
		{status: Statuses.Pending, action: "prepare", ok: true},
		{status: Statuses.Preparing, action: "ready", ok: true},
		{status: Statuses.Ready, action: "deliver", ok: true},
		{status: Statuses.Delivered, ok: false},
		{status: Statuses.Cancelled, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.status.Name, func(t *testing.T) {
			action, ok := tt.status.AdvanceAction()
			if ok != tt.ok || action != tt.action {
				t.Errorf("AdvanceAction(%s): expected (%q,%v), got (%q,%v)", tt.status.Name, tt.action, tt.ok, action, ok)
			}
		})
	}
}

func TestIsTerminal(t *testing.T) {
	for _, s := range All {
		terminal := s == Statuses.Delivered || s == Statuses.Cancelled
		if got := s.IsTerminal(); got != terminal {
			t.Errorf("IsTerminal(%s): expected %v, got %v", s.Name, terminal, got)
		}
		if got := s.CanCancel(); got == terminal {
			t.Errorf("CanCancel(%s): expected %v, got %v", s.Name, !terminal, got)
		}
	}
}

func TestLabel(t *testing.T) {
	if got := Statuses.Pending.Label(); got != "Pending" {
		t.Errorf("expected Pending, got %q", got)
	}
}
