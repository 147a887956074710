package authz

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/labfoundry/workbench-engine/pkg/apperrors"
	"github.com/labfoundry/workbench-engine/pkg/models"
)

func activeAdmin() models.Principal {
	return models.Principal{UID: "u-1", Role: models.RoleAdmin, Status: models.StatusActive}
}

func TestConditions(t *testing.T) {
	tests := []struct {
		name      string
		principal models.Principal
		cond      Condition
		want      Decision
	}{
		{"active allowed", activeAdmin(), AllowIfActive, Allow},
		{"pending denied", models.Principal{Status: models.StatusPending}, AllowIfActive, Deny},
		{"inactive denied", models.Principal{Status: models.StatusInactive}, AllowIfActive, Deny},
		{"admin allowed", activeAdmin(), AllowIfAdmin, Allow},
		{"researcher denied", models.Principal{Role: models.RoleResearcher}, AllowIfAdmin, Deny},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cond(tt.principal, nil); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestGate_FirstDenyWins(t *testing.T) {
	gate := NewGate(zap.NewNop())
	req := Request{
		ExtensionPoint: "project-authz",
		Action:         "create",
		Conditions:     []Condition{AllowIfActive, AllowIfAdmin},
	}

	// Active but not admin: second condition denies.
	p := models.Principal{UID: "u-2", Role: models.RoleResearcher, Status: models.StatusActive}
	err := gate.AssertAuthorized(context.Background(), p, req, nil)
	if !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	if err := gate.AssertAuthorized(context.Background(), activeAdmin(), req, nil); err != nil {
		t.Fatalf("expected allow for active admin, got %v", err)
	}
}

func TestGate_NoConditionsMeansNoAllow(t *testing.T) {
	gate := NewGate(zap.NewNop())

	err := gate.AssertAuthorized(context.Background(), activeAdmin(), Request{Action: "noop"}, nil)
	if !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden with no conditions and no plugins, got %v", err)
	}
}

// stubPlugin overrides verdicts for a fixed extension point.
type stubPlugin struct {
	point    string
	decision Decision
	called   bool
}

func (s *stubPlugin) ExtensionPoint() string { return s.point }

func (s *stubPlugin) Authorize(ctx context.Context, p models.Principal, req Request, resource any, current Decision) Decision {
	s.called = true
	return s.decision
}

func TestGate_PluginOverridesConditionVerdict(t *testing.T) {
	deny := &stubPlugin{point: "project-authz", decision: Deny}
	gate := NewGate(zap.NewNop(), deny)

	req := Request{
		ExtensionPoint: "project-authz",
		Action:         "create",
		Conditions:     []Condition{AllowIfActive, AllowIfAdmin},
	}
	err := gate.AssertAuthorized(context.Background(), activeAdmin(), req, nil)
	if !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("expected plugin deny to override allow, got %v", err)
	}
	if !deny.called {
		t.Error("plugin was not consulted")
	}
}

func TestGate_PluginAllowOverridesDeny(t *testing.T) {
	allow := &stubPlugin{point: "project-authz", decision: Allow}
	gate := NewGate(zap.NewNop(), allow)

	req := Request{
		ExtensionPoint: "project-authz",
		Action:         "create",
		Conditions:     []Condition{AllowIfAdmin},
	}
	p := models.Principal{UID: "u-3", Role: models.RoleResearcher, Status: models.StatusActive}
	if err := gate.AssertAuthorized(context.Background(), p, req, nil); err != nil {
		t.Fatalf("expected plugin allow to override deny, got %v", err)
	}
}

func TestGate_PluginForOtherExtensionPointIsSkipped(t *testing.T) {
	other := &stubPlugin{point: "environment-authz", decision: Deny}
	gate := NewGate(zap.NewNop(), other)

	req := Request{
		ExtensionPoint: "project-authz",
		Action:         "create",
		Conditions:     []Condition{AllowIfActive},
	}
	if err := gate.AssertAuthorized(context.Background(), activeAdmin(), req, nil); err != nil {
		t.Fatalf("expected allow, got %v", err)
	}
	if other.called {
		t.Error("plugin for another extension point must not run")
	}
}
