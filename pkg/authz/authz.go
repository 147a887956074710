// Package authz implements the authorization gate used by the workbench
// services: an ordered chain of pure condition predicates, optionally
// overridden by registered extension-point plugins.
package authz

import (
	"context"

	"go.uber.org/zap"

	"github.com/labfoundry/workbench-engine/pkg/apperrors"
	"github.com/labfoundry/workbench-engine/pkg/models"
)

// Decision is the verdict of a single condition or plugin.
type Decision int

const (
	// Abstain leaves the current verdict untouched.
	Abstain Decision = iota
	// Allow permits the operation unless a later Deny overrides it.
	Allow
	// Deny refuses the operation.
	Deny
)

// Condition is a pure predicate evaluated against the calling principal
// and the resource under mutation.
type Condition func(p models.Principal, resource any) Decision

// AllowIfActive permits only principals whose account status is active.
func AllowIfActive(p models.Principal, resource any) Decision {
	if p.IsActive() {
		return Allow
	}
	return Deny
}

// AllowIfAdmin permits only admin principals.
func AllowIfAdmin(p models.Principal, resource any) Decision {
	if p.IsAdmin() {
		return Allow
	}
	return Deny
}

// Request names the operation being authorized. ExtensionPoint scopes
// which plugins participate; Conditions are evaluated first, in order.
type Request struct {
	ExtensionPoint string
	Action         string
	Conditions     []Condition
}

// Plugin participates in authorization for an extension point. It
// receives the verdict accumulated so far and may override it by
// returning Allow or Deny; Abstain keeps the current verdict.
type Plugin interface {
	ExtensionPoint() string
	Authorize(ctx context.Context, p models.Principal, req Request, resource any, current Decision) Decision
}

// Gate evaluates authorization requests. Conditions run first with a
// first-Deny-wins short circuit; registered plugins then run in
// registration order and may override the conditions' verdict.
type Gate struct {
	plugins []Plugin
	logger  *zap.Logger
}

// NewGate creates an authorization gate with the given plugins.
func NewGate(logger *zap.Logger, plugins ...Plugin) *Gate {
	return &Gate{plugins: plugins, logger: logger}
}

// Authorize evaluates the request and returns the final verdict.
func (g *Gate) Authorize(ctx context.Context, p models.Principal, req Request, resource any) Decision {
	verdict := Abstain
	for _, cond := range req.Conditions {
		switch cond(p, resource) {
		case Deny:
			verdict = Deny
		case Allow:
			if verdict != Deny {
				verdict = Allow
			}
		}
		if verdict == Deny {
			break
		}
	}

	for _, plugin := range g.plugins {
		if plugin.ExtensionPoint() != req.ExtensionPoint {
			continue
		}
		if d := plugin.Authorize(ctx, p, req, resource, verdict); d != Abstain {
			verdict = d
		}
	}
	return verdict
}

// AssertAuthorized evaluates the request and fails with Forbidden unless
// the final verdict is Allow.
func (g *Gate) AssertAuthorized(ctx context.Context, p models.Principal, req Request, resource any) error {
	if g.Authorize(ctx, p, req, resource) == Allow {
		return nil
	}
	g.logger.Warn("authorization denied",
		zap.String("extension_point", req.ExtensionPoint),
		zap.String("action", req.Action),
		zap.String("uid", p.UID),
		zap.String("role", p.Role),
	)
	return apperrors.Forbiddenf("you are not authorized to perform %q", req.Action)
}
