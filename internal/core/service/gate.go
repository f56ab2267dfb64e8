package service

import (
	"context"

	"github.com/yndnr/filegate/internal/core/domain"
)

// GateDecision is the outcome of the access gate.
type GateDecision int

const (
	// GatePassed means the request may proceed to content delivery.
	GatePassed GateDecision = iota

	// GateJoinRequired means the user must join the force-subscribe channel.
	GateJoinRequired

	// GateTokenRequired means the user has no valid token.
	GateTokenRequired
)

// String returns the decision name.
func (d GateDecision) String() string {
	switch d {
	case GatePassed:
		return "passed"
	case GateJoinRequired:
		return "join_required"
	case GateTokenRequired:
		return "token_required"
	default:
		return "unknown"
	}
}

// GateConfig holds configuration for Gate.
type GateConfig struct {
	// ForceChannelID is the channel users must join. Zero disables the check.
	ForceChannelID int64

	// Admins bypass the membership check.
	Admins []int64
}

// Gate decides whether a request proceeds to content delivery.
// Membership is checked before the token, and an error at either stage is
// returned rather than treated as a pass.
type Gate struct {
	members   MembershipChecker
	tokens    *TokenService
	channelID int64
	admins    map[int64]struct{}
}

// NewGate creates a Gate.
func NewGate(members MembershipChecker, tokens *TokenService, config *GateConfig) *Gate {
	if config == nil {
		config = &GateConfig{}
	}
	admins := make(map[int64]struct{}, len(config.Admins))
	for _, id := range config.Admins {
		admins[id] = struct{}{}
	}
	return &Gate{
		members:   members,
		tokens:    tokens,
		channelID: config.ForceChannelID,
		admins:    admins,
	}
}

// IsAdmin reports whether the user is a configured admin.
func (g *Gate) IsAdmin(userID int64) bool {
	_, ok := g.admins[userID]
	return ok
}

// Evaluate runs the membership and token checks for the user.
func (g *Gate) Evaluate(ctx context.Context, userID int64) (GateDecision, error) {
	ok, err := g.IsSubscribed(ctx, userID)
	if err != nil {
		return GateJoinRequired, err
	}
	if !ok {
		return GateJoinRequired, nil
	}

	valid, err := g.tokens.HasValid(ctx, userID)
	if err != nil {
		return GateTokenRequired, err
	}
	if !valid {
		return GateTokenRequired, nil
	}
	return GatePassed, nil
}

// IsSubscribed runs only the membership stage.
func (g *Gate) IsSubscribed(ctx context.Context, userID int64) (bool, error) {
	if g.channelID == 0 || g.IsAdmin(userID) {
		return true, nil
	}
	ok, err := g.members.IsMember(ctx, g.channelID, userID)
	if err != nil {
		return false, domain.ErrMessagingError.WithDetails("membership lookup").WithCause(err)
	}
	return ok, nil
}
