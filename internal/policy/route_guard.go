// Package policy holds pure authorization decisions. Nothing here touches
// the store or performs navigation; callers act on the returned decision.
package policy

import "github.com/arinony/madarun/internal/session"

// RouteCategory classifies where the caller currently is.
type RouteCategory int

const (
	RoutePublicEntry RouteCategory = iota
	RouteAuthFlow
	RouteProtected
)

// Decision is what the caller should do with the current route.
type Decision int

const (
	// DecisionWait means the session is still restoring: show a waiting
	// state and re-evaluate later.
	DecisionWait Decision = iota
	DecisionAllow
	DecisionRedirectToAuth
	DecisionRedirectToApp
)

// Decide maps (session state, route category) to a navigation decision.
func Decide(state session.State, route RouteCategory) Decision {
	switch {
	case state == session.StateRestoring:
		return DecisionWait
	case state == session.StateAnonymous && route == RouteProtected:
		return DecisionRedirectToAuth
	case state == session.StateAuthenticated && (route == RoutePublicEntry || route == RouteAuthFlow):
		return DecisionRedirectToApp
	default:
		return DecisionAllow
	}
}
