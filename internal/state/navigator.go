package state

import (
	"github.com/espressoapp/espresso-server/internal/sse"
	"github.com/espressoapp/espresso-server/internal/store"
)

// Navigation targets carried on navigate events.
const (
	TargetListing = "listing"
	TargetDetail  = "detail"
	TargetLogin   = "login"
)

// Navigator receives navigation intents from the state manager.
// The manager decides where the UI should go after an operation;
// the navigator decides how that intent reaches the UI.
type Navigator interface {
	ToListing()
	ToDetail(reportID string)
	ToLogin(reason string)
}

// EventNavigator broadcasts navigation intents on the event stream.
type EventNavigator struct {
	emitter store.EventEmitter
}

// NewEventNavigator creates a Navigator backed by the given emitter.
func NewEventNavigator(emitter store.EventEmitter) *EventNavigator {
	if emitter == nil {
		emitter = store.NewNoopEmitter()
	}
	return &EventNavigator{emitter: emitter}
}

// ToListing broadcasts a navigate intent for the listing view.
func (n *EventNavigator) ToListing() {
	n.emitter.Emit(sse.NewNavigateEvent(TargetListing, "", ""))
}

// ToDetail broadcasts a navigate intent for a report detail view.
func (n *EventNavigator) ToDetail(reportID string) {
	n.emitter.Emit(sse.NewNavigateEvent(TargetDetail, reportID, ""))
}

// ToLogin broadcasts a navigate intent for the login view.
// A non-empty reason tells the UI why the redirect happened.
func (n *EventNavigator) ToLogin(reason string) {
	n.emitter.Emit(sse.NewNavigateEvent(TargetLogin, "", reason))
}

// NoopNavigator discards navigation intents.
type NoopNavigator struct{}

// ToListing is a no-op.
func (NoopNavigator) ToListing() {}

// ToDetail is a no-op.
func (NoopNavigator) ToDetail(string) {}

// ToLogin is a no-op.
func (NoopNavigator) ToLogin(string) {}

// NewNoopNavigator creates a navigator that discards intents, for testing.
func NewNoopNavigator() Navigator { return NoopNavigator{} }
