// Package risk implements the centralized pre-trade gate: ordered
// permission checks, the position/PnL ledger, the kill switch, and the
// per-second rate limiter. Grounded in the teacher's risk/manager.go
// (cooldown/kill-signal plumbing) and generalized from portfolio-level
// USD exposure checks to the spec's full ordered check list.
package risk

import "sync/atomic"

// KillSwitch is a process-scoped, monotone-until-reset flag. Engaging it
// is idempotent; a one-shot callback fires with a human-readable cause
// the first time it trips. Deactivation is an explicit operator action.
type KillSwitch struct {
	active atomic.Bool
	cause  atomic.Value // string

	onTrip func(cause string)
}

// NewKillSwitch constructs a disengaged kill switch. onTrip, if non-nil,
// is invoked synchronously the moment the switch transitions from
// disengaged to engaged (not on repeated Engage calls while already
// active).
func NewKillSwitch(onTrip func(cause string)) *KillSwitch {
	ks := &KillSwitch{onTrip: onTrip}
	ks.cause.Store("")
	return ks
}

// Engage trips the switch. Repeated calls while already active update
// nothing and do not re-fire the callback.
func (ks *KillSwitch) Engage(cause string) {
	if ks.active.CompareAndSwap(false, true) {
		ks.cause.Store(cause)
		if ks.onTrip != nil {
			ks.onTrip(cause)
		}
	}
}

// Active reports whether the switch is currently engaged.
func (ks *KillSwitch) Active() bool {
	return ks.active.Load()
}

// Cause returns the reason passed to the Engage call that tripped the
// switch, or "" if it has never tripped since the last Deactivate.
func (ks *KillSwitch) Cause() string {
	return ks.cause.Load().(string)
}

// Deactivate clears the switch. It does not alter position state; the
// gate resets its own reject/error counters as part of the same
// operator action (see Gate.DeactivateKillSwitch).
func (ks *KillSwitch) Deactivate() {
	ks.active.Store(false)
	ks.cause.Store("")
}
