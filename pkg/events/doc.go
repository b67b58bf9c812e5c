// Package events provides the in-process publish/subscribe bus used to
// notify application code of session state transitions. Delivery is
// synchronous and in subscription order, with per-listener panic isolation.
// No persistence and no replay for late subscribers.
package events
