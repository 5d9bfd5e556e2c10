// Package event provides a synchronous pub-sub event bus for decoupled
// inter-component communication in WorkLens.
//
// The ledger publishes explicit event values instead of invoking callbacks
// directly, which preserves the in-cycle ordering collaborators rely on:
// metadata refreshes are published before auto-stops, and the per-cycle
// "nothing detected" notification comes last. Handlers run synchronously on
// the publisher's goroutine; the ledger publishes only after releasing its
// own lock, so handlers may call back into it.
//
// Subscribe to specific event types by their string identifier, or to all
// events with SubscribeAll. A panicking handler is recovered and logged and
// never prevents delivery to the remaining handlers.
package event
