package ports

// EventKind names a lifecycle event the grant store reacts to.
type EventKind string

const (
	// EventAppTerminated fires when an application exits. All scope="app"
	// and persistence="appActive" grants for that app are invalidated.
	EventAppTerminated EventKind = "app_terminated"

	// EventPowerCycled fires on a device power cycle. All
	// lifespan/persistence "powerActive" grants are invalidated.
	EventPowerCycled EventKind = "power_cycled"
)

// LifecycleEvent is one lifecycle notification. AppID is empty for
// device-wide events.
type LifecycleEvent struct {
	Kind  EventKind
	AppID string
}

// LifecycleBus delivers lifecycle notifications to subscribers.
type LifecycleBus interface {
	// Subscribe registers a handler and returns a function that removes it.
	// Handlers are invoked synchronously in publish order.
	Subscribe(handler func(LifecycleEvent)) (cancel func())
}
