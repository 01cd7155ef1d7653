package persistence

// Persistence bundles the store interfaces so the engine can depend on
// a single abstraction injected by the host application.
type Persistence struct {
	Definitions DefinitionStore
	Instances   InstanceStore
	Events      EventStore
}
