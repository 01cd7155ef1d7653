// Package dagflow provides a lightweight, embeddable task-orchestration
// engine for Go.
//
// A workflow is a declarative graph of tasks with dependencies,
// conditions, retry policies and data-mapping rules. The engine drives
// each started instance from its initial frontier (tasks with no
// dependencies) to a terminal state, handling partial failure,
// skipping, retries, pausing and cancellation along the way. It runs
// fully in-process and integrates into existing services without extra
// infrastructure.
//
// # Core Concepts
//
// The programming model is intentionally small:
//
//  1. Engine
//  2. Definition / DefinitionBuilder
//  3. Handler
//  4. Events and Observers
//
// # Engine
//
// The Engine registers definitions, owns the handler registry, executes
// instances and provides APIs to:
//   - start workflow instances
//   - pause, resume and cancel them
//   - read instance snapshots and audit history
//   - subscribe to lifecycle events
//
// Engines can be backed by different storage systems:
//
//   - In-memory (non-durable, best for tests)
//   - SQLite (embedded durability for instance snapshots and events)
//
// # Definitions
//
// A Definition names a set of tasks. Each task has a type, the set of
// task ids it depends on, optional conditions (evaluated against the
// instance data; a false condition skips the task while still
// unblocking its dependents), a retry strategy, an error-handling
// policy ("fail" terminates the instance, "continue" lets it finish
// around the failure) and output data mappings that copy parts of the
// handler result back into the shared data context.
//
// Definitions are built in code with NewDefinition or loaded from YAML
// with LoadDefinition, and validated at registration: duplicate ids,
// dangling dependencies and cycles are rejected before any instance
// can exist.
//
// # Handlers
//
// A Handler is the function that performs the actual work for a task
// type. Handlers receive the task config and a snapshot of the instance
// data; the engine only interprets their result and error. The
// pkg/handlers package ships handlers for the built-in task types
// (data_transformation, notification, external_api).
//
// # Events
//
// Every state transition is appended to the instance audit log and
// published to bus subscribers and the configured Observer. Events
// never influence control flow.
package dagflow
