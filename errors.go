package ecs

import "fmt"

// LockedStorageError is returned when a mutating operation targets an
// entity whose chunk is locked by an active iteration.
type LockedStorageError struct{}

func (e LockedStorageError) Error() string {
	return "storage is currently locked"
}

// InvalidEntityError is returned when an operation targets an Entity
// whose stored generation no longer matches the handle's.
type InvalidEntityError struct {
	Entity Entity
}

func (e InvalidEntityError) Error() string {
	return fmt.Sprintf("invalid entity handle: %v", e.Entity)
}

// ComponentExistsError is returned by AddValue when the entity already
// carries the component being added; use Set/SSet to overwrite it instead.
type ComponentExistsError struct {
	Component Component
}

func (e ComponentExistsError) Error() string {
	return fmt.Sprintf("component already exists on entity: %T", e.Component)
}

// ComponentNotFoundError is returned by Set/SSet when the entity does
// not carry the component being written.
type ComponentNotFoundError struct {
	Component Component
}

func (e ComponentNotFoundError) Error() string {
	return fmt.Sprintf("component does not exist on entity: %T", e.Component)
}

// RequiresUnsatisfiedError is returned (not panicked) when deleting a
// component Y from an entity that still carries an X with Requires(X, Y).
type RequiresUnsatisfiedError struct {
	Required Entity
}

func (e RequiresUnsatisfiedError) Error() string {
	return fmt.Sprintf("component %v is still required by Requires(X, %v)", e.Required, e.Required)
}
