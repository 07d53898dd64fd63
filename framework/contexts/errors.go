package contexts

import "errors"

var (
	// ErrNonexistentConversation is returned when a propagated conversation
	// id can not be restored. A fresh transient conversation is active
	// afterwards.
	ErrNonexistentConversation = errors.New("nonexistent conversation")
	// ErrBusyConversation is returned when the propagated conversation is
	// in use by another request. A fresh transient conversation is active
	// afterwards.
	ErrBusyConversation = errors.New("busy conversation")
	// ErrContextNotActive is returned when no active context exists for a
	// normal scope.
	ErrContextNotActive = errors.New("context not active")
	// ErrNoUnit is returned when a per-request operation runs on a
	// context.Context that carries no Unit.
	ErrNoUnit = errors.New("no context unit attached")
)
