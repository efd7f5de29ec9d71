// Package events defines the arguments of plugin events raised by the game host.
//
// Host objects (players, roles, ragdolls) are opaque interfaces implemented by the
// host process. Event arguments hold references to them that are fixed at
// construction; only the allowed flag of a deniable event can change afterwards.
package events

// Player is a connected player.
type Player interface {
	ID() int
	Nickname() string
	// Role returns the player's current role, or nil while unassigned.
	Role() Role
}

// Role is the role a player is currently playing.
type Role interface {
	Name() string
}

// Scp049Role is the role of a player controlling SCP-049.
type Scp049Role interface {
	Role
	// CanResurrect reports whether the ragdoll is a valid recall target.
	CanResurrect(ragdoll Ragdoll) bool
}

// Ragdoll is a body left behind by a player.
type Ragdoll interface {
	// Owner returns the player the ragdoll belonged to, or nil when unknown.
	Owner() Player
}

// Event is implemented by every event argument type.
type Event interface {
	// Name identifies the event, e.g. "scp049.finishing-recall".
	Name() string
}

// PlayerEvent is an event raised on behalf of a player.
type PlayerEvent interface {
	Event
	Player() Player
}

// DeniableEvent is an event whose outcome handlers may veto.
type DeniableEvent interface {
	Event
	IsAllowed() bool
	SetAllowed(allowed bool)
}

// Scp049Event is an event raised by a player controlling SCP-049.
type Scp049Event interface {
	PlayerEvent
	// Scp049 returns the player's SCP-049 role, or nil when the player is not SCP-049.
	Scp049() Scp049Role
}
