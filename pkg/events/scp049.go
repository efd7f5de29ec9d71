package events

// FinishingRecallName is the Name of FinishingRecall events.
const FinishingRecallName = "scp049.finishing-recall"

// FinishingRecall is raised before SCP-049 finishes recalling a player.
type FinishingRecall struct {
	player  Player
	scp049  Scp049Role
	target  Player
	ragdoll Ragdoll
	allowed bool
}

var (
	_ Scp049Event   = (*FinishingRecall)(nil)
	_ DeniableEvent = (*FinishingRecall)(nil)
)

// NewFinishingRecall returns an allowed recall of target by the SCP-049 player.
func NewFinishingRecall(target Player, scp049 Player, ragdoll Ragdoll) *FinishingRecall {
	return NewFinishingRecallAllowed(target, scp049, ragdoll, true)
}

// NewFinishingRecallAllowed is NewFinishingRecall with an explicit initial allowed flag.
func NewFinishingRecallAllowed(target Player, scp049 Player, ragdoll Ragdoll, allowed bool) *FinishingRecall {
	ev := &FinishingRecall{
		player:  scp049,
		target:  target,
		ragdoll: ragdoll,
		allowed: allowed,
	}
	if scp049 != nil {
		if role, ok := scp049.Role().(Scp049Role); ok {
			ev.scp049 = role
		}
	}
	return ev
}

// Name implements Event.
func (e *FinishingRecall) Name() string { return FinishingRecallName }

// Player returns the player controlling SCP-049.
func (e *FinishingRecall) Player() Player { return e.player }

// Scp049 returns the recaller's role as captured at construction.
func (e *FinishingRecall) Scp049() Scp049Role { return e.scp049 }

// Target returns the player being recalled.
func (e *FinishingRecall) Target() Player { return e.target }

// Ragdoll returns the ragdoll being recalled.
func (e *FinishingRecall) Ragdoll() Ragdoll { return e.ragdoll }

// IsAllowed reports whether the recall may complete.
func (e *FinishingRecall) IsAllowed() bool { return e.allowed }

// SetAllowed allows or denies the recall.
func (e *FinishingRecall) SetAllowed(allowed bool) { e.allowed = allowed }
