package protocol

// Subject namespace. Server-to-client publishes, client/coordinator-to-server
// request/reply — string constants so every caller spells them identically.
const (
	SubjectChunkActivated     = "world.chunk.activated"
	SubjectChunkDeactivated   = "world.chunk.deactivated"
	SubjectStructureSpawned   = "world.structure.spawned"
	SubjectStructureRemoved   = "world.structure.removed"
	SubjectEntitySpawned      = "world.entity.spawned"
	SubjectEntityRemoved      = "world.entity.removed"
	SubjectEntityTransform    = "world.entity.transform"
	SubjectSnapshot           = "world.snapshot"
	SubjectConnectionStatus   = "world.connection.status"

	SubjectIntentMove        = "intent.move"
	SubjectIntentInteract    = "intent.interact"
	SubjectIntentTeleport    = "intent.teleport"
	SubjectIntentViewRadius  = "intent.view_radius"
	SubjectCmdStats          = "world.cmd.stats"
	SubjectCmdSnapshot       = "world.cmd.snapshot"
)

// mgmt is the coordinator-to-server management namespace.
const (
	SubjectParticipantJoin  = "world.participant.join"
	SubjectParticipantLeave = "world.participant.leave"
	SubjectCommandTeleport  = "world.command.teleport"
	SubjectCommandStats     = "world.command.stats"
)
