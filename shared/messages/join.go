package messages

import "github.com/leap-fish/necs/esync"

// JoinRequest is sent by an observer after connecting.
type JoinRequest struct {
	Version string
	Name    string
}

// JoinAccepted tells the observer how the server replicates.
type JoinAccepted struct {
	ClientID     esync.NetworkId
	ServerName   string
	Zone         string
	TickRate     int
	SyncInterval float64 // seconds between TransformUpdates per entity
	ServerTime   float64
}

// JoinRejected is sent when the server refuses a join request.
type JoinRejected struct {
	Reason string
}
