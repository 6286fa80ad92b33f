package messages

// TransformUpdate carries one authoritative pose. Payload is the fixed-size
// transformsync encoding; ServerTime is the sender's clock at capture.
type TransformUpdate struct {
	NetworkID  uint
	ServerTime float64
	Payload    []byte
}

// TimeSyncRequest is sent by observers to estimate the server clock.
type TimeSyncRequest struct {
	ClientTime float64
}

// TimeSync answers a TimeSyncRequest, echoing the client's send time.
type TimeSync struct {
	ClientTime float64
	ServerTime float64
}

// DespawnEvent is broadcast when an entity is removed
type DespawnEvent struct {
	NetworkID uint
}
