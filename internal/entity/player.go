package entity

// Player is a device-authenticated account known to the relay.
type Player struct {
	ID       string `json:"id"`
	DeviceID string `json:"deviceId"`
	Username string `json:"username,omitempty"`
}

// Presence is one connected participant of a match.
type Presence struct {
	UserID    string `json:"userId"`
	SessionID string `json:"sessionId"`
	Username  string `json:"username,omitempty"`
}
