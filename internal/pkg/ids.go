package pkg

import "github.com/google/uuid"

// GenerateNewSessionID - generates a new unique session id for a websocket connection.
func GenerateNewSessionID() string {
	return uuid.NewString()
}

// GenerateMatchID - generates a unique identifier for the match.
func GenerateMatchID() string {
	return uuid.NewString()
}

// GeneratePlayerID - generates a unique identifier for a device account.
func GeneratePlayerID() string {
	return uuid.NewString()
}

// GenerateDeviceID - generates a device id for clients that have none stored.
func GenerateDeviceID() string {
	return "device-" + uuid.NewString()
}
