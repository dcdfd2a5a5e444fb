package entity

import "time"

const MaxMatchSize = 2

// Match is a relay room. Seats survive disconnects so a player keeps their color on rejoin.
type Match struct {
	ID        string           `json:"id"`
	Presences []Presence       `json:"presences"`
	Seats     map[string]Color `json:"seats"`
	CreatedAt time.Time        `json:"createdAt"`
}

func NewMatch(id string) *Match {
	return &Match{
		ID:        id,
		Presences: []Presence{},
		Seats:     make(map[string]Color),
		CreatedAt: time.Now().UTC(),
	}
}

func (that *Match) HasUser(userID string) bool {
	for _, presence := range that.Presences {
		if presence.UserID == userID {
			return true
		}
	}

	return false
}

// CanSeat reports whether userID already holds a seat or a seat is still free.
func (that *Match) CanSeat(userID string) bool {
	if _, ok := that.Seats[userID]; ok {
		return true
	}

	return len(that.Seats) < MaxMatchSize
}

func (that *Match) IsFull() bool {
	return len(that.Seats) >= MaxMatchSize
}

// ColorOf returns the color seated for userID. The first player to join plays light.
func (that *Match) ColorOf(userID string) (Color, bool) {
	color, ok := that.Seats[userID]
	return color, ok
}

// Seat reserves a color for userID without marking them present. The first seat is light.
func (that *Match) Seat(userID string) (Color, bool) {
	if color, ok := that.Seats[userID]; ok {
		return color, true
	}

	if len(that.Seats) >= MaxMatchSize {
		return "", false
	}

	if that.Seats == nil {
		that.Seats = make(map[string]Color)
	}

	color := Light
	for _, taken := range that.Seats {
		if taken == Light {
			color = Dark
		}
	}
	that.Seats[userID] = color

	return color, true
}

// AddPresence seats the user if needed and marks them present.
// It returns false when the match has no seat left for them or they are already present.
func (that *Match) AddPresence(presence Presence) bool {
	if that.HasUser(presence.UserID) {
		return false
	}

	if _, ok := that.Seat(presence.UserID); !ok {
		return false
	}

	that.Presences = append(that.Presences, presence)

	return true
}

func (that *Match) RemovePresence(userID string) (Presence, bool) {
	for i, presence := range that.Presences {
		if presence.UserID == userID {
			that.Presences = append(that.Presences[:i], that.Presences[i+1:]...)
			return presence, true
		}
	}

	return Presence{}, false
}

// Others lists the present participants except userID.
func (that *Match) Others(userID string) []Presence {
	others := make([]Presence, 0, len(that.Presences))
	for _, presence := range that.Presences {
		if presence.UserID != userID {
			others = append(others, presence)
		}
	}

	return others
}

// Snapshot is the latest game state a relay has seen for a match.
type Snapshot struct {
	MatchID   string     `json:"matchId"`
	State     *GameState `json:"state"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// PresenceEvent reports participants joining or leaving a match.
type PresenceEvent struct {
	MatchID string     `json:"matchId"`
	Joins   []Presence `json:"joins,omitempty"`
	Leaves  []Presence `json:"leaves,omitempty"`
}
