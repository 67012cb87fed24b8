package domain

// PresenceTransition reports whether a connection count change crossed a
// membership edge.
type PresenceTransition int

const (
	// TransitionNone the user was already online or still has connections.
	TransitionNone PresenceTransition = iota
	// TransitionJoined first connection of the user, announce user_joined.
	TransitionJoined
	// TransitionLeft last connection of the user, announce user_left.
	TransitionLeft
)

// OnlineUser is one entry of the online users list, in join order.
type OnlineUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}
