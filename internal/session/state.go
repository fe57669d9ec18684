package session

// State is a bot session lifecycle state.
type State int32

const (
	StateStarting State = iota
	StateHostingGame
	StateWaitingForPlayers
	StatePickingSideOrder
	StateWaitingForReady
	StateLoadingGame
	StateGameInProgress
	StateGameFinished
	StateCancelled
	StateFinished
)

var stateNames = [...]string{
	StateStarting:          "STARTING",
	StateHostingGame:       "HOSTING_GAME",
	StateWaitingForPlayers: "WAITING_FOR_PLAYERS",
	StatePickingSideOrder:  "PICKING_SIDE_ORDER",
	StateWaitingForReady:   "WAITING_FOR_READY",
	StateLoadingGame:       "LOADING_GAME",
	StateGameInProgress:    "GAME_IN_PROGRESS",
	StateGameFinished:      "GAME_FINISHED",
	StateCancelled:         "CANCELLED",
	StateFinished:          "FINISHED",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}
