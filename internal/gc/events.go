package gc

// Event is a notification from the Steam connection or the game coordinator.
type Event interface {
	event()
}

// Connected is emitted once the Steam socket is up.
type Connected struct{}

// LoggedOn is emitted after a successful Steam login.
type LoggedOn struct{}

// LogOnFailed is emitted when Steam rejects the login.
type LogOnFailed struct {
	Reason string
}

// Disconnected is emitted when the Steam connection drops.
type Disconnected struct{}

// GCReady is emitted when the Dota 2 GC welcomes the client.
type GCReady struct{}

// LobbyChanged carries the latest lobby snapshot.
type LobbyChanged struct {
	Lobby Lobby
}

// LobbyRemoved is emitted when the GC drops the lobby from the cache.
type LobbyRemoved struct {
	LobbyID uint64
}

// ChatMessage is a message posted to the lobby chat channel.
type ChatMessage struct {
	SteamID uint64
	Name    string
	Text    string
}

func (Connected) event()    {}
func (LoggedOn) event()     {}
func (LogOnFailed) event()  {}
func (Disconnected) event() {}
func (GCReady) event()      {}
func (LobbyChanged) event() {}
func (LobbyRemoved) event() {}
func (ChatMessage) event()  {}
