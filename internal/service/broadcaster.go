package service

// Session event names pushed to websocket subscribers.
const (
	EventPhaseStarted   = "phase_started"
	EventPhaseCompleted = "phase_completed"
	EventPhaseFailed    = "phase_failed"
	EventNextAction     = "next_action"
)

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastToSession(sessionID string, msgType string, payload interface{})
	DisconnectSession(sessionID string)
}

type nopBroadcaster struct{}

func (nopBroadcaster) BroadcastToSession(string, string, interface{}) {}

func (nopBroadcaster) DisconnectSession(string) {}
