package realtime

// Action is sent by a client.
type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action of an incoming message.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// Event is pushed to clients.
type Event string

const (
	EventStateChanged Event = "state_changed"
	EventPong         Event = "pong"
	EventError        Event = "error"
)

// StateChanged tells a client to re-read the component from the HTTP API.
type StateChanged struct {
	Event     Event  `json:"event"`
	Component string `json:"component"`
}

type PongResponse struct {
	Event Event `json:"event"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}
