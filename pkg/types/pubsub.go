package types

// PubSub message types.
const (
	PubSubListen    = "LISTEN"
	PubSubPing      = "PING"
	PubSubPong      = "PONG"
	PubSubMessage   = "MESSAGE"
	PubSubResponse  = "RESPONSE"
	PubSubReconnect = "RECONNECT"
)

// ListenData is the payload of a LISTEN request.
type ListenData struct {
	Topics    []string `json:"topics"`
	AuthToken string   `json:"auth_token"`
}

// PubSubRequest is an outbound control frame.
type PubSubRequest struct {
	Type  string      `json:"type"`
	Nonce string      `json:"nonce,omitempty"`
	Data  *ListenData `json:"data,omitempty"`
}

// PubSubFrame is an inbound frame. Message holds a JSON document encoded as a string.
type PubSubFrame struct {
	Type  string `json:"type"`
	Nonce string `json:"nonce,omitempty"`
	Error string `json:"error,omitempty"`
	Data  *struct {
		Topic   string `json:"topic"`
		Message string `json:"message"`
	} `json:"data,omitempty"`
}

// Drop event types delivered on the user-drop-events topic.
const (
	DropEventProgress = "drop-progress"
	DropEventClaim    = "drop-claim"
)

// DropEvent is a decoded user-drop-events payload. The platform sends either a
// flat body or one nested under "data"; Normalize folds both into the flat fields.
type DropEvent struct {
	Type            string         `json:"type"`
	DropID          string         `json:"drop_id"`
	CurrentMinutes  int            `json:"current_minutes"`
	RequiredMinutes int            `json:"required_minutes"`
	Data            *DropEventData `json:"data,omitempty"`
}

// DropEventData is the nested form of a drop event.
type DropEventData struct {
	DropID              string `json:"drop_id"`
	DropInstanceID      string `json:"drop_instance_id"`
	CurrentProgressMin  int    `json:"current_progress_min"`
	RequiredProgressMin int    `json:"required_progress_min"`
}

// Normalize copies nested fields into the flat fields when the flat ones are empty.
func (e *DropEvent) Normalize() {
	if e.Data == nil {
		return
	}
	if e.DropID == "" {
		e.DropID = e.Data.DropID
	}
	if e.CurrentMinutes == 0 {
		e.CurrentMinutes = e.Data.CurrentProgressMin
	}
	if e.RequiredMinutes == 0 {
		e.RequiredMinutes = e.Data.RequiredProgressMin
	}
}

// NotificationEvent is a decoded onsite-notifications payload.
type NotificationEvent struct {
	Type string `json:"type"`
	Data struct {
		Notification struct {
			Type string `json:"type"`
		} `json:"notification"`
	} `json:"data"`
}
