package gateway

import "encoding/json"

// Client-initiated event types.
const (
	eventLoginUser        = "loginUser"
	eventGetMessage       = "getMessage"
	eventSendMessage      = "sendMessage"
	eventMuteUser         = "muteUser"
	eventCheckAdminStatus = "checkAdminStatus"
	eventBanUser          = "banUser"
)

// Server-initiated event types.
const (
	eventConnectSuccess = "connect_success"
	eventMessages       = "messages"
	eventNewMessage     = "newMessage"
	eventBanResponse    = "banUserResponse"
	eventAck            = "ack"
)

// clientEvent is the inbound wire envelope. The id correlates the server's
// ack with the request, standing in for the callback the original
// socket-style protocol attaches to each event.
type clientEvent struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// serverEvent is the outbound wire envelope, used for both acks and pushes.
type serverEvent struct {
	Type    string      `json:"type"`
	ID      string      `json:"id,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

type ackPayload struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type adminStatusPayload struct {
	IsAdmin bool `json:"isAdmin"`
}

type banBroadcastPayload struct {
	Success  bool   `json:"success"`
	Username string `json:"username"`
	Reason   string `json:"reason"`
}

type connectSuccessPayload struct {
	Message string `json:"message"`
}

type loginPayload struct {
	Username string `json:"username"`
}

type getMessagePayload struct {
	Before *string `json:"before"`
}

type sendMessagePayload struct {
	Content string  `json:"content"`
	Sender  string  `json:"sender"`
	Color   *string `json:"color"`
	Type    *string `json:"type"`
}

type muteUserPayload struct {
	Executor string `json:"executor"`
	Username string `json:"username"`
	Duration int    `json:"duration"`
}

type checkAdminPayload struct {
	Username string `json:"username"`
}

type banUserPayload struct {
	Executor string `json:"executor"`
	Username string `json:"username"`
	Reason   string `json:"reason"`
}
