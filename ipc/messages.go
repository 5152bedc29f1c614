package ipc

// Message types understood by both ends of the socket.
const (
	TypeHello      = "hello"
	TypeAck        = "ack"
	TypeWorldState = "world_state"
)

type HelloMessage struct {
	Player string `json:"player"`
}

type AckMessage struct {
	Status   string `json:"status"`
	Session  string `json:"session,omitempty"`
	Tick     int    `json:"tick,omitempty"`
	Commands int    `json:"commands"`
}
