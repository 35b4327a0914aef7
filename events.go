package rendezvous

// Channel is the logical channel a payload is relayed on.
type Channel string

// Channels.
const (
	ChannelSignal Channel = "signal"
	ChannelAuth   Channel = "auth"
)

func (c Channel) messageType() MessageType {
	if c == ChannelAuth {
		return MessageAuth
	}
	return MessageSignal
}

// Event is an inbound event of the session. The set of events is closed.
type Event interface {
	eventType() string
}

// RegisterEvent binds the peer identifier to the session.
type RegisterEvent struct {
	Identifier string
}

// RequestConnectionEvent asks to notify the peer registered under To.
type RequestConnectionEvent struct {
	To   string
	From string
}

// JoinEvent adds the session to the room.
type JoinEvent struct {
	Room string
}

// LeaveEvent removes the session from the room.
type LeaveEvent struct {
	Room string
}

// RelayEvent broadcasts the payload to the other members of the room.
type RelayEvent struct {
	Channel Channel
	Room    string
	Payload []byte
}

func (RegisterEvent) eventType() string          { return "register" }
func (RequestConnectionEvent) eventType() string { return "request-connection" }
func (JoinEvent) eventType() string              { return "join" }
func (LeaveEvent) eventType() string             { return "leave" }
func (e RelayEvent) eventType() string {
	if e.Channel == ChannelSignal || e.Channel == ChannelAuth {
		return string(e.Channel)
	}
	return "relay"
}
