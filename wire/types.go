package wire

// Register binds the connection to the peer identifier.
type Register struct {
	Identifier string
}

// RequestConnection asks the server to notify the peer registered under To.
type RequestConnection struct {
	To   string
	From string
}

// Join adds the connection to the room.
type Join struct {
	Room string
}

// Leave removes the connection from the room.
type Leave struct {
	Room string
}

// Signal carries opaque signaling payload relayed to the other members of the room.
type Signal struct {
	Room    string
	Payload []byte
}

// Auth carries opaque authentication payload relayed to the other members of the room.
type Auth struct {
	Room    string
	Payload []byte
}

// IncomingRequest notifies the peer that another peer wants to connect.
type IncomingRequest struct {
	From string
}
