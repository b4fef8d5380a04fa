package terminal

// Transport is a duplex client connection a session can be bound to.
// Send must not block; sending on a closed transport is a silent no-op.
type Transport interface {
	ID() string
	Send(msg OutboundMessage)
	IsOpen() bool
}

func sameTransport(a, b Transport) bool {
	return a != nil && b != nil && a.ID() == b.ID()
}

// sendIfOpen delivers msg when t is bound and open.
func sendIfOpen(t Transport, msg OutboundMessage) {
	if t != nil && t.IsOpen() {
		t.Send(msg)
	}
}
