package launch

import (
	"fmt"
	"net"
)

// FreePort asks the kernel for an ephemeral TCP port on the loopback
// interface and returns it. The listener is closed before returning, so a
// small race with other port consumers exists; rendezvous libraries retry on
// bind failure, which makes this acceptable for picking a master port.
func FreePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("failed to probe for a free port: %w", err)
	}
	defer l.Close()

	addr, ok := l.Addr().(*net.TCPAddr)
	if !ok {
		return 0, fmt.Errorf("unexpected listener address type %T", l.Addr())
	}
	return addr.Port, nil
}
