package capture

import (
	"fmt"
	"net"
)

// bindFirst binds the first usable candidate port on the loopback interface.
//
// Candidates are tried in list order; each failed probe releases its socket
// before the next attempt. An empty list requests an OS-assigned ephemeral
// port. A non-empty list that exhausts every candidate is a [BindError]
// with no ephemeral fallback: an explicit list is a requirement, not a hint.
func bindFirst(ports []int) (net.Listener, int, error) {
	if len(ports) == 0 {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return nil, 0, &BindError{Err: err}
		}
		return listener, listenerPort(listener), nil
	}

	for _, port := range ports {
		listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err == nil {
			return listener, port, nil
		}
	}

	return nil, 0, &BindError{Candidates: ports}
}

// listenerPort extracts the bound port from a TCP listener.
func listenerPort(l net.Listener) int {
	return l.Addr().(*net.TCPAddr).Port
}
