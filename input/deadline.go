package input

import (
	"errors"
	"net"
	"time"
)

// errIdleTimeout marks a read that failed because the connection went
// idle longer than the configured timeout, distinguishing that from a
// genuine transport error for logging purposes.
var errIdleTimeout = errors.New("input: connection idle timeout")

// deadlineReader resets conn's read deadline before every Read, closing
// connections with no traffic in the configured window per spec §4.E/§5.
type deadlineReader struct {
	conn    net.Conn
	timeout time.Duration
}

func (d *deadlineReader) Read(p []byte) (int, error) {
	if d.timeout > 0 {
		if err := d.conn.SetReadDeadline(time.Now().Add(d.timeout)); err != nil {
			return 0, err
		}
	}
	n, err := d.conn.Read(p)
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return n, errIdleTimeout
		}
	}
	return n, err
}
