package preload

import (
	"context"
	"net"
	"time"

	"github.com/bittoy/corpuspipe/corpuserr"
)

// dialTimeout bounds how long a client waits to connect before giving up
// and letting the caller fall back to local execution.
const dialTimeout = 500 * time.Millisecond

// Client dispatches job requests to a running preloader over its Unix
// socket, per spec §4.F "Dispatch".
type Client struct {
	socketPath string
}

func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

// Dispatch sends one request and waits for its response. A dial failure
// (the preloader is not running) is returned as a *corpuserr.Error of kind
// SocketError; callers treat that the same as a refusal for fallback
// purposes.
func (c *Client) Dispatch(ctx context.Context, req Request) (Response, error) {
	d := net.Dialer{Timeout: dialTimeout}
	conn, err := d.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return Response{}, corpuserr.New(corpuserr.KindSocketError, c.socketPath, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if err := writeFrame(conn, req); err != nil {
		return Response{}, corpuserr.New(corpuserr.KindSocketError, c.socketPath, err)
	}
	var resp Response
	if err := readFrame(conn, &resp); err != nil {
		return Response{}, corpuserr.New(corpuserr.KindSocketError, c.socketPath, err)
	}
	return resp, nil
}
