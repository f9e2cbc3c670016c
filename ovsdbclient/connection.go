/*
Copyright 2020 The OVSDB Manager Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package ovsdbclient

import (
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	defaultConnectTimeout = 5 * time.Second
	defaultCallTimeout    = 5 * time.Second
)

/*
Options controls the timeouts of a connection. ConnectTimeout bounds the
dial. CallTimeout bounds a whole call, from writing the request to reading
the response, no matter how many echo probes the server sends meanwhile.
*/
type Options struct {
	ConnectTimeout time.Duration
	CallTimeout    time.Duration
}

// DefaultOptions returns five seconds for both timeouts.
func DefaultOptions() Options {
	return Options{
		ConnectTimeout: defaultConnectTimeout,
		CallTimeout:    defaultCallTimeout,
	}
}

/*
A Connection carries JSON-RPC calls to an OVSDB server, one at a time.
Echo requests from the server are answered while a call is waiting.
*/
type Connection struct {
	endpoint Endpoint
	opts     Options
	conn     net.Conn
	dec      *json.Decoder
	mu       sync.Mutex
	closed   int32
	broken   error
}

// message is any JSON-RPC object that the server may send.
type message struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
	ID     json.RawMessage `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  json.RawMessage `json:"error"`
}

type echoReply struct {
	Result json.RawMessage `json:"result"`
	Error  interface{}     `json:"error"`
	ID     json.RawMessage `json:"id"`
}

/*
Connect dials the endpoint. A dial that does not complete within
ConnectTimeout returns a ConnectionError with Timeout set.
*/
func Connect(endpoint Endpoint, opts Options) (*Connection, error) {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = defaultConnectTimeout
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = defaultCallTimeout
	}

	addr := endpoint.Address()
	log.Debugf("Connecting to %s", endpoint)
	deadline := time.Now().Add(opts.ConnectTimeout)
	conn, err := net.DialTimeout(endpoint.Network, addr, opts.ConnectTimeout)
	if err != nil {
		return nil, newConnectionError("connect", addr, err, deadline)
	}

	return &Connection{
		endpoint: endpoint,
		opts:     opts,
		conn:     conn,
		dec:      json.NewDecoder(conn),
	}, nil
}

// Endpoint returns where the connection goes.
func (c *Connection) Endpoint() Endpoint {
	return c.endpoint
}

/*
Call sends a request and waits for the response with the same id.
Echo requests that arrive meanwhile are answered with the same id and
params. Other server requests and responses with a different id are
discarded. Any read or write failure, including the deadline, leaves the
connection unusable.
*/
func (c *Connection) Call(req *Request) (*Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	addr := c.endpoint.Address()
	if atomic.LoadInt32(&c.closed) != 0 {
		return nil, &ConnectionError{Op: "call", Addr: addr, Err: ErrClosed}
	}
	if c.broken != nil {
		return nil, &ConnectionError{Op: "call", Addr: addr, Err: errors.Wrap(ErrBroken, c.broken.Error())}
	}

	buf, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(c.opts.CallTimeout)
	if err = c.conn.SetDeadline(deadline); err != nil {
		return nil, c.fail("deadline", err, deadline)
	}

	log.Debugf("Sending %s id %s length %d", req.Method, req.ID, len(buf))
	if _, err = c.conn.Write(buf); err != nil {
		return nil, c.fail("write", err, deadline)
	}

	for {
		var msg message
		if err = c.dec.Decode(&msg); err != nil {
			return nil, c.fail("read", err, deadline)
		}

		switch {
		case msg.Method == MethodEcho:
			if err = c.replyEcho(&msg); err != nil {
				return nil, c.fail("write", err, deadline)
			}
		case msg.Method != "":
			log.Debugf("Ignoring %s request from server", msg.Method)
		case !idEquals(msg.ID, req.ID):
			log.Warnf("Discarding response with unexpected id %s (waiting for %s)", string(msg.ID), req.ID)
		default:
			log.Debugf("Received response to %s id %s", req.Method, req.ID)
			if err = c.conn.SetDeadline(time.Time{}); err != nil {
				return nil, c.fail("deadline", err, deadline)
			}
			return &Response{
				Result: msg.Result,
				Error:  msg.Error,
				ID:     msg.ID,
			}, nil
		}
	}
}

func (c *Connection) replyEcho(msg *message) error {
	params := msg.Params
	if isNull(params) {
		params = json.RawMessage("[]")
	}
	buf, err := json.Marshal(&echoReply{
		Result: params,
		ID:     msg.ID,
	})
	if err != nil {
		return err
	}
	log.Debugf("Answering echo id %s", string(msg.ID))
	_, err = c.conn.Write(buf)
	return err
}

func (c *Connection) fail(op string, err error, deadline time.Time) error {
	ce := newConnectionError(op, c.endpoint.Address(), err, deadline)
	if atomic.LoadInt32(&c.closed) != 0 {
		ce.Err = ErrClosed
		ce.Timeout = false
	}
	c.broken = ce
	return ce
}

/*
Close closes the socket. A call blocked in another goroutine fails with
a ConnectionError.
*/
func (c *Connection) Close() error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}
	log.Debugf("Closing connection to %s", c.endpoint)
	return c.conn.Close()
}

func newConnectionError(op, addr string, err error, deadline time.Time) *ConnectionError {
	timedOut := errors.Is(err, os.ErrDeadlineExceeded)
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		timedOut = true
	}
	// The stream decoder may not pass the socket error through.
	if !deadline.IsZero() && !time.Now().Before(deadline) {
		timedOut = true
	}
	return &ConnectionError{
		Op:      op,
		Addr:    addr,
		Timeout: timedOut,
		Err:     err,
	}
}

func idEquals(raw json.RawMessage, id string) bool {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return false
	}
	return s == id
}
