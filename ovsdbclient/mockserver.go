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
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

/*
A MockServer is an OVSDB server that keeps an Open_vSwitch database in
memory. It implements list_dbs, get_schema, echo and transact, and has
knobs for testing the client: echo probes before every reply, replies
written in small pieces, unrelated traffic, no reply at all, and failed
commits.
*/
type MockServer struct {
	listener net.Listener
	db       *mockDatabase
	lock     sync.Mutex

	echoProbes int
	chunkSize  int
	noise      bool
	silent     bool
	failure    *mockError
	probeSeq   int
	probes     []ProbeExchange
}

/*
ProbeExchange records an echo probe sent by the mock server and what the
client answered. Reply fields hold raw JSON.
*/
type ProbeExchange struct {
	ID          string
	Params      []interface{}
	ReplyID     string
	ReplyResult string
	ReplyError  string
}

type mockMessage struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
	ID     json.RawMessage   `json:"id"`
	Result json.RawMessage   `json:"result"`
	Error  json.RawMessage   `json:"error"`
}

type mockResponse struct {
	Result interface{}     `json:"result"`
	Error  interface{}     `json:"error"`
	ID     json.RawMessage `json:"id"`
}

type mockRequest struct {
	Method string        `json:"method"`
	Params []interface{} `json:"params"`
	ID     interface{}   `json:"id"`
}

/*
NewMockServer starts a new server in the current process, listening on the
specified TCP port. Port 0 picks a free one.
*/
func NewMockServer(port int) (*MockServer, error) {
	listener, err := net.ListenTCP("tcp", &net.TCPAddr{
		Port: port,
	})
	if err != nil {
		return nil, err
	}
	return startMockServer(listener), nil
}

// NewMockUnixServer starts a server on a unix socket.
func NewMockUnixServer(path string) (*MockServer, error) {
	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	return startMockServer(listener), nil
}

func startMockServer(listener net.Listener) *MockServer {
	s := &MockServer{
		listener: listener,
		db:       newMockDatabase(),
	}
	go s.acceptLoop()
	return s
}

/*
Address returns the listen address in host:port format, or the socket path.
*/
func (m *MockServer) Address() string {
	return m.listener.Addr().String()
}

// Endpoint returns an endpoint for the server and its database.
func (m *MockServer) Endpoint() Endpoint {
	if m.listener.Addr().Network() == unixNetwork {
		return Endpoint{Network: unixNetwork, Host: m.Address(), Database: DefaultDatabase}
	}
	addr := m.listener.Addr().(*net.TCPAddr)
	return Endpoint{
		Network:  tcpNetwork,
		Host:     DefaultHost,
		Port:     addr.Port,
		Database: DefaultDatabase,
	}
}

/*
Stop stops the server listening for new connections.
*/
func (m *MockServer) Stop() {
	m.listener.Close()
}

// SetEchoProbes makes the server send n echo requests before every reply.
func (m *MockServer) SetEchoProbes(n int) {
	m.lock.Lock()
	m.echoProbes = n
	m.lock.Unlock()
}

// SetChunkSize makes the server write replies n bytes at a time.
func (m *MockServer) SetChunkSize(n int) {
	m.lock.Lock()
	m.chunkSize = n
	m.lock.Unlock()
}

// SetNoise makes the server send a notification and a stray response before every reply.
func (m *MockServer) SetNoise(noise bool) {
	m.lock.Lock()
	m.noise = noise
	m.lock.Unlock()
}

// SetSilent makes the server stop replying.
func (m *MockServer) SetSilent(silent bool) {
	m.lock.Lock()
	m.silent = silent
	m.lock.Unlock()
}

/*
FailNextCommit makes the next transaction fail at commit time with the
given error string, after all of its operations ran.
*/
func (m *MockServer) FailNextCommit(code, details string) {
	m.lock.Lock()
	m.failure = &mockError{Error: code, Details: details}
	m.lock.Unlock()
}

// ProbeExchanges returns the echo probes sent so far and their replies.
func (m *MockServer) ProbeExchanges() []ProbeExchange {
	m.lock.Lock()
	defer m.lock.Unlock()
	return append([]ProbeExchange(nil), m.probes...)
}

// Rows returns the committed rows of a table, in insertion order.
func (m *MockServer) Rows(table string) []map[string]interface{} {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.db.snapshotRows(table)
}

func (m *MockServer) acceptLoop() {
	for {
		conn, err := m.listener.Accept()
		if err != nil {
			return
		}
		go m.connectLoop(conn)
	}
}

func (m *MockServer) connectLoop(c net.Conn) {
	defer c.Close()
	dec := json.NewDecoder(c)

	for {
		var msg mockMessage
		if err := dec.Decode(&msg); err != nil {
			log.Debugf("Mock server connection ended: %s", err)
			return
		}
		if msg.Method == "" {
			log.Debugf("Mock server ignoring response id %s", string(msg.ID))
			continue
		}

		resp := m.handle(&msg)

		m.lock.Lock()
		probes, noise, silent := m.echoProbes, m.noise, m.silent
		m.lock.Unlock()

		for i := 0; i < probes; i++ {
			if err := m.probe(c, dec); err != nil {
				log.Debugf("Mock server echo probe failed: %s", err)
				return
			}
		}
		if silent {
			continue
		}
		if noise {
			m.write(c, &mockRequest{Method: "update", Params: []interface{}{nil, map[string]interface{}{}}})
			m.write(c, &mockResponse{Result: []interface{}{}, ID: json.RawMessage(`"stray"`)})
		}
		if err := m.write(c, resp); err != nil {
			return
		}
	}
}

func (m *MockServer) handle(msg *mockMessage) *mockResponse {
	resp := &mockResponse{ID: msg.ID}

	switch msg.Method {
	case MethodEcho:
		params := make([]interface{}, len(msg.Params))
		for i, p := range msg.Params {
			params[i] = p
		}
		resp.Result = params

	case MethodListDbs:
		resp.Result = []string{m.db.schema.Name}

	case MethodGetSchema:
		if merr := m.checkDatabase(msg.Params); merr != nil {
			resp.Error = merr
			return resp
		}
		resp.Result = json.RawMessage(mockSchemaJSON)

	case MethodTransact:
		if merr := m.checkDatabase(msg.Params); merr != nil {
			resp.Error = merr
			return resp
		}
		m.lock.Lock()
		forced := m.failure
		m.failure = nil
		resp.Result = m.db.transact(msg.Params[1:], forced)
		m.lock.Unlock()

	default:
		resp.Error = &mockError{Error: "unknown method", Details: msg.Method}
	}
	return resp
}

func (m *MockServer) checkDatabase(params []json.RawMessage) *mockError {
	if len(params) == 0 {
		return mockSyntaxError("missing database name")
	}
	var name string
	if err := json.Unmarshal(params[0], &name); err != nil || name != m.db.schema.Name {
		return &mockError{Error: unknownDatabaseString, Details: fmt.Sprintf("%s is not a valid database", string(params[0]))}
	}
	return nil
}

// probe sends one echo request and waits for the client to answer it.
func (m *MockServer) probe(c net.Conn, dec *json.Decoder) error {
	m.lock.Lock()
	m.probeSeq++
	seq := m.probeSeq
	m.lock.Unlock()

	ex := ProbeExchange{
		ID:     fmt.Sprintf("echo-%d", seq),
		Params: []interface{}{"probe", float64(seq)},
	}
	if err := m.write(c, &mockRequest{Method: MethodEcho, Params: ex.Params, ID: ex.ID}); err != nil {
		return err
	}

	var reply mockMessage
	if err := dec.Decode(&reply); err != nil {
		return err
	}
	ex.ReplyID = string(reply.ID)
	ex.ReplyResult = string(reply.Result)
	ex.ReplyError = string(reply.Error)

	m.lock.Lock()
	m.probes = append(m.probes, ex)
	m.lock.Unlock()
	return nil
}

func (m *MockServer) write(c net.Conn, v interface{}) error {
	buf, err := json.Marshal(v)
	if err != nil {
		log.Errorf("Mock server cannot encode reply: %s", err)
		return err
	}

	m.lock.Lock()
	chunk := m.chunkSize
	m.lock.Unlock()

	if chunk <= 0 {
		_, err = c.Write(buf)
		return err
	}
	for off := 0; off < len(buf); off += chunk {
		end := off + chunk
		if end > len(buf) {
			end = len(buf)
		}
		if _, err = c.Write(buf[off:end]); err != nil {
			return err
		}
		time.Sleep(time.Millisecond)
	}
	return nil
}
