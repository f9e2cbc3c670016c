package ovsdbclient

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
)

const (
	tcpNetwork  = "tcp"
	unixNetwork = "unix"

	// DefaultHost is where ovsdb-server listens when started with ptcp.
	DefaultHost = "127.0.0.1"
	// DefaultPort is the IANA port for OVSDB.
	DefaultPort = 6640
	// DefaultDatabase is the database managed by ovs-vswitchd.
	DefaultDatabase = "Open_vSwitch"
)

var hostPortExp = regexp.MustCompile("^(.+):([0-9]+)$")

/*
An Endpoint names the server and the database that a client talks to.
For unix sockets, Host holds the socket path and Port is unused.
*/
type Endpoint struct {
	Network  string
	Host     string
	Port     int
	Database string
}

// DefaultEndpoint returns tcp:127.0.0.1:6640 with the Open_vSwitch database.
func DefaultEndpoint() Endpoint {
	return Endpoint{
		Network:  tcpNetwork,
		Host:     DefaultHost,
		Port:     DefaultPort,
		Database: DefaultDatabase,
	}
}

// Address returns the address to pass to net.Dial.
func (e Endpoint) Address() string {
	if e.Network == unixNetwork {
		return e.Host
	}
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s:%s", e.Network, e.Address())
}

/*
ParseEndpoint parses a connection target in the style of ovs-vsctl --db:

tcp:HOST[:PORT], unix:PATH, or a bare HOST[:PORT].

An empty string yields the default endpoint. An empty database selects
Open_vSwitch.
*/
func ParseEndpoint(s, database string) (Endpoint, error) {
	ep := DefaultEndpoint()
	if database != "" {
		ep.Database = database
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return ep, nil
	}

	if strings.HasPrefix(s, unixNetwork+":") {
		path := s[len(unixNetwork)+1:]
		if path == "" {
			return ep, fmt.Errorf("Invalid endpoint %q: missing socket path", s)
		}
		ep.Network = unixNetwork
		ep.Host = path
		ep.Port = 0
		return ep, nil
	}

	s = strings.TrimPrefix(s, tcpNetwork+":")
	if s == "" {
		return ep, nil
	}

	match := hostPortExp.FindStringSubmatch(s)
	if match == nil {
		ep.Host = trimBrackets(s)
		return ep, nil
	}

	port, err := strconv.Atoi(match[2])
	if err != nil || port <= 0 || port > 65535 {
		return ep, fmt.Errorf("Invalid port %s", match[2])
	}
	ep.Host = trimBrackets(match[1])
	ep.Port = port
	return ep, nil
}

func trimBrackets(h string) string {
	if strings.HasPrefix(h, "[") && strings.HasSuffix(h, "]") {
		return h[1 : len(h)-1]
	}
	return h
}
