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
package ovsdbapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/Fundacio-i2CAT/ovsdb-manager/ovsdbclient"
	"github.com/julienschmidt/httprouter"
	"github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
)

/*
A Server exposes one OVSDB database over HTTP. It holds a single client
connection, opened on the first request and opened again on the next
request after the connection fails.
*/
type Server struct {
	endpoint ovsdbclient.Endpoint
	opts     ovsdbclient.Options
	schemas  *cache.Cache
	router   *httprouter.Router
	tempDir  string

	lock   sync.Mutex
	client *ovsdbclient.Client
}

/*
NewServer returns a server for the endpoint. Schemas are kept for
schemaTTL; zero keeps them until the server is closed.
*/
func NewServer(endpoint ovsdbclient.Endpoint, opts ovsdbclient.Options, schemaTTL time.Duration) *Server {
	ttl := schemaTTL
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	s := &Server{
		endpoint: endpoint,
		opts:     opts,
		schemas:  cache.New(ttl, 10*time.Minute),
		router:   httprouter.New(),
	}
	s.initAPI()
	return s
}

// SetTempDir sets where SQLite snapshots are written before they are sent.
func (s *Server) SetTempDir(dir string) {
	s.tempDir = dir
}

func (s *Server) ServeHTTP(resp http.ResponseWriter, req *http.Request) {
	s.router.ServeHTTP(resp, req)
}

// Close closes the OVSDB connection, if there is one.
func (s *Server) Close() {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.client != nil {
		s.client.Close()
		s.client = nil
	}
}

func (s *Server) getClient() (*ovsdbclient.Client, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.client != nil {
		return s.client, nil
	}
	log.Infof("Connecting to OVSDB at %s", s.endpoint)
	c, err := ovsdbclient.NewClient(s.endpoint, s.opts)
	if err != nil {
		return nil, err
	}
	s.client = c
	return c, nil
}

// dropClient forgets a client whose connection failed.
func (s *Server) dropClient(c *ovsdbclient.Client) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if c != nil && s.client == c {
		log.Warnf("Dropping connection to %s", s.endpoint)
		c.Close()
		s.client = nil
	}
}

/*
call runs fn with the current client and records how it went. A failed
connection is dropped so that the next call dials again.
*/
func (s *Server) call(method string, fn func(c *ovsdbclient.Client) error) error {
	start := time.Now()
	c, err := s.getClient()
	if err == nil {
		err = fn(c)
	}
	recordCall(method, err, time.Since(start))

	if err != nil {
		switch codeFor(err) {
		case ovsdbUnavailable, ovsdbTimeout:
			s.dropClient(c)
		}
	}
	return err
}

func (s *Server) route(method, path string, h httprouter.Handle) {
	s.router.Handle(method, path,
		func(resp http.ResponseWriter, req *http.Request, p httprouter.Params) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: resp, status: http.StatusOK}
			h(rec, req, p)
			recordHTTPRequest(method, path, rec.status, time.Since(start))
		})
}
