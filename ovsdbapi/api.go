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
	"io"
	"mime"
	"net/http"
	"os"
	"strings"

	"github.com/Fundacio-i2CAT/ovsdb-manager/common"
	"github.com/Fundacio-i2CAT/ovsdb-manager/ovsdbclient"
	"github.com/Fundacio-i2CAT/ovsdb-manager/snapshot"
	"github.com/goccy/go-json"
	"github.com/julienschmidt/httprouter"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

const (
	jsonMediaType = "application/json"
	sqlMediaType  = "application/x-sqlite3"
	textMediaType = "text/plain"

	jsonFormat   = "json"
	sqliteFormat = "sqlite"

	maxRequestSize = 4 * 1024 * 1024
)

func (s *Server) initAPI() {
	s.route("GET", "/databases", s.handleListDbs)
	s.route("GET", "/databases/:db/schema", s.handleGetSchema)
	s.route("GET", "/tables/:table", s.handleGetTable)
	s.route("POST", "/transact", s.handleTransact)
	s.route("GET", "/snapshot", s.handleSnapshot)
	s.route("GET", "/health", s.handleHealth)
	s.route("GET", "/ready", s.handleReady)

	RegisterMetrics()
	s.router.Handler("GET", "/metrics", promhttp.Handler())
}

func (s *Server) handleListDbs(
	resp http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	var dbs []string
	err := s.call(ovsdbclient.MethodListDbs, func(c *ovsdbclient.Client) (err error) {
		dbs, err = c.ListDbs()
		return
	})
	if err != nil {
		sendClientError(err, resp, req)
		return
	}
	writeJSON(dbs, resp)
}

func (s *Server) handleGetSchema(
	resp http.ResponseWriter, req *http.Request, p httprouter.Params) {
	db := p.ByName("db")

	if cached, found := s.schemas.Get(db); found {
		recordSchemaLookup(true)
		writeJSON(cached, resp)
		return
	}
	recordSchemaLookup(false)

	var schema *ovsdbclient.Schema
	err := s.call(ovsdbclient.MethodGetSchema, func(c *ovsdbclient.Client) (err error) {
		schema, err = c.GetSchema(db)
		return
	})
	if err != nil {
		sendClientError(err, resp, req)
		return
	}
	s.schemas.Set(db, schema, cache.DefaultExpiration)
	writeJSON(schema, resp)
}

/*
handleGetTable selects rows from one table. "columns" is a comma-separated
list of columns and "where" a JSON array of conditions.
*/
func (s *Server) handleGetTable(
	resp http.ResponseWriter, req *http.Request, p httprouter.Params) {
	table := p.ByName("table")
	q := req.URL.Query()

	var columns []string
	for _, c := range strings.Split(q.Get("columns"), ",") {
		if c = strings.TrimSpace(c); c != "" {
			columns = append(columns, c)
		}
	}

	var where []ovsdbclient.Condition
	if ws := q.Get("where"); ws != "" {
		if err := json.Unmarshal([]byte(ws), &where); err != nil {
			sendAPIError(invalidRequestParam, err.Error(), resp, req)
			return
		}
	}

	var rows []json.RawMessage
	err := s.call(ovsdbclient.MethodTransact, func(c *ovsdbclient.Client) (err error) {
		rows, err = c.SelectFromTable(table, where, columns...)
		return
	})
	if err != nil {
		sendClientError(err, resp, req)
		return
	}
	writeJSON(rows, resp)
}

// handleTransact runs a JSON array of operations as one transaction.
func (s *Server) handleTransact(
	resp http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	mt, _, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if err != nil || mt != jsonMediaType {
		sendAPIError(unsupportedMediaType, "", resp, req)
		return
	}

	body, err := io.ReadAll(io.LimitReader(req.Body, maxRequestSize))
	if err != nil {
		sendAPIError(invalidRequestParam, err.Error(), resp, req)
		return
	}

	var ops []ovsdbclient.Operation
	if err = json.Unmarshal(body, &ops); err != nil {
		sendAPIError(invalidRequestParam, err.Error(), resp, req)
		return
	}
	if len(ops) == 0 {
		sendAPIError(invalidRequestParam, "no operations", resp, req)
		return
	}

	var results []ovsdbclient.OperationResult
	err = s.call(ovsdbclient.MethodTransact, func(c *ovsdbclient.Client) (err error) {
		results, err = c.Transact(ops...)
		return
	})
	if err != nil {
		sendClientError(err, resp, req)
		return
	}
	writeJSON(results, resp)
}

/*
handleSnapshot returns every table of the database, either as a JSON
document or as a SQLite file whose checksum is in the SHA256Sum header.
*/
func (s *Server) handleSnapshot(
	resp http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	format := req.URL.Query().Get("format")
	if format == "" {
		format = jsonFormat
	}

	switch format {
	case jsonFormat:
		var snap *common.Snapshot
		err := s.call(ovsdbclient.MethodTransact, func(c *ovsdbclient.Client) (err error) {
			snap, err = snapshot.TakeJSON(c)
			return
		})
		if err != nil {
			sendClientError(err, resp, req)
			return
		}
		resp.Header().Set("Content-Type", jsonMediaType)
		resp.Write(snap.Marshal())

	case sqliteFormat:
		s.sendSqliteSnapshot(resp, req)

	default:
		sendAPIError(invalidRequestParam, "format must be json or sqlite", resp, req)
	}
}

func (s *Server) sendSqliteSnapshot(resp http.ResponseWriter, req *http.Request) {
	f, err := os.CreateTemp(s.tempDir, "snapshot-*.sqlite")
	if err != nil {
		sendAPIError(serverError, err.Error(), resp, req)
		return
	}
	fileName := f.Name()
	f.Close()
	os.Remove(fileName)
	defer func() {
		os.Remove(fileName)
		os.Remove(fileName + "-wal")
		os.Remove(fileName + "-shm")
	}()

	err = s.call(ovsdbclient.MethodTransact, func(c *ovsdbclient.Client) error {
		return snapshot.WriteSqlite(c, fileName)
	})
	if err != nil {
		sendClientError(err, resp, req)
		return
	}

	if err = streamFile(fileName, resp); err != nil {
		log.Errorf("Error sending snapshot: %s", err)
	}
}

func streamFile(srcFile string, resp http.ResponseWriter) error {
	shasum, err := snapshot.SHA256Checksum(srcFile)
	if err != nil {
		return err
	}

	inFile, err := os.Open(srcFile)
	if err != nil {
		return err
	}
	defer inFile.Close()

	resp.Header().Set("SHA256Sum", shasum)
	resp.Header().Set("Content-Type", sqlMediaType)
	_, err = io.Copy(resp, inFile)
	return err
}

func (s *Server) handleHealth(
	resp http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	resp.Header().Set("Content-Type", textMediaType)
	resp.Write([]byte("OK"))
}

/*
handleReady answers 503 while the OVSDB server does not answer an echo.
That means the gateway should not get calls, not that it needs a restart.
*/
func (s *Server) handleReady(
	resp http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	err := s.call(ovsdbclient.MethodEcho, func(c *ovsdbclient.Client) error {
		_, err := c.Echo()
		return err
	})

	resp.Header().Set("Content-Type", textMediaType)
	if err != nil {
		log.Warnf("Not ready: %s", err)
		resp.WriteHeader(http.StatusServiceUnavailable)
		resp.Write([]byte(err.Error()))
		return
	}
	resp.Write([]byte("OK"))
}

func writeJSON(v interface{}, resp http.ResponseWriter) {
	buf, err := json.Marshal(v)
	if err != nil {
		log.Errorf("Cannot encode response: %s", err)
		resp.WriteHeader(http.StatusInternalServerError)
		return
	}
	resp.Header().Set("Content-Type", jsonMediaType)
	resp.Write(buf)
}
