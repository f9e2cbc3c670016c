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
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/Fundacio-i2CAT/ovsdb-manager/common"
	"github.com/Fundacio-i2CAT/ovsdb-manager/ovsdbclient"
	"github.com/goccy/go-json"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

const addBridgeBatch = `[
  {"op": "insert", "table": "Interface", "row": {"name": "br0", "type": "internal"}, "uuid-name": "iface"},
  {"op": "insert", "table": "Port", "row": {"name": "br0", "interfaces": ["named-uuid", "iface"]}, "uuid-name": "port"},
  {"op": "insert", "table": "Bridge", "row": {"name": "br0", "ports": ["named-uuid", "port"]}, "uuid-name": "bridge"},
  {"op": "update", "table": "Open_vSwitch", "row": {"bridges": ["named-uuid", "bridge"]}, "where": []}
]`

var _ = Describe("API tests", func() {
	It("List databases", func() {
		var dbs []string
		Expect(getJSON("/databases", &dbs)).Should(Equal(200))
		Expect(dbs).Should(Equal([]string{"Open_vSwitch"}))
	})

	It("Get schema", func() {
		var schema ovsdbclient.Schema
		Expect(getJSON("/databases/Open_vSwitch/schema", &schema)).Should(Equal(200))
		Expect(schema.Name).Should(Equal("Open_vSwitch"))
		Expect(schema.Tables).Should(HaveKey("Bridge"))
		Expect(schema.Tables["Port"].Columns["interfaces"].Type.Min).Should(Equal(1))
		Expect(api.schemas.ItemCount()).Should(Equal(1))

		var again ovsdbclient.Schema
		Expect(getJSON("/databases/Open_vSwitch/schema", &again)).Should(Equal(200))
		Expect(again.TableNames()).Should(Equal(schema.TableNames()))
	})

	It("Unknown database", func() {
		code, ae := getAPIError("/databases/Nope/schema")
		Expect(code).Should(Equal(404))
		Expect(ae.Code).Should(Equal("UNKNOWN_DATABASE"))
		Expect(api.schemas.ItemCount()).Should(Equal(0))
	})

	It("Empty table", func() {
		var rows []json.RawMessage
		Expect(getJSON("/tables/Bridge", &rows)).Should(Equal(200))
		Expect(rows).ShouldNot(BeNil())
		Expect(rows).Should(BeEmpty())
	})

	It("Unknown table", func() {
		code, ae := getAPIError("/tables/Nope")
		Expect(code).Should(Equal(400))
		Expect(ae.Code).Should(Equal("INVALID_OPERATION"))
		Expect(ae.Description).Should(ContainSubstring("Nope"))
	})

	It("Bad where", func() {
		code, ae := getAPIError("/tables/Bridge?where=" + url.QueryEscape(`[["name","~~","x"]]`))
		Expect(code).Should(Equal(400))
		Expect(ae.Code).Should(Equal("INVALID_REQUEST_PARAM"))
	})

	It("Transact and select", func() {
		var results []map[string]interface{}
		Expect(postJSON("/transact", addBridgeBatch, &results)).Should(Equal(200))
		Expect(results).Should(HaveLen(4))
		Expect(results[2]).Should(HaveKey("uuid"))
		Expect(results[3]).Should(HaveKeyWithValue("count", BeNumerically("==", 1)))

		where := url.QueryEscape(`[["name","==","br0"]]`)
		var rows []map[string]interface{}
		Expect(getJSON("/tables/Bridge?columns=name,_uuid&where="+where, &rows)).Should(Equal(200))
		Expect(rows).Should(HaveLen(1))
		Expect(rows[0]).Should(HaveKeyWithValue("name", "br0"))
		Expect(rows[0]).ShouldNot(HaveKey("ports"))

		Expect(mock.Rows("Port")).Should(HaveLen(1))
	})

	It("Wrong media type", func() {
		resp, err := http.Post(testBase+"/transact", "text/plain", strings.NewReader(addBridgeBatch))
		Expect(err).Should(Succeed())
		resp.Body.Close()
		Expect(resp.StatusCode).Should(Equal(415))
		Expect(mock.Rows("Bridge")).Should(BeEmpty())
	})

	It("Invalid operation", func() {
		ae := &common.APIError{}
		Expect(postJSON("/transact", `[{"op": "insert", "table": "Bridge"}]`, ae)).Should(Equal(400))
		Expect(ae.Code).Should(Equal("INVALID_REQUEST_PARAM"))

		Expect(postJSON("/transact", `[]`, ae)).Should(Equal(400))
		Expect(ae.Code).Should(Equal("INVALID_REQUEST_PARAM"))
		Expect(ae.OVSDBError).Should(BeEmpty())
	})

	It("Non-numeric comparison", func() {
		ae := &common.APIError{}
		op := `[{"op": "select", "table": "Port", "where": [["ofport", ">", "abc"]]}]`
		Expect(postJSON("/transact", op, ae)).Should(Equal(400))
		Expect(ae.Code).Should(Equal("INVALID_REQUEST_PARAM"))
		Expect(ae.Operation).Should(BeNil())
	})

	It("Constraint violation", func() {
		mock.FailNextCommit("constraint violation", "duplicate name")
		ae := &common.APIError{}
		Expect(postJSON("/transact", addBridgeBatch, ae)).Should(Equal(409))
		Expect(ae.Code).Should(Equal("CONSTRAINT_VIOLATION"))
		Expect(ae.Description).Should(Equal("duplicate name"))
		Expect(ae.OVSDBError).Should(Equal("constraint violation"))
		Expect(ae.Operation).ShouldNot(BeNil())
		Expect(mock.Rows("Bridge")).Should(BeEmpty())
	})

	It("Failed commit", func() {
		mock.FailNextCommit("not supported", "")
		ae := &common.APIError{}
		Expect(postJSON("/transact", addBridgeBatch, ae)).Should(Equal(500))
		Expect(ae.Code).Should(Equal("TRANSACTION_FAILED"))
	})

	It("JSON snapshot", func() {
		Expect(postJSON("/transact", addBridgeBatch, nil)).Should(Equal(200))

		resp, err := http.Get(testBase + "/snapshot")
		Expect(err).Should(Succeed())
		defer resp.Body.Close()
		Expect(resp.StatusCode).Should(Equal(200))
		Expect(resp.Header.Get("Content-Type")).Should(Equal(jsonMediaType))

		buf, err := io.ReadAll(resp.Body)
		Expect(err).Should(Succeed())
		snap, err := common.UnmarshalSnapshot(buf)
		Expect(err).Should(Succeed())
		Expect(snap.Database).Should(Equal("Open_vSwitch"))
		Expect(snap.Tables).Should(HaveLen(5))
	})

	It("SQLite snapshot", func() {
		resp, err := http.Get(testBase + "/snapshot?format=sqlite")
		Expect(err).Should(Succeed())
		defer resp.Body.Close()
		Expect(resp.StatusCode).Should(Equal(200))
		Expect(resp.Header.Get("Content-Type")).Should(Equal(sqlMediaType))

		buf, err := io.ReadAll(resp.Body)
		Expect(err).Should(Succeed())
		Expect(buf).ShouldNot(BeEmpty())

		sum := sha256.Sum256(buf)
		Expect(resp.Header.Get("SHA256Sum")).Should(Equal(hex.EncodeToString(sum[:])))
	})

	It("Bad snapshot format", func() {
		code, ae := getAPIError("/snapshot?format=xml")
		Expect(code).Should(Equal(400))
		Expect(ae.Code).Should(Equal("INVALID_REQUEST_PARAM"))
	})

	It("Health and ready", func() {
		Expect(getJSON("/health", nil)).Should(Equal(200))
		Expect(getJSON("/ready", nil)).Should(Equal(200))
	})

	It("Metrics", func() {
		Expect(getJSON("/databases", nil)).Should(Equal(200))

		resp, err := http.Get(testBase + "/metrics")
		Expect(err).Should(Succeed())
		defer resp.Body.Close()
		Expect(resp.StatusCode).Should(Equal(200))
		buf, err := io.ReadAll(resp.Body)
		Expect(err).Should(Succeed())
		Expect(string(buf)).Should(ContainSubstring("ovsdbapi_http_requests_total"))
		Expect(string(buf)).Should(ContainSubstring(`ovsdbapi_ovsdb_calls_total{method="list_dbs",result="ok"}`))
	})
})

var _ = Describe("Connection failures", func() {
	It("Unreachable server", func() {
		gone, err := ovsdbclient.NewMockServer(0)
		Expect(err).Should(Succeed())
		ep := gone.Endpoint()
		gone.Stop()

		down := NewServer(ep, testOptions, 0)
		defer down.Close()
		downSrv := httptest.NewServer(down)
		defer downSrv.Close()

		resp, err := http.Get(downSrv.URL + "/databases")
		Expect(err).Should(Succeed())
		ae := &common.APIError{}
		Expect(decodeResponse(resp, ae)).Should(Equal(502))
		resp.Body.Close()
		Expect(ae.Code).Should(Equal("OVSDB_UNAVAILABLE"))

		resp, err = http.Get(downSrv.URL + "/ready")
		Expect(err).Should(Succeed())
		Expect(decodeResponse(resp, nil)).Should(Equal(503))
		resp.Body.Close()
	})

	It("Timeout then reconnect", func() {
		Expect(getJSON("/databases", nil)).Should(Equal(200))

		mock.SetSilent(true)
		code, ae := getAPIError("/databases")
		Expect(code).Should(Equal(504))
		Expect(ae.Code).Should(Equal("OVSDB_TIMEOUT"))

		mock.SetSilent(false)
		var dbs []string
		Expect(getJSON("/databases", &dbs)).Should(Equal(200))
		Expect(dbs).Should(Equal([]string{"Open_vSwitch"}))
	})
})

var _ = Describe("Listener", func() {
	It("Listen and stop", func() {
		l, err := Listen("127.0.0.1:0", NewServer(mock.Endpoint(), testOptions, 0))
		Expect(err).Should(Succeed())

		resp, err := http.Get("http://" + l.Address() + "/ready")
		Expect(err).Should(Succeed())
		resp.Body.Close()
		Expect(resp.StatusCode).Should(Equal(200))

		l.Stop()
		_, err = http.Get("http://" + l.Address() + "/health")
		Expect(err).ShouldNot(Succeed())
	})
})
