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
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
)

var _ = Describe("Connection", func() {
	var server *MockServer

	BeforeEach(func() {
		var err error
		server, err = NewMockServer(0)
		Expect(err).Should(Succeed())
	})

	AfterEach(func() {
		server.Stop()
	})

	It("Echo", func() {
		conn, err := Connect(server.Endpoint(), testOptions)
		Expect(err).Should(Succeed())
		defer conn.Close()

		req := NewEchoRequest([]interface{}{"hello", 1}, "")
		resp, err := conn.Call(req)
		Expect(err).Should(Succeed())
		Expect(resp.Err()).Should(Succeed())
		Expect([]byte(resp.Result)).Should(MatchJSON(`["hello", 1]`))
		Expect(idEquals(resp.ID, req.ID)).Should(BeTrue())
	})

	It("Answers echo probes", func() {
		server.SetEchoProbes(3)
		conn, err := Connect(server.Endpoint(), testOptions)
		Expect(err).Should(Succeed())
		defer conn.Close()

		resp, err := conn.Call(NewListDbsRequest())
		Expect(err).Should(Succeed())
		Expect([]byte(resp.Result)).Should(MatchJSON(`["Open_vSwitch"]`))

		probes := server.ProbeExchanges()
		Expect(probes).Should(HaveLen(3))
		for _, p := range probes {
			Expect(p.ReplyID).Should(Equal(`"` + p.ID + `"`))
			params, err := json.Marshal(p.Params)
			Expect(err).Should(Succeed())
			Expect(p.ReplyResult).Should(MatchJSON(params))
			Expect(p.ReplyError == "" || p.ReplyError == "null").Should(BeTrue())
		}
	})

	It("Reassembles split replies", func() {
		server.SetChunkSize(3)
		server.SetEchoProbes(1)
		conn, err := Connect(server.Endpoint(), testOptions)
		Expect(err).Should(Succeed())
		defer conn.Close()

		resp, err := conn.Call(NewGetSchemaRequest("Open_vSwitch"))
		Expect(err).Should(Succeed())
		Expect(resp.Err()).Should(Succeed())
		Expect([]byte(resp.Result)).Should(MatchJSON(mockSchemaJSON))
	})

	It("Ignores unrelated traffic", func() {
		server.SetNoise(true)
		conn, err := Connect(server.Endpoint(), testOptions)
		Expect(err).Should(Succeed())
		defer conn.Close()

		for i := 0; i < 3; i++ {
			resp, err := conn.Call(NewListDbsRequest())
			Expect(err).Should(Succeed())
			Expect([]byte(resp.Result)).Should(MatchJSON(`["Open_vSwitch"]`))
		}
	})

	It("Times out", func() {
		server.SetSilent(true)
		conn, err := Connect(server.Endpoint(), Options{CallTimeout: 200 * time.Millisecond})
		Expect(err).Should(Succeed())
		defer conn.Close()

		start := time.Now()
		_, err = conn.Call(NewListDbsRequest())
		Expect(IsTimeout(err)).Should(BeTrue())
		Expect(time.Since(start)).Should(BeNumerically("<", 2*time.Second))

		_, err = conn.Call(NewListDbsRequest())
		Expect(IsConnectionError(err)).Should(BeTrue())
		Expect(IsTimeout(err)).Should(BeFalse())
		Expect(errors.Is(err, ErrBroken)).Should(BeTrue())
	})

	It("Deadline covers echo probes", func() {
		server.SetEchoProbes(2)
		server.SetSilent(true)
		conn, err := Connect(server.Endpoint(), Options{CallTimeout: 300 * time.Millisecond})
		Expect(err).Should(Succeed())
		defer conn.Close()

		_, err = conn.Call(NewListDbsRequest())
		Expect(IsTimeout(err)).Should(BeTrue())
		Expect(server.ProbeExchanges()).Should(HaveLen(2))
	})

	It("Close aborts a call", func() {
		server.SetSilent(true)
		conn, err := Connect(server.Endpoint(), Options{CallTimeout: 10 * time.Second})
		Expect(err).Should(Succeed())

		go func() {
			time.Sleep(100 * time.Millisecond)
			conn.Close()
		}()
		_, err = conn.Call(NewListDbsRequest())
		Expect(IsConnectionError(err)).Should(BeTrue())
		Expect(IsTimeout(err)).Should(BeFalse())
		Expect(errors.Is(err, ErrClosed)).Should(BeTrue())
	})

	It("Connection refused", func() {
		ep := server.Endpoint()
		server.Stop()
		_, err := Connect(ep, testOptions)
		Expect(IsConnectionError(err)).Should(BeTrue())
		Expect(IsTimeout(err)).Should(BeFalse())
	})

	It("Connect times out", func() {
		// TEST-NET-1 is never routed, so the SYN goes unanswered.
		ep := Endpoint{Network: "tcp", Host: "192.0.2.1", Port: DefaultPort, Database: DefaultDatabase}
		start := time.Now()
		_, err := Connect(ep, Options{ConnectTimeout: 50 * time.Millisecond})
		Expect(err).ShouldNot(Succeed())
		if !IsTimeout(err) {
			Skip("no route to test address: " + err.Error())
		}
		Expect(IsConnectionError(err)).Should(BeTrue())
		Expect(time.Since(start)).Should(BeNumerically("<", 2*time.Second))
	})

	It("Socket closed underneath", func() {
		conn, err := Connect(server.Endpoint(), testOptions)
		Expect(err).Should(Succeed())
		defer conn.Close()
		Expect(conn.conn.Close()).Should(Succeed())

		_, err = conn.Call(NewListDbsRequest())
		Expect(IsConnectionError(err)).Should(BeTrue())
		Expect(IsTimeout(err)).Should(BeFalse())
		var ce *ConnectionError
		Expect(errors.As(err, &ce)).Should(BeTrue())
		Expect(ce.Op).Should(Equal("deadline"))

		_, err = conn.Call(NewListDbsRequest())
		Expect(errors.Is(err, ErrBroken)).Should(BeTrue())
	})

	It("Unix socket", func() {
		dir, err := os.MkdirTemp("", "ovsdb")
		Expect(err).Should(Succeed())
		defer os.RemoveAll(dir)

		us, err := NewMockUnixServer(filepath.Join(dir, "db.sock"))
		Expect(err).Should(Succeed())
		defer us.Stop()

		ep, err := ParseEndpoint("unix:"+us.Address(), "")
		Expect(err).Should(Succeed())
		client, err := NewClient(ep, testOptions)
		Expect(err).Should(Succeed())
		defer client.Close()

		dbs, err := client.ListDbs()
		Expect(err).Should(Succeed())
		Expect(dbs).Should(Equal([]string{"Open_vSwitch"}))
	})
})
