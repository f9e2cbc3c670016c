package ovsdbclient

import (
	"github.com/goccy/go-json"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
)

var _ = Describe("Operations", func() {
	It("Insert with uuid-name", func() {
		op := Insert("Interface", Row{"name": "br0", "type": "internal"}, "iface")
		buf, err := json.Marshal(op)
		Expect(err).Should(Succeed())
		Expect(buf).Should(MatchJSON(`{
			"op": "insert", "table": "Interface",
			"row": {"name": "br0", "type": "internal"},
			"uuid-name": "iface"}`))
	})

	It("Insert without uuid-name", func() {
		buf, err := json.Marshal(Insert("Controller", Row{"target": "tcp:1.2.3.4:6653"}, ""))
		Expect(err).Should(Succeed())
		Expect(buf).Should(MatchJSON(`{"op": "insert", "table": "Controller", "row": {"target": "tcp:1.2.3.4:6653"}}`))
	})

	It("Select everything", func() {
		buf, err := json.Marshal(Select("Bridge", nil))
		Expect(err).Should(Succeed())
		Expect(buf).Should(MatchJSON(`{"op": "select", "table": "Bridge", "where": []}`))
	})

	It("Select columns", func() {
		buf, err := json.Marshal(Select("Bridge", []Condition{ByName("br0")}, "name", "ports"))
		Expect(err).Should(Succeed())
		Expect(buf).Should(MatchJSON(`{
			"op": "select", "table": "Bridge",
			"where": [["name", "==", "br0"]],
			"columns": ["name", "ports"]}`))
	})

	It("Update", func() {
		op := Update("Bridge", Row{"stp_enable": true}, []Condition{ByName("br0")})
		buf, err := json.Marshal(op)
		Expect(err).Should(Succeed())
		Expect(buf).Should(MatchJSON(`{
			"op": "update", "table": "Bridge",
			"where": [["name", "==", "br0"]],
			"row": {"stp_enable": true}}`))
	})

	It("Delete", func() {
		buf, err := json.Marshal(Delete("Port", []Condition{ByName("p1")}))
		Expect(err).Should(Succeed())
		Expect(buf).Should(MatchJSON(`{"op": "delete", "table": "Port", "where": [["name", "==", "p1"]]}`))
	})

	It("Decode", func() {
		var op Operation
		err := json.Unmarshal([]byte(`{"op": "delete", "table": "Port", "where": [["name", "==", "p1"]]}`), &op)
		Expect(err).Should(Succeed())
		Expect(op.Op).Should(Equal(OpDelete))
		Expect(op.Where).Should(Equal([]Condition{ByName("p1")}))
	})

	It("Decode invalid", func() {
		var op Operation
		err := json.Unmarshal([]byte(`{"op": "mutate", "table": "Port"}`), &op)
		Expect(errors.Cause(err)).Should(Equal(ErrInvalidOperation))
		err = json.Unmarshal([]byte(`{"op": "insert", "table": "Port"}`), &op)
		Expect(errors.Cause(err)).Should(Equal(ErrInvalidOperation))
	})

	It("Duplicate uuid-name", func() {
		_, err := NewTransactRequest("Open_vSwitch",
			Insert("Interface", Row{"name": "a"}, "x"),
			Insert("Interface", Row{"name": "b"}, "x"))
		Expect(errors.Cause(err)).Should(Equal(ErrDuplicateUUIDName))
	})

	It("Transact envelope", func() {
		req, err := NewTransactRequest("Open_vSwitch", Select("Bridge", nil))
		Expect(err).Should(Succeed())
		Expect(req.Method).Should(Equal("transact"))
		Expect(req.ID).Should(MatchRegexp("^id[0-9a-f_]{36}$"))
		buf, err := json.Marshal(req.Params)
		Expect(err).Should(Succeed())
		Expect(buf).Should(MatchJSON(`["Open_vSwitch", {"op": "select", "table": "Bridge", "where": []}]`))
	})

	It("Fresh ids", func() {
		Expect(NewListDbsRequest().ID).ShouldNot(Equal(NewListDbsRequest().ID))
		Expect(NewTempName()).Should(MatchRegexp("^id[0-9a-f_]+$"))
	})

	It("Echo defaults", func() {
		req := NewEchoRequest(nil, "echo")
		buf, err := json.Marshal(req)
		Expect(err).Should(Succeed())
		Expect(buf).Should(MatchJSON(`{"method": "echo", "params": [], "id": "echo"}`))
	})
})
