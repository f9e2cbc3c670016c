package ovsdbclient

import (
	"github.com/goccy/go-json"
	. "github.com/onsi/ginkgo"
	"github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

func decodeResults(s string) []OperationResult {
	var r []OperationResult
	Expect(json.Unmarshal([]byte(s), &r)).Should(Succeed())
	return r
}

var _ = Describe("Transaction results", func() {
	It("Success", func() {
		r := decodeResults(`[{"uuid": ["uuid", "u1"]}, {"count": 1}, {"rows": []}]`)
		Expect(CheckResults(3, r)).Should(Succeed())
		Expect(r[0].UUID).Should(Equal(UUID("u1")))
		Expect(r[1].Count).Should(Equal(1))
		Expect(r[2].Rows).Should(BeEmpty())
	})

	It("Keeps what the server sent", func() {
		r := decodeResults(`[{"rows": []}, {"count": 0}]`)
		buf, err := json.Marshal(r)
		Expect(err).Should(Succeed())
		Expect(buf).Should(MatchJSON(`[{"rows": []}, {"count": 0}]`))
	})

	It("Short result without error", func() {
		err := CheckResults(3, decodeResults(`[{"count": 1}]`))
		Expect(IsCommitError(err)).Should(BeTrue())
		Expect(err.(*Error).Kind).Should(Equal(KindCommit))
		Expect(err.(*Error).Index).Should(Equal(1))
	})

	It("Error in the middle", func() {
		err := CheckResults(3, decodeResults(
			`[{"count": 1}, {"error": "syntax error", "details": "bad column"}, null]`))
		Expect(IsSyntaxError(err)).Should(BeTrue())
		Expect(err.Error()).Should(Equal("bad column"))
		Expect(err.(*Error).Index).Should(Equal(1))
	})

	It("Commit error after all operations", func() {
		err := CheckResults(1, decodeResults(
			`[{"uuid": ["uuid", "u1"]}, {"error": "referential integrity violation", "details": "dangling"}]`))
		Expect(IsKind(err, KindReferentialIntegrityViolation)).Should(BeTrue())
		Expect(err.(*Error).Index).Should(Equal(1))
	})

	It("Decode rows", func() {
		r := decodeResults(`[{"rows": [{"name": "br0"}, {"name": "br1"}]}]`)
		var rows []struct {
			Name string `json:"name"`
		}
		Expect(r[0].DecodeRows(&rows)).Should(Succeed())
		Expect(rows).Should(HaveLen(2))
		Expect(rows[1].Name).Should(Equal("br1"))
	})

	table.DescribeTable("Error mapping",
		func(code string, kind ErrorKind, commit bool) {
			r := []OperationResult{{Error: code, Details: "d"}}
			err := CheckResults(1, r)
			Expect(IsKind(err, kind)).Should(BeTrue())
			Expect(IsCommitError(err)).Should(Equal(commit))
			Expect(err.(*Error).Code).Should(Equal(code))
			Expect(err.Error()).Should(Equal("d"))
		},
		table.Entry("referential integrity", "referential integrity violation", KindReferentialIntegrityViolation, true),
		table.Entry("constraint", "constraint violation", KindConstraintViolation, true),
		table.Entry("resources", "resources exhausted", KindResourcesExhausted, true),
		table.Entry("I/O", "I/O error", KindIOError, true),
		table.Entry("syntax", "syntax error", KindSyntaxError, false),
		table.Entry("unknown database", "unknown database", KindUnknownDatabase, false),
		table.Entry("unknown string", "timed out", KindCommit, true),
		table.Entry("empty details", "not supported", KindCommit, true),
	)
})
