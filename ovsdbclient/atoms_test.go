package ovsdbclient

import (
	"github.com/goccy/go-json"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Atoms", func() {
	It("Set with many elements", func() {
		var s Set
		err := json.Unmarshal([]byte(`["set", [["uuid", "a"], ["uuid", "b"]]]`), &s)
		Expect(err).Should(Succeed())
		Expect(s.UUIDs()).Should(Equal([]UUID{"a", "b"}))
	})

	It("Set with one bare element", func() {
		var s Set
		err := json.Unmarshal([]byte(`["uuid", "a"]`), &s)
		Expect(err).Should(Succeed())
		Expect(s.UUIDs()).Should(Equal([]UUID{"a"}))

		err = json.Unmarshal([]byte(`"secure"`), &s)
		Expect(err).Should(Succeed())
		Expect(s.Strings()).Should(Equal([]string{"secure"}))
	})

	It("Empty set", func() {
		buf, err := json.Marshal(Set(nil))
		Expect(err).Should(Succeed())
		Expect(buf).Should(MatchJSON(`["set", []]`))
	})

	It("Set of named uuids", func() {
		buf, err := json.Marshal(Set{NamedUUID("bridge")})
		Expect(err).Should(Succeed())
		Expect(buf).Should(MatchJSON(`["set", [["named-uuid", "bridge"]]]`))
	})

	It("Map", func() {
		buf, err := json.Marshal(Map{"peer": "p2", "a": "b"})
		Expect(err).Should(Succeed())
		Expect(string(buf)).Should(Equal(`["map",[["a","b"],["peer","p2"]]]`))

		var m Map
		err = json.Unmarshal(buf, &m)
		Expect(err).Should(Succeed())
		Expect(m.StringMap()).Should(Equal(map[string]string{"a": "b", "peer": "p2"}))
	})

	It("Bad UUID", func() {
		var u UUID
		Expect(json.Unmarshal([]byte(`["named-uuid", "x"]`), &u)).ShouldNot(Succeed())
	})
})
