package ovsmanager

import (
	"github.com/Fundacio-i2CAT/ovsdb-manager/ovsdbclient"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Bridge", func() {
	var br *Bridge

	BeforeEach(func() {
		var err error
		br, err = mgr.AddBridge("br0")
		Expect(err).Should(Succeed())
	})

	It("Spanning tree", func() {
		Expect(br.SetSTP(true)).Should(Succeed())
		Expect(br.STPEnable).Should(BeTrue())
		Expect(br.SetRSTP(true)).Should(Succeed())
		Expect(br.RSTPEnable).Should(BeTrue())
		Expect(br.SetSTP(false)).Should(Succeed())
		Expect(br.STPEnable).Should(BeFalse())
	})

	It("Fail mode", func() {
		Expect(br.FailMode).Should(BeEmpty())
		Expect(br.SetFailMode(FailModeSecure)).Should(Succeed())
		Expect(br.FailMode).Should(Equal(FailModeSecure))
		err := br.SetFailMode("sometimes")
		Expect(ovsdbclient.IsKind(err, ovsdbclient.KindQuery)).Should(BeTrue())
	})

	It("Protocols", func() {
		Expect(br.SetProtocols("OpenFlow10", "OpenFlow13")).Should(Succeed())
		Expect(br.Protocols).Should(ConsistOf("OpenFlow10", "OpenFlow13"))
	})

	It("External ids", func() {
		Expect(br.SetExternalID("bridge-id", "br0")).Should(Succeed())
		Expect(br.ExternalIDs).Should(HaveKeyWithValue("bridge-id", "br0"))
	})

	It("Controller", func() {
		_, err := br.Controller()
		Expect(ovsdbclient.IsNotFound(err)).Should(BeTrue())

		c, err := br.SetController("tcp:10.0.0.1:6653")
		Expect(err).Should(Succeed())
		Expect(c.Target).Should(Equal("tcp:10.0.0.1:6653"))
		Expect(c.Role).Should(Equal("other"))
		Expect(br.Controllers).Should(ConsistOf(c.UUID))

		Expect(c.SetConnectionMode(ConnectionModeOutOfBand)).Should(Succeed())
		Expect(c.ConnectionMode).Should(Equal(ConnectionModeOutOfBand))

		controllers, err := mgr.GetControllers()
		Expect(err).Should(Succeed())
		Expect(controllers).Should(HaveLen(1))

		c2, err := br.SetController("tcp:10.0.0.2:6653")
		Expect(err).Should(Succeed())
		Expect(c2.UUID).ShouldNot(Equal(c.UUID))
		controllers, err = mgr.GetControllers()
		Expect(err).Should(Succeed())
		Expect(controllers).Should(HaveLen(1))
	})

	It("Ports", func() {
		results, err := br.AddPort("eth1", "")
		Expect(err).Should(Succeed())
		Expect(results).Should(HaveLen(3))
		Expect(br.PortUUIDs).Should(HaveLen(2))

		p, err := br.Port("eth1")
		Expect(err).Should(Succeed())
		Expect(p.UUID).Should(Equal(results[1].UUID))
		byName, err := mgr.GetPortByName("eth1")
		Expect(err).Should(Succeed())
		Expect(byName.UUID).Should(Equal(p.UUID))

		_, err = br.Port("eth9")
		Expect(ovsdbclient.IsNotFound(err)).Should(BeTrue())

		Expect(br.DelPort(p)).Should(Succeed())
		Expect(br.PortUUIDs).Should(HaveLen(1))
		Expect(ovsdbclient.IsKind(br.DelPort(nil), ovsdbclient.KindQuery)).Should(BeTrue())
	})

	It("Patch ports", func() {
		br1, err := mgr.AddBridge("br1")
		Expect(err).Should(Succeed())

		_, err = br.AddPort("patch-br1", "patch-br0")
		Expect(err).Should(Succeed())
		_, err = br1.AddPort("patch-br0", "patch-br1")
		Expect(err).Should(Succeed())

		p, err := br.Port("patch-br1")
		Expect(err).Should(Succeed())
		ifaces, err := p.Interfaces()
		Expect(err).Should(Succeed())
		Expect(ifaces).Should(HaveLen(1))
		Expect(ifaces[0].Type).Should(Equal("patch"))
		Expect(ifaces[0].Options).Should(Equal(map[string]string{"peer": "patch-br0"}))
	})

	It("Delete all ports", func() {
		for _, name := range []string{"eth1", "eth2", "eth3"} {
			_, err := br.AddPort(name, "")
			Expect(err).Should(Succeed())
		}
		Expect(br.PortUUIDs).Should(HaveLen(4))

		Expect(br.DelPorts()).Should(Succeed())
		ports, err := br.Ports()
		Expect(err).Should(Succeed())
		Expect(ports).Should(HaveLen(1))
		Expect(ports[0].Name).Should(Equal("br0"))
	})
})
