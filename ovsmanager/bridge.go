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
package ovsmanager

import (
	"github.com/Fundacio-i2CAT/ovsdb-manager/ovsdbclient"
	log "github.com/sirupsen/logrus"
)

// FailMode is what a bridge does when it loses its controller.
type FailMode string

// Fail modes.
const (
	FailModeStandalone FailMode = "standalone"
	FailModeSecure     FailMode = "secure"
)

const controllerRole = "other"

func (b *Bridge) where() []ovsdbclient.Condition {
	return []ovsdbclient.Condition{ovsdbclient.ByUUID(b.UUID)}
}

// refresh reloads the record so that its fields show what the server has.
func (b *Bridge) refresh() error {
	fresh, err := b.mgr.GetBridgeByUUID(b.UUID)
	if err != nil {
		return err
	}
	*b = *fresh
	return nil
}

func (b *Bridge) update(row ovsdbclient.Row) error {
	if _, err := b.mgr.client.UpdateTable(bridgeTable, row, b.where()); err != nil {
		return err
	}
	return b.refresh()
}

func (b *Bridge) SetSTP(enabled bool) error {
	return b.update(ovsdbclient.Row{"stp_enable": enabled})
}

func (b *Bridge) SetRSTP(enabled bool) error {
	return b.update(ovsdbclient.Row{"rstp_enable": enabled})
}

func (b *Bridge) SetFailMode(mode FailMode) error {
	if mode != FailModeStandalone && mode != FailModeSecure {
		return ovsdbclient.NewError(ovsdbclient.KindQuery, "Invalid fail mode "+string(mode))
	}
	return b.update(ovsdbclient.Row{"fail_mode": string(mode)})
}

// SetProtocols sets the OpenFlow versions the bridge accepts.
func (b *Bridge) SetProtocols(protocols ...string) error {
	return b.update(ovsdbclient.Row{"protocols": stringSet(protocols)})
}

// SetExternalID sets one key of the bridge's external_ids.
func (b *Bridge) SetExternalID(key, value string) error {
	return b.update(ovsdbclient.Row{"external_ids": withKey(b.ExternalIDs, key, value)})
}

// Controller returns the first controller of the bridge.
func (b *Bridge) Controller() (*Controller, error) {
	if len(b.Controllers) == 0 {
		return nil, notFound("Bridge %s has no controller", b.Name)
	}
	return b.mgr.GetController(b.Controllers[0])
}

/*
SetController replaces the controllers of the bridge with a new one at
target, such as "tcp:10.0.0.1:6653".
*/
func (b *Bridge) SetController(target string) (*Controller, error) {
	controllerID := ovsdbclient.NewTempName()
	_, err := b.mgr.client.Transact(
		ovsdbclient.Insert(controllerTable, ovsdbclient.Row{
			"role":   controllerRole,
			"target": target,
		}, controllerID),
		ovsdbclient.Update(bridgeTable, ovsdbclient.Row{
			"controller": ovsdbclient.Set{ovsdbclient.NamedUUID(controllerID)},
		}, b.where()),
	)
	if err != nil {
		return nil, err
	}
	if err = b.refresh(); err != nil {
		return nil, err
	}
	log.Debugf("Bridge %s controller set to %s", b.Name, target)
	return b.Controller()
}

// Ports reloads the bridge and returns its ports.
func (b *Bridge) Ports() ([]*Port, error) {
	if err := b.refresh(); err != nil {
		return nil, err
	}
	ports := make([]*Port, 0, len(b.PortUUIDs))
	for _, u := range b.PortUUIDs {
		p, err := b.mgr.GetPortByUUID(u)
		if err != nil {
			return nil, err
		}
		ports = append(ports, p)
	}
	return ports, nil
}

// Port returns the port of the bridge with the given name.
func (b *Bridge) Port(name string) (*Port, error) {
	ports, err := b.Ports()
	if err != nil {
		return nil, err
	}
	for _, p := range ports {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, notFound("Port '%s' not found", name)
}

/*
AddPort attaches a new port and interface called name. When patchPeer is
not empty the interface is a patch port connected to the port of that
name on another bridge.
*/
func (b *Bridge) AddPort(name, patchPeer string) ([]ovsdbclient.OperationResult, error) {
	if name == "" {
		return nil, ovsdbclient.NewError(ovsdbclient.KindQuery, "Please provide a port name")
	}
	if err := b.refresh(); err != nil {
		return nil, err
	}

	portID := ovsdbclient.NewTempName()
	interfaceID := ovsdbclient.NewTempName()

	iface := ovsdbclient.Row{"name": name}
	if patchPeer != "" {
		iface["type"] = "patch"
		iface["options"] = ovsdbclient.Map{"peer": patchPeer}
	}

	results, err := b.mgr.client.Transact(
		ovsdbclient.Insert(interfaceTable, iface, interfaceID),
		ovsdbclient.Insert(portTable, ovsdbclient.Row{
			"name":       name,
			"interfaces": ovsdbclient.NamedUUID(interfaceID),
		}, portID),
		ovsdbclient.Update(bridgeTable, ovsdbclient.Row{
			"ports": uuidSet(b.PortUUIDs, ovsdbclient.NamedUUID(portID)),
		}, b.where()),
	)
	if err != nil {
		return nil, err
	}
	return results, b.refresh()
}

// DelPort detaches a port from the bridge.
func (b *Bridge) DelPort(p *Port) error {
	if p == nil {
		return ovsdbclient.NewError(ovsdbclient.KindQuery, "Please provide a port")
	}
	if err := b.refresh(); err != nil {
		return err
	}
	var keep []ovsdbclient.UUID
	for _, u := range b.PortUUIDs {
		if u != p.UUID {
			keep = append(keep, u)
		}
	}
	return b.update(ovsdbclient.Row{"ports": uuidSet(keep)})
}

// DelPorts detaches every port except the local one named after the bridge.
func (b *Bridge) DelPorts() error {
	ports, err := b.Ports()
	if err != nil {
		return err
	}
	var keep []ovsdbclient.UUID
	for _, p := range ports {
		if p.Name == b.Name {
			keep = append(keep, p.UUID)
		}
	}
	return b.update(ovsdbclient.Row{"ports": uuidSet(keep)})
}

// Interfaces returns the interfaces of the port.
func (p *Port) Interfaces() ([]*Interface, error) {
	interfaces := make([]*Interface, 0, len(p.InterfaceUUIDs))
	for _, u := range p.InterfaceUUIDs {
		i, err := p.mgr.GetInterface(u)
		if err != nil {
			return nil, err
		}
		interfaces = append(interfaces, i)
	}
	return interfaces, nil
}
