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
	"fmt"

	"github.com/Fundacio-i2CAT/ovsdb-manager/ovsdbclient"
	log "github.com/sirupsen/logrus"
)

const (
	maxBridgeNameLength = 15

	openVSwitchTable = "Open_vSwitch"
	bridgeTable      = "Bridge"
	portTable        = "Port"
	interfaceTable   = "Interface"
	controllerTable  = "Controller"
)

/*
A Manager reads and changes the configuration of an Open vSwitch instance
through its OVSDB server.
*/
type Manager struct {
	client *ovsdbclient.Client
}

/*
Connect opens a client to the endpoint. It fails if the server does not
answer an echo within the options' call timeout.
*/
func Connect(endpoint ovsdbclient.Endpoint, opts ovsdbclient.Options) (*Manager, error) {
	client, err := ovsdbclient.NewClient(endpoint, opts)
	if err != nil {
		return nil, err
	}
	return New(client), nil
}

// New wraps an existing client.
func New(client *ovsdbclient.Client) *Manager {
	return &Manager{client: client}
}

func (m *Manager) Client() *ovsdbclient.Client {
	return m.client
}

func (m *Manager) Close() error {
	return m.client.Close()
}

func (m *Manager) ListDbs() ([]string, error) {
	return m.client.ListDbs()
}

func (m *Manager) GetSchema(db string) (*ovsdbclient.Schema, error) {
	return m.client.GetSchema(db)
}

// GetTableRaw returns every row of a table as generic JSON values.
func (m *Manager) GetTableRaw(table string) ([]map[string]interface{}, error) {
	var rows []map[string]interface{}
	err := m.selectRows(table, nil, &rows)
	return rows, err
}

func (m *Manager) selectRows(table string, where []ovsdbclient.Condition, out interface{}) error {
	results, err := m.client.Transact(ovsdbclient.Select(table, where))
	if err != nil {
		return err
	}
	return results[0].DecodeRows(out)
}

func notFound(format string, args ...interface{}) error {
	return ovsdbclient.NewError(ovsdbclient.KindResourceNotFound, fmt.Sprintf(format, args...))
}

func (m *Manager) GetOpenVSwitch() (*OpenVSwitch, error) {
	var rows []*OpenVSwitch
	if err := m.selectRows(openVSwitchTable, nil, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, notFound("The %s table is empty", openVSwitchTable)
	}
	rows[0].mgr = m
	return rows[0], nil
}

func (m *Manager) GetBridges() ([]*Bridge, error) {
	return m.findBridges(nil)
}

func (m *Manager) GetBridgeByName(name string) (*Bridge, error) {
	return m.getBridge(ovsdbclient.ByName(name), name)
}

func (m *Manager) GetBridgeByUUID(u ovsdbclient.UUID) (*Bridge, error) {
	return m.getBridge(ovsdbclient.ByUUID(u), string(u))
}

func (m *Manager) getBridge(cond ovsdbclient.Condition, id string) (*Bridge, error) {
	bridges, err := m.findBridges([]ovsdbclient.Condition{cond})
	if err != nil {
		return nil, err
	}
	if len(bridges) == 0 {
		return nil, notFound("Bridge %s not found", id)
	}
	return bridges[0], nil
}

func (m *Manager) findBridges(where []ovsdbclient.Condition) ([]*Bridge, error) {
	var bridges []*Bridge
	if err := m.selectRows(bridgeTable, where, &bridges); err != nil {
		return nil, err
	}
	for _, b := range bridges {
		b.mgr = m
	}
	return bridges, nil
}

/*
AddBridge creates a bridge with its local port and internal interface,
all named after the bridge, in one transaction. The name must have
between 1 and 15 characters.
*/
func (m *Manager) AddBridge(name string) (*Bridge, error) {
	if name == "" || len(name) > maxBridgeNameLength {
		return nil, ovsdbclient.NewError(ovsdbclient.KindSyntaxError,
			"Please provide a valid bridge name. It must be a non-empty string of up to 15 characters")
	}

	root, err := m.GetOpenVSwitch()
	if err != nil {
		return nil, err
	}

	bridgeID := ovsdbclient.NewTempName()
	interfaceID := ovsdbclient.NewTempName()
	portID := ovsdbclient.NewTempName()

	results, err := m.client.Transact(
		ovsdbclient.Insert(interfaceTable, ovsdbclient.Row{
			"name": name,
			"type": "internal",
		}, interfaceID),
		ovsdbclient.Insert(portTable, ovsdbclient.Row{
			"name":       name,
			"interfaces": ovsdbclient.NamedUUID(interfaceID),
		}, portID),
		ovsdbclient.Insert(bridgeTable, ovsdbclient.Row{
			"name":  name,
			"ports": ovsdbclient.NamedUUID(portID),
		}, bridgeID),
		ovsdbclient.Update(openVSwitchTable, ovsdbclient.Row{
			"bridges": uuidSet(root.Bridges, ovsdbclient.NamedUUID(bridgeID)),
		}, []ovsdbclient.Condition{ovsdbclient.ByUUID(root.UUID)}),
	)
	if err != nil {
		return nil, err
	}

	log.Debugf("Added bridge %s as %s", name, results[2].UUID)
	return m.GetBridgeByUUID(results[2].UUID)
}

/*
DelBridge removes a bridge from the switch. The server deletes its ports
and interfaces once nothing refers to them.
*/
func (m *Manager) DelBridge(b *Bridge) error {
	if b == nil {
		return ovsdbclient.NewError(ovsdbclient.KindQuery, "Please provide a bridge")
	}
	root, err := m.GetOpenVSwitch()
	if err != nil {
		return err
	}

	var others []ovsdbclient.UUID
	for _, u := range root.Bridges {
		if u != b.UUID {
			others = append(others, u)
		}
	}
	return m.setBridges(root, others)
}

// DelBridges removes every bridge.
func (m *Manager) DelBridges() error {
	root, err := m.GetOpenVSwitch()
	if err != nil {
		return err
	}
	return m.setBridges(root, nil)
}

func (m *Manager) setBridges(root *OpenVSwitch, bridges []ovsdbclient.UUID) error {
	_, err := m.client.UpdateTable(openVSwitchTable,
		ovsdbclient.Row{"bridges": uuidSet(bridges)},
		[]ovsdbclient.Condition{ovsdbclient.ByUUID(root.UUID)})
	return err
}

func (m *Manager) GetControllers() ([]*Controller, error) {
	var controllers []*Controller
	if err := m.selectRows(controllerTable, nil, &controllers); err != nil {
		return nil, err
	}
	for _, c := range controllers {
		c.mgr = m
	}
	return controllers, nil
}

func (m *Manager) GetController(u ovsdbclient.UUID) (*Controller, error) {
	var controllers []*Controller
	if err := m.selectRows(controllerTable, []ovsdbclient.Condition{ovsdbclient.ByUUID(u)}, &controllers); err != nil {
		return nil, err
	}
	if len(controllers) == 0 {
		return nil, notFound("Controller %s not found", u)
	}
	controllers[0].mgr = m
	return controllers[0], nil
}

func (m *Manager) GetInterface(u ovsdbclient.UUID) (*Interface, error) {
	var interfaces []*Interface
	if err := m.selectRows(interfaceTable, []ovsdbclient.Condition{ovsdbclient.ByUUID(u)}, &interfaces); err != nil {
		return nil, err
	}
	if len(interfaces) == 0 {
		return nil, notFound("Interface %s not found", u)
	}
	return interfaces[0], nil
}

func (m *Manager) GetPortByName(name string) (*Port, error) {
	return m.getPort(ovsdbclient.ByName(name), name)
}

func (m *Manager) GetPortByUUID(u ovsdbclient.UUID) (*Port, error) {
	return m.getPort(ovsdbclient.ByUUID(u), string(u))
}

func (m *Manager) getPort(cond ovsdbclient.Condition, id string) (*Port, error) {
	var ports []*Port
	if err := m.selectRows(portTable, []ovsdbclient.Condition{cond}, &ports); err != nil {
		return nil, err
	}
	if len(ports) == 0 {
		return nil, notFound("Port %s not found.", id)
	}
	ports[0].mgr = m
	return ports[0], nil
}

// SetExternalID sets one key of the switch's external_ids.
func (o *OpenVSwitch) SetExternalID(key, value string) error {
	_, err := o.mgr.client.UpdateTable(openVSwitchTable,
		ovsdbclient.Row{"external_ids": withKey(o.ExternalIDs, key, value)},
		[]ovsdbclient.Condition{ovsdbclient.ByUUID(o.UUID)})
	if err != nil {
		return err
	}
	fresh, err := o.mgr.GetOpenVSwitch()
	if err != nil {
		return err
	}
	*o = *fresh
	return nil
}
