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
	"github.com/goccy/go-json"
)

/*
OpenVSwitch is the single row of the Open_vSwitch table. Columns without
a field of their own are kept in Extra as raw JSON, here and in the other
records.
*/
type OpenVSwitch struct {
	UUID        ovsdbclient.UUID
	Bridges     []ovsdbclient.UUID
	OVSVersion  string
	ExternalIDs map[string]string
	OtherConfig map[string]string
	Extra       map[string]json.RawMessage

	mgr *Manager
}

func (o *OpenVSwitch) UnmarshalJSON(buf []byte) error {
	d := newRowDecoder(buf)
	*o = OpenVSwitch{
		UUID:        d.uuid("_uuid"),
		Bridges:     d.uuids("bridges"),
		OVSVersion:  d.optionalString("ovs_version"),
		ExternalIDs: d.stringMap("external_ids"),
		OtherConfig: d.stringMap("other_config"),
		Extra:       d.extra(),
	}
	return d.err
}

// Bridge is a row of the Bridge table.
type Bridge struct {
	UUID        ovsdbclient.UUID
	Name        string
	PortUUIDs   []ovsdbclient.UUID
	Controllers []ovsdbclient.UUID
	STPEnable   bool
	RSTPEnable  bool
	FailMode    FailMode
	Protocols   []string
	ExternalIDs map[string]string
	OtherConfig map[string]string
	Extra       map[string]json.RawMessage

	mgr *Manager
}

func (b *Bridge) UnmarshalJSON(buf []byte) error {
	d := newRowDecoder(buf)
	*b = Bridge{
		UUID:        d.uuid("_uuid"),
		Name:        d.str("name"),
		PortUUIDs:   d.uuids("ports"),
		Controllers: d.uuids("controller"),
		STPEnable:   d.boolean("stp_enable"),
		RSTPEnable:  d.boolean("rstp_enable"),
		FailMode:    FailMode(d.optionalString("fail_mode")),
		Protocols:   d.strings("protocols"),
		ExternalIDs: d.stringMap("external_ids"),
		OtherConfig: d.stringMap("other_config"),
		Extra:       d.extra(),
	}
	return d.err
}

// Port is a row of the Port table.
type Port struct {
	UUID           ovsdbclient.UUID
	Name           string
	InterfaceUUIDs []ovsdbclient.UUID
	Tag            *int
	ExternalIDs    map[string]string
	OtherConfig    map[string]string
	Extra          map[string]json.RawMessage

	mgr *Manager
}

func (p *Port) UnmarshalJSON(buf []byte) error {
	d := newRowDecoder(buf)
	*p = Port{
		UUID:           d.uuid("_uuid"),
		Name:           d.str("name"),
		InterfaceUUIDs: d.uuids("interfaces"),
		Tag:            d.optionalInt("tag"),
		ExternalIDs:    d.stringMap("external_ids"),
		OtherConfig:    d.stringMap("other_config"),
		Extra:          d.extra(),
	}
	return d.err
}

// Interface is a row of the Interface table.
type Interface struct {
	UUID        ovsdbclient.UUID
	Name        string
	Type        string
	Options     map[string]string
	OFPort      *int
	ExternalIDs map[string]string
	Extra       map[string]json.RawMessage
}

func (i *Interface) UnmarshalJSON(buf []byte) error {
	d := newRowDecoder(buf)
	*i = Interface{
		UUID:        d.uuid("_uuid"),
		Name:        d.str("name"),
		Type:        d.str("type"),
		Options:     d.stringMap("options"),
		OFPort:      d.optionalInt("ofport"),
		ExternalIDs: d.stringMap("external_ids"),
		Extra:       d.extra(),
	}
	return d.err
}

// Controller is a row of the Controller table.
type Controller struct {
	UUID           ovsdbclient.UUID
	Target         string
	Role           string
	ConnectionMode ConnectionMode
	IsConnected    bool
	ExternalIDs    map[string]string
	Extra          map[string]json.RawMessage

	mgr *Manager
}

func (c *Controller) UnmarshalJSON(buf []byte) error {
	d := newRowDecoder(buf)
	*c = Controller{
		UUID:           d.uuid("_uuid"),
		Target:         d.str("target"),
		Role:           d.optionalString("role"),
		ConnectionMode: ConnectionMode(d.optionalString("connection_mode")),
		IsConnected:    d.boolean("is_connected"),
		ExternalIDs:    d.stringMap("external_ids"),
		Extra:          d.extra(),
	}
	return d.err
}
