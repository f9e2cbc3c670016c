package ovsmanager

import "github.com/Fundacio-i2CAT/ovsdb-manager/ovsdbclient"

// ConnectionMode says whether controller traffic goes through the bridge.
type ConnectionMode string

const (
	ConnectionModeOutOfBand ConnectionMode = "out-of-band"
	ConnectionModeInBand    ConnectionMode = "in-band"
)

func (c *Controller) SetConnectionMode(mode ConnectionMode) error {
	if mode != ConnectionModeOutOfBand && mode != ConnectionModeInBand {
		return ovsdbclient.NewError(ovsdbclient.KindQuery, "Invalid connection mode "+string(mode))
	}
	_, err := c.mgr.client.UpdateTable(controllerTable,
		ovsdbclient.Row{"connection_mode": string(mode)},
		[]ovsdbclient.Condition{ovsdbclient.ByUUID(c.UUID)})
	if err != nil {
		return err
	}
	fresh, err := c.mgr.GetController(c.UUID)
	if err != nil {
		return err
	}
	*c = *fresh
	return nil
}
