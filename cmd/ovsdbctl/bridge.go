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
package main

import (
	"github.com/Fundacio-i2CAT/ovsdb-manager/ovsmanager"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var patchPeer string

var addBridgeCmd = &cobra.Command{
	Use:   "add-bridge <name>",
	Short: "Create a bridge with its local port and interface",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(func(m *ovsmanager.Manager) error {
			br, err := m.AddBridge(args[0])
			if err != nil {
				return err
			}
			pterm.Success.Printf("Added bridge %s (%s)\n", br.Name, br.UUID)
			return nil
		})
	},
}

var delBridgeCmd = &cobra.Command{
	Use:   "del-bridge <name>",
	Short: "Delete a bridge and everything on it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(func(m *ovsmanager.Manager) error {
			br, err := m.GetBridgeByName(args[0])
			if err != nil {
				return err
			}
			if err = m.DelBridge(br); err != nil {
				return err
			}
			pterm.Success.Printf("Deleted bridge %s\n", args[0])
			return nil
		})
	},
}

var addPortCmd = &cobra.Command{
	Use:   "add-port <bridge> <port>",
	Short: "Add a port to a bridge",
	Long: `add-port adds a port with one interface of the same name. With --peer
the interface is a patch interface connected to the named peer.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(func(m *ovsmanager.Manager) error {
			br, err := m.GetBridgeByName(args[0])
			if err != nil {
				return err
			}
			if _, err = br.AddPort(args[1], patchPeer); err != nil {
				return err
			}
			pterm.Success.Printf("Added port %s to %s\n", args[1], args[0])
			return nil
		})
	},
}

var delPortCmd = &cobra.Command{
	Use:   "del-port <bridge> <port>",
	Short: "Remove a port from a bridge",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(func(m *ovsmanager.Manager) error {
			br, err := m.GetBridgeByName(args[0])
			if err != nil {
				return err
			}
			p, err := br.Port(args[1])
			if err != nil {
				return err
			}
			if err = br.DelPort(p); err != nil {
				return err
			}
			pterm.Success.Printf("Deleted port %s from %s\n", args[1], args[0])
			return nil
		})
	},
}

var setControllerCmd = &cobra.Command{
	Use:   "set-controller <bridge> <target>",
	Short: "Point a bridge at an OpenFlow controller",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(func(m *ovsmanager.Manager) error {
			br, err := m.GetBridgeByName(args[0])
			if err != nil {
				return err
			}
			c, err := br.SetController(args[1])
			if err != nil {
				return err
			}
			pterm.Success.Printf("Bridge %s uses controller %s\n", args[0], c.Target)
			return nil
		})
	},
}

var listBridgesCmd = &cobra.Command{
	Use:   "list-br",
	Short: "List bridges and their ports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(func(m *ovsmanager.Manager) error {
			bridges, err := m.GetBridges()
			if err != nil {
				return err
			}
			var items []pterm.BulletListItem
			for _, br := range bridges {
				items = append(items, pterm.BulletListItem{Level: 0, Text: br.Name})
				ports, err := br.Ports()
				if err != nil {
					return err
				}
				for _, p := range ports {
					items = append(items, pterm.BulletListItem{Level: 1, Text: p.Name})
				}
			}
			if len(items) == 0 {
				pterm.Info.Println("No bridges")
				return nil
			}
			return pterm.DefaultBulletList.WithItems(items).Render()
		})
	},
}

func init() {
	addPortCmd.Flags().StringVar(&patchPeer, "peer", "", "Make a patch port connected to this peer")
	rootCmd.AddCommand(addBridgeCmd, delBridgeCmd, addPortCmd, delPortCmd, setControllerCmd, listBridgesCmd)
}
