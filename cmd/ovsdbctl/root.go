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
	"os"
	"time"

	"github.com/Fundacio-i2CAT/ovsdb-manager/ovsdbclient"
	"github.com/Fundacio-i2CAT/ovsdb-manager/ovsmanager"
	"github.com/pterm/pterm"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "ovsdbctl"

var rootCmd = &cobra.Command{
	Use:   "ovsdbctl",
	Short: "Manage an Open vSwitch database",
	Long: `ovsdbctl talks to an OVSDB server over JSON-RPC. It lists databases and
schemas, dumps tables, adds and removes bridges and ports, and writes
snapshots of the whole database.

The server is given as tcp:HOST[:PORT] or unix:PATH, with --db or the
OVSDBCTL_DB environment variable.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if viper.GetBool("debug") {
			logrus.SetLevel(logrus.DebugLevel)
		}
	},
}

// Execute runs the command line and exits with 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("db", "", "OVSDB server (default tcp:127.0.0.1:6640)")
	pf.StringP("database", "d", ovsdbclient.DefaultDatabase, "Database name")
	pf.Duration("timeout", 5*time.Second, "Timeout to connect and for each call")
	pf.BoolP("debug", "D", false, "Turn on debugging")

	viper.BindPFlag("db", pf.Lookup("db"))
	viper.BindPFlag("database", pf.Lookup("database"))
	viper.BindPFlag("timeout", pf.Lookup("timeout"))
	viper.BindPFlag("debug", pf.Lookup("debug"))

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()
}

func connect() (*ovsmanager.Manager, error) {
	ep, err := ovsdbclient.ParseEndpoint(viper.GetString("db"), viper.GetString("database"))
	if err != nil {
		return nil, err
	}
	timeout := viper.GetDuration("timeout")
	return ovsmanager.Connect(ep, ovsdbclient.Options{
		ConnectTimeout: timeout,
		CallTimeout:    timeout,
	})
}

/*
withManager connects, runs fn and closes the connection, so that every
command is one short session.
*/
func withManager(fn func(m *ovsmanager.Manager) error) error {
	m, err := connect()
	if err != nil {
		return err
	}
	defer m.Close()
	return fn(m)
}
