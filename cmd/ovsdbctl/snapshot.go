package main

import (
	"os"

	"github.com/Fundacio-i2CAT/ovsdb-manager/ovsmanager"
	"github.com/Fundacio-i2CAT/ovsdb-manager/snapshot"
	"github.com/pkg/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var snapshotFormat string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <file>",
	Short: "Write every table of the database to a file",
	Long: `snapshot reads every table in one transaction and writes it as JSON or
as a SQLite database with one table per OVSDB table.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fileName := args[0]
		if snapshotFormat != "json" && snapshotFormat != "sqlite" {
			return errors.Errorf("Invalid format %q: use json or sqlite", snapshotFormat)
		}

		return withManager(func(m *ovsmanager.Manager) error {
			spinner, _ := pterm.DefaultSpinner.Start("Taking snapshot")

			var err error
			if snapshotFormat == "sqlite" {
				os.Remove(fileName)
				err = snapshot.WriteSqlite(m.Client(), fileName)
			} else {
				err = writeJSONSnapshot(m, fileName)
			}
			if err != nil {
				spinner.Fail("Snapshot failed")
				return err
			}

			sum, err := snapshot.SHA256Checksum(fileName)
			if err != nil {
				spinner.Fail("Snapshot failed")
				return err
			}
			spinner.Success("Wrote " + fileName)
			pterm.Info.Printf("SHA-256 %s\n", sum)
			return nil
		})
	},
}

func writeJSONSnapshot(m *ovsmanager.Manager, fileName string) error {
	snap, err := snapshot.TakeJSON(m.Client())
	if err != nil {
		return err
	}
	return os.WriteFile(fileName, snap.Marshal(), 0644)
}

func init() {
	snapshotCmd.Flags().StringVarP(&snapshotFormat, "format", "f", "sqlite", "json or sqlite")
	rootCmd.AddCommand(snapshotCmd)
}
