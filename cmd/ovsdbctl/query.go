package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Fundacio-i2CAT/ovsdb-manager/ovsmanager"
	"github.com/goccy/go-json"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var dumpColumns []string

var listDbsCmd = &cobra.Command{
	Use:   "list-dbs",
	Short: "List the databases on the server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(func(m *ovsmanager.Manager) error {
			dbs, err := m.ListDbs()
			if err != nil {
				return err
			}
			items := make([]pterm.BulletListItem, len(dbs))
			for i, db := range dbs {
				items[i] = pterm.BulletListItem{Level: 0, Text: db}
			}
			return pterm.DefaultBulletList.WithItems(items).Render()
		})
	},
}

var schemaCmd = &cobra.Command{
	Use:   "schema [db]",
	Short: "Show the tables of a database schema",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(func(m *ovsmanager.Manager) error {
			db := m.Client().Database()
			if len(args) > 0 {
				db = args[0]
			}
			schema, err := m.GetSchema(db)
			if err != nil {
				return err
			}

			pterm.DefaultSection.Printf("%s %s", schema.Name, schema.Version)
			data := pterm.TableData{{"Table", "Columns", "Root", "Max rows"}}
			for _, name := range schema.TableNames() {
				ts := schema.Tables[name]
				maxRows := "-"
				if ts.MaxRows > 0 {
					maxRows = fmt.Sprint(ts.MaxRows)
				}
				data = append(data, []string{
					name,
					strings.Join(ts.ColumnNames(), ", "),
					fmt.Sprint(ts.IsRoot),
					maxRows,
				})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
		})
	},
}

var dumpCmd = &cobra.Command{
	Use:   "dump <table>",
	Short: "Print the rows of a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(func(m *ovsmanager.Manager) error {
			rows, err := m.Client().SelectFromTable(args[0], nil, dumpColumns...)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				pterm.Info.Printf("%s is empty\n", args[0])
				return nil
			}
			data, err := rowTable(rows)
			if err != nil {
				return err
			}
			return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
		})
	},
}

// rowTable lays out rows with one column per OVSDB column, sorted by name.
func rowTable(rows []json.RawMessage) (pterm.TableData, error) {
	decoded := make([]map[string]json.RawMessage, len(rows))
	names := map[string]bool{}
	for i, raw := range rows {
		if err := json.Unmarshal(raw, &decoded[i]); err != nil {
			return nil, err
		}
		for k := range decoded[i] {
			names[k] = true
		}
	}

	header := make([]string, 0, len(names))
	for k := range names {
		header = append(header, k)
	}
	sort.Strings(header)

	data := pterm.TableData{header}
	for _, row := range decoded {
		line := make([]string, len(header))
		for i, k := range header {
			line[i] = string(row[k])
		}
		data = append(data, line)
	}
	return data, nil
}

func init() {
	dumpCmd.Flags().StringSliceVarP(&dumpColumns, "columns", "c", nil, "Columns to print")
	rootCmd.AddCommand(listDbsCmd, schemaCmd, dumpCmd)
}
