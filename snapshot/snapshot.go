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
package snapshot

import (
	"sort"
	"time"

	"github.com/Fundacio-i2CAT/ovsdb-manager/common"
	"github.com/Fundacio-i2CAT/ovsdb-manager/ovsdbclient"
	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

const uuidColumn = "_uuid"

/*
Take reads every table of the client's database in a single transaction
and returns the rows together with the schema that describes them.
*/
func Take(client *ovsdbclient.Client) (*common.Snapshot, *ovsdbclient.Schema, error) {
	schema, err := client.GetSchema(client.Database())
	if err != nil {
		return nil, nil, err
	}

	names := schema.TableNames()
	ops := make([]ovsdbclient.Operation, len(names))
	for i, name := range names {
		ops[i] = ovsdbclient.Select(name, nil)
	}

	results, err := client.Transact(ops...)
	if err != nil {
		return nil, nil, err
	}

	snap := &common.Snapshot{
		Database:  schema.Name,
		Version:   schema.Version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Tables:    make([]common.Table, len(names)),
	}

	for i, name := range names {
		table := common.Table{
			Name: name,
			Rows: make([]common.Row, 0, len(results[i].Rows)),
		}
		for _, raw := range results[i].Rows {
			row, err := makeRow(schema.Tables[name], raw)
			if err != nil {
				return nil, nil, err
			}
			table.Rows = append(table.Rows, row)
		}
		log.Debugf("Snapshot of %s has %d rows", name, len(table.Rows))
		snap.Tables[i] = table
	}
	return snap, schema, nil
}

// TakeJSON is Take without the schema.
func TakeJSON(client *ovsdbclient.Client) (*common.Snapshot, error) {
	snap, _, err := Take(client)
	return snap, err
}

func makeRow(ts ovsdbclient.TableSchema, raw json.RawMessage) (common.Row, error) {
	var cols map[string]json.RawMessage
	if err := json.Unmarshal(raw, &cols); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(cols))
	for k := range cols {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	row := make(common.Row, len(keys))
	for i, k := range keys {
		row[i] = common.Column{
			Key:   k,
			Value: cols[k],
			Type:  columnType(ts, k),
		}
	}
	return row, nil
}

// columnType names the type of a column as recorded in a snapshot.
func columnType(ts ovsdbclient.TableSchema, name string) string {
	if name == uuidColumn || name == "_version" {
		return "uuid"
	}
	col, ok := ts.Columns[name]
	if !ok {
		return ""
	}
	switch {
	case col.Type.IsMap():
		return "map"
	case col.Type.IsSet():
		return "set"
	default:
		return col.Type.Key.Type
	}
}
