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
package common

import (
	"fmt"

	"github.com/goccy/go-json"
)

/*
A Column is a single column in a row.
*/
type Column struct {
	// Column name
	Key string `json:"key"`
	// Column value, exactly as OVSDB sent it
	Value json.RawMessage `json:"value"`
	// The OVSDB type of the column: an atomic type name, "set" or "map"
	Type string `json:"type"`
}

/*
A Row is a single row in a table. Rows are modelled as a list and not as a
set of property / value pairs because each column carries its type.
*/
type Row []Column

/*
Get decodes the named column into d.
*/
func (r Row) Get(name string, d interface{}) error {
	for _, c := range r {
		if c.Key == name {
			return json.Unmarshal(c.Value, d)
		}
	}
	return fmt.Errorf("Column %s not found", name)
}

/*
A Table represents a snapshot of a table at a particular point in time.
*/
type Table struct {
	Name string `json:"name"`
	Rows []Row  `json:"rows"`
}

/*
A Snapshot represents the contents of an OVSDB database, read in a single
transaction.
*/
type Snapshot struct {
	// Database name
	Database string `json:"database"`
	// Schema version of the database
	Version string `json:"version"`
	// Timestamp is when the snapshot was taken, in RFC 3339 format
	Timestamp string `json:"timestamp"`
	// The tables in the snapshot
	Tables []Table `json:"tables"`
}
