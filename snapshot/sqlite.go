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
	"bytes"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Fundacio-i2CAT/ovsdb-manager/common"
	"github.com/Fundacio-i2CAT/ovsdb-manager/ovsdbclient"
	"github.com/goccy/go-json"
	sqlite "github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"
)

const (
	sqlInteger = "integer"
	sqlReal    = "real"
	sqlText    = "text"
)

var sqliteTimestampFormat = sqlite.SQLiteTimestampFormats[0]

/*
WriteSqlite takes a snapshot of the client's database and writes it to a
new SQLite file. Every OVSDB table becomes a table with the same name and
"_uuid" as its primary key. Atomic columns keep their type; sets and maps
are stored as their OVSDB JSON text.
*/
func WriteSqlite(client *ovsdbclient.Client, fileName string) error {
	snap, schema, err := Take(client)
	if err != nil {
		return err
	}
	return WriteSqliteSnapshot(snap, schema, fileName)
}

// WriteSqliteSnapshot writes an existing snapshot to a new SQLite file.
func WriteSqliteSnapshot(snap *common.Snapshot, schema *ovsdbclient.Schema, fileName string) error {
	tdb, err := createDatabase(fileName)
	if err != nil {
		return err
	}
	defer tdb.Close()

	if err = writeMetadata(tdb, snap, schema); err != nil {
		return err
	}

	for _, table := range snap.Tables {
		ts := schema.Tables[table.Name]
		err = makeSqliteTable(tdb, table.Name, ts)
		if err == nil {
			err = copyData(tdb, table, ts)
		}
		if err != nil {
			return err
		}
	}

	// Checkpoint the WAL so that the result is a single file, with no
	// additional .wal or .shm file.
	_, err = tdb.Exec("pragma wal_checkpoint(TRUNCATE)")
	if err != nil {
		return err
	}
	return tdb.Close()
}

func createDatabase(fileName string) (*sql.DB, error) {
	log.Debugf("Opening SQLite database in %s", fileName)
	tdb, err := sql.Open("sqlite3", fileName)
	if err == nil {
		err = tdb.Ping()
	}
	if err != nil {
		return nil, err
	}

	_, err = tdb.Exec("pragma journal_mode = WAL")
	if err != nil {
		tdb.Close()
		return nil, err
	}
	return tdb, err
}

func writeMetadata(tdb *sql.DB, snap *common.Snapshot, schema *ovsdbclient.Schema) error {
	_, err := tdb.Exec(`
		create table _ovsdb_metadata
		(key varchar primary key,
		 value varchar)
	`)
	if err == nil {
		_, err = tdb.Exec(`
			create table _ovsdb_tables
			(tableName varchar not null,
			 columnName varchar not null,
			 type varchar,
			 primaryKey bool)
		`)
	}

	if err == nil {
		ts := snap.Timestamp
		if t, perr := time.Parse(time.RFC3339, snap.Timestamp); perr == nil {
			ts = t.UTC().Format(sqliteTimestampFormat)
		}
		_, err = tdb.Exec(`
			insert into _ovsdb_metadata (key, value) values
			('database', ?), ('version', ?), ('cksum', ?), ('timestamp', ?)
		`, schema.Name, schema.Version, schema.Cksum, ts)
	}

	var st *sql.Stmt
	if err == nil {
		st, err = tdb.Prepare(`
			insert into _ovsdb_tables
			(tableName, columnName, type, primaryKey)
			values (?, ?, ?, ?)
		`)
	}
	if err != nil {
		return err
	}
	defer st.Close()

	for _, name := range schema.TableNames() {
		ts := schema.Tables[name]
		if _, err = st.Exec(name, uuidColumn, "uuid", true); err != nil {
			return err
		}
		for _, col := range ts.ColumnNames() {
			if _, err = st.Exec(name, col, columnType(ts, col), false); err != nil {
				return err
			}
		}
	}
	return nil
}

func makeSqliteTable(tdb *sql.DB, name string, ts ovsdbclient.TableSchema) error {
	sql := makeSqliteTableSQL(name, ts)
	log.Debugf("New SQLite table: %s", sql)
	_, err := tdb.Exec(sql)
	return err
}

// makeSqliteTableSQL turns an OVSDB table schema into a "create table"
// statement that works in SQLite.
func makeSqliteTableSQL(name string, ts ovsdbclient.TableSchema) string {
	s := &bytes.Buffer{}
	s.WriteString(fmt.Sprintf("create table %s (%s text primary key", quote(name), quote(uuidColumn)))
	for _, col := range ts.ColumnNames() {
		s.WriteString(fmt.Sprintf(", %s %s", quote(col), sqliteType(ts.Columns[col].Type)))
	}
	s.WriteString(")")
	return s.String()
}

func sqliteType(t ovsdbclient.ColumnType) string {
	if !t.IsAtomic() {
		return sqlText
	}
	switch t.Key.Type {
	case "integer", "boolean":
		return sqlInteger
	case "real":
		return sqlReal
	default:
		return sqlText
	}
}

func quote(name string) string {
	return `"` + name + `"`
}

func copyData(tdb *sql.DB, table common.Table, ts ovsdbclient.TableSchema) error {
	colNames := append([]string{uuidColumn}, ts.ColumnNames()...)
	sql := makeInsertSQL(table.Name, colNames)
	log.Debugf("SQLite insert: %s", sql)

	stmt, err := tdb.Prepare(sql)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range table.Rows {
		vals := make(map[string]json.RawMessage, len(row))
		for _, c := range row {
			vals[c.Key] = c.Value
		}

		cols := make([]interface{}, len(colNames))
		for i, cn := range colNames {
			raw, ok := vals[cn]
			if !ok {
				continue
			}
			var t ovsdbclient.ColumnType
			if cn == uuidColumn {
				t = ovsdbclient.ColumnType{Key: ovsdbclient.BaseType{Type: "uuid"}, Min: 1, Max: 1}
			} else {
				t = ts.Columns[cn].Type
			}
			if cols[i], err = sqliteValue(t, raw); err != nil {
				return err
			}
		}

		if _, err = stmt.Exec(cols...); err != nil {
			log.Errorf("SQLite insert error %s. SQL = %s", err, sql)
			return err
		}
	}
	return nil
}

// sqliteValue converts an OVSDB value to what goes in the SQLite column.
func sqliteValue(t ovsdbclient.ColumnType, raw json.RawMessage) (interface{}, error) {
	if !t.IsAtomic() {
		return string(raw), nil
	}

	atom, err := ovsdbclient.DecodeAtom(raw)
	if err != nil {
		return nil, err
	}
	switch v := atom.(type) {
	case ovsdbclient.UUID:
		return string(v), nil
	case bool:
		if v {
			return int64(1), nil
		}
		return int64(0), nil
	case float64:
		if t.Key.Type == "integer" {
			return int64(v), nil
		}
		return v, nil
	default:
		return v, nil
	}
}

func makeInsertSQL(table string, colNames []string) string {
	s := &bytes.Buffer{}
	s.WriteString(fmt.Sprintf("insert into %s (", quote(table)))

	for i, cn := range colNames {
		if i > 0 {
			s.WriteString(",")
		}
		s.WriteString(quote(cn))
	}

	s.WriteString(") values(")

	for i := range colNames {
		if i > 0 {
			s.WriteString(",")
		}
		s.WriteString("?")
	}
	s.WriteString(")")

	return s.String()
}

// SHA256Checksum returns the hex SHA-256 of a file.
func SHA256Checksum(srcFile string) (string, error) {
	in, err := os.Open(srcFile)
	if err != nil {
		return "", err
	}
	defer in.Close()
	hasher := sha256.New()
	if _, err = io.Copy(hasher, in); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
