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
	"database/sql"
	"os"
	"path"

	"github.com/Fundacio-i2CAT/ovsdb-manager/ovsdbclient"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("SQLite tests", func() {
	var fileName string
	var db *sql.DB

	BeforeEach(func() {
		fileName = path.Join(tempDir, "snap.sqlite")
		os.Remove(fileName)
		Expect(WriteSqlite(mgr.Client(), fileName)).Should(Succeed())

		var err error
		db, err = sql.Open("sqlite3", fileName)
		Expect(err).Should(Succeed())
	})

	AfterEach(func() {
		db.Close()
	})

	It("Single file", func() {
		_, err := os.Stat(fileName + "-wal")
		Expect(os.IsNotExist(err)).Should(BeTrue())
	})

	It("Metadata", func() {
		var dbName string
		err := db.QueryRow(
			"select value from _ovsdb_metadata where key = 'database'").Scan(&dbName)
		Expect(err).Should(Succeed())
		Expect(dbName).Should(Equal("Open_vSwitch"))

		var ts string
		err = db.QueryRow(
			"select value from _ovsdb_metadata where key = 'timestamp'").Scan(&ts)
		Expect(err).Should(Succeed())
		Expect(ts).ShouldNot(BeEmpty())

		var colType string
		err = db.QueryRow(`
			select type from _ovsdb_tables
			where tableName = 'Bridge' and columnName = 'external_ids'
		`).Scan(&colType)
		Expect(err).Should(Succeed())
		Expect(colType).Should(Equal("map"))

		var primary bool
		err = db.QueryRow(`
			select primaryKey from _ovsdb_tables
			where tableName = 'Port' and columnName = '_uuid'
		`).Scan(&primary)
		Expect(err).Should(Succeed())
		Expect(primary).Should(BeTrue())
	})

	It("Bridge table", func() {
		var id, name string
		var stp int
		var ids string
		err := db.QueryRow(
			`select "_uuid", "name", "stp_enable", "external_ids" from "Bridge"`).
			Scan(&id, &name, &stp, &ids)
		Expect(err).Should(Succeed())
		Expect(id).ShouldNot(BeEmpty())
		Expect(name).Should(Equal("br0"))
		Expect(stp).Should(Equal(1))

		var m ovsdbclient.Map
		Expect(m.UnmarshalJSON([]byte(ids))).Should(Succeed())
		Expect(m.StringMap()).Should(HaveKeyWithValue("owner", "snapshot"))
	})

	It("Row counts", func() {
		for table, count := range map[string]int{
			"Open_vSwitch": 1,
			"Bridge":       1,
			"Port":         1,
			"Interface":    1,
			"Controller":   0,
		} {
			var n int
			err := db.QueryRow(`select count(*) from "` + table + `"`).Scan(&n)
			Expect(err).Should(Succeed())
			Expect(n).Should(Equal(count), table)
		}
	})

	It("Checksum", func() {
		sum, err := SHA256Checksum(fileName)
		Expect(err).Should(Succeed())
		Expect(sum).Should(HaveLen(64))

		again, err := SHA256Checksum(fileName)
		Expect(err).Should(Succeed())
		Expect(again).Should(Equal(sum))
	})

	It("Table SQL", func() {
		ts := ovsdbclient.TableSchema{
			Columns: map[string]ovsdbclient.ColumnSchema{
				"name": {Type: ovsdbclient.ColumnType{Key: ovsdbclient.BaseType{Type: "string"}, Min: 1, Max: 1}},
				"tag":  {Type: ovsdbclient.ColumnType{Key: ovsdbclient.BaseType{Type: "integer"}, Min: 0, Max: 1}},
				"cfg":  {Type: ovsdbclient.ColumnType{Key: ovsdbclient.BaseType{Type: "integer"}, Min: 1, Max: 1}},
			},
		}
		Expect(makeSqliteTableSQL("Port", ts)).Should(Equal(
			`create table "Port" ("_uuid" text primary key, "cfg" integer, "name" text, "tag" text)`))
		Expect(makeInsertSQL("Port", []string{"_uuid", "name"})).Should(Equal(
			`insert into "Port" ("_uuid","name") values(?,?)`))
	})
})
