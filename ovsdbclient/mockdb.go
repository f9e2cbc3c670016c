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
package ovsdbclient

import (
	"fmt"
	"sort"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

const (
	mockOVSVersion = "2.13.8"
	uuidColumn     = "_uuid"
)

type mockError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func mockSyntaxError(format string, args ...interface{}) *mockError {
	return &mockError{Error: syntaxErrorString, Details: fmt.Sprintf(format, args...)}
}

type mockRow struct {
	seq  int64
	cols map[string]interface{}
}

type mockTable map[string]*mockRow

type mockDatabase struct {
	schema *Schema
	tables map[string]mockTable
	seq    int64
}

type mockOperation struct {
	Op       string                 `json:"op"`
	Table    string                 `json:"table"`
	Row      map[string]interface{} `json:"row"`
	Where    [][]interface{}        `json:"where"`
	Columns  []string               `json:"columns"`
	UUIDName string                 `json:"uuid-name"`
}

func newMockDatabase() *mockDatabase {
	schema := &Schema{}
	if err := json.Unmarshal([]byte(mockSchemaJSON), schema); err != nil {
		panic(err.Error())
	}

	db := &mockDatabase{
		schema: schema,
		tables: make(map[string]mockTable),
	}
	for name := range schema.Tables {
		db.tables[name] = make(mockTable)
	}

	root := db.defaults("Open_vSwitch")
	root["ovs_version"] = mockOVSVersion
	id := uuid.NewString()
	root[uuidColumn] = []interface{}{uuidTag, id}
	db.seq++
	db.tables["Open_vSwitch"][id] = &mockRow{seq: db.seq, cols: root}
	return db
}

func (d *mockDatabase) defaults(table string) map[string]interface{} {
	row := make(map[string]interface{})
	for name, col := range d.schema.Tables[table].Columns {
		row[name] = defaultValue(col.Type)
	}
	return row
}

func defaultValue(t ColumnType) interface{} {
	switch {
	case t.IsMap():
		return []interface{}{mapTag, []interface{}{}}
	case t.IsSet():
		return []interface{}{setTag, []interface{}{}}
	}
	switch t.Key.Type {
	case "integer", "real":
		return float64(0)
	case "boolean":
		return false
	case "uuid":
		return []interface{}{uuidTag, "00000000-0000-0000-0000-000000000000"}
	default:
		return ""
	}
}

// mockTxn works on a copy of the tables that replaces them on commit.
type mockTxn struct {
	db     *mockDatabase
	tables map[string]mockTable
	named  map[string]string
}

func (d *mockDatabase) begin() *mockTxn {
	tables := make(map[string]mockTable, len(d.tables))
	for name, t := range d.tables {
		nt := make(mockTable, len(t))
		for id, r := range t {
			cols := make(map[string]interface{}, len(r.cols))
			for k, v := range r.cols {
				cols[k] = v
			}
			nt[id] = &mockRow{seq: r.seq, cols: cols}
		}
		tables[name] = nt
	}
	return &mockTxn{
		db:     d,
		tables: tables,
		named:  make(map[string]string),
	}
}

/*
transact runs the operations and commits them if all succeed and the
result passes the integrity checks. A forced error fails the commit
after every operation ran.
*/
func (d *mockDatabase) transact(ops []json.RawMessage, forced *mockError) []interface{} {
	txn := d.begin()
	results := make([]interface{}, 0, len(ops)+1)

	for _, raw := range ops {
		var op mockOperation
		if err := json.Unmarshal(raw, &op); err != nil {
			return append(results, mockSyntaxError("invalid operation: %s", err))
		}
		res, merr := txn.execute(&op)
		if merr != nil {
			return append(results, merr)
		}
		results = append(results, res)
	}

	txn.collectGarbage()
	if merr := txn.checkReferences(); merr != nil {
		return append(results, merr)
	}
	if merr := txn.checkConstraints(); merr != nil {
		return append(results, merr)
	}
	if forced != nil {
		return append(results, forced)
	}

	d.tables = txn.tables
	return results
}

func (t *mockTxn) execute(op *mockOperation) (map[string]interface{}, *mockError) {
	ts, ok := t.db.schema.Tables[op.Table]
	if !ok {
		return nil, mockSyntaxError("No table named %s.", op.Table)
	}
	table := t.tables[op.Table]

	switch op.Op {
	case "insert":
		row := t.db.defaults(op.Table)
		if merr := t.assign(ts, op.Table, row, op.Row); merr != nil {
			return nil, merr
		}
		if op.UUIDName != "" {
			if _, dup := t.named[op.UUIDName]; dup {
				return nil, mockSyntaxError("This \"uuid-name\" appeared on an earlier \"insert\" operation.")
			}
		}
		id := uuid.NewString()
		row[uuidColumn] = []interface{}{uuidTag, id}
		t.db.seq++
		table[id] = &mockRow{seq: t.db.seq, cols: row}
		if op.UUIDName != "" {
			t.named[op.UUIDName] = id
		}
		return map[string]interface{}{"uuid": []interface{}{uuidTag, id}}, nil

	case "select":
		matched, merr := t.match(ts, op.Table, op.Where)
		if merr != nil {
			return nil, merr
		}
		rows := make([]interface{}, 0, len(matched))
		for _, r := range matched {
			if len(op.Columns) == 0 {
				rows = append(rows, r.cols)
				continue
			}
			proj := make(map[string]interface{}, len(op.Columns))
			for _, c := range op.Columns {
				v, ok := r.cols[c]
				if !ok {
					return nil, mockSyntaxError("%s is not a valid column name", c)
				}
				proj[c] = v
			}
			rows = append(rows, proj)
		}
		return map[string]interface{}{"rows": rows}, nil

	case "update":
		matched, merr := t.match(ts, op.Table, op.Where)
		if merr != nil {
			return nil, merr
		}
		if _, ok := op.Row[uuidColumn]; ok {
			return nil, mockSyntaxError("Cannot update read-only column %s.", uuidColumn)
		}
		for _, r := range matched {
			if merr = t.assign(ts, op.Table, r.cols, op.Row); merr != nil {
				return nil, merr
			}
		}
		return map[string]interface{}{"count": len(matched)}, nil

	case "delete":
		matched, merr := t.match(ts, op.Table, op.Where)
		if merr != nil {
			return nil, merr
		}
		for _, r := range matched {
			delete(table, rowUUID(r.cols))
		}
		return map[string]interface{}{"count": len(matched)}, nil

	default:
		return nil, mockSyntaxError("No operation %q.", op.Op)
	}
}

func (t *mockTxn) assign(ts TableSchema, table string, dst, src map[string]interface{}) *mockError {
	for k, v := range src {
		if _, ok := ts.Columns[k]; !ok {
			return mockSyntaxError("No column %s in table %s.", k, table)
		}
		resolved, merr := t.resolve(v)
		if merr != nil {
			return merr
		}
		dst[k] = resolved
	}
	return nil
}

// resolve replaces named-uuid references with the uuids they were given.
func (t *mockTxn) resolve(v interface{}) (interface{}, *mockError) {
	list, ok := v.([]interface{})
	if !ok {
		return v, nil
	}
	if len(list) == 2 {
		if tag, _ := list[0].(string); tag == namedUUIDTag {
			name, _ := list[1].(string)
			id, found := t.named[name]
			if !found {
				return nil, mockSyntaxError("named-uuid %s is not defined", name)
			}
			return []interface{}{uuidTag, id}, nil
		}
	}
	out := make([]interface{}, len(list))
	for i, e := range list {
		r, merr := t.resolve(e)
		if merr != nil {
			return nil, merr
		}
		out[i] = r
	}
	return out, nil
}

func (t *mockTxn) match(ts TableSchema, table string, where [][]interface{}) ([]*mockRow, *mockError) {
	var matched []*mockRow
	for _, r := range t.tables[table] {
		ok := true
		for _, cond := range where {
			if len(cond) != 3 {
				return nil, mockSyntaxError("invalid condition")
			}
			col, _ := cond[0].(string)
			fn, _ := cond[1].(string)
			if _, known := ts.Columns[col]; !known && col != uuidColumn {
				return nil, mockSyntaxError("No column %s in table %s.", col, table)
			}
			value, merr := t.resolve(cond[2])
			if merr != nil {
				return nil, merr
			}
			hit, merr := evaluate(fn, r.cols[col], value)
			if merr != nil {
				return nil, merr
			}
			if !hit {
				ok = false
				break
			}
		}
		if ok {
			matched = append(matched, r)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].seq < matched[j].seq })
	return matched, nil
}

func evaluate(fn string, actual, value interface{}) (bool, *mockError) {
	switch fn {
	case "==":
		return canonical(actual) == canonical(value), nil
	case "!=":
		return canonical(actual) != canonical(value), nil
	case "includes":
		return includes(actual, value), nil
	case "excludes":
		return !includes(actual, value), nil
	case "<", "<=", ">=", ">":
		a, aok := actual.(float64)
		b, bok := value.(float64)
		if !aok || !bok {
			return false, mockSyntaxError("%s requires numbers", fn)
		}
		switch fn {
		case "<":
			return a < b, nil
		case "<=":
			return a <= b, nil
		case ">=":
			return a >= b, nil
		default:
			return a > b, nil
		}
	default:
		return false, mockSyntaxError("unknown function %s", fn)
	}
}

// canonical encodes a value so that a one-element set equals its element.
func canonical(v interface{}) string {
	elems := elements(v)
	if len(elems) == 1 {
		v = elems[0]
	}
	buf, _ := json.Marshal(v)
	return string(buf)
}

func includes(actual, value interface{}) bool {
	have := make(map[string]bool)
	for _, e := range elements(actual) {
		have[canonical(e)] = true
	}
	for _, e := range elements(value) {
		if !have[canonical(e)] {
			return false
		}
	}
	return true
}

// elements returns the members of a set, the pairs of a map, or the atom.
func elements(v interface{}) []interface{} {
	list, ok := v.([]interface{})
	if !ok || len(list) != 2 {
		return []interface{}{v}
	}
	tag, _ := list[0].(string)
	if tag == setTag || tag == mapTag {
		members, _ := list[1].([]interface{})
		return members
	}
	return []interface{}{v}
}

func uuidsIn(v interface{}) []string {
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}
	if len(list) == 2 {
		if tag, _ := list[0].(string); tag == uuidTag {
			id, _ := list[1].(string)
			return []string{id}
		}
	}
	var ids []string
	for _, e := range list {
		ids = append(ids, uuidsIn(e)...)
	}
	return ids
}

func rowUUID(cols map[string]interface{}) string {
	ids := uuidsIn(cols[uuidColumn])
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

func refTables(c ColumnSchema) []string {
	var refs []string
	if c.Type.Key.RefTable != "" {
		refs = append(refs, c.Type.Key.RefTable)
	}
	if c.Type.Value != nil && c.Type.Value.RefTable != "" {
		refs = append(refs, c.Type.Value.RefTable)
	}
	return refs
}

// collectGarbage drops rows of non-root tables that no root row reaches.
func (t *mockTxn) collectGarbage() {
	reached := make(map[string]bool)
	var visit func(table, id string)
	visit = func(table, id string) {
		if reached[id] {
			return
		}
		r, ok := t.tables[table][id]
		if !ok {
			return
		}
		reached[id] = true
		for name, col := range t.db.schema.Tables[table].Columns {
			for _, ref := range refTables(col) {
				for _, child := range uuidsIn(r.cols[name]) {
					visit(ref, child)
				}
			}
		}
	}

	for name, ts := range t.db.schema.Tables {
		if ts.IsRoot {
			for id := range t.tables[name] {
				visit(name, id)
			}
		}
	}
	for name, ts := range t.db.schema.Tables {
		if ts.IsRoot {
			continue
		}
		for id := range t.tables[name] {
			if !reached[id] {
				delete(t.tables[name], id)
			}
		}
	}
}

func (t *mockTxn) checkReferences() *mockError {
	for name, ts := range t.db.schema.Tables {
		for id, r := range t.tables[name] {
			for colName, col := range ts.Columns {
				for _, ref := range refTables(col) {
					for _, child := range uuidsIn(r.cols[colName]) {
						if _, ok := t.tables[ref][child]; !ok {
							return &mockError{
								Error: referentialIntegrityString,
								Details: fmt.Sprintf("Row %s in table %s column %s refers to missing row %s in table %s.",
									id, name, colName, child, ref),
							}
						}
					}
				}
			}
		}
	}
	return nil
}

func (t *mockTxn) checkConstraints() *mockError {
	for name, ts := range t.db.schema.Tables {
		rows := t.tables[name]
		if ts.MaxRows > 0 && len(rows) > ts.MaxRows {
			return &mockError{
				Error:   constraintViolationString,
				Details: fmt.Sprintf("Transaction causes %s table to contain %d rows, greater than the schema-defined limit of %d row(s).", name, len(rows), ts.MaxRows),
			}
		}

		for _, r := range rows {
			for colName, col := range ts.Columns {
				if col.Type.IsAtomic() {
					continue
				}
				n := len(elements(r.cols[colName]))
				if n < col.Type.Min || (col.Type.Max != Unlimited && n > col.Type.Max) {
					return &mockError{
						Error:   constraintViolationString,
						Details: fmt.Sprintf("%d values in column %s of table %s is outside the allowed range", n, colName, name),
					}
				}
			}
		}

		for _, index := range ts.Indexes {
			seen := make(map[string]bool)
			for _, r := range rows {
				key := ""
				for _, c := range index {
					key += canonical(r.cols[c]) + "\x00"
				}
				if seen[key] {
					return &mockError{
						Error:   constraintViolationString,
						Details: fmt.Sprintf("Transaction causes multiple rows in %s table to have identical values for %v.", name, index),
					}
				}
				seen[key] = true
			}
		}
	}
	return nil
}

// snapshotRows returns copies of the committed rows of a table.
func (d *mockDatabase) snapshotRows(table string) []map[string]interface{} {
	var rows []*mockRow
	for _, r := range d.tables[table] {
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	out := make([]map[string]interface{}, len(rows))
	for i, r := range rows {
		cols := make(map[string]interface{}, len(r.cols))
		for k, v := range r.cols {
			cols[k] = v
		}
		out[i] = cols
	}
	return out
}
