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
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// OpKind names an operation inside a "transact" request.
type OpKind string

// Supported operations.
const (
	OpInsert OpKind = "insert"
	OpSelect OpKind = "select"
	OpUpdate OpKind = "update"
	OpDelete OpKind = "delete"
)

// Row maps column names to OVSDB values.
type Row map[string]interface{}

/*
An Operation is one element of the "transact" parameter list. Only the
fields that belong to Op are sent: Row and UUIDName for insert, Where and
Columns for select, Row and Where for update, Where for delete.
*/
type Operation struct {
	Op       OpKind
	Table    string
	Row      Row
	Where    []Condition
	Columns  []string
	UUIDName string
}

/*
Insert adds a row. When uuidName is not empty, later operations in the
same transaction may refer to the new row as NamedUUID(uuidName).
*/
func Insert(table string, row Row, uuidName string) Operation {
	return Operation{
		Op:       OpInsert,
		Table:    table,
		Row:      row,
		UUIDName: uuidName,
	}
}

// Select reads rows. An empty where clause matches every row.
func Select(table string, where []Condition, columns ...string) Operation {
	return Operation{
		Op:      OpSelect,
		Table:   table,
		Where:   where,
		Columns: columns,
	}
}

// Update sets the columns in row on every matching row.
func Update(table string, row Row, where []Condition) Operation {
	return Operation{
		Op:    OpUpdate,
		Table: table,
		Row:   row,
		Where: where,
	}
}

// Delete removes every matching row.
func Delete(table string, where []Condition) Operation {
	return Operation{
		Op:    OpDelete,
		Table: table,
		Where: where,
	}
}

// Validate checks that the operation can be sent.
func (o Operation) Validate() error {
	if o.Table == "" {
		return errors.Wrapf(ErrInvalidOperation, "%s without a table", o.Op)
	}
	switch o.Op {
	case OpInsert, OpUpdate:
		if o.Row == nil {
			return errors.Wrapf(ErrInvalidOperation, "%s on %s without a row", o.Op, o.Table)
		}
	case OpSelect, OpDelete:
	default:
		return errors.Wrapf(ErrInvalidOperation, "unknown operation %q", o.Op)
	}
	if o.UUIDName != "" && o.Op != OpInsert {
		return errors.Wrapf(ErrInvalidOperation, "uuid-name on %s", o.Op)
	}
	for _, c := range o.Where {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

type insertWire struct {
	Op       OpKind `json:"op"`
	Table    string `json:"table"`
	Row      Row    `json:"row"`
	UUIDName string `json:"uuid-name,omitempty"`
}

type selectWire struct {
	Op      OpKind      `json:"op"`
	Table   string      `json:"table"`
	Where   []Condition `json:"where"`
	Columns []string    `json:"columns,omitempty"`
}

type updateWire struct {
	Op    OpKind      `json:"op"`
	Table string      `json:"table"`
	Where []Condition `json:"where"`
	Row   Row         `json:"row"`
}

type deleteWire struct {
	Op    OpKind      `json:"op"`
	Table string      `json:"table"`
	Where []Condition `json:"where"`
}

type operationWire struct {
	Op       OpKind      `json:"op"`
	Table    string      `json:"table"`
	Row      Row         `json:"row"`
	Where    []Condition `json:"where"`
	Columns  []string    `json:"columns"`
	UUIDName string      `json:"uuid-name"`
}

func (o Operation) MarshalJSON() ([]byte, error) {
	where := o.Where
	if where == nil {
		where = []Condition{}
	}
	row := o.Row
	if row == nil {
		row = Row{}
	}

	switch o.Op {
	case OpInsert:
		return json.Marshal(insertWire{Op: o.Op, Table: o.Table, Row: row, UUIDName: o.UUIDName})
	case OpSelect:
		return json.Marshal(selectWire{Op: o.Op, Table: o.Table, Where: where, Columns: o.Columns})
	case OpUpdate:
		return json.Marshal(updateWire{Op: o.Op, Table: o.Table, Where: where, Row: row})
	case OpDelete:
		return json.Marshal(deleteWire{Op: o.Op, Table: o.Table, Where: where})
	default:
		return nil, errors.Wrapf(ErrInvalidOperation, "unknown operation %q", o.Op)
	}
}

/*
UnmarshalJSON reads an operation in wire form. Conditions are validated as
they are decoded.
*/
func (o *Operation) UnmarshalJSON(buf []byte) error {
	var w operationWire
	if err := json.Unmarshal(buf, &w); err != nil {
		return err
	}
	op := Operation{
		Op:       w.Op,
		Table:    w.Table,
		Row:      w.Row,
		Where:    w.Where,
		Columns:  w.Columns,
		UUIDName: w.UUIDName,
	}
	if err := op.Validate(); err != nil {
		return err
	}
	*o = op
	return nil
}
