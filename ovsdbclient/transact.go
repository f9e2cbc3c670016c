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

	"github.com/goccy/go-json"
)

/*
OperationResult is one element of a "transact" result. Which fields are
set depends on the operation: UUID for insert, Rows for select, Count for
update and delete, Error and Details on failure. The server sends null for
operations it did not run after an earlier one failed.
*/
type OperationResult struct {
	Count   int
	UUID    UUID
	Rows    []json.RawMessage
	Error   string
	Details string

	raw json.RawMessage
}

type operationResultWire struct {
	Count   *int              `json:"count,omitempty"`
	UUID    *UUID             `json:"uuid,omitempty"`
	Rows    []json.RawMessage `json:"rows,omitempty"`
	Error   string            `json:"error,omitempty"`
	Details string            `json:"details,omitempty"`
}

func (r *OperationResult) UnmarshalJSON(buf []byte) error {
	raw := make(json.RawMessage, len(buf))
	copy(raw, buf)
	if isNull(raw) {
		*r = OperationResult{raw: raw}
		return nil
	}

	var w operationResultWire
	if err := json.Unmarshal(buf, &w); err != nil {
		return err
	}
	res := OperationResult{
		Rows:    w.Rows,
		Error:   w.Error,
		Details: w.Details,
		raw:     raw,
	}
	if w.Count != nil {
		res.Count = *w.Count
	}
	if w.UUID != nil {
		res.UUID = *w.UUID
	}
	*r = res
	return nil
}

// MarshalJSON returns what the server sent, when there is something.
func (r OperationResult) MarshalJSON() ([]byte, error) {
	if len(r.raw) > 0 {
		return r.raw, nil
	}
	w := operationResultWire{
		Rows:    r.Rows,
		Error:   r.Error,
		Details: r.Details,
	}
	if r.UUID != "" {
		w.UUID = &r.UUID
	}
	if r.Count != 0 {
		w.Count = &r.Count
	}
	return json.Marshal(w)
}

// DecodeRows unmarshals the rows of a select result into v, usually a slice.
func (r OperationResult) DecodeRows(v interface{}) error {
	rows := r.Rows
	if rows == nil {
		rows = []json.RawMessage{}
	}
	buf, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	return json.Unmarshal(buf, v)
}

/*
CheckResults interprets the result of a transaction of n operations.
The first element that carries an error decides the outcome; its position
is kept in Error.Index, and positions at or past n are failures of the
commit itself. A result shorter than n with no error element means the
server stopped early and is reported with the generic commit kind.
*/
func CheckResults(n int, results []OperationResult) error {
	for i, r := range results {
		if r.Error != "" {
			e := NewServerError(r.Error, r.Details)
			e.Index = i
			return e
		}
	}
	if len(results) < n {
		e := NewServerError("", fmt.Sprintf("transaction aborted after %d of %d operations", len(results), n))
		e.Index = len(results)
		return e
	}
	return nil
}
