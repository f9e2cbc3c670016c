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
	log "github.com/sirupsen/logrus"
)

/*
A Client runs requests against one database on one connection.
*/
type Client struct {
	conn     *Connection
	database string
}

/*
NewClient connects to the endpoint and checks that the server answers an
echo before returning.
*/
func NewClient(endpoint Endpoint, opts Options) (*Client, error) {
	conn, err := Connect(endpoint, opts)
	if err != nil {
		return nil, err
	}

	database := endpoint.Database
	if database == "" {
		database = DefaultDatabase
	}
	c := &Client{
		conn:     conn,
		database: database,
	}

	if _, err = c.Echo(); err != nil {
		conn.Close()
		return nil, err
	}
	log.Debugf("Connected to %s database %s", endpoint, database)
	return c, nil
}

// Database returns the database used by Transact.
func (c *Client) Database() string {
	return c.database
}

func (c *Client) Endpoint() Endpoint {
	return c.conn.Endpoint()
}

// Call sends any request on the client's connection.
func (c *Client) Call(req *Request) (*Response, error) {
	return c.conn.Call(req)
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Echo sends an echo and returns what the server echoed back.
func (c *Client) Echo(params ...interface{}) ([]interface{}, error) {
	resp, err := c.Call(NewEchoRequest(params, ""))
	if err != nil {
		return nil, err
	}
	if err = resp.Err(); err != nil {
		return nil, err
	}
	var result []interface{}
	err = resp.DecodeResult(&result)
	return result, err
}

// ListDbs returns the names of the databases on the server.
func (c *Client) ListDbs() ([]string, error) {
	resp, err := c.Call(NewListDbsRequest())
	if err != nil {
		return nil, err
	}
	if err = resp.Err(); err != nil {
		return nil, err
	}
	var dbs []string
	err = resp.DecodeResult(&dbs)
	return dbs, err
}

/*
GetSchema returns the schema of db. A database the server does not have
results in an error of KindUnknownDatabase.
*/
func (c *Client) GetSchema(db string) (*Schema, error) {
	resp, err := c.Call(NewGetSchemaRequest(db))
	if err != nil {
		return nil, err
	}
	if err = resp.Err(); err != nil {
		return nil, err
	}
	schema := &Schema{}
	if err = resp.DecodeResult(schema); err != nil {
		return nil, err
	}
	return schema, nil
}

/*
Transact runs the operations as one transaction on the client's database.
The results are returned only if every operation succeeded and the
transaction committed; otherwise the error is an *Error that says which
operation failed and why.
*/
func (c *Client) Transact(ops ...Operation) ([]OperationResult, error) {
	req, err := NewTransactRequest(c.database, ops...)
	if err != nil {
		return nil, err
	}
	resp, err := c.Call(req)
	if err != nil {
		return nil, err
	}
	if err = resp.Err(); err != nil {
		return nil, err
	}

	var results []OperationResult
	if err = resp.DecodeResult(&results); err != nil {
		return nil, err
	}
	if err = CheckResults(len(ops), results); err != nil {
		log.Debugf("Transaction on %s failed: %s", c.database, err)
		return nil, err
	}
	return results, nil
}

/*
SelectFromTable returns the matching rows of one table. No matching rows
is not an error.
*/
func (c *Client) SelectFromTable(table string, where []Condition, columns ...string) ([]json.RawMessage, error) {
	results, err := c.Transact(Select(table, where, columns...))
	if err != nil {
		return nil, err
	}
	rows := results[0].Rows
	if rows == nil {
		rows = []json.RawMessage{}
	}
	return rows, nil
}

// UpdateTable updates the matching rows and returns how many matched.
func (c *Client) UpdateTable(table string, row Row, where []Condition) (int, error) {
	results, err := c.Transact(Update(table, row, where))
	if err != nil {
		return 0, err
	}
	return results[0].Count, nil
}
