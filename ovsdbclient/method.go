package ovsdbclient

import (
	"bytes"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// JSON-RPC methods from RFC 7047 section 4.1.
const (
	MethodListDbs   = "list_dbs"
	MethodGetSchema = "get_schema"
	MethodTransact  = "transact"
	MethodEcho      = "echo"
)

/*
A Request is a JSON-RPC 1.0 request. Every builder assigns a fresh id.
*/
type Request struct {
	Method string        `json:"method"`
	Params []interface{} `json:"params"`
	ID     string        `json:"id"`
}

// NewListDbsRequest asks for the names of the databases on the server.
func NewListDbsRequest() *Request {
	return &Request{
		Method: MethodListDbs,
		Params: []interface{}{},
		ID:     newID(),
	}
}

// NewGetSchemaRequest asks for the schema of one database.
func NewGetSchemaRequest(db string) *Request {
	return &Request{
		Method: MethodGetSchema,
		Params: []interface{}{db},
		ID:     newID(),
	}
}

/*
NewEchoRequest builds an echo. Nil params are sent as an empty array and an
empty id is replaced by a random one.
*/
func NewEchoRequest(params []interface{}, id string) *Request {
	if params == nil {
		params = []interface{}{}
	}
	if id == "" {
		id = newID()
	}
	return &Request{
		Method: MethodEcho,
		Params: params,
		ID:     id,
	}
}

/*
NewTransactRequest builds a "transact" request for db. Every operation is
validated and uuid-names must be unique within the batch; nothing is sent
if either check fails.
*/
func NewTransactRequest(db string, ops ...Operation) (*Request, error) {
	params := make([]interface{}, 0, len(ops)+1)
	params = append(params, db)

	names := make(map[string]bool)
	for i, op := range ops {
		if err := op.Validate(); err != nil {
			return nil, errors.Wrapf(err, "operation %d", i)
		}
		if op.UUIDName != "" {
			if names[op.UUIDName] {
				return nil, errors.Wrapf(ErrDuplicateUUIDName, "%q at operation %d", op.UUIDName, i)
			}
			names[op.UUIDName] = true
		}
		params = append(params, op)
	}

	return &Request{
		Method: MethodTransact,
		Params: params,
		ID:     newID(),
	}, nil
}

/*
A Response is the reply to a Request. Result and Error are left undecoded
until the caller knows what the method returns.
*/
type Response struct {
	Result json.RawMessage `json:"result"`
	Error  json.RawMessage `json:"error"`
	ID     json.RawMessage `json:"id"`
}

type errorObject struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

/*
Err returns nil if the response carries no error. Otherwise the error is
mapped to an *Error. The server sends either an {"error", "details"} object
or a bare string.
*/
func (r *Response) Err() error {
	if isNull(r.Error) {
		return nil
	}

	var obj errorObject
	if err := json.Unmarshal(r.Error, &obj); err == nil && obj.Error != "" {
		return NewServerError(obj.Error, obj.Details)
	}
	var s string
	if err := json.Unmarshal(r.Error, &s); err == nil {
		return NewServerError(s, "")
	}
	return NewServerError("", string(r.Error))
}

// DecodeResult unmarshals the result into v.
func (r *Response) DecodeResult(v interface{}) error {
	if isNull(r.Result) {
		return errors.New("response has no result")
	}
	return json.Unmarshal(r.Result, v)
}

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}
