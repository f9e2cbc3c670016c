package ovsdbclient

import (
	"reflect"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// Function is the comparison in a condition.
type Function string

// Functions defined by RFC 7047 section 5.1.
const (
	FunctionEqual          Function = "=="
	FunctionNotEqual       Function = "!="
	FunctionIncludes       Function = "includes"
	FunctionExcludes       Function = "excludes"
	FunctionLess           Function = "<"
	FunctionLessOrEqual    Function = "<="
	FunctionGreaterOrEqual Function = ">="
	FunctionGreater        Function = ">"
)

// Relational returns true for <, <=, >= and >.
func (f Function) Relational() bool {
	switch f {
	case FunctionLess, FunctionLessOrEqual, FunctionGreaterOrEqual, FunctionGreater:
		return true
	default:
		return false
	}
}

func (f Function) valid() bool {
	switch f {
	case FunctionEqual, FunctionNotEqual, FunctionIncludes, FunctionExcludes:
		return true
	default:
		return f.Relational()
	}
}

/*
A Condition selects rows in a "where" clause. It is sent as
[column, function, value].
*/
type Condition struct {
	Column   string
	Function Function
	Value    interface{}
}

/*
NewCondition validates and returns a condition. Relational functions only
accept numbers.
*/
func NewCondition(column string, fn Function, value interface{}) (Condition, error) {
	c := Condition{
		Column:   column,
		Function: fn,
		Value:    value,
	}
	if err := c.Validate(); err != nil {
		return Condition{}, err
	}
	return c, nil
}

// Validate checks the function and, for relational functions, the value.
func (c Condition) Validate() error {
	if !c.Function.valid() {
		return errors.Wrapf(ErrUnsupportedFunction, "%q", c.Function)
	}
	if c.Function.Relational() && !isNumeric(c.Value) {
		return errors.Wrapf(ErrNonNumericValue, "%s %s %v", c.Column, c.Function, c.Value)
	}
	return nil
}

// ByUUID matches the row with the given _uuid.
func ByUUID(u UUID) Condition {
	return Condition{Column: "_uuid", Function: FunctionEqual, Value: u}
}

// ByName matches rows whose "name" column equals name.
func ByName(name string) Condition {
	return Condition{Column: "name", Function: FunctionEqual, Value: name}
}

func isNumeric(v interface{}) bool {
	if _, ok := v.(json.Number); ok {
		return true
	}
	if v == nil {
		return false
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func (c Condition) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{c.Column, c.Function, c.Value})
}

func (c *Condition) UnmarshalJSON(buf []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(buf, &parts); err != nil {
		return err
	}
	if len(parts) != 3 {
		return errors.Errorf("Invalid condition %s", string(buf))
	}

	var column string
	var fn Function
	if err := json.Unmarshal(parts[0], &column); err != nil {
		return err
	}
	if err := json.Unmarshal(parts[1], &fn); err != nil {
		return err
	}
	value, err := DecodeAtom(parts[2])
	if err != nil {
		return err
	}

	nc, err := NewCondition(column, fn, value)
	if err != nil {
		return err
	}
	*c = nc
	return nil
}
