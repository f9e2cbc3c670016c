package ovsdbclient

import (
	"sort"

	"github.com/goccy/go-json"
)

// Unlimited is the value of ColumnType.Max for "max": "unlimited".
const Unlimited = -1

// Schema is a database schema as returned by "get_schema".
type Schema struct {
	Name    string                 `json:"name"`
	Version string                 `json:"version"`
	Cksum   string                 `json:"cksum,omitempty"`
	Tables  map[string]TableSchema `json:"tables"`
}

// TableNames returns the names of the tables in sorted order.
func (s *Schema) TableNames() []string {
	names := make([]string, 0, len(s.Tables))
	for n := range s.Tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

type TableSchema struct {
	Columns map[string]ColumnSchema `json:"columns"`
	MaxRows int                     `json:"maxRows,omitempty"`
	IsRoot  bool                    `json:"isRoot,omitempty"`
	Indexes [][]string              `json:"indexes,omitempty"`
}

// ColumnNames returns the column names in sorted order.
func (t TableSchema) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for n := range t.Columns {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

type ColumnSchema struct {
	Type      ColumnType `json:"type"`
	Ephemeral bool       `json:"ephemeral,omitempty"`
	Mutable   *bool      `json:"mutable,omitempty"`
}

/*
BaseType describes the key or value of a column. On the wire it is either
a bare atomic type name or an object with constraints.
*/
type BaseType struct {
	Type       string          `json:"type"`
	Enum       json.RawMessage `json:"enum,omitempty"`
	MinInteger *int64          `json:"minInteger,omitempty"`
	MaxInteger *int64          `json:"maxInteger,omitempty"`
	MinReal    *float64        `json:"minReal,omitempty"`
	MaxReal    *float64        `json:"maxReal,omitempty"`
	MinLength  *int            `json:"minLength,omitempty"`
	MaxLength  *int            `json:"maxLength,omitempty"`
	RefTable   string          `json:"refTable,omitempty"`
	RefType    string          `json:"refType,omitempty"`
}

type baseTypeObject BaseType

func (b *BaseType) UnmarshalJSON(buf []byte) error {
	var name string
	if err := json.Unmarshal(buf, &name); err == nil {
		*b = BaseType{Type: name}
		return nil
	}
	var obj baseTypeObject
	if err := json.Unmarshal(buf, &obj); err != nil {
		return err
	}
	*b = BaseType(obj)
	return nil
}

/*
ColumnType is the type of a column: a key, an optional value for maps, and
the bounds on the number of elements. Min and Max default to 1.
*/
type ColumnType struct {
	Key   BaseType
	Value *BaseType
	Min   int
	Max   int
}

type columnTypeWire struct {
	Key   BaseType        `json:"key"`
	Value *BaseType       `json:"value,omitempty"`
	Min   *int            `json:"min,omitempty"`
	Max   json.RawMessage `json:"max,omitempty"`
}

func (t *ColumnType) UnmarshalJSON(buf []byte) error {
	var name string
	if err := json.Unmarshal(buf, &name); err == nil {
		*t = ColumnType{Key: BaseType{Type: name}, Min: 1, Max: 1}
		return nil
	}

	var w columnTypeWire
	if err := json.Unmarshal(buf, &w); err != nil {
		return err
	}
	ct := ColumnType{Key: w.Key, Value: w.Value, Min: 1, Max: 1}
	if w.Min != nil {
		ct.Min = *w.Min
	}
	if !isNull(w.Max) {
		var max int
		if err := json.Unmarshal(w.Max, &max); err == nil {
			ct.Max = max
		} else {
			ct.Max = Unlimited
		}
	}
	*t = ct
	return nil
}

func (t ColumnType) MarshalJSON() ([]byte, error) {
	w := columnTypeWire{Key: t.Key, Value: t.Value}
	if t.Min != 1 {
		min := t.Min
		w.Min = &min
	}
	switch t.Max {
	case 1:
	case Unlimited:
		w.Max = json.RawMessage(`"unlimited"`)
	default:
		w.Max, _ = json.Marshal(t.Max)
	}
	return json.Marshal(w)
}

// IsMap returns true if the column holds key/value pairs.
func (t ColumnType) IsMap() bool {
	return t.Value != nil
}

// IsAtomic returns true if the column holds exactly one value.
func (t ColumnType) IsAtomic() bool {
	return t.Value == nil && t.Min == 1 && t.Max == 1
}

// IsSet returns true if the column holds zero or more keys.
func (t ColumnType) IsSet() bool {
	return t.Value == nil && !t.IsAtomic()
}
