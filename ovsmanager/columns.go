package ovsmanager

import (
	"github.com/Fundacio-i2CAT/ovsdb-manager/ovsdbclient"
	"github.com/goccy/go-json"
)

/*
rowDecoder pulls named columns out of a row. The first error sticks, and
the columns nobody asked for are left over for Extra.
*/
type rowDecoder struct {
	cols map[string]json.RawMessage
	err  error
}

func newRowDecoder(buf []byte) *rowDecoder {
	d := &rowDecoder{}
	d.err = json.Unmarshal(buf, &d.cols)
	return d
}

func (d *rowDecoder) take(name string, v interface{}) bool {
	raw, ok := d.cols[name]
	if !ok {
		return false
	}
	delete(d.cols, name)
	if d.err == nil {
		d.err = json.Unmarshal(raw, v)
	}
	return d.err == nil
}

func (d *rowDecoder) uuid(name string) ovsdbclient.UUID {
	var u ovsdbclient.UUID
	d.take(name, &u)
	return u
}

func (d *rowDecoder) str(name string) string {
	var s string
	d.take(name, &s)
	return s
}

func (d *rowDecoder) boolean(name string) bool {
	var b bool
	d.take(name, &b)
	return b
}

func (d *rowDecoder) uuids(name string) []ovsdbclient.UUID {
	var s ovsdbclient.Set
	d.take(name, &s)
	return s.UUIDs()
}

func (d *rowDecoder) strings(name string) []string {
	var s ovsdbclient.Set
	d.take(name, &s)
	return s.Strings()
}

// optionalString reads a set of at most one string.
func (d *rowDecoder) optionalString(name string) string {
	if s := d.strings(name); len(s) > 0 {
		return s[0]
	}
	return ""
}

// optionalInt reads a set of at most one integer.
func (d *rowDecoder) optionalInt(name string) *int {
	var s ovsdbclient.Set
	if !d.take(name, &s) || len(s) == 0 {
		return nil
	}
	f, ok := s[0].(float64)
	if !ok {
		return nil
	}
	i := int(f)
	return &i
}

func (d *rowDecoder) stringMap(name string) map[string]string {
	var m ovsdbclient.Map
	d.take(name, &m)
	return m.StringMap()
}

func (d *rowDecoder) extra() map[string]json.RawMessage {
	return d.cols
}

func uuidSet(uuids []ovsdbclient.UUID, more ...interface{}) ovsdbclient.Set {
	s := make(ovsdbclient.Set, 0, len(uuids)+len(more))
	for _, u := range uuids {
		s = append(s, u)
	}
	return append(s, more...)
}

func stringSet(strs []string) ovsdbclient.Set {
	s := make(ovsdbclient.Set, len(strs))
	for i, str := range strs {
		s[i] = str
	}
	return s
}

func withKey(m map[string]string, key, value string) ovsdbclient.Map {
	r := make(ovsdbclient.Map, len(m)+1)
	for k, v := range m {
		r[k] = v
	}
	r[key] = value
	return r
}
