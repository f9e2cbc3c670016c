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
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

const (
	uuidTag      = "uuid"
	namedUUIDTag = "named-uuid"
	setTag       = "set"
	mapTag       = "map"
)

/*
UUID is a row reference. On the wire it is ["uuid", "<uuid>"].
*/
type UUID string

func (u UUID) MarshalJSON() ([]byte, error) {
	return json.Marshal([]string{uuidTag, string(u)})
}

func (u *UUID) UnmarshalJSON(buf []byte) error {
	s, err := unmarshalPair(buf, uuidTag)
	if err != nil {
		return err
	}
	*u = UUID(s)
	return nil
}

/*
NamedUUID refers to a row inserted earlier in the same transaction under
a "uuid-name". On the wire it is ["named-uuid", "<name>"].
*/
type NamedUUID string

func (n NamedUUID) MarshalJSON() ([]byte, error) {
	return json.Marshal([]string{namedUUIDTag, string(n)})
}

func (n *NamedUUID) UnmarshalJSON(buf []byte) error {
	s, err := unmarshalPair(buf, namedUUIDTag)
	if err != nil {
		return err
	}
	*n = NamedUUID(s)
	return nil
}

func unmarshalPair(buf []byte, tag string) (string, error) {
	var pair []string
	if err := json.Unmarshal(buf, &pair); err != nil {
		return "", err
	}
	if len(pair) != 2 || pair[0] != tag {
		return "", fmt.Errorf("Invalid %s: %s", tag, string(buf))
	}
	return pair[1], nil
}

/*
Set is an OVSDB set: ["set", [a, b, ...]]. The server sends a set with
exactly one element as the bare element, and UnmarshalJSON accepts both.
Elements are decoded with DecodeAtom.
*/
type Set []interface{}

func (s Set) MarshalJSON() ([]byte, error) {
	elems := []interface{}(s)
	if elems == nil {
		elems = []interface{}{}
	}
	return json.Marshal([]interface{}{setTag, elems})
}

func (s *Set) UnmarshalJSON(buf []byte) error {
	var tagged []json.RawMessage
	if err := json.Unmarshal(buf, &tagged); err == nil && len(tagged) == 2 {
		var tag string
		if json.Unmarshal(tagged[0], &tag) == nil && tag == setTag {
			var raw []json.RawMessage
			if err := json.Unmarshal(tagged[1], &raw); err != nil {
				return err
			}
			elems := make(Set, len(raw))
			for i, r := range raw {
				if elems[i], err = DecodeAtom(r); err != nil {
					return err
				}
			}
			*s = elems
			return nil
		}
	}

	atom, err := DecodeAtom(buf)
	if err != nil {
		return err
	}
	*s = Set{atom}
	return nil
}

// Strings returns the string elements of the set.
func (s Set) Strings() []string {
	var r []string
	for _, e := range s {
		if str, ok := e.(string); ok {
			r = append(r, str)
		}
	}
	return r
}

// UUIDs returns the row references in the set.
func (s Set) UUIDs() []UUID {
	var r []UUID
	for _, e := range s {
		if u, ok := e.(UUID); ok {
			r = append(r, u)
		}
	}
	return r
}

/*
Map is an OVSDB map with string keys: ["map", [[k, v], ...]].
Pairs are written in key order.
*/
type Map map[string]interface{}

func (m Map) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([][]interface{}, len(keys))
	for i, k := range keys {
		pairs[i] = []interface{}{k, m[k]}
	}
	return json.Marshal([]interface{}{mapTag, pairs})
}

func (m *Map) UnmarshalJSON(buf []byte) error {
	var tagged []json.RawMessage
	if err := json.Unmarshal(buf, &tagged); err != nil {
		return err
	}
	var tag string
	if len(tagged) != 2 || json.Unmarshal(tagged[0], &tag) != nil || tag != mapTag {
		return fmt.Errorf("Invalid map: %s", string(buf))
	}

	var pairs [][]json.RawMessage
	if err := json.Unmarshal(tagged[1], &pairs); err != nil {
		return err
	}
	r := make(Map, len(pairs))
	for _, p := range pairs {
		if len(p) != 2 {
			return fmt.Errorf("Invalid map pair in %s", string(buf))
		}
		k, err := DecodeAtom(p[0])
		if err != nil {
			return err
		}
		v, err := DecodeAtom(p[1])
		if err != nil {
			return err
		}
		r[fmt.Sprint(k)] = v
	}
	*m = r
	return nil
}

// StringMap returns the map with every value formatted as a string.
func (m Map) StringMap() map[string]string {
	r := make(map[string]string, len(m))
	for k, v := range m {
		r[k] = fmt.Sprint(v)
	}
	return r
}

/*
DecodeAtom decodes a single atom. References become UUID or NamedUUID,
numbers are float64, and strings and booleans keep their JSON types.
*/
func DecodeAtom(buf []byte) (interface{}, error) {
	var v interface{}
	if err := json.Unmarshal(buf, &v); err != nil {
		return nil, err
	}
	if pair, ok := v.([]interface{}); ok && len(pair) == 2 {
		tag, _ := pair[0].(string)
		val, isString := pair[1].(string)
		switch {
		case tag == uuidTag && isString:
			return UUID(val), nil
		case tag == namedUUIDTag && isString:
			return NamedUUID(val), nil
		}
	}
	return v, nil
}

/*
NewTempName returns a random name that is legal as a "uuid-name".
*/
func NewTempName() string {
	return newID()
}

// newID builds an identifier that is a valid OVSDB <id>.
func newID() string {
	return "id" + strings.Replace(uuid.NewString(), "-", "_", -1)
}
