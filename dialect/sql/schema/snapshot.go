package schema

import (
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// YAML encodes the schema snapshot as YAML, the format used for exporting
// and diffing inspected schemas out of band.
func (s *DatabaseSchema) YAML() ([]byte, error) {
	return yaml.Marshal(s)
}

// ParseYAML decodes a YAML schema snapshot.
func ParseYAML(data []byte) (*DatabaseSchema, error) {
	s := &DatabaseSchema{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Msgpack encodes the schema snapshot in its compact binary form.
func (s *DatabaseSchema) Msgpack() ([]byte, error) {
	return msgpack.Marshal(s)
}

// ParseMsgpack decodes a msgpack schema snapshot.
func ParseMsgpack(data []byte) (*DatabaseSchema, error) {
	s := &DatabaseSchema{}
	if err := msgpack.Unmarshal(data, s); err != nil {
		return nil, err
	}
	return s, nil
}
