package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Migration is a versioned unit of schema change. It is immutable after
// construction; the checksum fingerprints the forward operation list.
type Migration struct {
	Version     int
	Timestamp   int64
	Description string
	Up          []Operation
	Down        []Operation
}

// NewMigration parses the migration identity from its declared name, in the
// form V<version>__<timestamp>__<description>, and binds the forward and
// reverse operation lists.
func NewMigration(name string, up, down []Operation) (*Migration, error) {
	version, ts, desc, err := ParseName(name)
	if err != nil {
		return nil, err
	}
	return &Migration{
		Version:     version,
		Timestamp:   ts,
		Description: desc,
		Up:          up,
		Down:        down,
	}, nil
}

// ParseName splits a migration name of the form V<version>__<timestamp>__<description>.
func ParseName(name string) (version int, timestamp int64, description string, err error) {
	if !strings.HasPrefix(name, "V") {
		return 0, 0, "", fmt.Errorf("schema: malformed migration name %q: missing V prefix", name)
	}
	parts := strings.SplitN(name[1:], "__", 3)
	if len(parts) != 3 || parts[2] == "" {
		return 0, 0, "", fmt.Errorf("schema: malformed migration name %q: want V<version>__<timestamp>__<description>", name)
	}
	version, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, "", fmt.Errorf("schema: malformed migration name %q: version: %w", name, err)
	}
	timestamp, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, "", fmt.Errorf("schema: malformed migration name %q: timestamp: %w", name, err)
	}
	return version, timestamp, parts[2], nil
}

// Name returns the declared name of the migration.
func (m *Migration) Name() string {
	return fmt.Sprintf("V%03d__%d__%s", m.Version, m.Timestamp, m.Description)
}

// Checksum returns the integrity fingerprint of the forward operation list.
// It is stable across repeated calls and changes exactly when the operation
// list changes.
func (m *Migration) Checksum() string {
	return ChecksumOps(m.Up)
}
