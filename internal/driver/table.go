package driver

import (
	"fmt"
	"os"

	"overrider/internal/table"
)

// TableEnv names the environment variable that points generation at a
// persisted table when no path is given explicitly.
const TableEnv = "OVERRIDER_TABLE"

// LoadTable resolves the lookup generation runs against: the table file at
// path, else the file named by OVERRIDER_TABLE, else the process
// environment itself. The returned source describes which one was used.
func LoadTable(path string) (lookup table.Lookup, src string, err error) {
	if path == "" {
		path = os.Getenv(TableEnv)
	}
	if path == "" {
		return table.EnvLookup{}, "environment", nil
	}
	t, err := table.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("load table %s: %w", path, err)
	}
	return t, path, nil
}
