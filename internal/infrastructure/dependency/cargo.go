package dependency

import (
	"github.com/BurntSushi/toml"
)

var cargoTables = []string{"dependencies", "dev-dependencies", "build-dependencies"}

// parseCargo reads the dependency tables of a Cargo.toml.
func parseCargo(content []byte) ([]declared, error) {
	var doc map[string]interface{}
	if _, err := toml.Decode(string(content), &doc); err != nil {
		return nil, err
	}
	lines := splitLines(content)
	var deps []declared
	for _, name := range cargoTables {
		table, ok := doc[name].(map[string]interface{})
		if !ok {
			continue
		}
		deps = append(deps, tableDeps(table, lines)...)
	}
	return deps, nil
}
