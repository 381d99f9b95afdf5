// Package iostore has the concrete data sources and sinks: flat files and
// SQL databases. Every reader applies its after stage to loaded data and
// every writer applies its before stage to outgoing data, so arbitrary
// transformations attach at the storage boundary without the core knowing.
package iostore

import (
	"fmt"
	"regexp"
)

// tableNamePattern constrains table names to identifier characters. SQL
// identifiers cannot be bound as parameters, so this is the injection guard.
var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validateTableName(name string) error {
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("invalid table name %q: must match %s", name, tableNamePattern)
	}
	return nil
}
