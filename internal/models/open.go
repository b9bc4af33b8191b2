package models

import "fmt"

const (
	DriverBolt   = "bolt"
	DriverSQLite = "sqlite"
)

// Open opens the store engine selected by driver
func Open(driver, path string) (Store, error) {
	switch driver {
	case DriverBolt, "":
		return NewDatabase(path)
	case DriverSQLite:
		return NewSQLDatabase(path)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}
}
