// Package all registers every storage backend with the factory. Binaries
// blank-import this package so that config alone selects the backend.
package all

import (
	_ "geoload/internal/storage/mysql"
	_ "geoload/internal/storage/postgres"
	_ "geoload/internal/storage/sqlite"
)
