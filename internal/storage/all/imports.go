// Package all registers every built-in sink with the storage factory. Import
// it for side effects:
//
//	import _ "energyetl/internal/storage/all"
//
// Kinds: csv, xlsx, sqlite, postgres, mssql, mysql.
package all

import (
	_ "energyetl/internal/storage/csvfile"
	_ "energyetl/internal/storage/mssql"
	_ "energyetl/internal/storage/mysql"
	_ "energyetl/internal/storage/postgres"
	_ "energyetl/internal/storage/sqlite"
	_ "energyetl/internal/storage/xlsx"
)
