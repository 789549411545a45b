package db

import (
	"database/sql"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Gorm wraps an open *sql.DB in a gorm session sharing the same pool.
// Schema is owned by the embedded migrations, never by AutoMigrate.
func Gorm(d *sql.DB, driver string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		dialector = sqlite.Dialector{DriverName: DriverSQLite, Conn: d}
	case DriverPostgres:
		dialector = postgres.New(postgres.Config{Conn: d})
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
	g, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open gorm: %w", err)
	}
	return g, nil
}
