package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/artisansally/ally/config"
	"github.com/artisansally/ally/pkg/logger"
)

// DB is the process-wide handle, set by Connect.
var DB *gorm.DB

// Connect opens the configured database and stores it in DB.
func Connect() error {
	db, err := Open(config.DatabaseDriver(), config.DatabaseDSN())
	if err != nil {
		return err
	}
	DB = db
	return nil
}

// Open returns a pooled, pinged connection. SQLite connections get foreign
// keys switched on so ON DELETE CASCADE behaves as on the server databases.
func Open(driver, dsn string) (*gorm.DB, error) {
	dialector, err := dialectorFor(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.New(slogWriter{}, gormlogger.Config{SlowThreshold: 500 * time.Millisecond, LogLevel: gormlogger.Warn, IgnoreRecordNotFoundError: true}),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("database: open %s: %w", driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database: get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database: ping: %w", err)
	}

	if driver == "sqlite" {
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("database: enable foreign keys: %w", err)
		}
	}
	return db, nil
}

func dialectorFor(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "sqlite":
		if !strings.Contains(dsn, "_foreign_keys") {
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}
			dsn += sep + "_foreign_keys=1"
		}
		return sqlite.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	case "sqlserver":
		return sqlserver.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (sqlite, postgres, mysql, sqlserver)", driver)
	}
}

// slogWriter routes GORM's slow-query and error lines to the app logger.
type slogWriter struct{}

func (slogWriter) Printf(format string, args ...interface{}) {
	logger.L.Log(context.Background(), slog.LevelWarn, "gorm", "detail", fmt.Sprintf(format, args...))
}
