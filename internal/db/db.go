package db

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/keerthik-19/summer-camp-registration/internal/config"
	"github.com/keerthik-19/summer-camp-registration/internal/models"
)

// sqliteParams enable WAL, a busy timeout and foreign keys.
const sqliteParams = "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

// NewLogger logs slow queries and real errors. Missing rows are expected on
// public lookups and are not logged.
func NewLogger(w io.Writer) logger.Interface {
	return logger.New(log.New(w, "\r\n", log.LstdFlags), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

// Open connects to the configured database and migrates the schema.
func Open(cfg config.DBConfig) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		TranslateError: true,
		Logger:         NewLogger(os.Stdout),
	}

	var (
		conn *gorm.DB
		err  error
	)
	switch cfg.Driver {
	case "mysql":
		conn, err = gorm.Open(mysql.Open(MySQLDSN(cfg)), gcfg)
	default:
		conn, err = gorm.Open(sqlite.Open(cfg.SQLitePath+sqliteParams), gcfg)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Driver == "mysql" {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(25)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	} else {
		// SQLite works best with a single writer; cap the pool accordingly.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
	}

	if err := Migrate(conn); err != nil {
		return nil, err
	}
	log.Printf("database ready (%s)", cfg.Driver)
	return conn, nil
}

// Migrate creates or updates the registrations table and its indexes.
func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(&models.Registration{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	// Listing order index; GORM does not create it from the embedded timestamp.
	if !conn.Migrator().HasIndex(&models.Registration{}, "idx_reg_created") {
		if err := conn.Exec("CREATE INDEX idx_reg_created ON registrations(created_at, id)").Error; err != nil {
			return fmt.Errorf("create idx_reg_created: %w", err)
		}
	}
	return nil
}

// MySQLDSN builds a DSN with parseTime and UTC so DATETIME scans into time.Time.
func MySQLDSN(cfg config.DBConfig) string {
	mc := mysqldrv.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Pass
	mc.Net = "tcp"
	mc.Addr = cfg.Host + ":" + cfg.Port
	mc.DBName = cfg.Name
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}
