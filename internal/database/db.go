package database

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"go-sklad/internal/docstore"
)

const (
	connectAttempts = 5
	retryDelay      = 2 * time.Second
)

// Connect opens the MySQL database behind the document store, waiting for it
// to come up, and syncs the documents table.
func Connect(dsn, logLevel string, log *logrus.Logger) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database: empty DSN")
	}
	return connect(mysql.Open(dsn), logLevel, log, retryDelay)
}

func connect(dialector gorm.Dialector, logLevel string, log *logrus.Logger, delay time.Duration) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	// Wait for DB to be ready
	for i := 0; i < connectAttempts; i++ {
		db, err = gorm.Open(dialector, &gorm.Config{
			Logger: logger.Default.LogMode(GormLogLevel(logLevel)),
		})
		if err == nil {
			break
		}
		log.WithError(err).Warnf("Failed to connect to database. Retrying in %s... (%d/%d)", delay, i+1, connectAttempts)
		time.Sleep(delay)
	}
	if err != nil {
		return nil, fmt.Errorf("database: connect after %d attempts: %w", connectAttempts, err)
	}
	log.Info("Successfully connected to database")

	if err := db.AutoMigrate(&docstore.Record{}); err != nil {
		return nil, fmt.Errorf("database: migrate: %w", err)
	}
	log.Info("Database schema synced")
	return db, nil
}

// GormLogLevel maps DB_LOG_LEVEL onto gorm's logger levels.
func GormLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
