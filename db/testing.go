package db

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ConnectTestDB opens an in-memory sqlite database and migrates the
// schema. Tests run against it instead of the postgres cluster.
func ConnectTestDB() error {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}
	if err := Migrate(db); err != nil {
		return err
	}
	ORM = db
	return nil
}
