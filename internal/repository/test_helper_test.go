package repository

import (
	"testing"

	"github.com/nimasrn/time-capsule/pkg/pg"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testDB struct {
	*pg.DB
	rawDB *gorm.DB
}

func setupTestDB(t *testing.T) *testDB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// every connection to :memory: opens a fresh database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&ChildEntity{}, &MessageEntity{})
	require.NoError(t, err)

	return &testDB{
		DB:    pg.Wrap(db),
		rawDB: db,
	}
}
