package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salonpro-booking/models"
)

func TestConnectDB(t *testing.T) {
	_, err := ConnectDB("mysql", "dsn", false)
	assert.Error(t, err)
	_, err = ConnectDB("postgres", "", false)
	assert.Error(t, err)

	db, err := ConnectDB("sqlite", "file:config_connect?mode=memory&cache=shared", false)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, Migrate(db))
	for _, m := range models.All() {
		assert.True(t, db.Migrator().HasTable(m))
	}
}
