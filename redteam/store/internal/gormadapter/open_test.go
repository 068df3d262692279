package gormadapter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID   int64 `gorm:"primaryKey;autoIncrement"`
	Name string
}

func TestConfigConnectionString(t *testing.T) {
	tests := []struct {
		name            string
		path            string
		write           bool
		memory          bool
		expectedConnStr string
	}{
		{
			name:            "writable path",
			path:            "test.db",
			write:           true,
			expectedConnStr: "file:test.db?cache=shared",
		},
		{
			name:            "read-only path",
			path:            "test.db",
			expectedConnStr: "file:test.db?cache=shared&mode=ro",
		},
		{
			name:            "in-memory mode",
			memory:          true,
			expectedConnStr: ":memory:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := config{
				path:     tt.path,
				writable: tt.write,
				memory:   tt.memory,
			}
			require.Equal(t, tt.expectedConnStr, c.connectionString())
		})
	}
}

func TestPragmaNameValue(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantName  string
		wantValue string
		wantErr   require.ErrorAssertionFunc
	}{
		{
			name:      "basic pragma",
			input:     "PRAGMA journal_mode=WAL",
			wantName:  "journal_mode",
			wantValue: "WAL",
		},
		{
			name:      "pragma with spaces and trailing semicolon",
			input:     "PRAGMA   synchronous  =   NORMAL ;",
			wantName:  "synchronous",
			wantValue: "NORMAL",
		},
		{
			name:    "multiple statements",
			input:   "PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;",
			wantErr: require.Error,
		},
		{
			name:    "no value",
			input:   "PRAGMA invalid_format",
			wantErr: require.Error,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.wantErr == nil {
				tt.wantErr = require.NoError
			}
			name, value, err := pragmaNameValue(tt.input)
			tt.wantErr(t, err)
			if err != nil {
				return
			}
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantValue, value)
		})
	}
}

func TestPragmaValueMatches(t *testing.T) {
	assert.True(t, pragmaValueMatches("WAL", "wal"))
	assert.True(t, pragmaValueMatches("ON", "1"))
	assert.True(t, pragmaValueMatches("OFF", "0"))
	assert.True(t, pragmaValueMatches("NORMAL", "1"))
	assert.False(t, pragmaValueMatches("ON", "0"))
}

func TestOpen(t *testing.T) {
	t.Run("in-memory", func(t *testing.T) {
		db, err := Open("", WithWritable(true, []any{&widget{}}))
		require.NoError(t, err)

		require.NoError(t, db.Create(&widget{Name: "a"}).Error)

		var count int64
		require.NoError(t, db.Model(&widget{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("file is created with parent directories", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "nested", "redteam.db")
		db, err := Open(dbPath, WithWritable(true, []any{&widget{}}))
		require.NoError(t, err)
		require.NoError(t, db.Create(&widget{Name: "a"}).Error)

		_, err = os.Stat(dbPath)
		require.NoError(t, err)
	})

	t.Run("truncate removes existing data", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "redteam.db")
		db, err := Open(dbPath, WithWritable(true, []any{&widget{}}))
		require.NoError(t, err)
		require.NoError(t, db.Create(&widget{Name: "a"}).Error)
		sqlDB, err := db.DB()
		require.NoError(t, err)
		require.NoError(t, sqlDB.Close())

		db, err = Open(dbPath, WithTruncate(true), WithWritable(true, []any{&widget{}}))
		require.NoError(t, err)

		var count int64
		require.NoError(t, db.Model(&widget{}).Count(&count).Error)
		assert.Equal(t, int64(0), count)
	})
}

func TestDeleteDB(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	f, err := os.Create(dbPath)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, deleteDB(dbPath))

	_, err = os.Stat(dbPath)
	require.True(t, os.IsNotExist(err))
}
