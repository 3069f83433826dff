package database

import (
	"context"
	"testing"

	"twitt/internal/config"
	"twitt/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestConfigurePool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	cfg := &config.Config{
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}
	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)
}

func TestSchemaPolicy(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.Config
		wantSQL  bool
		wantAuto bool
		wantErr  bool
	}{
		{"hybrid development", config.Config{DBDriver: "postgres", Env: "development"}, true, true, false},
		{"hybrid production", config.Config{DBDriver: "postgres", Env: "production"}, true, false, false},
		{"sql only", config.Config{DBDriver: "postgres", DBSchemaMode: "sql"}, true, false, false},
		{"auto in production refused", config.Config{DBDriver: "postgres", Env: "production", DBSchemaMode: "auto"}, false, false, true},
		{"auto in production allowed", config.Config{DBDriver: "postgres", Env: "production", DBSchemaMode: "auto", DBAutoMigrateAllowDestructive: true}, false, true, false},
		{"unknown mode", config.Config{DBDriver: "postgres", DBSchemaMode: "yolo"}, false, false, true},
		{"sqlite uses automigrate", config.Config{DBDriver: "sqlite"}, false, true, false},
		{"sqlite rejects sql mode", config.Config{DBDriver: "sqlite", DBSchemaMode: "sql"}, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runSQL, runAuto, err := schemaPolicy(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, runSQL)
			assert.Equal(t, tt.wantAuto, runAuto)
		})
	}
}

func TestApplySchema_SQLiteCreatesTables(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, ApplySchema(context.Background(), db, &config.Config{DBDriver: "sqlite", Env: "test"}))

	for _, model := range PersistentModels() {
		assert.True(t, db.Migrator().HasTable(model))
	}
	assert.True(t, db.Migrator().HasIndex(&models.Like{}, "idx_likes_user_post"))
	assert.True(t, db.Migrator().HasIndex(&models.Following{}, "idx_followings_target_follower"))
}

func TestRunMigrations_RequiresPostgres(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	assert.Error(t, RunMigrations(context.Background(), db))
}

func TestEmbeddedMigrationsRegistered(t *testing.T) {
	all := GetMigrations()
	require.NotEmpty(t, all)
	assert.Equal(t, 1, all[0].Version)
	assert.Contains(t, all[0].UpScript, "idx_likes_user_post")
	assert.Contains(t, all[0].DownScript, "DROP TABLE IF EXISTS likes")
	assert.Equal(t, "000001_init_schema", all[0].String())
}

func TestUnknownVersions(t *testing.T) {
	registered := []Migration{{Version: 1}, {Version: 2}}
	assert.Empty(t, unknownVersions([]int{1, 2}, registered))
	assert.Equal(t, []int{3, 7}, unknownVersions([]int{7, 1, 3}, registered))
}

func TestPostgresDSN(t *testing.T) {
	dsn := PostgresDSN(&config.Config{DBHost: "db", DBPort: "5432", DBUser: "u", DBPassword: "p", DBName: "twitt"})
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=twitt sslmode=disable", dsn)
}
