package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storyforge-ai-api/internal/domain/entity"
)

// newTestClient 使用内存 SQLite 承载同一套 gorm 查询
func newTestClient(t *testing.T) *Client {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	client := NewClientFromDB(db)
	require.NoError(t, client.AutoMigrate(context.Background()))
	return client
}

func seedUser(t *testing.T, repo *UserRepository, id string, mutate func(u *entity.User)) *entity.User {
	t.Helper()
	u := entity.NewUser(id, id+"@example.com", id, time.Now())
	if mutate != nil {
		mutate(u)
	}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}
