package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/followgraph/internal/model"
	"github.com/d60-Lab/followgraph/pkg/database"
)

func setupStore(tb testing.TB) *GormStore {
	tb.Helper()
	db, err := database.OpenSQLiteMemory()
	require.NoError(tb, err)
	store := NewStore(db)
	require.NoError(tb, store.InitSchema())
	tb.Cleanup(func() { _ = store.Close() })
	return store
}

func seedUsers(tb testing.TB, db *gorm.DB, n int) []string {
	tb.Helper()
	users := make([]*model.User, n)
	ids := make([]string, n)
	for i := range users {
		ids[i] = fmt.Sprintf("u%04d", i)
		users[i] = &model.User{ID: ids[i], Handle: ids[i], DisplayName: "User " + ids[i]}
	}
	require.NoError(tb, NewUserRepository(db).Upsert(context.Background(), users...))
	return ids
}
