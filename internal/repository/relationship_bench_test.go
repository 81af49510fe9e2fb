package repository

import (
	"context"
	"math/rand"
	"testing"

	"github.com/d60-Lab/followgraph/internal/model"
)

func BenchmarkFollowRequestAndAccept(b *testing.B) {
	store := setupStore(b)
	users := seedUsers(b, store.DB(), 1000)
	repo := store.Follows()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		from := users[rand.Intn(len(users))]
		to := users[rand.Intn(len(users))]
		if from == to {
			continue
		}
		f, err := repo.Create(ctx, from, to)
		if err != nil {
			continue
		}
		_, _ = repo.Transition(ctx, f.ID, model.FollowStatusPending, model.FollowStatusAccepted)
	}
}

func BenchmarkQueryFollowersAndFollowing(b *testing.B) {
	store := setupStore(b)
	repo := store.Follows()
	ctx := context.Background()

	// 构造：u0000 有 N 个粉丝，同时 u0000 也关注这 N 个用户
	const N = 2000
	users := seedUsers(b, store.DB(), N+1)
	u0 := users[0]
	for _, uid := range users[1:] {
		for _, pair := range [][2]string{{uid, u0}, {u0, uid}} {
			f, err := repo.Create(ctx, pair[0], pair[1])
			if err != nil {
				b.Fatalf("create: %v", err)
			}
			if _, err := repo.Transition(ctx, f.ID, model.FollowStatusPending, model.FollowStatusAccepted); err != nil {
				b.Fatalf("accept: %v", err)
			}
		}
	}

	b.ResetTimer()
	b.Run("ListFollowers", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _, _ = repo.ListFollowers(ctx, u0, 0, 50)
		}
	})

	b.Run("ListFollowing", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _, _ = repo.ListFollowings(ctx, u0, 0, 50)
		}
	})

	b.Run("CountFollowers", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = repo.CountFollowers(ctx, u0)
		}
	})
}
