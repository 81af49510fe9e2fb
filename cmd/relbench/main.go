package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/followgraph/config"
	"github.com/d60-Lab/followgraph/internal/model"
	"github.com/d60-Lab/followgraph/internal/realtime"
	"github.com/d60-Lab/followgraph/internal/repository"
	"github.com/d60-Lab/followgraph/internal/service"
	"github.com/d60-Lab/followgraph/pkg/database"
	"github.com/d60-Lab/followgraph/pkg/errcode"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}

// outcomes 按错误码统计结果
type outcomes struct {
	mu     sync.Mutex
	counts map[string]int
	lat    []time.Duration
}

func (o *outcomes) record(d time.Duration, err error) {
	key := "ok"
	if err != nil {
		key = string(errcode.CodeOf(err))
	}
	o.mu.Lock()
	o.counts[key]++
	o.lat = append(o.lat, d)
	o.mu.Unlock()
}

func (o *outcomes) print(name string, total time.Duration) {
	fmt.Printf("%s: ops=%d total=%v p50=%v p95=%v p99=%v outcomes=%v\n",
		name, len(o.lat), total, pct(o.lat, 0.50), pct(o.lat, 0.95), pct(o.lat, 0.99), o.counts)
}

func newOutcomes() *outcomes { return &outcomes{counts: map[string]int{}} }

func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	store := repository.NewStore(db)
	if err := store.InitSchema(); err != nil {
		panic(err)
	}
	defer store.Close()

	N := envInt("N", 1000)     // 请求者数量
	DUP := envInt("DUP", 4)    // 每个请求者的并发重复提交数
	CONC := envInt("CONC", 16) // worker 数
	PAGE := envInt("PAGE", 50)

	hub := realtime.NewHub(cfg.Realtime.BufferSize)
	users := store.Users()
	follows := service.NewFollowService(store, users, hub)
	ctx := context.Background()

	// seed: celeb 是所有请求的接收者
	celeb := &model.User{ID: "celeb-" + uuid.NewString()[:8], Handle: "celeb"}
	senders := make([]*model.User, N)
	for i := range senders {
		id := uuid.NewString()
		senders[i] = &model.User{ID: id, Handle: "u" + id[:8]}
	}
	if err := users.Upsert(ctx, append([]*model.User{celeb}, senders...)...); err != nil {
		panic(err)
	}
	// 接收者在线，事件走 Hub
	sub := hub.Subscribe(celeb.ID)
	var pushed atomic.Int64
	go func() {
		for range sub.Events() {
			pushed.Add(1)
		}
	}()

	run := func(jobs int, fn func(i int)) time.Duration {
		feed := make(chan int, jobs)
		for i := 0; i < jobs; i++ {
			feed <- i
		}
		close(feed)
		var wg sync.WaitGroup
		t0 := time.Now()
		for w := 0; w < CONC; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range feed {
					fn(i)
				}
			}()
		}
		wg.Wait()
		return time.Since(t0)
	}

	// 1. 重复提交风暴：每个 (sender, celeb) 只能有一个 pending
	requests := newOutcomes()
	edges := make([]string, N)
	var edgeMu sync.Mutex
	reqDur := run(N*DUP, func(i int) {
		sender := senders[i%N]
		st := time.Now()
		res, err := follows.RequestFollow(ctx, sender.ID, celeb.ID)
		requests.record(time.Since(st), err)
		if err == nil {
			edgeMu.Lock()
			edges[i%N] = res.EdgeID
			edgeMu.Unlock()
		}
	})
	requests.print("request storm", reqDur)

	// 2. 接受/拒绝竞争：每条边只有一个决定生效
	decisions := newOutcomes()
	decDur := run(N*2, func(i int) {
		edge := edges[i/2]
		if edge == "" {
			return
		}
		st := time.Now()
		var err error
		if i%2 == 0 {
			_, err = follows.AcceptRequest(ctx, edge, celeb.ID)
		} else {
			_, err = follows.RejectRequest(ctx, edge, celeb.ID)
		}
		decisions.record(time.Since(st), err)
	})
	decisions.print("decision race", decDur)

	// 3. 查询
	q0 := time.Now()
	page := must(follows.ListFollowers(ctx, celeb.ID, 1, PAGE))
	followersDur := time.Since(q0)
	counts := must(follows.GetCounts(ctx, celeb.ID))

	sub.Close()
	delivered, dropped := hub.Stats()

	fmt.Printf("N=%d, DUP=%d, CONC=%d, PAGE=%d\n", N, DUP, CONC, PAGE)
	fmt.Printf("Query followers(%d) latency: %v, total=%d\n", PAGE, followersDur, page.Total)
	fmt.Printf("Counts: followers=%d (committed decisions=%d)\n", counts.Followers, decisions.counts["ok"])
	fmt.Printf("Realtime: pushed=%d delivered=%d dropped=%d\n", pushed.Load(), delivered, dropped)

	if requests.counts["ok"] != N {
		fmt.Printf("UNIQUENESS VIOLATED: %d pending edges for %d senders\n", requests.counts["ok"], N)
		os.Exit(1)
	}
	if decisions.counts["ok"] != N {
		fmt.Printf("RACE POLICY VIOLATED: %d committed decisions for %d edges\n", decisions.counts["ok"], N)
		os.Exit(1)
	}
}
