package realtime

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/followgraph/pkg/logger"
)

type outbound struct {
	accountID string
	event     Event
	enqAt     time.Time
}

// RedisChannel 通过 Redis PUBLISH/PSUBSCRIBE 在多个实例间转发事件，
// 本实例的会话仍挂在本地 Hub 上。Publish 只入队，由后台 worker 发出。
type RedisChannel struct {
	rdb    *redis.Client
	local  *Hub
	prefix string

	// 每个 worker 一条队列，按账户哈希分配，保证同一收件人的事件顺序
	queues    []chan outbound
	metricsCh chan time.Duration
}

func NewRedisChannel(rdb *redis.Client, local *Hub, prefix string, queueSize, workers int) *RedisChannel {
	if queueSize <= 0 {
		queueSize = 10000
	}
	if workers <= 0 {
		workers = 4
	}
	queues := make([]chan outbound, workers)
	for i := range queues {
		queues[i] = make(chan outbound, queueSize/workers+1)
	}
	return &RedisChannel{
		rdb:       rdb,
		local:     local,
		prefix:    prefix,
		queues:    queues,
		metricsCh: make(chan time.Duration, 4096),
	}
}

// Start 订阅 prefix* 并启动发布 worker；返回停止函数。
func (c *RedisChannel) Start(ctx context.Context) (func(context.Context) error, error) {
	ps := c.rdb.PSubscribe(ctx, c.prefix+"*")
	// 等待订阅确认，确保 Start 返回后发布的事件能被收到
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	stopCh := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		c.listen(ps.Channel())
	}()

	for i := range c.queues {
		wg.Add(1)
		go func(queue chan outbound) {
			defer wg.Done()
			c.work(queue, stopCh)
		}(c.queues[i])
	}

	return func(ctx context.Context) error {
		close(stopCh)
		err := ps.Close()
		done := make(chan struct{})
		go func() { wg.Wait(); close(done) }()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
		return err
	}, nil
}

func (c *RedisChannel) listen(msgs <-chan *redis.Message) {
	for msg := range msgs {
		accountID := strings.TrimPrefix(msg.Channel, c.prefix)
		var ev Event
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			logger.Warn("realtime: bad redis payload", zap.String("channel", msg.Channel), zap.Error(err))
			continue
		}
		c.local.Publish(accountID, ev)
	}
}

func (c *RedisChannel) work(queue chan outbound, stop <-chan struct{}) {
	for {
		select {
		case job := <-queue:
			c.send(job)
		case <-stop:
			// 停止前把已入队的事件发完
			for {
				select {
				case job := <-queue:
					c.send(job)
				default:
					return
				}
			}
		}
	}
}

func (c *RedisChannel) send(job outbound) {
	payload, err := json.Marshal(job.event)
	if err != nil {
		logger.Error("realtime: marshal event", zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	err = c.rdb.Publish(ctx, c.prefix+job.accountID, payload).Err()
	cancel()
	if err != nil {
		logger.Warn("realtime: redis publish failed, event dropped",
			zap.String("account", job.accountID), zap.String("event", job.event.Name), zap.Error(err))
		return
	}
	select {
	case c.metricsCh <- time.Since(job.enqAt):
	default:
	}
}

func (c *RedisChannel) Publish(accountID string, ev Event) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(accountID))
	queue := c.queues[h.Sum32()%uint32(len(c.queues))]
	select {
	case queue <- outbound{accountID: accountID, event: ev, enqAt: time.Now()}:
	default:
		logger.Warn("realtime: publish queue full, drop event",
			zap.String("account", accountID), zap.String("event", ev.Name))
	}
}

func (c *RedisChannel) Subscribe(accountID string) Subscription { return c.local.Subscribe(accountID) }

// Metrics 返回入队到发布完成耗时的只读通道
func (c *RedisChannel) Metrics() <-chan time.Duration { return c.metricsCh }

// QueueLen 当前排队事件数（采样值）
func (c *RedisChannel) QueueLen() int {
	n := 0
	for _, q := range c.queues {
		n += len(q)
	}
	return n
}
