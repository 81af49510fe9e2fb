package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/d60-Lab/followgraph/internal/model"
	"github.com/d60-Lab/followgraph/internal/realtime"
	"github.com/d60-Lab/followgraph/internal/repository"
	"github.com/d60-Lab/followgraph/pkg/logger"
)

var tracer = otel.Tracer("github.com/d60-Lab/followgraph/internal/service")

// FollowResult 状态转换结果
type FollowResult struct {
	EdgeID string               `json:"edgeId,omitempty"`
	Status model.RelationStatus `json:"followStatus"`
}

// Counts 粉丝数 / 关注数，每次都从存储计算
type Counts struct {
	Followers int64 `json:"followers"`
	Following int64 `json:"following"`
}

// Connection 粉丝或关注列表中的一项
type Connection struct {
	EdgeID     string              `json:"edgeId"`
	Account    model.PublicProfile `json:"account"`
	FollowedAt time.Time           `json:"followedAt"`
	AcceptedAt *time.Time          `json:"acceptedAt,omitempty"`
}

// PendingRequest 待处理的关注请求
type PendingRequest struct {
	EdgeID      string              `json:"edgeId"`
	Account     model.PublicProfile `json:"account"`
	RequestedAt time.Time           `json:"requestedAt"`
}

// FollowService 关注关系生命周期：请求、接受、拒绝、取消关注。
// 每次提交的转换都会写入通知流水，提交成功后再推送实时事件。
type FollowService interface {
	RequestFollow(ctx context.Context, senderID, receiverID string) (*FollowResult, error)
	AcceptRequest(ctx context.Context, edgeID, actingID string) (*FollowResult, error)
	RejectRequest(ctx context.Context, edgeID, actingID string) (*FollowResult, error)
	Unfollow(ctx context.Context, actingID, targetID string) (*FollowResult, error)
	GetStatus(ctx context.Context, viewerID, targetID string) (*FollowResult, error)
	GetCounts(ctx context.Context, accountID string) (*Counts, error)
	ListFollowers(ctx context.Context, accountID string, page, pageSize int) (*Page[Connection], error)
	ListFollowing(ctx context.Context, accountID string, page, pageSize int) (*Page[Connection], error)
	ListIncomingRequests(ctx context.Context, accountID string, page, pageSize int) (*Page[PendingRequest], error)
	ListOutgoingRequests(ctx context.Context, accountID string, page, pageSize int) (*Page[PendingRequest], error)
}

// recipientStripes 按接收者分段加锁的段数
const recipientStripes = 64

type followService struct {
	store    repository.Store
	accounts AccountDirectory
	channel  realtime.Channel

	// 同一接收者的“提交+推送”串行执行，推送顺序与通知创建顺序一致
	stripes [recipientStripes]sync.Mutex
}

func NewFollowService(store repository.Store, accounts AccountDirectory, channel realtime.Channel) FollowService {
	if channel == nil {
		channel = realtime.Discard
	}
	return &followService{store: store, accounts: accounts, channel: channel}
}

func (s *followService) RequestFollow(ctx context.Context, senderID, receiverID string) (res *FollowResult, err error) {
	ctx, span := tracer.Start(ctx, "FollowService.RequestFollow", trace.WithAttributes(
		attribute.String("follow.sender", senderID), attribute.String("follow.receiver", receiverID)))
	defer func() { endSpan(span, err) }()

	if senderID == "" || receiverID == "" {
		return nil, ErrMissingAccount
	}
	if senderID == receiverID {
		return nil, ErrFollowSelf
	}
	exists, err := s.accounts.Exists(ctx, receiverID)
	if err != nil {
		return nil, fail("RequestFollow.accounts", err)
	}
	if !exists {
		return nil, ErrAccountNotFound
	}
	// 事务外取资料：事务内只做存储读写
	actor := s.profileOf(ctx, senderID)

	lock := s.recipientLock(receiverID)
	lock.Lock()
	defer lock.Unlock()

	var edge *model.Follow
	var notif *model.Notification
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		existing, err := tx.Follows().GetByPair(ctx, senderID, receiverID)
		switch {
		case stderrors.Is(err, repository.ErrNotFound):
			edge, err = tx.Follows().Create(ctx, senderID, receiverID)
			if stderrors.Is(err, repository.ErrDuplicate) {
				// 并发的重复提交输给了唯一键
				return ErrAlreadyRequested
			}
			if err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			switch existing.Status {
			case model.FollowStatusPending:
				return ErrAlreadyRequested
			case model.FollowStatusAccepted:
				return ErrAlreadyFollowing
			case model.FollowStatusRejected:
				// 被拒后重新请求：原边改回 pending，ID 不变
				edge, err = tx.Follows().Transition(ctx, existing.ID, model.FollowStatusRejected, model.FollowStatusPending)
				if stderrors.Is(err, repository.ErrStale) {
					return ErrAlreadyRequested
				}
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("edge %s in unknown status %q", existing.ID, existing.Status)
			}
		}

		notif = &model.Notification{
			RecipientID: receiverID,
			ActorID:     senderID,
			Type:        model.NotificationFollowRequest,
			Message:     fmt.Sprintf("%s sent you a follow request", actor.DisplayName),
		}
		return tx.Notifications().Create(ctx, notif)
	})
	if err != nil {
		return nil, fail("RequestFollow", err)
	}

	s.publish(receiverID, notif, actor, edge.ID)
	logger.Info("follow requested", zap.String("edge", edge.ID), zap.String("sender", senderID), zap.String("receiver", receiverID))
	return &FollowResult{EdgeID: edge.ID, Status: model.RelationPending}, nil
}

func (s *followService) AcceptRequest(ctx context.Context, edgeID, actingID string) (res *FollowResult, err error) {
	ctx, span := tracer.Start(ctx, "FollowService.AcceptRequest", trace.WithAttributes(
		attribute.String("follow.edge", edgeID), attribute.String("follow.acting", actingID)))
	defer func() { endSpan(span, err) }()

	return s.decide(ctx, edgeID, actingID, model.FollowStatusAccepted)
}

func (s *followService) RejectRequest(ctx context.Context, edgeID, actingID string) (res *FollowResult, err error) {
	ctx, span := tracer.Start(ctx, "FollowService.RejectRequest", trace.WithAttributes(
		attribute.String("follow.edge", edgeID), attribute.String("follow.acting", actingID)))
	defer func() { endSpan(span, err) }()

	return s.decide(ctx, edgeID, actingID, model.FollowStatusRejected)
}

// decide 接收者对 pending 请求做出决定。转换是条件更新，
// 并发的接受/拒绝只有一个提交，另一个得到 ErrEdgeResolved 或 ErrEdgeNotFound。
func (s *followService) decide(ctx context.Context, edgeID, actingID string, to model.FollowStatus) (*FollowResult, error) {
	if edgeID == "" || actingID == "" {
		return nil, ErrMissingAccount
	}
	edge, err := s.store.Follows().GetByID(ctx, edgeID)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, ErrEdgeNotFound
	}
	if err != nil {
		return nil, fail("decide.get", err)
	}
	if edge.ReceiverID != actingID {
		return nil, ErrNotReceiver
	}
	if edge.Status != model.FollowStatusPending {
		return nil, ErrEdgeResolved
	}
	actor := s.profileOf(ctx, actingID)

	typ, verb := model.NotificationFollowAccepted, "accepted"
	if to == model.FollowStatusRejected {
		typ, verb = model.NotificationFollowRejected, "rejected"
	}

	// 通知发给请求方；边的 sender 不会改变
	lock := s.recipientLock(edge.SenderID)
	lock.Lock()
	defer lock.Unlock()

	var notif *model.Notification
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		updated, err := tx.Follows().Transition(ctx, edgeID, model.FollowStatusPending, to)
		if stderrors.Is(err, repository.ErrStale) {
			if _, gerr := tx.Follows().GetByID(ctx, edgeID); stderrors.Is(gerr, repository.ErrNotFound) {
				return ErrEdgeNotFound
			}
			return ErrEdgeResolved
		}
		if err != nil {
			return err
		}
		edge = updated

		notif = &model.Notification{
			RecipientID: edge.SenderID,
			ActorID:     actingID,
			Type:        typ,
			Message:     fmt.Sprintf("%s %s your follow request", actor.DisplayName, verb),
		}
		return tx.Notifications().Create(ctx, notif)
	})
	if err != nil {
		return nil, fail("decide", err)
	}

	s.publish(edge.SenderID, notif, actor, edge.ID)
	logger.Info("follow request decided", zap.String("edge", edge.ID), zap.String("status", string(to)))
	return &FollowResult{EdgeID: edge.ID, Status: to.Relation()}, nil
}

// Unfollow 删除 accepted 边。不产生通知，也不推送。
func (s *followService) Unfollow(ctx context.Context, actingID, targetID string) (res *FollowResult, err error) {
	ctx, span := tracer.Start(ctx, "FollowService.Unfollow", trace.WithAttributes(
		attribute.String("follow.sender", actingID), attribute.String("follow.receiver", targetID)))
	defer func() { endSpan(span, err) }()

	if actingID == "" || targetID == "" {
		return nil, ErrMissingAccount
	}
	deleted, err := s.store.Follows().DeleteAccepted(ctx, actingID, targetID)
	if err != nil {
		return nil, fail("Unfollow", err)
	}
	if !deleted {
		return nil, ErrNotFollowing
	}
	logger.Info("unfollowed", zap.String("sender", actingID), zap.String("receiver", targetID))
	return &FollowResult{Status: model.RelationNotFollowing}, nil
}

func (s *followService) GetStatus(ctx context.Context, viewerID, targetID string) (*FollowResult, error) {
	if viewerID == "" || targetID == "" {
		return nil, ErrMissingAccount
	}
	edge, err := s.store.Follows().GetByPair(ctx, viewerID, targetID)
	if stderrors.Is(err, repository.ErrNotFound) {
		return &FollowResult{Status: model.RelationNotFollowing}, nil
	}
	if err != nil {
		return nil, fail("GetStatus", err)
	}
	return &FollowResult{EdgeID: edge.ID, Status: edge.Status.Relation()}, nil
}

func (s *followService) GetCounts(ctx context.Context, accountID string) (*Counts, error) {
	if accountID == "" {
		return nil, ErrMissingAccount
	}
	followers, err := s.store.Follows().CountFollowers(ctx, accountID)
	if err != nil {
		return nil, fail("GetCounts.followers", err)
	}
	following, err := s.store.Follows().CountFollowing(ctx, accountID)
	if err != nil {
		return nil, fail("GetCounts.following", err)
	}
	return &Counts{Followers: followers, Following: following}, nil
}

func (s *followService) ListFollowers(ctx context.Context, accountID string, page, pageSize int) (*Page[Connection], error) {
	page, pageSize, offset := normalizePage(page, pageSize)
	edges, total, err := s.store.Follows().ListFollowers(ctx, accountID, offset, pageSize)
	if err != nil {
		return nil, fail("ListFollowers", err)
	}
	return s.connections(ctx, edges, total, page, pageSize, func(f *model.Follow) string { return f.SenderID })
}

func (s *followService) ListFollowing(ctx context.Context, accountID string, page, pageSize int) (*Page[Connection], error) {
	page, pageSize, offset := normalizePage(page, pageSize)
	edges, total, err := s.store.Follows().ListFollowings(ctx, accountID, offset, pageSize)
	if err != nil {
		return nil, fail("ListFollowing", err)
	}
	return s.connections(ctx, edges, total, page, pageSize, func(f *model.Follow) string { return f.ReceiverID })
}

func (s *followService) ListIncomingRequests(ctx context.Context, accountID string, page, pageSize int) (*Page[PendingRequest], error) {
	page, pageSize, offset := normalizePage(page, pageSize)
	edges, total, err := s.store.Follows().ListIncomingPending(ctx, accountID, offset, pageSize)
	if err != nil {
		return nil, fail("ListIncomingRequests", err)
	}
	return s.pending(ctx, edges, total, page, pageSize, func(f *model.Follow) string { return f.SenderID })
}

func (s *followService) ListOutgoingRequests(ctx context.Context, accountID string, page, pageSize int) (*Page[PendingRequest], error) {
	page, pageSize, offset := normalizePage(page, pageSize)
	edges, total, err := s.store.Follows().ListOutgoingPending(ctx, accountID, offset, pageSize)
	if err != nil {
		return nil, fail("ListOutgoingRequests", err)
	}
	return s.pending(ctx, edges, total, page, pageSize, func(f *model.Follow) string { return f.ReceiverID })
}

func (s *followService) connections(ctx context.Context, edges []*model.Follow, total int64, page, pageSize int, counterpart func(*model.Follow) string) (*Page[Connection], error) {
	profiles, err := s.profilesOf(ctx, edges, counterpart)
	if err != nil {
		return nil, err
	}
	items := make([]Connection, len(edges))
	for i, e := range edges {
		items[i] = Connection{EdgeID: e.ID, Account: profiles[i], FollowedAt: e.CreatedAt, AcceptedAt: e.AcceptedAt}
	}
	return &Page[Connection]{Items: items, Page: page, PageSize: pageSize, Total: total}, nil
}

func (s *followService) pending(ctx context.Context, edges []*model.Follow, total int64, page, pageSize int, counterpart func(*model.Follow) string) (*Page[PendingRequest], error) {
	profiles, err := s.profilesOf(ctx, edges, counterpart)
	if err != nil {
		return nil, err
	}
	items := make([]PendingRequest, len(edges))
	for i, e := range edges {
		items[i] = PendingRequest{EdgeID: e.ID, Account: profiles[i], RequestedAt: e.UpdatedAt}
	}
	return &Page[PendingRequest]{Items: items, Page: page, PageSize: pageSize, Total: total}, nil
}

// profilesOf 批量投影对端资料，账户系统里缺失的账户只保留 ID
func (s *followService) profilesOf(ctx context.Context, edges []*model.Follow, counterpart func(*model.Follow) string) ([]model.PublicProfile, error) {
	ids := make([]string, len(edges))
	for i, e := range edges {
		ids[i] = counterpart(e)
	}
	found, err := s.accounts.PublicProfiles(ctx, ids)
	if err != nil {
		return nil, fail("profiles", err)
	}
	out := make([]model.PublicProfile, len(ids))
	for i, id := range ids {
		p, ok := found[id]
		if !ok {
			p = model.PublicProfile{ID: id, DisplayName: id, Handle: id}
		}
		out[i] = p
	}
	return out, nil
}

func (s *followService) profileOf(ctx context.Context, id string) model.PublicProfile {
	p, err := s.accounts.PublicProfile(ctx, id)
	if err != nil {
		logger.Warn("profile lookup failed, using id", zap.String("account", id), zap.Error(err))
		return model.PublicProfile{ID: id, DisplayName: id, Handle: id}
	}
	return p
}

func (s *followService) recipientLock(recipientID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(recipientID))
	return &s.stripes[h.Sum32()%recipientStripes]
}

// publish 只在事务提交之后调用，且调用方持有接收者的锁
func (s *followService) publish(recipientID string, n *model.Notification, actor model.PublicProfile, edgeID string) {
	name, ok := realtime.EventNameFor(n.Type)
	if !ok {
		return
	}
	s.channel.Publish(recipientID, realtime.Event{
		Name: name,
		Data: realtime.Payload{
			ID:        n.ID,
			Type:      n.Type,
			Message:   n.Message,
			Actor:     actor,
			EdgeID:    edgeID,
			CreatedAt: n.CreatedAt,
		},
	})
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
