package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/restaurant-reviews/internal/app/model"
	"github.com/ikkim/restaurant-reviews/internal/app/repository"
	"github.com/ikkim/restaurant-reviews/internal/connectivity"
	"github.com/ikkim/restaurant-reviews/pkg/logger"
	"github.com/ikkim/restaurant-reviews/pkg/retry"
	"github.com/ikkim/restaurant-reviews/pkg/reviewsapi"
	"gorm.io/gorm"
)

const flushLockKey = "outbox:flush"

type ReviewSource string

const (
	SourceRemote ReviewSource = "remote"
	SourceCache  ReviewSource = "cache"
)

// ReviewList is what the page renders for a restaurant. Reviews are newest
// first; Pending lists entries still waiting in the outbox.
type ReviewList struct {
	RestaurantID uint                  `json:"restaurant_id"`
	Reviews      []model.Review        `json:"reviews"`
	Pending      []model.PendingReview `json:"pending"`
	Source       ReviewSource          `json:"source"`
}

func (l *ReviewList) Empty() bool {
	return l == nil || len(l.Reviews) == 0
}

type SubmitOutcome string

const (
	OutcomeRendered SubmitOutcome = "rendered"
	OutcomeQueued   SubmitOutcome = "queued"
)

type SubmitReviewInput struct {
	RestaurantID uint
	Name         string
	Comment      string
	Rating       int
}

type SubmitResult struct {
	Outcome SubmitOutcome        `json:"outcome"`
	Pending *model.PendingReview `json:"pending,omitempty"`
	Review  *model.Review        `json:"review,omitempty"`
	Reviews *ReviewList          `json:"reviews,omitempty"`
	Notice  Notice               `json:"notice"`
}

type FlushReport struct {
	Skipped     bool   `json:"skipped"`
	Reason      string `json:"reason,omitempty"`
	Attempted   int    `json:"attempted"`
	Delivered   int    `json:"delivered"`
	Failed      int    `json:"failed"`
	Rejected    int    `json:"rejected"`
	Restaurants []uint `json:"restaurants,omitempty"`
}

type OutboxSummary struct {
	Entries []model.PendingReview         `json:"entries"`
	Counts  map[model.PendingStatus]int64 `json:"counts"`
	Online  bool                          `json:"online"`
}

// ReviewsUpdatedEvent is pushed to pages watching a restaurant after its
// review list changes.
type ReviewsUpdatedEvent struct {
	Type         string      `json:"type"`
	RestaurantID uint        `json:"restaurant_id"`
	Reviews      *ReviewList `json:"reviews"`
}

// ReviewBroadcaster fans review updates out to open pages.
type ReviewBroadcaster interface {
	BroadcastToRestaurant(restaurantID uint, message interface{})
}

type SyncOptions struct {
	BatchSize int
	LockTTL   time.Duration
	Retry     *retry.Config
}

type ReviewSyncService interface {
	Submit(ctx context.Context, session *PageSession, input SubmitReviewInput) (*SubmitResult, error)
	LoadReviews(ctx context.Context, restaurantID uint) *ReviewList
	FlushOutbox(ctx context.Context) (*FlushReport, error)
	OutboxStatus(ctx context.Context, limit int) (*OutboxSummary, error)
	DiscardRejected(ctx context.Context, correlationID string) error
}

type reviewSyncService struct {
	remote      RemoteService
	reviewRepo  repository.ReviewRepository
	outboxRepo  repository.OutboxRepository
	checker     connectivity.Checker
	locker      Locker
	broadcaster ReviewBroadcaster
	opts        SyncOptions
	now         func() time.Time

	// acknowledged holds entries the backend accepted but the outbox could
	// not drop; flushes clean them up instead of sending them again.
	ackMu        sync.Mutex
	acknowledged map[string]struct{}
}

func NewReviewSyncService(
	remote RemoteService,
	reviewRepo repository.ReviewRepository,
	outboxRepo repository.OutboxRepository,
	checker connectivity.Checker,
	locker Locker,
	broadcaster ReviewBroadcaster,
	opts SyncOptions,
) ReviewSyncService {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 2 * time.Minute
	}
	if opts.Retry == nil {
		opts.Retry = retry.DefaultConfig()
	}
	if locker == nil {
		locker = NewLocalLocker()
	}
	return &reviewSyncService{
		remote:      remote,
		reviewRepo:  reviewRepo,
		outboxRepo:  outboxRepo,
		checker:     checker,
		locker:      locker,
		broadcaster: broadcaster,
		opts:        opts,
		now:         time.Now,

		acknowledged: make(map[string]struct{}),
	}
}

func validateReview(input SubmitReviewInput) (SubmitReviewInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Comment = strings.TrimSpace(input.Comment)

	if input.Name == "" {
		return input, &ValidationError{Field: "name", Message: MsgEmptyName}
	}
	if input.Comment == "" {
		return input, &ValidationError{Field: "comment", Message: MsgEmptyComment}
	}
	if !model.ValidRating(input.Rating) {
		return input, &ValidationError{Field: "rating", Message: MsgInvalidRating}
	}
	return input, nil
}

// Submit writes the review to the outbox first and then tries to deliver it
// if the backend is reachable. A delivered review is rendered; anything
// else stays queued for the next flush.
func (s *reviewSyncService) Submit(ctx context.Context, session *PageSession, input SubmitReviewInput) (*SubmitResult, error) {
	if session == nil {
		session = NewPageSession(input.RestaurantID)
	}
	if session.RestaurantID != 0 {
		input.RestaurantID = session.RestaurantID
	}

	if !session.beginSubmit() {
		session.AddNotice(InfoNotice(MsgBusy))
		return nil, ErrSubmissionInProgress
	}
	defer session.endSubmit()

	typed := ReviewForm{Name: input.Name, Comment: input.Comment, Rating: input.Rating}

	input, err := validateReview(input)
	if err != nil {
		session.SetForm(typed)
		session.AddNotice(NoticeFor(err))
		return nil, err
	}

	// An entry about to be sent right away is claimed for LockTTL so a
	// concurrent flush cannot list it. recordFailure reschedules it.
	online := s.checker.IsOnline()
	nextAttempt := s.now()
	if online {
		nextAttempt = nextAttempt.Add(s.opts.LockTTL)
	}

	pending := &model.PendingReview{
		CorrelationID: uuid.NewString(),
		RestaurantID:  input.RestaurantID,
		Name:          input.Name,
		Rating:        input.Rating,
		Comments:      input.Comment,
		NextAttemptAt: nextAttempt,
	}
	if err := s.outboxRepo.Append(ctx, pending); err != nil {
		logger.Error("Failed to queue review", err, map[string]interface{}{
			"restaurant_id": input.RestaurantID,
		})
		storageErr := &StorageError{Op: "append pending review", Err: err}
		session.SetForm(typed)
		session.AddNotice(NoticeFor(storageErr))
		return nil, storageErr
	}

	if !online {
		return s.queued(ctx, session, pending), nil
	}

	review, err := s.deliver(ctx, pending)
	if err != nil {
		if s.recordFailure(ctx, pending, err) {
			session.SetForm(typed)
			session.AddNotice(ErrorNotice(MsgRejected))
			s.refreshPending(ctx, session)
			return nil, errors.Join(ErrReviewRejected, err)
		}
		return s.queued(ctx, session, pending), nil
	}

	list := s.LoadReviews(ctx, input.RestaurantID)
	includeReview(list, review)
	session.SetReviews(list)
	session.ResetForm()
	notice := InfoNotice(MsgSubmitted)
	session.AddNotice(notice)
	s.broadcast(list)

	logger.Info("Review delivered", map[string]interface{}{
		"restaurant_id":  input.RestaurantID,
		"review_id":      review.ID,
		"correlation_id": pending.CorrelationID,
	})

	return &SubmitResult{
		Outcome: OutcomeRendered,
		Review:  review,
		Reviews: list,
		Notice:  notice,
	}, nil
}

func (s *reviewSyncService) queued(ctx context.Context, session *PageSession, pending *model.PendingReview) *SubmitResult {
	session.ResetForm()
	notice := InfoNotice(MsgQueued)
	session.AddNotice(notice)
	s.refreshPending(ctx, session)

	logger.Info("Review queued for later delivery", map[string]interface{}{
		"restaurant_id":  pending.RestaurantID,
		"correlation_id": pending.CorrelationID,
	})

	return &SubmitResult{
		Outcome: OutcomeQueued,
		Pending: pending,
		Reviews: session.Reviews(),
		Notice:  notice,
	}
}

// refreshPending updates the session's pending list without touching the
// rendered reviews.
func (s *reviewSyncService) refreshPending(ctx context.Context, session *PageSession) {
	current := session.Reviews()
	list := &ReviewList{RestaurantID: session.RestaurantID, Reviews: []model.Review{}, Source: SourceCache}
	if current != nil {
		copied := *current
		list = &copied
	}
	list.Pending = s.pendingFor(ctx, session.RestaurantID)
	session.SetReviews(list)
}

// deliver sends one entry. On success the entry leaves the outbox and the
// acknowledged review goes into the cache.
func (s *reviewSyncService) deliver(ctx context.Context, pending *model.PendingReview) (*model.Review, error) {
	review, err := s.remote.CreateReview(ctx, pending)
	if err != nil {
		return nil, err
	}

	if err := s.outboxRepo.Remove(ctx, pending.CorrelationID); err != nil {
		logger.Error("Failed to remove delivered review from outbox", err, map[string]interface{}{
			"correlation_id": pending.CorrelationID,
		})
		if err := s.outboxRepo.MarkDelivered(ctx, pending.CorrelationID); err != nil {
			logger.Error("Failed to mark review delivered", err, map[string]interface{}{
				"correlation_id": pending.CorrelationID,
			})
			s.ackMu.Lock()
			s.acknowledged[pending.CorrelationID] = struct{}{}
			s.ackMu.Unlock()
		}
	}
	if err := s.reviewRepo.Upsert(ctx, review); err != nil {
		logger.Warn("Failed to cache delivered review", map[string]interface{}{
			"review_id": review.ID,
			"error":     err.Error(),
		})
	}
	return review, nil
}

// recordFailure reschedules or rejects an entry and reports whether it was
// rejected. Backend validation and missing-restaurant answers are final;
// everything else is retried later.
func (s *reviewSyncService) recordFailure(ctx context.Context, pending *model.PendingReview, cause error) bool {
	fields := map[string]interface{}{
		"correlation_id": pending.CorrelationID,
		"restaurant_id":  pending.RestaurantID,
		"attempts":       pending.Attempts + 1,
	}

	if errors.Is(cause, reviewsapi.ErrValidation) || errors.Is(cause, reviewsapi.ErrNotFound) {
		if err := s.outboxRepo.MarkRejected(ctx, pending.CorrelationID, cause.Error()); err != nil {
			logger.Error("Failed to mark review rejected", err, fields)
		}
		logger.Warn("Backend rejected queued review", fields)
		return true
	}

	next := s.now().Add(retry.Backoff(s.opts.Retry, pending.Attempts+1))
	if err := s.outboxRepo.MarkAttempt(ctx, pending.CorrelationID, cause.Error(), next); err != nil {
		logger.Error("Failed to record delivery attempt", err, fields)
	}
	if reviewsapi.IsRetryable(cause) {
		s.markOffline()
	}
	fields["next_attempt_at"] = next
	logger.Warn("Review delivery failed, will retry", fields)
	return false
}

// dropAcknowledged reports whether the entry was already accepted by the
// backend, retrying its removal from the outbox.
func (s *reviewSyncService) dropAcknowledged(ctx context.Context, correlationID string) bool {
	s.ackMu.Lock()
	defer s.ackMu.Unlock()
	if _, ok := s.acknowledged[correlationID]; !ok {
		return false
	}
	if err := s.outboxRepo.Remove(ctx, correlationID); err == nil {
		delete(s.acknowledged, correlationID)
	}
	return true
}

func (s *reviewSyncService) markOffline() {
	if setter, ok := s.checker.(interface{ Set(bool) }); ok {
		setter.Set(false)
	}
}

// LoadReviews reads from the backend, replaces the cached copy and falls
// back to the cache when the backend cannot be reached. It never fails;
// the worst case is an empty list.
func (s *reviewSyncService) LoadReviews(ctx context.Context, restaurantID uint) *ReviewList {
	list := &ReviewList{RestaurantID: restaurantID}

	reviews, err := s.remote.FetchReviews(ctx, restaurantID)
	if err == nil {
		sortNewestFirst(reviews)
		if err := s.reviewRepo.ReplaceForRestaurant(ctx, restaurantID, reviews); err != nil {
			logger.Warn("Failed to refresh review cache", map[string]interface{}{
				"restaurant_id": restaurantID,
				"error":         err.Error(),
			})
		}
		list.Reviews = reviews
		list.Source = SourceRemote
	} else {
		logger.Warn("Reviews unavailable from backend, using cache", map[string]interface{}{
			"restaurant_id": restaurantID,
			"error":         err.Error(),
		})
		cached, cacheErr := s.reviewRepo.FindByRestaurantID(ctx, restaurantID)
		if cacheErr != nil {
			logger.Error("Failed to read cached reviews", cacheErr, map[string]interface{}{
				"restaurant_id": restaurantID,
			})
		}
		list.Reviews = cached
		list.Source = SourceCache
	}

	if list.Reviews == nil {
		list.Reviews = []model.Review{}
	}
	list.Pending = s.pendingFor(ctx, restaurantID)
	return list
}

func (s *reviewSyncService) pendingFor(ctx context.Context, restaurantID uint) []model.PendingReview {
	pending, err := s.outboxRepo.ListByRestaurant(ctx, restaurantID)
	if err != nil {
		logger.Warn("Failed to list pending reviews", map[string]interface{}{
			"restaurant_id": restaurantID,
			"error":         err.Error(),
		})
		return []model.PendingReview{}
	}
	return pending
}

// FlushOutbox delivers due entries oldest first. Only one flush runs at a
// time; a second caller gets a skipped report.
func (s *reviewSyncService) FlushOutbox(ctx context.Context) (*FlushReport, error) {
	if !s.checker.IsOnline() {
		return &FlushReport{Skipped: true, Reason: "offline"}, nil
	}

	unlock, ok, err := s.locker.TryLock(ctx, flushLockKey, s.opts.LockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &FlushReport{Skipped: true, Reason: "flush already running"}, nil
	}
	defer unlock()

	if purged, err := s.outboxRepo.PurgeDelivered(ctx); err != nil {
		logger.Warn("Failed to purge delivered reviews", map[string]interface{}{
			"error": err.Error(),
		})
	} else if purged > 0 {
		logger.Debug("Purged delivered reviews", map[string]interface{}{
			"count": purged,
		})
	}

	due, err := s.outboxRepo.ListDue(ctx, s.now(), s.opts.BatchSize)
	if err != nil {
		return nil, &StorageError{Op: "list due reviews", Err: err}
	}

	report := &FlushReport{}
	touched := make(map[uint]struct{})

	for i := range due {
		if ctx.Err() != nil {
			break
		}
		entry := &due[i]
		if s.dropAcknowledged(ctx, entry.CorrelationID) {
			continue
		}
		report.Attempted++

		err := retry.Do(ctx, s.opts.Retry, reviewsapi.IsRetryable, func() error {
			_, err := s.deliver(ctx, entry)
			return err
		})
		if err == nil {
			report.Delivered++
			touched[entry.RestaurantID] = struct{}{}
			continue
		}
		if ctx.Err() != nil {
			break
		}

		if s.recordFailure(ctx, entry, err) {
			report.Rejected++
			touched[entry.RestaurantID] = struct{}{}
			continue
		}
		report.Failed++
		if reviewsapi.IsRetryable(err) {
			// backend is down; the rest stay due for the next trigger
			break
		}
	}

	for restaurantID := range touched {
		report.Restaurants = append(report.Restaurants, restaurantID)
	}
	sort.Slice(report.Restaurants, func(i, j int) bool { return report.Restaurants[i] < report.Restaurants[j] })

	for _, restaurantID := range report.Restaurants {
		s.broadcast(s.LoadReviews(ctx, restaurantID))
	}

	if report.Attempted > 0 {
		logger.Info("Outbox flushed", map[string]interface{}{
			"attempted": report.Attempted,
			"delivered": report.Delivered,
			"failed":    report.Failed,
			"rejected":  report.Rejected,
		})
	}
	return report, nil
}

func (s *reviewSyncService) OutboxStatus(ctx context.Context, limit int) (*OutboxSummary, error) {
	entries, err := s.outboxRepo.List(ctx, limit)
	if err != nil {
		return nil, &StorageError{Op: "list outbox", Err: err}
	}
	counts, err := s.outboxRepo.CountByStatus(ctx)
	if err != nil {
		return nil, &StorageError{Op: "count outbox", Err: err}
	}
	return &OutboxSummary{
		Entries: entries,
		Counts:  counts,
		Online:  s.checker.IsOnline(),
	}, nil
}

// DiscardRejected removes an entry the backend refused. Entries still
// waiting for delivery cannot be discarded.
func (s *reviewSyncService) DiscardRejected(ctx context.Context, correlationID string) error {
	entry, err := s.outboxRepo.FindByCorrelationID(ctx, correlationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPendingNotFound
		}
		return &StorageError{Op: "find pending review", Err: err}
	}
	if entry.Status != model.PendingStatusRejected {
		return ErrPendingNotRejected
	}
	if err := s.outboxRepo.Remove(ctx, correlationID); err != nil {
		return &StorageError{Op: "remove pending review", Err: err}
	}
	s.broadcast(s.LoadReviews(ctx, entry.RestaurantID))
	return nil
}

func (s *reviewSyncService) broadcast(list *ReviewList) {
	if s.broadcaster == nil || list == nil {
		return
	}
	s.broadcaster.BroadcastToRestaurant(list.RestaurantID, ReviewsUpdatedEvent{
		Type:         "reviews_updated",
		RestaurantID: list.RestaurantID,
		Reviews:      list,
	})
}

func sortNewestFirst(reviews []model.Review) {
	sort.SliceStable(reviews, func(i, j int) bool {
		if !reviews[i].UpdatedAt.Equal(reviews[j].UpdatedAt) {
			return reviews[i].UpdatedAt.After(reviews[j].UpdatedAt)
		}
		return reviews[i].ID > reviews[j].ID
	})
}

// includeReview puts a just-acknowledged review at the top when the
// backend's list does not show it yet.
func includeReview(list *ReviewList, review *model.Review) {
	if review == nil {
		return
	}
	for _, r := range list.Reviews {
		if r.ID == review.ID {
			return
		}
	}
	list.Reviews = append([]model.Review{*review}, list.Reviews...)
}
