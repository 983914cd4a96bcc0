package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/RaikyD/lengow-mws-connector/internal/domain"
	"github.com/RaikyD/lengow-mws-connector/internal/ledger"
	"github.com/RaikyD/lengow-mws-connector/internal/lengow"
	"github.com/RaikyD/lengow-mws-connector/internal/lock"
	"github.com/RaikyD/lengow-mws-connector/internal/logger"
	"github.com/RaikyD/lengow-mws-connector/internal/mapper"
	"github.com/RaikyD/lengow-mws-connector/internal/mws"
)

var tracer = otel.Tracer("github.com/RaikyD/lengow-mws-connector/internal/application")

type FeedSource interface {
	FetchOrders(ctx context.Context, q lengow.Query) (*domain.FeedResponse, error)
}

type Fulfiller interface {
	PreviewShipment(ctx context.Context, r domain.PreviewRequest) (*mws.Response, error)
	CreateFulfillmentOrder(ctx context.Context, r domain.CreateOrderRequest) (*mws.Response, error)
	CancelFulfillmentOrder(ctx context.Context, r domain.CancelRequest) (*mws.Response, error)
}

type EventPublisher interface {
	PublishSubmitted(ctx context.Context, ev domain.SubmittedEvent) error
}

type nopPublisher struct{}

func (nopPublisher) PublishSubmitted(context.Context, domain.SubmittedEvent) error { return nil }

// Window is the purchase date range a run asks the feed for.
type Window struct {
	Start time.Time
	End   time.Time
}

// YesterdayToToday is the window of a scheduled daily run.
func YesterdayToToday(now time.Time) Window {
	return Window{Start: now.AddDate(0, 0, -1), End: now}
}

type Report struct {
	RunID        string `json:"run_id"`
	Fetched      int    `json:"fetched"`
	Submitted    int    `json:"submitted"`
	AlreadyKnown int    `json:"already_known"`
	Skipped      int    `json:"skipped"`
	Failed       int    `json:"failed"`
}

// PollPolicy bounds the cancellation confirmation loop.
type PollPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

type Deps struct {
	Feed      FeedSource
	Fulfiller Fulfiller
	Mapper    *mapper.Mapper
	Store     ledger.Store
	Locker    lock.Locker
	Events    EventPublisher
}

type Options struct {
	// Query carries account, group, flux and status; the window fills in
	// the dates.
	Query      lengow.Query
	CancelPoll PollPolicy
	Now        func() time.Time
}

type FulfillmentService struct {
	feed      FeedSource
	fulfiller Fulfiller
	mapper    *mapper.Mapper
	store     ledger.Store
	locker    lock.Locker
	events    EventPublisher

	query lengow.Query
	poll  PollPolicy
	now   func() time.Time

	// one run at a time inside this process; Locker covers other processes
	runMu sync.Mutex
}

func NewFulfillmentService(d Deps, o Options) *FulfillmentService {
	s := &FulfillmentService{
		feed:      d.Feed,
		fulfiller: d.Fulfiller,
		mapper:    d.Mapper,
		store:     d.Store,
		locker:    d.Locker,
		events:    d.Events,
		query:     o.Query,
		poll:      o.CancelPoll,
		now:       o.Now,
	}
	if s.locker == nil {
		s.locker = lock.NopLocker{}
	}
	if s.events == nil {
		s.events = nopPublisher{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.poll.MaxAttempts <= 0 {
		s.poll.MaxAttempts = 1
	}
	if s.poll.Delay <= 0 {
		s.poll.Delay = time.Millisecond
	}
	return s
}

type outcome int

const (
	outcomeSubmitted outcome = iota
	outcomeKnown
	outcomeSkipped
	outcomeFailed
)

// Run fetches the window's orders and submits every one that is neither
// recorded in the ledger nor filtered out. Each accepted order is written to
// the ledger store before the next one is tried.
func (s *FulfillmentService) Run(ctx context.Context, w Window) (Report, error) {
	report := Report{RunID: uuid.NewString()}

	if !s.runMu.TryLock() {
		return report, fmt.Errorf("%w: run already active in this process", domain.ErrRunLocked)
	}
	defer s.runMu.Unlock()

	ctx, span := tracer.Start(ctx, "fulfillment.run", trace.WithAttributes(
		attribute.String("run.id", report.RunID),
		attribute.String("window.start", w.Start.Format(lengow.DateLayout)),
		attribute.String("window.end", w.End.Format(lengow.DateLayout)),
	))
	defer span.End()

	log := logger.With("run_id", report.RunID)
	log.Infow("run started", "start", w.Start.Format(lengow.DateLayout), "end", w.End.Format(lengow.DateLayout))

	release, err := s.locker.Acquire(ctx)
	if err != nil {
		return report, failSpan(span, err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			log.Warnw("release run lock failed", "err", err)
		}
	}()

	led, err := ledger.Load(ctx, s.store)
	if err != nil {
		return report, failSpan(span, err)
	}

	q := s.query
	q.Start, q.End = w.Start, w.End
	feed, err := s.feed.FetchOrders(ctx, q)
	if err != nil {
		return report, failSpan(span, fmt.Errorf("fetch orders: %w", err))
	}
	report.Fetched = len(feed.Orders) + len(feed.Rejected)
	for _, rej := range feed.Rejected {
		log.Warnw("feed record cannot be decoded", "index", rej.Index, "err", rej.Err)
		report.Failed++
	}

	for _, o := range feed.Orders {
		if err := ctx.Err(); err != nil {
			log.Warnw("run interrupted", "err", err)
			break
		}

		res, err := s.fulfillOne(ctx, report.RunID, led, o)
		switch res {
		case outcomeKnown:
			report.AlreadyKnown++
		case outcomeSkipped:
			report.Skipped++
		case outcomeFailed:
			report.Failed++
		case outcomeSubmitted:
			report.Submitted++
		}
		if err != nil {
			// the order was accepted but could not be recorded; stop before
			// anything else goes out unrecorded
			return report, failSpan(span, err)
		}
	}

	if err := led.Flush(context.WithoutCancel(ctx), s.store); err != nil {
		return report, failSpan(span, err)
	}

	span.SetAttributes(
		attribute.Int("orders.fetched", report.Fetched),
		attribute.Int("orders.submitted", report.Submitted),
		attribute.Int("orders.failed", report.Failed),
	)
	log.Infow("run finished",
		"fetched", report.Fetched,
		"submitted", report.Submitted,
		"already_known", report.AlreadyKnown,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// fulfillOne returns a non-nil error only when the run must stop.
func (s *FulfillmentService) fulfillOne(ctx context.Context, runID string, led *ledger.Ledger, o domain.Order) (outcome, error) {
	id := o.CompositeID()
	log := logger.With("run_id", runID, "order_id", id)

	if led.Contains(id) {
		log.Debugw("order already fulfilled")
		return outcomeKnown, nil
	}

	ctx, span := tracer.Start(ctx, "fulfillment.order", trace.WithAttributes(
		attribute.String("order.id", id),
		attribute.String("order.marketplace", o.Marketplace),
	))
	defer span.End()

	req, ok, err := s.mapper.BuildCreateOrderRequest(o, id)
	if err != nil {
		log.Warnw("order cannot be mapped", "err", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "mapping")
		return outcomeFailed, nil
	}
	if !ok {
		log.Debugw("order filtered out", "marketplace", o.Marketplace, "lengow_status", o.Status.Lengow)
		return outcomeSkipped, nil
	}

	resp, err := s.fulfiller.CreateFulfillmentOrder(ctx, req)
	if err != nil {
		log.Errorw("fulfillment order rejected", "err", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "submit")
		return outcomeFailed, nil
	}

	// MWS has the order now; record it even if the run is being cancelled
	led.Add(id)
	if err := led.Flush(context.WithoutCancel(ctx), s.store); err != nil {
		span.RecordError(err)
		return outcomeSubmitted, fmt.Errorf("record %s: %w", id, err)
	}
	log.Infow("fulfillment order created", "request_id", resp.RequestID)

	ev := domain.SubmittedEvent{
		EventID:     uuid.NewString(),
		RunID:       runID,
		OrderID:     id,
		Marketplace: o.Marketplace,
		RequestID:   resp.RequestID,
		SubmittedAt: s.now().UTC(),
	}
	if err := s.events.PublishSubmitted(ctx, ev); err != nil {
		log.Warnw("publish submitted event failed", "err", err)
	}
	return outcomeSubmitted, nil
}

// Preview asks MWS what a fulfillment of o would look like, without
// creating anything.
func (s *FulfillmentService) Preview(ctx context.Context, o domain.Order) (*mws.Response, error) {
	ctx, span := tracer.Start(ctx, "fulfillment.preview", trace.WithAttributes(
		attribute.String("order.id", o.CompositeID()),
	))
	defer span.End()

	req, err := s.mapper.BuildPreviewRequest(o)
	if err != nil {
		return nil, failSpan(span, err)
	}
	resp, err := s.fulfiller.PreviewShipment(ctx, req)
	if err != nil {
		return nil, failSpan(span, err)
	}
	return resp, nil
}

// CancelAndConfirm sends the cancellation until MWS answers with success,
// at most PollPolicy.MaxAttempts times. Auth and request errors end the loop
// at once; only unavailability and throttling are tried again.
func (s *FulfillmentService) CancelAndConfirm(ctx context.Context, orderID string) (*mws.Response, error) {
	ctx, span := tracer.Start(ctx, "fulfillment.cancel", trace.WithAttributes(
		attribute.String("order.id", orderID),
	))
	defer span.End()

	log := logger.With("order_id", orderID)
	req := mapper.BuildCancelRequest(orderID)

	var (
		resp     *mws.Response
		attempts int
	)
	backoff := retry.WithMaxRetries(uint64(s.poll.MaxAttempts-1), retry.NewConstant(s.poll.Delay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		r, err := s.fulfiller.CancelFulfillmentOrder(ctx, req)
		if err == nil {
			resp = r
			return nil
		}
		if mws.IsTemporary(err) {
			log.Infow("cancellation not confirmed yet", "attempt", attempts, "err", err)
			return retry.RetryableError(err)
		}
		return err
	})
	span.SetAttributes(attribute.Int("cancel.attempts", attempts))

	switch {
	case err == nil:
		log.Infow("cancellation confirmed", "attempts", attempts, "request_id", resp.RequestID)
		return resp, nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, failSpan(span, err)
	case mws.IsTemporary(err):
		return nil, failSpan(span, fmt.Errorf("%w: %s after %d attempts: %v",
			domain.ErrCancelNotConfirmed, orderID, attempts, err))
	default:
		return nil, failSpan(span, err)
	}
}

// LedgerIDs reads the ledger straight from the store.
func (s *FulfillmentService) LedgerIDs(ctx context.Context) ([]string, error) {
	led, err := ledger.Load(ctx, s.store)
	if err != nil {
		return nil, err
	}
	return led.IDs(), nil
}

func failSpan(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
