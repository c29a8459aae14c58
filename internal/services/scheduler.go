package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"alfredoptarigan/hirematch/internal/metrics"
	"alfredoptarigan/hirematch/internal/repositories"
)

type Scheduler interface {
	Start(ctx context.Context)
	Stop()
	RunReaper(ctx context.Context) error
	RunStaleFlagger(ctx context.Context) error
}

type SchedulerOptions struct {
	ReaperInterval time.Duration
	WarningWindow  time.Duration
	StaleInterval  time.Duration
	StaleAfter     time.Duration
}

type scheduler struct {
	listingRepo repositories.ListingRepository
	appRepo     repositories.ApplicationRepository
	mailer      Mailer
	opts        SchedulerOptions
	logger      *zap.Logger
	now         func() time.Time
	wg          sync.WaitGroup
	stopChan    chan struct{}
	stopOnce    sync.Once
}

func NewScheduler(
	listingRepo repositories.ListingRepository,
	appRepo repositories.ApplicationRepository,
	mailer Mailer,
	opts SchedulerOptions,
	logger *zap.Logger,
) Scheduler {
	return &scheduler{
		listingRepo: listingRepo,
		appRepo:     appRepo,
		mailer:      mailer,
		opts:        opts,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
		stopChan:    make(chan struct{}),
	}
}

// Start implements Scheduler.
func (s *scheduler) Start(ctx context.Context) {
	s.logger.Info("starting scheduler",
		zap.Duration("reaper_interval", s.opts.ReaperInterval),
		zap.Duration("stale_interval", s.opts.StaleInterval))

	s.wg.Add(2)
	go s.loop(ctx, "reaper", s.opts.ReaperInterval, s.RunReaper)
	go s.loop(ctx, "stale_flagger", s.opts.StaleInterval, s.RunStaleFlagger)
}

// Stop implements Scheduler.
func (s *scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("stopping scheduler")
		close(s.stopChan)
	})
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *scheduler) loop(ctx context.Context, name string, interval time.Duration, run func(context.Context) error) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := run(ctx); err != nil {
				s.logger.Error("scheduled job failed", zap.String("job", name), zap.Error(err))
				metrics.SchedulerRunsTotal.WithLabelValues(name, "error").Inc()
				continue
			}
			metrics.SchedulerRunsTotal.WithLabelValues(name, "ok").Inc()
		}
	}
}

// RunReaper implements Scheduler. It expires listings past their date,
// then warns owners of listings expiring within the warning window. A
// failed email leaves the listing unstamped so the next run retries it.
func (s *scheduler) RunReaper(ctx context.Context) error {
	now := s.now()

	jobs, err := s.listingRepo.ExpireJobs(ctx, now)
	if err != nil {
		return err
	}
	profiles, err := s.listingRepo.ExpireProfiles(ctx, now)
	if err != nil {
		return err
	}

	expiring, err := s.listingRepo.FindExpiringSoon(ctx, now, s.opts.WarningWindow)
	if err != nil {
		return err
	}

	warned := 0
	for _, listing := range expiring {
		if listing.OwnerEmail == "" {
			continue
		}
		if err := s.mailer.SendExpiryWarning(ctx, listing); err != nil {
			s.logger.Warn("expiry warning not sent",
				zap.String("kind", string(listing.Kind)),
				zap.String("listing_id", listing.ID.String()),
				zap.Error(err))
			continue
		}
		if err := s.listingRepo.MarkWarningSent(ctx, listing.Kind, listing.ID, now); err != nil {
			s.logger.Warn("failed to stamp warning",
				zap.String("listing_id", listing.ID.String()),
				zap.Error(err))
			continue
		}
		warned++
	}

	s.logger.Info("reaper run complete",
		zap.Int64("jobs_expired", jobs),
		zap.Int64("profiles_expired", profiles),
		zap.Int("warnings_sent", warned))
	return nil
}

// RunStaleFlagger implements Scheduler.
func (s *scheduler) RunStaleFlagger(ctx context.Context) error {
	now := s.now()

	flagged, err := s.appRepo.FlagStale(ctx, now.Add(-s.opts.StaleAfter), now)
	if err != nil {
		return err
	}

	s.logger.Info("stale flagger run complete", zap.Int64("flagged", flagged))
	return nil
}
