package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/user/internfinder/internal/entity"
	"github.com/user/internfinder/internal/provider"
	"github.com/user/internfinder/internal/repository"
	"github.com/user/internfinder/pkg/metrics"
	"go.uber.org/zap"
)

// CrawlerResolver looks up the crawler of a provider.
type CrawlerResolver interface {
	Get(p entity.Provider) (provider.ProviderCrawler, error)
}

// stageError tags a failure with the pipeline stage it came from.
type stageError struct {
	stage string
	err   error
}

func (e *stageError) Error() string { return e.stage + ": " + e.err.Error() }
func (e *stageError) Unwrap() error { return e.err }

func inStage(stage string, err error) error {
	return &stageError{stage: stage, err: err}
}

// errorType maps a job failure onto the error_type metric label.
func errorType(err error) string {
	switch {
	case errors.Is(err, repository.ErrNavigationTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, repository.ErrNavigationFailed):
		return "navigation"
	case errors.Is(err, repository.ErrExtractionFailed):
		return "extraction"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, entity.ErrUnknownProvider):
		return "unknown_provider"
	}
	var se *stageError
	if errors.As(err, &se) {
		return se.stage
	}
	return "unknown"
}

// Ingestor runs one crawl job from browser session to persisted rows.
type Ingestor struct {
	crawlers  CrawlerResolver
	browser   repository.Browser
	validator *ListingValidator
	listings  repository.ListingRepository
	statuses  repository.StatusRepository
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

func NewIngestor(
	crawlers CrawlerResolver,
	browser repository.Browser,
	listings repository.ListingRepository,
	statuses repository.StatusRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Ingestor {
	return &Ingestor{
		crawlers:  crawlers,
		browser:   browser,
		validator: NewListingValidator(),
		listings:  listings,
		statuses:  statuses,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

type ingestResult struct {
	extracted int
	repository.InsertResult
}

// Process crawls, normalizes, validates and stores the listings of one job.
// Nothing is persisted unless every step before the insert succeeds.
func (in *Ingestor) Process(ctx context.Context, job *entity.CrawlJob) error {
	log := in.logger.With(
		zap.String("provider", job.Provider.String()),
		zap.String("job_id", job.ID),
		zap.Int("attempt", job.Attempt),
	)
	started := in.now()
	in.saveStatus(ctx, log, &entity.CrawlStatus{
		Provider:      job.Provider,
		CurrentStatus: entity.StatusCrawling,
		JobID:         job.ID,
		LastRunAt:     &started,
	})
	log.Info("Crawl job started")

	res, err := in.ingest(ctx, job, log)
	elapsed := in.now().Sub(started)
	in.metrics.JobDuration.WithLabelValues(job.Provider.String()).Observe(elapsed.Seconds())

	if err != nil && ctx.Err() != nil {
		// The worker pool leaves the delivery for redelivery, so this is not a failure.
		in.saveStatus(ctx, log, &entity.CrawlStatus{
			Provider:      job.Provider,
			CurrentStatus: entity.StatusInterrupted,
			JobID:         job.ID,
			LastRunAt:     &started,
			FailureReason: err.Error(),
		})
		log.Warn("Crawl job interrupted", zap.Duration("duration", elapsed), zap.Error(err))
		return fmt.Errorf("%s job %s interrupted: %w", job.Provider, job.ID, err)
	}
	if err != nil {
		kind := errorType(err)
		in.metrics.JobsTotal.WithLabelValues(job.Provider.String(), "failure", kind).Inc()
		in.saveStatus(ctx, log, &entity.CrawlStatus{
			Provider:      job.Provider,
			CurrentStatus: entity.StatusFailed,
			JobID:         job.ID,
			LastRunAt:     &started,
			Extracted:     res.extracted,
			FailureReason: err.Error(),
		})
		log.Error("Crawl job failed",
			zap.String("error_type", kind),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		return fmt.Errorf("%s job %s: %w", job.Provider, job.ID, err)
	}

	finished := in.now()
	in.metrics.JobsTotal.WithLabelValues(job.Provider.String(), "success", "").Inc()
	in.metrics.ListingsInserted.WithLabelValues(job.Provider.String()).Add(float64(res.Inserted))
	in.metrics.ListingsDuplicate.WithLabelValues(job.Provider.String()).Add(float64(res.Duplicates))
	in.saveStatus(ctx, log, &entity.CrawlStatus{
		Provider:      job.Provider,
		CurrentStatus: entity.StatusCompleted,
		JobID:         job.ID,
		LastRunAt:     &started,
		LastSuccessAt: &finished,
		Extracted:     res.extracted,
		Inserted:      res.Inserted,
		Duplicates:    res.Duplicates,
	})
	log.Info("Crawl job completed",
		zap.Int("extracted", res.extracted),
		zap.Int("inserted", res.Inserted),
		zap.Int("duplicates", res.Duplicates),
		zap.Duration("duration", elapsed),
	)
	return nil
}

func (in *Ingestor) ingest(ctx context.Context, job *entity.CrawlJob, log *zap.Logger) (ingestResult, error) {
	var res ingestResult

	crawler, err := in.crawlers.Get(job.Provider)
	if err != nil {
		return res, err
	}
	raws, err := in.crawl(ctx, crawler, log)
	if err != nil {
		return res, inStage("crawl", err)
	}
	res.extracted = len(raws)
	in.metrics.ListingsExtracted.WithLabelValues(job.Provider.String()).Add(float64(len(raws)))

	batch, err := NormalizeAll(raws)
	if err != nil {
		return res, inStage("normalization", err)
	}

	if errs := in.validator.Validate(batch); len(errs) > 0 {
		in.metrics.ValidationErrors.WithLabelValues(job.Provider.String()).Add(float64(len(errs)))
		for _, ve := range errs {
			log.Warn("Listing failed validation",
				zap.Int("index", ve.Index),
				zap.String("url", batch[ve.Index].URL),
				zap.String("field", ve.Field),
				zap.String("rule", ve.Rule),
				zap.String("value", ve.Value),
			)
		}
		return res, fmt.Errorf("%w: %d errors across %d records", ErrValidation, len(errs), len(batch))
	}

	if len(batch) == 0 {
		log.Warn("Crawl returned no listings")
		return res, nil
	}
	inserted, err := in.listings.InsertBatch(ctx, batch)
	if err != nil {
		return res, inStage("storage", err)
	}
	res.InsertResult = inserted
	return res, nil
}

// crawl runs the crawler on a fresh session and releases the session before returning.
func (in *Ingestor) crawl(ctx context.Context, crawler provider.ProviderCrawler, log *zap.Logger) ([]entity.RawListing, error) {
	session, err := in.browser.NewSession(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Warn("Failed to close browser session", zap.Error(err))
		}
	}()
	return crawler.Crawl(ctx, session)
}

func (in *Ingestor) saveStatus(ctx context.Context, log *zap.Logger, status *entity.CrawlStatus) {
	if err := in.statuses.Save(context.WithoutCancel(ctx), status); err != nil {
		log.Warn("Failed to record crawl status", zap.String("status", status.CurrentStatus), zap.Error(err))
	}
}
