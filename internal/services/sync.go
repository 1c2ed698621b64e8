package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"lecturepdf/internal/domain"
	"lecturepdf/internal/keys"
	"lecturepdf/internal/storage"
)

type converter interface {
	Convert(ctx context.Context, sourceKey string) domain.Outcome
}

// Syncer converts every transcript in the source store that has no
// rendered document yet.
type Syncer struct {
	source      storage.Store
	converter   converter
	concurrency int
	logger      *slog.Logger
}

func NewSyncer(source storage.Store, conv converter, concurrency int, logger *slog.Logger) *Syncer {
	if concurrency <= 0 {
		concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		source:      source,
		converter:   conv,
		concurrency: concurrency,
		logger:      logger.With("component", "sync"),
	}
}

// SyncAll runs one pass. Only a failure to list the source bucket is
// returned as an error; per-item results are in the report, in listing
// order. Cancelling ctx stops new conversions from starting but lets the
// ones in flight finish.
func (s *Syncer) SyncAll(ctx context.Context) (domain.SyncReport, error) {
	report := domain.SyncReport{RunID: uuid.NewString()}
	log := s.logger.With("run_id", report.RunID)
	start := time.Now()

	objects, err := s.source.List(ctx)
	if err != nil {
		log.ErrorContext(ctx, "failed to list source objects", "bucket", s.source.Bucket(), "error", err)
		return report, fmt.Errorf("%w: source %s: %v", ErrListing, s.source.Bucket(), err)
	}

	var candidates []string
	for _, obj := range objects {
		if strings.HasSuffix(obj.Key, domain.SourceExtension) {
			candidates = append(candidates, obj.Key)
		}
	}

	if len(candidates) == 0 {
		log.InfoContext(ctx, "no transcript files to process")
		return report, nil
	}

	workCtx := context.WithoutCancel(ctx)
	report.Outcomes = make([]domain.Outcome, len(candidates))

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for i, key := range candidates {
		if ctx.Err() != nil {
			report.Outcomes[i] = domain.Outcome{
				SourceKey: key,
				TargetKey: keys.DeriveTargetKey(key),
				Status:    domain.OutcomeFailed,
				Reason:    "sync aborted",
				Err:       ctx.Err(),
			}
			continue
		}
		g.Go(func() error {
			report.Outcomes[i] = s.convertOne(workCtx, key)
			return nil
		})
	}
	_ = g.Wait()

	log.InfoContext(ctx, "sync pass finished",
		"candidates", len(candidates),
		"created", report.Count(domain.OutcomeCreated),
		"skipped_exists", report.Count(domain.OutcomeSkippedExists),
		"skipped_no_transcript", report.Count(domain.OutcomeSkippedNoTranscript),
		"skipped_leased", report.Count(domain.OutcomeSkippedLeased),
		"failed", report.Count(domain.OutcomeFailed),
		"duration", time.Since(start),
	)
	return report, nil
}

func (s *Syncer) convertOne(ctx context.Context, key string) (out domain.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic converting %s: %v", key, r)
			s.logger.ErrorContext(ctx, "conversion panicked", "source", key, "error", err)
			out = domain.Outcome{SourceKey: key, TargetKey: keys.DeriveTargetKey(key), Status: domain.OutcomeFailed, Reason: err.Error(), Err: err}
		}
	}()
	return s.converter.Convert(ctx, key)
}
