package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"lecturepdf/internal/domain"
	"lecturepdf/internal/keys"
	"lecturepdf/internal/storage"
)

// Lister builds the categorized view of rendered documents.
type Lister struct {
	target   storage.Store
	linker   Linker
	schedule []domain.ScheduleSlot
	loc      *time.Location
	logger   *slog.Logger
}

func NewLister(target storage.Store, linker Linker, schedule []domain.ScheduleSlot, loc *time.Location, logger *slog.Logger) *Lister {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Lister{
		target:   target,
		linker:   linker,
		schedule: schedule,
		loc:      loc,
		logger:   logger.With("component", "listing"),
	}
}

func (l *Lister) Schedule() []domain.ScheduleSlot {
	return l.schedule
}

// ListDerived groups every rendered document in the target store by
// category. Only categories with at least one document are present.
func (l *Lister) ListDerived(ctx context.Context) (domain.ListingView, error) {
	objects, err := l.target.List(ctx)
	if err != nil {
		l.logger.ErrorContext(ctx, "failed to list rendered documents", "bucket", l.target.Bucket(), "error", err)
		return nil, fmt.Errorf("%w: target %s: %v", ErrListing, l.target.Bucket(), err)
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })

	view := domain.ListingView{}
	for _, obj := range objects {
		if !strings.HasSuffix(obj.Key, domain.TargetExtension) {
			continue
		}

		url, err := l.linker.URL(ctx, obj.Key)
		if err != nil {
			return nil, fmt.Errorf("build url for %s: %w", obj.Key, err)
		}

		fileName := keys.FileName(obj.Key)
		category := keys.CategoryFor(fileName, l.schedule, l.loc)
		view[category] = append(view[category], domain.DocumentEntry{URL: url, FileName: fileName})
	}

	return view, nil
}
