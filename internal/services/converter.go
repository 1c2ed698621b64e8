package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"lecturepdf/internal/domain"
	"lecturepdf/internal/keys"
	"lecturepdf/internal/lease"
	"lecturepdf/internal/storage"
)

// Renderer turns transcript text into document bytes.
type Renderer interface {
	Render(title, text string) ([]byte, error)
}

// transcribeResult is the part of an AWS Transcribe output file we read.
type transcribeResult struct {
	JobName string `json:"jobName"`
	Results struct {
		Transcripts []struct {
			Transcript string `json:"transcript"`
		} `json:"transcripts"`
	} `json:"results"`
}

// text returns the first transcript verbatim. Only an absent or empty
// string counts as no transcript.
func (r transcribeResult) text() string {
	if len(r.Results.Transcripts) == 0 {
		return ""
	}
	return r.Results.Transcripts[0].Transcript
}

type Converter struct {
	source   storage.Store
	target   storage.Store
	renderer Renderer
	locker   lease.Locker
	logger   *slog.Logger
}

// NewConverter wires a converter. locker may be nil, in which case two
// concurrent passes can both render the same document; the later write
// overwrites the earlier with equivalent content.
func NewConverter(source, target storage.Store, renderer Renderer, locker lease.Locker, logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{
		source:   source,
		target:   target,
		renderer: renderer,
		locker:   locker,
		logger:   logger.With("component", "converter"),
	}
}

// Convert renders sourceKey into the target store unless its document
// already exists. Failures are reported in the outcome, never returned.
func (c *Converter) Convert(ctx context.Context, sourceKey string) domain.Outcome {
	out := domain.Outcome{SourceKey: sourceKey, TargetKey: keys.DeriveTargetKey(sourceKey)}
	log := c.logger.With("source", sourceKey, "target", out.TargetKey)

	exists, err := c.exists(ctx, out.TargetKey)
	if err != nil {
		return c.fail(ctx, log, out, fmt.Errorf("check target: %w", err))
	}
	if exists {
		log.DebugContext(ctx, "document already exists, skipping")
		out.Status = domain.OutcomeSkippedExists
		return out
	}

	if c.locker != nil {
		release, ok, err := c.locker.Acquire(ctx, out.TargetKey)
		if err != nil {
			return c.fail(ctx, log, out, err)
		}
		if !ok {
			log.InfoContext(ctx, "conversion in progress elsewhere, skipping")
			out.Status = domain.OutcomeSkippedLeased
			return out
		}
		defer release()

		// Another holder may have finished between our check and the lease.
		exists, err := c.exists(ctx, out.TargetKey)
		if err != nil {
			return c.fail(ctx, log, out, fmt.Errorf("check target: %w", err))
		}
		if exists {
			out.Status = domain.OutcomeSkippedExists
			return out
		}
	}

	raw, err := c.source.Get(ctx, sourceKey)
	if err != nil {
		return c.fail(ctx, log, out, fmt.Errorf("fetch source: %w", err))
	}

	var payload transcribeResult
	if err := json.Unmarshal(raw, &payload); err != nil {
		return c.fail(ctx, log, out, fmt.Errorf("%w: %v", ErrMalformedPayload, err))
	}

	text := payload.text()
	if text == "" {
		log.WarnContext(ctx, "no transcript found in source object")
		out.Status = domain.OutcomeSkippedNoTranscript
		out.Reason = "no transcript"
		return out
	}

	title := strings.TrimSuffix(path.Base(sourceKey), domain.SourceExtension)
	doc, err := c.renderer.Render(title, text)
	if err != nil {
		return c.fail(ctx, log, out, err)
	}

	if err := c.target.Put(ctx, out.TargetKey, doc, domain.TargetContentType); err != nil {
		return c.fail(ctx, log, out, fmt.Errorf("upload document: %w", err))
	}

	log.InfoContext(ctx, "document uploaded", "bytes", len(doc))
	out.Status = domain.OutcomeCreated
	return out
}

// exists reports whether key is present in the target store. Only a
// not-found answer maps to false; every other error is returned.
func (c *Converter) exists(ctx context.Context, key string) (bool, error) {
	_, err := c.target.Head(ctx, key)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	return false, err
}

func (c *Converter) fail(ctx context.Context, log *slog.Logger, out domain.Outcome, err error) domain.Outcome {
	log.ErrorContext(ctx, "conversion failed", "error", err)
	out.Status = domain.OutcomeFailed
	out.Reason = err.Error()
	out.Err = err
	return out
}
