package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/DanielC11038/TempSlackBot/model"
	"github.com/DanielC11038/TempSlackBot/platforms/openai"
	"github.com/DanielC11038/TempSlackBot/store"
)

// indexedStatus is the only document status the index service reports that
// counts as done. It is compared case-insensitively.
const indexedStatus = "processed"

func (c *controller) IngestEvent(ctx context.Context, eventKey string) (*IngestResult, error) {
	bundle, err := c.tba.GetEventBundle(ctx, eventKey)
	if err != nil {
		// No partial artifacts are written when the fetch fails.
		return nil, err
	}

	metrics := deriveMetrics(bundle.Matches, eventKey)

	if err := c.persistBundle(bundle, metrics); err != nil {
		return nil, err
	}

	result := &IngestResult{
		EventKey:   eventKey,
		MatchCount: len(bundle.Matches),
		TeamCount:  len(metrics),
	}

	if err := c.buildIndex(ctx, eventKey, result); err != nil {
		// Artifacts already fetched and derived stay on disk even when
		// the index build fails.
		return nil, err
	}

	return result, nil
}

func (c *controller) persistBundle(bundle *model.EventBundle, metrics []model.TeamMetric) error {
	matchesBlob, err := json.MarshalIndent(bundle.Matches, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling matches for %s: %w", bundle.EventKey, err)
	}
	metricsBlob, err := json.MarshalIndent(metrics, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling metrics for %s: %w", bundle.EventKey, err)
	}

	artifacts := map[string][]byte{
		store.KindEvent:    bundle.Event,
		store.KindTeams:    bundle.Teams,
		store.KindMatches:  matchesBlob,
		store.KindRankings: bundle.Rankings,
		store.KindMetrics:  metricsBlob,
	}
	for kind, blob := range artifacts {
		if err := c.store.WriteArtifact(bundle.EventKey, kind, blob); err != nil {
			return err
		}
	}
	return nil
}

// buildIndex creates a remote index, uploads the event's artifacts to it
// and waits for the documents to finish processing. Build states run
// Created -> Uploading -> Polling -> {Ready | TimedOutStillPending}.
func (c *controller) buildIndex(ctx context.Context, eventKey string, result *IngestResult) error {
	// Index names are unique per build so repeated uploads of the same
	// event never collide.
	name := fmt.Sprintf("%s-%d", eventKey, c.clock.Now().Unix())
	indexID, err := c.ai.CreateVectorStore(ctx, name)
	if err != nil {
		return fmt.Errorf("error creating index for %s: %w", eventKey, err)
	}
	result.IndexID = indexID

	// The mapping is recorded (and flushed) as soon as creation succeeds,
	// before readiness; retrieval against a partially-indexed store is
	// allowed.
	c.store.SetIndexID(eventKey, indexID)

	// Uploads are best-effort: a failed file is logged and skipped, and
	// only an empty batch fails the build.
	uploaded := 0
	for _, kind := range []string{store.KindEvent, store.KindTeams, store.KindMatches, store.KindRankings, store.KindMetrics} {
		blob, err := c.store.ReadArtifact(eventKey, kind)
		if err != nil {
			c.logger.Warn("skipping missing artifact during index build",
				zap.String("event", eventKey), zap.String("kind", kind), zap.Error(err))
			result.FailedUploads = append(result.FailedUploads, kind)
			continue
		}

		filename := fmt.Sprintf("%s-%s.json", eventKey, kind)
		fileID, err := c.ai.UploadFile(ctx, filename, blob)
		if err != nil {
			c.logger.Warn("error uploading artifact to index",
				zap.String("event", eventKey), zap.String("kind", kind), zap.Error(err))
			result.FailedUploads = append(result.FailedUploads, kind)
			continue
		}
		if err := c.ai.AttachFile(ctx, indexID, fileID); err != nil {
			c.logger.Warn("error attaching artifact to index",
				zap.String("event", eventKey), zap.String("kind", kind), zap.Error(err))
			result.FailedUploads = append(result.FailedUploads, kind)
			continue
		}
		uploaded++
	}
	if uploaded == 0 {
		return fmt.Errorf("index upload failed for every artifact of %s", eventKey)
	}

	result.Ready = c.waitForIndex(ctx, indexID)
	return nil
}

// waitForIndex polls the index's document listing until every document
// reports processed, or the timeout elapses. Timing out is not an error;
// the caller just learns the index is not ready yet. Transient listing
// errors are logged and the wait continues.
func (c *controller) waitForIndex(ctx context.Context, indexID string) bool {
	deadline := c.clock.Now().Add(c.pollTimeout)
	ticker := c.clock.Ticker(c.pollInterval)
	defer ticker.Stop()

	for {
		files, err := c.ai.ListVectorStoreFiles(ctx, indexID)
		if err != nil {
			c.logger.Warn("transient error listing index documents", zap.String("index", indexID), zap.Error(err))
		} else if allProcessed(files) {
			return true
		}

		if !c.clock.Now().Before(deadline) {
			c.logger.Warn("index not ready before timeout", zap.String("index", indexID))
			return false
		}

		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}

func allProcessed(files []openai.FileStatus) bool {
	if len(files) == 0 {
		return false
	}
	for _, f := range files {
		if !strings.EqualFold(f.Status, indexedStatus) {
			return false
		}
	}
	return true
}
