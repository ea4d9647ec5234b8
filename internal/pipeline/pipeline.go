package pipeline

import (
	"context"
	"errors"
	"log"

	"github.com/stevuth/rewardspeak-sub000/internal/metrics"
	"github.com/stevuth/rewardspeak-sub000/internal/notik"
	"github.com/stevuth/rewardspeak-sub000/internal/offers"
	"github.com/stevuth/rewardspeak-sub000/internal/storage/postgres"
)

// DefaultChunkSize is the number of offers per upsert statement.
const DefaultChunkSize = 500

// Fetcher pages through the upstream catalog. Implemented by notik.Client.
type Fetcher interface {
	FetchAll(ctx context.Context, maxPages int, logf func(format string, args ...any)) ([]offers.RawOffer, int, error)
}

// Upserter merges one chunk of offers into the store.
type Upserter interface {
	UpsertBatch(ctx context.Context, items []offers.Offer) error
}

// Recorder persists the immutable per-run record.
type Recorder interface {
	Insert(ctx context.Context, rec postgres.RunRecord) error
}

// Invalidator drops downstream caches of the public offer listing. Called on
// full-pipeline success only.
type Invalidator interface {
	InvalidateOffers(ctx context.Context) error
}

// Result is what every trigger surface gets back from a run.
type Result struct {
	Success bool
	Log     string
	Count   int
	Err     error
}

// Pipeline is the one shared sync implementation behind all trigger surfaces.
type Pipeline struct {
	Fetcher   Fetcher
	Store     Upserter
	Runs      Recorder
	Cache     Invalidator       // optional
	Metrics   *metrics.Registry // optional
	ChunkSize int
	MaxPages  int // 0 = unbounded
}

func (p *Pipeline) chunkSize() int {
	if p.ChunkSize > 0 {
		return p.ChunkSize
	}
	return DefaultChunkSize
}

// Sync runs the full pipeline: fetch, normalize, dedupe, chunked upsert.
// A run record is persisted unconditionally, on failure paths included.
func (p *Pipeline) Sync(ctx context.Context) Result {
	rl := NewRunLog()
	rl.Printf("starting offer sync")

	raw, pages, fetchErr := p.Fetcher.FetchAll(ctx, p.MaxPages, rl.Printf)
	if p.Metrics != nil {
		p.Metrics.PagesFetched.Add(float64(pages))
	}
	if errors.Is(fetchErr, notik.ErrMissingCredentials) {
		// Fatal precondition: nothing was fetched, nothing gets upserted.
		return p.finish(ctx, rl, 0, fetchErr)
	}
	// Any other fetch error still lets the pages accumulated so far flow
	// downstream; the run is recorded as a failure regardless.

	count, upsertErr := p.process(ctx, rl, raw)

	err := fetchErr
	if upsertErr != nil {
		err = upsertErr
	}
	return p.finish(ctx, rl, count, err)
}

// SyncPrefetched runs normalize, dedupe and upsert over an offer list fetched
// by the caller (the pre-fetched HTTP trigger).
func (p *Pipeline) SyncPrefetched(ctx context.Context, raw []offers.RawOffer) Result {
	rl := NewRunLog()
	rl.Printf("starting offer sync (pre-fetched, %d raw offers)", len(raw))

	count, err := p.process(ctx, rl, raw)
	return p.finish(ctx, rl, count, err)
}

// process is the storage half shared by both entry points. It returns the
// number of offers committed before any error.
func (p *Pipeline) process(ctx context.Context, rl *RunLog, raw []offers.RawOffer) (int, error) {
	normalized, dropped := offers.NormalizeAll(raw)
	if dropped > 0 {
		rl.Printf("dropped %d records without an offer_id", dropped)
	}

	deduped := offers.Dedupe(normalized)
	if d := len(normalized) - len(deduped); d > 0 {
		rl.Printf("removed %d duplicate offers", d)
	}
	rl.Printf("normalized %d offers", len(deduped))

	chunks := offers.Chunk(deduped, p.chunkSize())
	committed := 0
	for i, chunk := range chunks {
		if err := p.Store.UpsertBatch(ctx, chunk); err != nil {
			rl.Printf("ERROR upserting chunk %d/%d (%d offers): %v", i+1, len(chunks), len(chunk), err)
			if p.Metrics != nil {
				p.Metrics.ChunkFailures.Inc()
			}
			// Chunks already committed stay committed; the rest are skipped.
			return committed, err
		}
		committed += len(chunk)
		rl.Printf("upserted chunk %d/%d (%d offers)", i+1, len(chunks), len(chunk))
	}

	return committed, nil
}

// finish persists the run record and fires success-only side effects. Every
// path out of a sync goes through here, failures included.
func (p *Pipeline) finish(ctx context.Context, rl *RunLog, count int, err error) Result {
	status := postgres.RunSuccess
	if err != nil {
		status = postgres.RunFailure
		rl.Printf("sync failed: %v", err)
	} else {
		rl.Printf("sync complete: %d offers", count)
	}

	if p.Metrics != nil {
		p.Metrics.ObserveRun(err == nil, count)
	}

	if err == nil && p.Cache != nil {
		if cerr := p.Cache.InvalidateOffers(ctx); cerr != nil {
			// Non-fatal: the cache expires on its own TTL.
			log.Printf("[pipeline] cache invalidation failed: %v", cerr)
			rl.Printf("warning: cache invalidation failed: %v", cerr)
		} else {
			rl.Printf("offer listing cache invalidated")
		}
	}

	if recErr := p.Runs.Insert(ctx, postgres.RunRecord{
		Status:      status,
		LogMessage:  rl.String(),
		OffersCount: count,
	}); recErr != nil {
		log.Printf("[pipeline] run record insert failed: %v", recErr)
	}

	return Result{Success: err == nil, Log: rl.String(), Count: count, Err: err}
}
