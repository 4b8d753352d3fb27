package harvest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/atomic"

	"github.com/windlab/windharvest/internal/store"
	"github.com/windlab/windharvest/internal/wind"
)

// State identifies a harvest pipeline state. One Run walks the machine for a
// whole chain: the initial slot plus every backfilled slot behind it.
type State string

const (
	StateDedupCheck    State = "DEDUP_CHECK"
	StateFetching      State = "FETCHING"
	StateFetchRetry    State = "FETCH_RETRY"
	StateConverting    State = "CONVERTING"
	StateBackfillCheck State = "BACKFILL_CHECK"
	StateDone          State = "DONE"
	StateAborted       State = "ABORTED"
)

// Outcome is the terminal result of one harvest chain.
type Outcome int

const (
	// OutcomeDone ends a chain that stopped at an already-cached slot.
	OutcomeDone Outcome = iota
	// OutcomeAborted ends a chain that ran past the gap-stop window.
	OutcomeAborted
)

// Harvester runs harvest chains: fetch a slot, convert it, store the
// artifact, and walk backward one slot at a time until the store already has
// the previous slot or the gap-stop window is exceeded.
//
// Chains are serialized globally: Trigger drops a new trigger while a chain
// is in flight, and artifact writes are write-once in every backend, so a
// duplicate chain can never corrupt the store.
type Harvester struct {
	store       wind.ArtifactStore
	fetcher     Fetcher
	converter   Converter
	workDir     string
	interval    int // hours
	gapStopDays int

	now      func() time.Time
	inFlight *atomic.Bool
}

// NewHarvester creates a Harvester writing transient snapshots under workDir.
func NewHarvester(st wind.ArtifactStore, f Fetcher, c Converter, workDir string, intervalHours, gapStopDays int) (*Harvester, error) {
	if !wind.ValidInterval(intervalHours) {
		return nil, fmt.Errorf("harvest interval %d does not divide 24", intervalHours)
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating work dir: %w", err)
	}
	return &Harvester{
		store:       st,
		fetcher:     f,
		converter:   c,
		workDir:     workDir,
		interval:    intervalHours,
		gapStopDays: gapStopDays,
		now:         time.Now,
		inFlight:    atomic.NewBool(false),
	}, nil
}

// Trigger starts a harvest chain for the current instant and returns
// immediately. A trigger arriving while a chain is still running is
// coalesced away; the next trigger picks up whatever that chain missed.
func (h *Harvester) Trigger(ctx context.Context) {
	if !h.inFlight.CAS(false, true) {
		log.Println("harvest: chain already in flight, skipping trigger")
		return
	}

	go func() {
		defer h.inFlight.Store(false)
		h.Run(ctx, h.now())
	}()
}

// Run executes one harvest chain starting at target and blocks until the
// chain reaches a terminal state. Exposed for the scheduler's startup run
// and for tests; periodic triggers go through Trigger.
func (h *Harvester) Run(ctx context.Context, target time.Time) Outcome {
	cursor := target.UTC()
	state := StateDedupCheck
	var raw []byte

	for {
		switch state {
		case StateDedupCheck:
			if h.store.Exists(h.key(cursor)) {
				log.Printf("harvest: already have %s, not looking further", h.key(cursor))
				state = StateDone
			} else {
				state = StateFetching
			}

		case StateFetching:
			if h.gapExceeded(cursor) {
				state = StateAborted
				break
			}
			data, err := h.fetcher.Fetch(ctx, cursor)
			if err != nil {
				log.Printf("harvest: fetch failed for %s: %v", h.key(cursor), err)
				state = StateFetchRetry
			} else {
				raw = data
				state = StateConverting
			}

		case StateFetchRetry:
			cursor = cursor.Add(-wind.Step(h.interval))
			state = StateDedupCheck

		case StateConverting:
			h.convertAndStore(ctx, cursor, raw)
			raw = nil
			state = StateBackfillCheck

		case StateBackfillCheck:
			prev := cursor.Add(-wind.Step(h.interval))
			if h.store.Exists(h.key(prev)) {
				log.Printf("harvest: end reached, got older data %s", h.key(prev))
				state = StateDone
			} else {
				cursor = prev
				state = StateDedupCheck
			}

		case StateDone:
			return OutcomeDone

		case StateAborted:
			log.Println("harvest: complete or large gap")
			return OutcomeAborted
		}
	}
}

// convertAndStore persists the transient snapshot, converts it, and writes
// the artifact. Conversion failure abandons the slot without retry; the
// chain still moves on to the backfill check either way.
func (h *Harvester) convertAndStore(ctx context.Context, cursor time.Time, raw []byte) {
	key := h.key(cursor)
	snapshotPath := filepath.Join(h.workDir, key+".f000")

	if err := os.WriteFile(snapshotPath, raw, 0o644); err != nil {
		log.Printf("harvest: writing snapshot for %s: %v", key, err)
		return
	}
	defer os.Remove(snapshotPath)

	artifact, err := h.converter.Convert(ctx, snapshotPath)
	if err != nil {
		log.Printf("harvest: conversion failed for %s: %v", key, err)
		return
	}

	if err := h.store.Write(key, artifact); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// A concurrent chain got here first; the artifact is in place.
			log.Printf("harvest: %s written by another chain", key)
			return
		}
		log.Printf("harvest: storing artifact for %s: %v", key, err)
		return
	}
	log.Printf("harvest: imported %s", key)
}

func (h *Harvester) key(t time.Time) string {
	return wind.Quantize(t, h.interval)
}

// gapExceeded reports whether cursor has fallen more than the gap-stop
// window behind now, in truncated whole days.
func (h *Harvester) gapExceeded(cursor time.Time) bool {
	return int(h.now().UTC().Sub(cursor).Hours()/24) > h.gapStopDays
}
