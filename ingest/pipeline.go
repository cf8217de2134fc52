// Package ingest composes the embedder, quantizer, and storage write into
// the single atomic ingestion operation described by the core's ingest
// contract.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lmemory/memory/embed"
	"github.com/lmemory/memory/store"
	"github.com/lmemory/memory/tier"
	"github.com/lmemory/memory/vector"
)

// ErrEmptyText is returned when Run is called with empty text, before the
// embedder is ever invoked.
var ErrEmptyText = errors.New("ingest: text must not be empty")

// Pipeline runs the ingest(text, metadata, tier_override?) -> id contract:
// embed, quantize, allocate an id, resolve the tier, and write atomically.
type Pipeline struct {
	embedder embed.Embedder
	store    store.Store
	tier     tier.Config
}

// New returns a Pipeline that embeds with embedder and writes to st, using
// tierCfg for default-tier and TTL resolution.
func New(embedder embed.Embedder, st store.Store, tierCfg tier.Config) *Pipeline {
	return &Pipeline{embedder: embedder, store: st, tier: tierCfg}
}

// Override customizes a single ingest call's tiering, leaving any nil field
// to fall back to the pipeline's configured default.
type Override struct {
	Tier *tier.Tier
	TTL  *int64
}

// Run executes the ingest pipeline: fail fast on empty text, embed, quantize,
// allocate a fresh UUID, resolve the tier and expiry, and write the
// complete entry in a single atomic store.Put. The whole operation is
// atomic from the caller's perspective; there is no observable partial
// state.
func (p *Pipeline) Run(ctx context.Context, text string, metadata map[string]any, override *Override) (uuid.UUID, error) {
	if text == "" {
		return uuid.Nil, ErrEmptyText
	}

	v, err := p.embedder.Embed(ctx, text)
	if err != nil {
		return uuid.Nil, fmt.Errorf("ingest: embedding failed: %w: %w", embed.ErrEmbedderFailure, err)
	}

	bits := vector.Quantize(v)
	id := uuid.New()

	t := p.tier.DefaultTier
	var ttlOverride *int64
	if override != nil {
		if override.Tier != nil {
			t = *override.Tier
		}
		ttlOverride = override.TTL
	}

	now := time.Now().Unix()
	expiresAt := p.tier.ExpiresAt(t, now, ttlOverride)

	entry := store.Entry{
		ID: id,
		Meta: store.Meta{
			Text:      text,
			Metadata:  metadata,
			Tier:      t,
			ExpiresAt: expiresAt,
		},
		Vector: v,
		Bit:    bits,
	}

	if err := p.store.Put(ctx, entry); err != nil {
		return uuid.Nil, fmt.Errorf("ingest: storing entry %s: %w", id, err)
	}

	return id, nil
}
