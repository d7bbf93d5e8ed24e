package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"aavetx/internal/chains"
	"aavetx/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type Fetcher interface {
	Fetch(ctx context.Context, entry chains.Entry, hash string) (domain.RawResult, bool, error)
}

type ResolveObserver interface {
	ObserveProbe(probe domain.Probe)
	ObserveResolution(res domain.Resolution)
}

type Mode string

const (
	ModeSequential Mode = "sequential"
	ModeParallel   Mode = "parallel"
)

func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ModeSequential:
		return ModeSequential, nil
	case ModeParallel:
		return ModeParallel, nil
	}
	return "", fmt.Errorf("invalid resolve mode %q", raw)
}

type ResolverConfig struct {
	Mode    Mode
	Timeout time.Duration
}

var (
	ErrNoChains = errors.New("no chains configured")
	ErrNotFound = errors.New("transaction not found on any supported chain")
)

// Resolver finds the chain that holds a transaction by probing the
// registry in order. The first chain with a non-empty result wins.
type Resolver struct {
	registry *chains.Registry
	fetcher  Fetcher
	observer ResolveObserver
	cfg      ResolverConfig
}

func NewResolver(registry *chains.Registry, fetcher Fetcher, observer ResolveObserver, cfg ResolverConfig) (*Resolver, error) {
	if registry == nil || fetcher == nil {
		return nil, errors.New("resolver dependencies must not be nil")
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeSequential
	}
	return &Resolver{registry: registry, fetcher: fetcher, observer: observer, cfg: cfg}, nil
}

// Resolve returns ErrNotFound together with the probes when no chain holds
// the hash. A failing chain does not stop the scan; it is recorded as a
// failed probe.
func (r *Resolver) Resolve(ctx context.Context, hash string) (domain.Resolution, error) {
	entries := r.registry.Entries()
	if len(entries) == 0 {
		return domain.Resolution{}, ErrNoChains
	}
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	ctx, span := otel.Tracer("aavetx/resolver").Start(ctx, "resolver.resolve")
	defer span.End()
	span.SetAttributes(
		attribute.String("tx.hash", hash),
		attribute.String("resolve.mode", string(r.cfg.Mode)),
	)

	res := domain.Resolution{
		ID:        uuid.New(),
		Hash:      hash,
		StartedAt: time.Now().UTC(),
	}
	var err error
	if r.cfg.Mode == ModeParallel {
		err = r.resolveParallel(ctx, entries, &res)
	} else {
		err = r.resolveSequential(ctx, entries, &res)
	}
	res.Elapsed = time.Since(res.StartedAt)
	span.SetAttributes(
		attribute.Bool("resolve.found", res.Found),
		attribute.Int("resolve.probes", len(res.Probes)),
	)
	if res.Found {
		span.SetAttributes(attribute.String("chain", res.Chain.String()))
	}
	if r.observer != nil {
		r.observer.ObserveResolution(res)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return res, err
	}
	if !res.Found {
		slog.Info("transaction not found", "hash", hash, "probes", len(res.Probes), "failed", len(res.FailedChains()))
		return res, ErrNotFound
	}
	slog.Info("transaction resolved", "hash", hash, "chain", res.Chain, "rows", len(res.Rows), "probes", len(res.Probes), "elapsed", res.Elapsed)
	return res, nil
}

func (r *Resolver) resolveSequential(ctx context.Context, entries []chains.Entry, res *domain.Resolution) error {
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("resolve %s: %w", res.Hash, err)
		}
		probe, rows := r.probe(ctx, entry, res.Hash)
		res.Probes = append(res.Probes, probe)
		if probe.Outcome == domain.ProbeMatched {
			res.Found = true
			res.Chain = entry.Chain
			res.Rows = rows
			return nil
		}
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("resolve %s: %w", res.Hash, err)
	}
	return nil
}

// resolveParallel probes every chain at once. Results are consumed in
// registry order so the lowest matching index wins; the rest are cancelled
// once every chain ahead of the winner has answered.
func (r *Resolver) resolveParallel(ctx context.Context, entries []chains.Entry, res *domain.Resolution) error {
	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		probe domain.Probe
		rows  []domain.ActionRow
	}
	results := make([]result, len(entries))
	done := make([]chan struct{}, len(entries))
	var wg sync.WaitGroup
	for i, entry := range entries {
		done[i] = make(chan struct{})
		wg.Add(1)
		go func(i int, entry chains.Entry) {
			defer wg.Done()
			defer close(done[i])
			probe, rows := r.probe(ctx, entry, res.Hash)
			results[i] = result{probe: probe, rows: rows}
		}(i, entry)
	}

	winner := -1
	for i := range entries {
		<-done[i]
		if results[i].probe.Outcome == domain.ProbeMatched {
			winner = i
			break
		}
	}
	cancel()
	wg.Wait()

	for i := range results {
		res.Probes = append(res.Probes, results[i].probe)
	}
	if winner >= 0 {
		res.Found = true
		res.Chain = entries[winner].Chain
		res.Rows = results[winner].rows
		return nil
	}
	if err := parent.Err(); err != nil {
		return fmt.Errorf("resolve %s: %w", res.Hash, err)
	}
	return nil
}

func (r *Resolver) probe(ctx context.Context, entry chains.Entry, hash string) (domain.Probe, []domain.ActionRow) {
	started := time.Now()
	probe := domain.Probe{Chain: entry.Chain}
	raw, ok, err := r.fetcher.Fetch(ctx, entry, hash)
	probe.Duration = time.Since(started)

	var rows []domain.ActionRow
	switch {
	case err != nil && ctx.Err() != nil:
		probe.Outcome = domain.ProbeCancelled
		probe.Error = err.Error()
	case err != nil:
		probe.Outcome = domain.ProbeFailed
		probe.Error = err.Error()
		slog.Warn("chain probe failed", "chain", entry.Chain, "hash", hash, "err", err)
	case !ok:
		probe.Outcome = domain.ProbeEmpty
	default:
		var normErr error
		rows, normErr = Normalize(raw)
		if normErr != nil {
			slog.Warn("skipped malformed records", "chain", entry.Chain, "hash", hash, "err", normErr)
		}
		if len(rows) > 0 {
			probe.Outcome = domain.ProbeMatched
		} else if normErr != nil {
			probe.Outcome = domain.ProbeFailed
			probe.Error = normErr.Error()
		} else {
			probe.Outcome = domain.ProbeEmpty
		}
	}
	slog.Debug("chain probed", "chain", entry.Chain, "hash", hash, "outcome", probe.Outcome, "duration", probe.Duration)
	if r.observer != nil {
		r.observer.ObserveProbe(probe)
	}
	return probe, rows
}
