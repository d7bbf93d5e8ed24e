package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"aavetx/internal/domain"
)

// LookupSink receives a summary of every completed resolution.
type LookupSink interface {
	RecordLookup(ctx context.Context, record domain.LookupRecord) error
}

type Explorer struct {
	resolver *Resolver
	sinks    []LookupSink
}

func NewExplorer(resolver *Resolver, sinks ...LookupSink) (*Explorer, error) {
	if resolver == nil {
		return nil, errors.New("resolver is required")
	}
	active := make([]LookupSink, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			active = append(active, sink)
		}
	}
	return &Explorer{resolver: resolver, sinks: active}, nil
}

// Lookup resolves the hash and reports the outcome to every sink. Sink
// failures are logged and never change the result.
func (e *Explorer) Lookup(ctx context.Context, hash string) (domain.Resolution, error) {
	hash = strings.TrimSpace(hash)
	res, err := e.resolver.Resolve(ctx, hash)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return res, err
	}
	e.record(ctx, res.Record())
	return res, err
}

func (e *Explorer) record(ctx context.Context, record domain.LookupRecord) {
	if len(e.sinks) == 0 {
		return
	}
	// the request context may already be gone once the response is written
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	for _, sink := range e.sinks {
		if err := sink.RecordLookup(ctx, record); err != nil {
			slog.Warn("lookup sink failed", "sink", sinkName(sink), "hash", record.Hash, "err", err)
		}
	}
}

func sinkName(sink LookupSink) string {
	if named, ok := sink.(interface{ Name() string }); ok {
		return named.Name()
	}
	return "unnamed"
}
