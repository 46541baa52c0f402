// Package forest keeps the current tree built from the stored objects and
// rebuilds it when the collection changes.
package forest

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/johnwards/rdstree/internal/domain"
	"github.com/johnwards/rdstree/internal/metrics"
	"github.com/johnwards/rdstree/internal/store"
	"github.com/johnwards/rdstree/internal/tree"
)

// ObjectSource supplies the flat collection of one facility in stable
// ascending-id order.
type ObjectSource interface {
	All(ctx context.Context, facility string) ([]domain.Object, error)
}

// BuildRecorder persists build summaries.
type BuildRecorder interface {
	Record(ctx context.Context, b store.Build) (*store.Build, error)
}

// Snapshot is an immutable build result together with its provenance.
type Snapshot struct {
	*tree.Result
	Facility   string
	Objects    int
	BuiltAt    time.Time
	Duration   time.Duration
	generation uint64
}

// Service owns the current snapshot of every facility. A snapshot pointer is
// replaced whole on every rebuild; readers never see a partially built forest.
type Service struct {
	source  ObjectSource
	builds  BuildRecorder
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu         sync.Mutex
	facilities map[string]*atomic.Pointer[Snapshot]
	generation atomic.Uint64
	group      singleflight.Group
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics records build metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithRecorder persists a summary of every build.
func WithRecorder(r BuildRecorder) Option {
	return func(s *Service) { s.builds = r }
}

// WithLogger sets the logger used for build summaries.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates a Service reading from source.
func New(source ObjectSource, opts ...Option) *Service {
	s := &Service{
		source:     source,
		logger:     slog.Default(),
		facilities: make(map[string]*atomic.Pointer[Snapshot]),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Invalidate marks every snapshot stale. The next Current call for a facility
// rebuilds it from a read that starts after this call.
func (s *Service) Invalidate() {
	s.generation.Add(1)
}

func (s *Service) slot(facility string) *atomic.Pointer[Snapshot] {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.facilities[facility]
	if !ok {
		p = new(atomic.Pointer[Snapshot])
		s.facilities[facility] = p
	}
	return p
}

// forget drops the snapshot of a facility unless a newer one was published.
func (s *Service) forget(facility string, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.facilities[facility]; ok {
		if old := p.Load(); old != nil && old.generation > gen {
			return
		}
		delete(s.facilities, facility)
	}
	if s.metrics != nil {
		s.metrics.ForgetFacility(facility)
	}
}

// Current returns the latest snapshot of a facility, rebuilding first when
// there is none or it predates the last Invalidate. Callers that arrive
// during the same generation share one rebuild, which runs detached from any
// single caller's cancellation; a caller whose context ends stops waiting.
func (s *Service) Current(ctx context.Context, facility string) (*Snapshot, error) {
	facility = domain.Facility(facility)
	gen := s.generation.Load()
	if snap := s.slot(facility).Load(); snap != nil && snap.generation >= gen {
		return snap, nil
	}

	key := facility + "@" + strconv.FormatUint(gen, 10)
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		return s.Rebuild(shared, facility)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	}
}

// Rebuild loads the collection of a facility, builds a new forest and
// publishes it. A rebuild that finishes after a newer one does not replace
// it and returns the newer snapshot instead.
func (s *Service) Rebuild(ctx context.Context, facility string) (*Snapshot, error) {
	facility = domain.Facility(facility)
	gen := s.generation.Load()

	objects, err := s.source.All(ctx, facility)
	if err != nil {
		return nil, fmt.Errorf("load objects: %w", err)
	}

	start := time.Now()
	result, err := tree.BuildContext(ctx, objects)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Result:     result,
		Facility:   facility,
		Objects:    len(objects),
		BuiltAt:    time.Now().UTC(),
		Duration:   time.Since(start),
		generation: gen,
	}

	// An empty facility is not kept, so names that never held objects do
	// not accumulate.
	if len(objects) == 0 {
		s.forget(facility, gen)
		return snap, nil
	}

	slot := s.slot(facility)
	for {
		old := slot.Load()
		if old != nil && old.generation > gen {
			return old, nil
		}
		if slot.CompareAndSwap(old, snap) {
			break
		}
	}

	s.observe(ctx, snap)
	return snap, nil
}

func (s *Service) observe(ctx context.Context, snap *Snapshot) {
	nodes := snap.Count()
	byReason := make(map[string]int, 2)
	for _, o := range snap.Orphans {
		byReason[string(o.Reason)]++
	}

	if s.metrics != nil {
		s.metrics.ObserveBuild(snap.Facility, snap.Duration, nodes, len(snap.Duplicates), byReason)
	}

	s.logger.Info("forest built",
		"facility", snap.Facility,
		"objects", snap.Objects,
		"nodes", nodes,
		"roots", len(snap.Roots),
		"duration", snap.Duration,
	)
	for _, d := range snap.Duplicates {
		s.logger.Warn("duplicate code", "code", d.Code, "objects", d.ObjectIDs, "survivor", d.SurvivingID)
	}
	for _, o := range snap.Orphans {
		s.logger.Warn("orphaned object",
			"code", o.Object.Code,
			"parent", o.Object.Parent(),
			"reason", o.Reason,
			"suggested", o.SuggestedParent,
		)
	}
	if len(snap.Unrecognized) > 0 {
		s.logger.Warn("unrecognized codes", "count", len(snap.Unrecognized), "codes", snap.Unrecognized)
	}

	if s.builds == nil {
		return
	}
	_, err := s.builds.Record(ctx, store.Build{
		Facility:        snap.Facility,
		Objects:         snap.Objects,
		Nodes:           nodes,
		Roots:           len(snap.Roots),
		DuplicateGroups: len(snap.Duplicates),
		Orphans:         len(snap.Orphans),
		DurationMS:      snap.Duration.Milliseconds(),
		BuiltAt:         snap.BuiltAt.Format(store.TimeLayout),
	})
	if err != nil {
		s.logger.Error("failed to record build", "error", err)
	}
}
