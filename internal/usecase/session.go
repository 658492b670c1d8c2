package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"OAIHealthCheck/internal/domain"
	"OAIHealthCheck/internal/export"
	"OAIHealthCheck/internal/filter"
	"OAIHealthCheck/internal/harvest"
	"OAIHealthCheck/internal/identity"
	"OAIHealthCheck/internal/normalize"
	"OAIHealthCheck/internal/ports"
	"OAIHealthCheck/internal/report"
)

// SessionDeps wires the driven adapters into a Session.
type SessionDeps struct {
	Identities ports.IdentitySource
	Records    ports.RecordSource
	Snapshots  ports.SnapshotExporter
	Logger     *slog.Logger
}

// Session owns the state of one operator: the identities resolved so far and
// the single cached harvest. Harvests run one at a time.
type Session struct {
	resolver  *identity.Resolver
	harvester *harvest.Harvester
	cache     *harvest.Cache
	snapshots ports.SnapshotExporter
	logger    *slog.Logger

	mu         sync.Mutex
	identities map[string]domain.RepositoryIdentity

	harvestMu sync.Mutex
}

// NewSession constructs the orchestration component.
func NewSession(deps SessionDeps) *Session {
	return &Session{
		resolver:   identity.NewResolver(deps.Identities, deps.Logger),
		harvester:  harvest.NewHarvester(deps.Records, deps.Logger),
		cache:      harvest.NewCache(),
		snapshots:  deps.Snapshots,
		logger:     deps.Logger,
		identities: map[string]domain.RepositoryIdentity{},
	}
}

// Identify fetches the identity of endpoint and remembers it, replacing any
// earlier answer.
func (s *Session) Identify(ctx context.Context, endpoint string) (domain.RepositoryIdentity, error) {
	id, err := s.resolver.Resolve(ctx, endpoint)
	if err != nil {
		return domain.RepositoryIdentity{}, err
	}

	s.mu.Lock()
	s.identities[endpointKey(endpoint)] = id
	s.mu.Unlock()
	return id, nil
}

// Identity returns the remembered identity of endpoint.
func (s *Session) Identity(endpoint string) (domain.RepositoryIdentity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.identities[endpointKey(endpoint)]
	return id, ok
}

// HarvestRequest asks for up to Limit records from Endpoint. Confirmation
// must repeat the repository identifier when Limit is above the threshold.
type HarvestRequest struct {
	Endpoint     string
	Limit        int
	Confirmation string
}

// HarvestResult is an enriched sample and whether it came from the cache.
type HarvestResult struct {
	Sample domain.Sample
	Cached bool
}

// Harvest checks the confirmation gate, then returns the cached sample for
// (endpoint, limit) or harvests and enriches a new one.
func (s *Session) Harvest(ctx context.Context, req HarvestRequest, progress harvest.ProgressFunc) (HarvestResult, error) {
	endpoint := strings.TrimSpace(req.Endpoint)
	if endpoint == "" {
		return HarvestResult{}, domain.ErrEmptyEndpoint
	}
	if req.Limit <= 0 {
		return HarvestResult{}, fmt.Errorf("limit %d: %w", req.Limit, domain.ErrInvalidLimit)
	}

	if harvest.RequiresConfirmation(req.Limit) {
		var idp *domain.RepositoryIdentity
		if id, ok := s.Identity(endpoint); ok {
			idp = &id
		}
		if err := harvest.CheckConfirmation(req.Limit, idp, req.Confirmation); err != nil {
			return HarvestResult{}, err
		}
	}

	key := harvest.Key{Endpoint: endpoint, Limit: req.Limit}
	sample, cached, err := s.cache.Do(ctx, key, func(ctx context.Context) (domain.Sample, error) {
		s.harvestMu.Lock()
		defer s.harvestMu.Unlock()

		raw, err := s.harvester.Harvest(ctx, endpoint, req.Limit, progress)
		if err != nil {
			return domain.Sample{}, err
		}
		return normalize.Enrich(raw), nil
	})
	if err != nil {
		return HarvestResult{}, err
	}

	if cached && s.logger != nil {
		s.logger.Info("harvest served from cache", "endpoint", endpoint, "limit", req.Limit,
			"run_id", sample.Info.RunID)
	}
	return HarvestResult{Sample: sample, Cached: cached}, nil
}

// Current returns the last successful harvest.
func (s *Session) Current() (domain.Sample, bool) {
	return s.cache.Current()
}

// Invalidate drops the cached harvest so the next request fetches again.
func (s *Session) Invalidate() {
	s.cache.Invalidate()
}

// View applies spec to sample.
func (s *Session) View(sample domain.Sample, spec domain.FilterSpec) domain.View {
	return filter.Apply(sample, spec)
}

// Report filters sample and aggregates the view, attaching the remembered
// identity of the sample's endpoint when there is one.
func (s *Session) Report(sample domain.Sample, spec domain.FilterSpec, opts report.Options) report.Report {
	var idp *domain.RepositoryIdentity
	if id, ok := s.Identity(sample.Info.Endpoint); ok {
		idp = &id
	}
	return report.Build(idp, sample, spec, opts)
}

// ExportCSV writes the filtered view as CSV.
func (s *Session) ExportCSV(w io.Writer, sample domain.Sample, spec domain.FilterSpec) error {
	if err := export.WriteCSV(w, s.View(sample, spec)); err != nil {
		return fmt.Errorf("export csv: %w", err)
	}
	return nil
}

// ExportSnapshot writes the filtered view to a SQLite file at path.
func (s *Session) ExportSnapshot(ctx context.Context, path string, sample domain.Sample, spec domain.FilterSpec) error {
	if s.snapshots == nil {
		return fmt.Errorf("export snapshot: no snapshot writer configured")
	}
	if err := s.snapshots.Write(ctx, path, s.View(sample, spec)); err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}
	return nil
}

func endpointKey(endpoint string) string {
	return strings.TrimSpace(endpoint)
}
