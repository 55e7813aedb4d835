package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/obs-timetable-api/internal/dto"
	"github.com/noah-isme/obs-timetable-api/internal/models"
	"github.com/noah-isme/obs-timetable-api/internal/planner"
	appErrors "github.com/noah-isme/obs-timetable-api/pkg/errors"
)

type proposalCatalogue interface {
	ListCandidates(ctx context.Context, search string) ([]dto.ProposalRecord, error)
}

type candidateCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

// ProposalServiceConfig tunes the candidate source.
type ProposalServiceConfig struct {
	FlagStyle planner.FlagStyle
	CacheTTL  time.Duration
}

// ProposalService loads candidate proposals from the catalogue, going
// through the cache when one is configured.
type ProposalService struct {
	repo    proposalCatalogue
	cache   candidateCache
	metrics *MetricsService
	logger  *zap.Logger
	cfg     ProposalServiceConfig
}

// NewProposalService constructs the proposal source.
func NewProposalService(repo proposalCatalogue, cache candidateCache, metrics *MetricsService, logger *zap.Logger, cfg ProposalServiceConfig) *ProposalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.FlagStyle == "" {
		cfg.FlagStyle = planner.FlagStyleYesNo
	}
	return &ProposalService{repo: repo, cache: cache, metrics: metrics, logger: logger, cfg: cfg}
}

// FetchCandidates returns the typed candidates in catalogue order and
// whether they were served from cache.
func (s *ProposalService) FetchCandidates(ctx context.Context, query dto.ProposalQuery) ([]models.Proposal, bool, error) {
	records, hit, err := s.loadRecords(ctx, query)
	if err != nil {
		return nil, false, err
	}
	candidates, err := planner.ProposalsFromRecords(records)
	if err != nil {
		s.logger.Warn("catalogue contains malformed proposals", zap.Error(err))
		return nil, false, appErrors.Unavailable(err, "proposal catalogue returned malformed records")
	}
	if s.cache != nil && !hit {
		_ = s.cache.Set(ctx, CandidateCacheKey(query.Search), records, s.cfg.CacheTTL)
	}
	return candidates, hit, nil
}

// ListCandidates returns the candidates re-encoded with the configured
// flag style.
func (s *ProposalService) ListCandidates(ctx context.Context, query dto.ProposalQuery) ([]dto.ProposalRecord, bool, error) {
	candidates, hit, err := s.FetchCandidates(ctx, query)
	if err != nil {
		return nil, false, err
	}
	return planner.RecordsFromProposals(candidates, s.cfg.FlagStyle), hit, nil
}

// InvalidateCandidates drops every cached candidate list.
func (s *ProposalService) InvalidateCandidates(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx, candidateCachePrefix+":*")
}

// loadRecords leaves caching to the caller so that only records that
// decode are stored.
func (s *ProposalService) loadRecords(ctx context.Context, query dto.ProposalQuery) ([]dto.ProposalRecord, bool, error) {
	key := CandidateCacheKey(query.Search)
	if s.cache != nil && !query.Refresh {
		var cached []dto.ProposalRecord
		hit, err := s.cache.Get(ctx, key, &cached)
		if err == nil && hit {
			return cached, true, nil
		}
	}

	start := time.Now()
	records, err := s.repo.ListCandidates(ctx, query.Search)
	s.metrics.ObserveDBQuery("proposals_list", time.Since(start))
	if err != nil {
		s.logger.Error("failed to load proposal catalogue", zap.Error(err))
		return nil, false, appErrors.Unavailable(err, "failed to load proposal catalogue")
	}

	return records, false, nil
}
