package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/procure-mr-api/internal/dto"
	"github.com/noah-isme/procure-mr-api/internal/models"
	appErrors "github.com/noah-isme/procure-mr-api/pkg/errors"
)

type dashboardRequestRepository interface {
	CountByStatus(ctx context.Context, businessUnitID string) ([]models.StatusCount, error)
	List(ctx context.Context, filter models.MaterialRequestFilter) ([]models.MaterialRequest, int, error)
	ListRecentEvents(ctx context.Context, businessUnitID string, limit int) ([]models.ApprovalEvent, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL            time.Duration
	PendingListLimit    int
	RecentActivityLimit int
}

// DashboardService composes per-business-unit widget payloads.
type DashboardService struct {
	repo    dashboardRequestRepository
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
	cfg     DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(repo dashboardRequestRepository, cache *CacheService, logger *zap.Logger, cfg DashboardServiceConfig) *DashboardService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.PendingListLimit <= 0 {
		cfg.PendingListLimit = 10
	}
	if cfg.RecentActivityLimit <= 0 {
		cfg.RecentActivityLimit = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{repo: repo, cache: cache, logger: logger, now: time.Now, cfg: cfg}
}

// WithMetrics records query timings for the dashboard's composing reads.
// Optional.
func (s *DashboardService) WithMetrics(metrics *MetricsService) *DashboardService {
	s.metrics = metrics
	return s
}

// Summary returns the business unit dashboard and indicates cache utilisation.
// Pending approvals are scoped to the calling approver.
func (s *DashboardService) Summary(ctx context.Context, businessUnitID string, claims *models.JWTClaims) (*dto.DashboardResponse, bool, error) {
	if businessUnitID == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "business unit is required")
	}

	cacheKey := fmt.Sprintf("dash:bu:%s:user:%s", businessUnitID, claims.UserID)
	if s.cache != nil {
		var cached dto.DashboardResponse
		hit, err := s.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			return nil, false, err
		}
		if hit {
			return &cached, true, nil
		}
	}

	summary, err := s.compose(ctx, businessUnitID, claims)
	if err != nil {
		return nil, false, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, summary, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return summary, false, nil
}

// Invalidate drops cached dashboards for a business unit after a workflow move.
func (s *DashboardService) Invalidate(ctx context.Context, businessUnitID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, fmt.Sprintf("dash:bu:%s:*", businessUnitID)); err != nil {
		s.logger.Warn("dashboard cache invalidate failed", zap.String("business_unit", businessUnitID), zap.Error(err))
	}
}

func (s *DashboardService) compose(ctx context.Context, businessUnitID string, claims *models.JWTClaims) (*dto.DashboardResponse, error) {
	start := time.Now()
	counts, err := s.repo.CountByStatus(ctx, businessUnitID)
	s.metrics.ObserveDBQuery("dashboard_status_counts", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count requests by status")
	}

	pendingFilter := models.MaterialRequestFilter{
		BusinessUnitID: businessUnitID,
		Status:         []models.RequestStatus{models.StatusForRecApproval, models.StatusForFinalApproval},
		Page:           1,
		PageSize:       s.cfg.PendingListLimit,
		SortBy:         "created_at",
		SortOrder:      "ASC",
	}
	if !claims.Role.IsAdmin() {
		pendingFilter.ApproverID = claims.UserID
	}
	start = time.Now()
	pending, _, err := s.repo.List(ctx, pendingFilter)
	s.metrics.ObserveDBQuery("dashboard_pending_list", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending approvals")
	}

	start = time.Now()
	activity, err := s.repo.ListRecentEvents(ctx, businessUnitID, s.cfg.RecentActivityLimit)
	s.metrics.ObserveDBQuery("dashboard_recent_events", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list recent activity")
	}

	return &dto.DashboardResponse{
		BusinessUnitID:   businessUnitID,
		StatusCounts:     counts,
		PendingApprovals: pending,
		RecentActivity:   activity,
		GeneratedAt:      s.now().UTC().Format(time.RFC3339),
	}, nil
}
