package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/procure-mr-api/internal/models"
	appErrors "github.com/noah-isme/procure-mr-api/pkg/errors"
)

type dashboardRepoStub struct {
	counts        []models.StatusCount
	pending       []models.MaterialRequest
	activity      []models.ApprovalEvent
	pendingFilter models.MaterialRequestFilter
	listCalls     int
}

func (d *dashboardRepoStub) CountByStatus(ctx context.Context, businessUnitID string) ([]models.StatusCount, error) {
	return d.counts, nil
}

func (d *dashboardRepoStub) List(ctx context.Context, filter models.MaterialRequestFilter) ([]models.MaterialRequest, int, error) {
	d.listCalls++
	d.pendingFilter = filter
	return d.pending, len(d.pending), nil
}

func (d *dashboardRepoStub) ListRecentEvents(ctx context.Context, businessUnitID string, limit int) ([]models.ApprovalEvent, error) {
	return d.activity, nil
}

type cacheRepoStub struct {
	entries map[string][]byte
}

func newCacheRepoStub() *cacheRepoStub {
	return &cacheRepoStub{entries: make(map[string][]byte)}
}

func (c *cacheRepoStub) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *cacheRepoStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *cacheRepoStub) DeleteByPattern(ctx context.Context, pattern string) error {
	c.entries = make(map[string][]byte)
	return nil
}

func TestDashboardServiceSummary(t *testing.T) {
	repo := &dashboardRepoStub{
		counts: []models.StatusCount{
			{Status: models.StatusDraft, Count: 3},
			{Status: models.StatusForRecApproval, Count: 2},
		},
		pending: []models.MaterialRequest{{ID: "req-1", Status: models.StatusForRecApproval}},
		activity: []models.ApprovalEvent{
			{ID: "ev-1", RequestID: "req-1", Action: models.ActionSubmit},
		},
	}
	svc := NewDashboardService(repo, nil, nil, DashboardServiceConfig{})

	summary, cacheHit, err := svc.Summary(context.Background(), "bu-1", claimsFor("user-rec", models.RoleApprover))
	require.NoError(t, err)
	require.False(t, cacheHit)
	require.Equal(t, "bu-1", summary.BusinessUnitID)
	require.Len(t, summary.StatusCounts, 2)
	require.Len(t, summary.PendingApprovals, 1)
	require.Len(t, summary.RecentActivity, 1)
	require.NotEmpty(t, summary.GeneratedAt)
}

func TestDashboardServicePendingScopedToApprover(t *testing.T) {
	repo := &dashboardRepoStub{}
	svc := NewDashboardService(repo, nil, nil, DashboardServiceConfig{PendingListLimit: 5})

	_, _, err := svc.Summary(context.Background(), "bu-1", claimsFor("user-rec", models.RoleApprover))
	require.NoError(t, err)
	require.Equal(t, "user-rec", repo.pendingFilter.ApproverID)
	require.Equal(t, 5, repo.pendingFilter.PageSize)
	require.ElementsMatch(t, []models.RequestStatus{models.StatusForRecApproval, models.StatusForFinalApproval}, repo.pendingFilter.Status)

	_, _, err = svc.Summary(context.Background(), "bu-1", claimsFor("admin-1", models.RoleAdmin))
	require.NoError(t, err)
	require.Empty(t, repo.pendingFilter.ApproverID)
}

func TestDashboardServiceCacheRoundTrip(t *testing.T) {
	repo := &dashboardRepoStub{}
	cacheRepo := newCacheRepoStub()
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	svc := NewDashboardService(repo, cache, nil, DashboardServiceConfig{})

	_, hit, err := svc.Summary(context.Background(), "bu-1", claimsFor("user-rec", models.RoleApprover))
	require.NoError(t, err)
	require.False(t, hit)
	require.Equal(t, 1, repo.listCalls)

	_, hit, err = svc.Summary(context.Background(), "bu-1", claimsFor("user-rec", models.RoleApprover))
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, 1, repo.listCalls)

	// Another user gets their own cache entry.
	_, hit, err = svc.Summary(context.Background(), "bu-1", claimsFor("user-fin", models.RoleApprover))
	require.NoError(t, err)
	require.False(t, hit)
	require.Equal(t, 2, repo.listCalls)
}

func TestDashboardServiceInvalidate(t *testing.T) {
	repo := &dashboardRepoStub{}
	cacheRepo := newCacheRepoStub()
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	svc := NewDashboardService(repo, cache, nil, DashboardServiceConfig{})

	_, _, err := svc.Summary(context.Background(), "bu-1", claimsFor("user-rec", models.RoleApprover))
	require.NoError(t, err)
	require.NotEmpty(t, cacheRepo.entries)

	svc.Invalidate(context.Background(), "bu-1")
	require.Empty(t, cacheRepo.entries)
}

func TestDashboardServiceRecordsQueryTimings(t *testing.T) {
	repo := &dashboardRepoStub{}
	metrics := NewMetricsService()
	svc := NewDashboardService(repo, nil, nil, DashboardServiceConfig{}).WithMetrics(metrics)

	_, _, err := svc.Summary(context.Background(), "bu-1", claimsFor("user-rec", models.RoleApprover))
	require.NoError(t, err)

	// One observation per composing read: counts, pending list, recent events.
	require.Equal(t, uint64(3), metrics.Snapshot().DBQueryCount)
}

func TestDashboardServiceRequiresBusinessUnit(t *testing.T) {
	svc := NewDashboardService(&dashboardRepoStub{}, nil, nil, DashboardServiceConfig{})

	_, _, err := svc.Summary(context.Background(), "", claimsFor("user-rec", models.RoleApprover))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
