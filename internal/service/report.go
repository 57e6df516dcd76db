package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Stockline-Systems/inventory/internal/constants"
	"github.com/Stockline-Systems/inventory/internal/dto"
	apperrors "github.com/Stockline-Systems/inventory/internal/errors"
	"github.com/Stockline-Systems/inventory/pkg/logger"
)

// ReportCache is the slice of the redis client the report service uses
type ReportCache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type ReportCounters interface {
	CountByOrganization(ctx context.Context, orgID uint) (int64, error)
}

type StockCounters interface {
	CountByOrganization(ctx context.Context, orgID uint) (int64, error)
	SumQuantity(ctx context.Context, orgID uint) (int64, error)
}

type OrderCounters interface {
	CountByStatus(ctx context.Context, orgID uint) (map[string]int64, error)
}

const reportCacheTTL = 5 * time.Minute

// ReportInvalidator lets the inventory write paths drop a stale cached
// summary instead of waiting out the TTL
type ReportInvalidator interface {
	Invalidate(ctx context.Context, orgID uint)
}

type ReportService struct {
	cache       ReportCache
	memberships ReportCounters
	items       StockCounters
	orders      OrderCounters
}

func NewReportService(cache ReportCache, memberships ReportCounters, items StockCounters, orders OrderCounters) *ReportService {
	return &ReportService{
		cache:       cache,
		memberships: memberships,
		items:       items,
		orders:      orders,
	}
}

// OrgSummary aggregates headcount, stock and order counts for one
// organization. Results are cached briefly; dashboards poll this.
func (s *ReportService) OrgSummary(ctx context.Context, orgID uint) (*dto.OrgSummaryReport, error) {
	key := fmt.Sprintf("%s%d", constants.CacheKeyReport, orgID)

	var cached dto.OrgSummaryReport
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err != nil {
		logger.WarnWithContext(ctx, "report cache read failed").Err(err).Log()
	} else if hit {
		return &cached, nil
	}

	employees, err := s.memberships.CountByOrganization(ctx, orgID)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	items, err := s.items.CountByOrganization(ctx, orgID)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	stock, err := s.items.SumQuantity(ctx, orgID)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	orders, err := s.orders.CountByStatus(ctx, orgID)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	report := &dto.OrgSummaryReport{
		OrganizationID: orgID,
		Employees:      employees,
		Items:          items,
		StockUnits:     stock,
		OrdersByStatus: orders,
		GeneratedAt:    time.Now(),
	}

	if err := s.cache.SetJSON(ctx, key, report, reportCacheTTL); err != nil {
		logger.WarnWithContext(ctx, "report cache write failed").Err(err).Log()
	}
	return report, nil
}

// Invalidate drops the cached summary, called after bulk mutations
func (s *ReportService) Invalidate(ctx context.Context, orgID uint) {
	key := fmt.Sprintf("%s%d", constants.CacheKeyReport, orgID)
	if err := s.cache.Delete(ctx, key); err != nil {
		logger.DebugWithContext(ctx, "report cache invalidation failed").Err(err).Log()
	}
}
