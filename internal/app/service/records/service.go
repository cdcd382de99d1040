package records

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angohost/payref/internal/models"
	"github.com/angohost/payref/pkg/types"
)

// ScanRequest is the shared filter/pagination envelope for admin list pages.
type ScanRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type ScanReferencesResponse struct {
	Items []*models.PaymentReference `json:"items"`
	Total int64                      `json:"total"`
}

type ScanPaymentsResponse struct {
	Items []*models.Payment `json:"items"`
	Total int64             `json:"total"`
}

type ScanCallbackLogsResponse struct {
	Items []*models.CallbackLog `json:"items"`
	Total int64                 `json:"total"`
}

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

// filtersAnd combines multiple CommonFilter into a single clause.Expression.
type filtersAnd struct{ filters []*types.CommonFilter }

func (w filtersAnd) Build(builder clause.Builder) {
	if len(w.filters) == 0 {
		builder.WriteString("1=1")
		return
	}
	exprs := make([]clause.Expression, 0, len(w.filters))
	for _, f := range w.filters {
		exprs = append(exprs, f)
	}
	clause.And(exprs...).Build(builder)
}

func (s *Service) ScanReferences(ctx context.Context, req *ScanRequest) (*ScanReferencesResponse, error) {
	var rows []*models.PaymentReference
	total, err := s.scan(ctx, &models.PaymentReference{}, req, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment references: %w", err)
	}
	return &ScanReferencesResponse{Items: rows, Total: total}, nil
}

func (s *Service) ScanPayments(ctx context.Context, req *ScanRequest) (*ScanPaymentsResponse, error) {
	var rows []*models.Payment
	total, err := s.scan(ctx, &models.Payment{}, req, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return &ScanPaymentsResponse{Items: rows, Total: total}, nil
}

func (s *Service) ScanCallbackLogs(ctx context.Context, req *ScanRequest) (*ScanCallbackLogsResponse, error) {
	var rows []*models.CallbackLog
	total, err := s.scan(ctx, &models.CallbackLog{}, req, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list callback logs: %w", err)
	}
	return &ScanCallbackLogsResponse{Items: rows, Total: total}, nil
}

func (s *Service) scan(ctx context.Context, model any, req *ScanRequest, dest any) (int64, error) {
	if req == nil {
		return 0, fmt.Errorf("nil request")
	}
	if req.Size <= 0 {
		req.Size = 10
	}
	if req.From < 0 {
		req.From = 0
	}

	tx := s.db.WithContext(ctx).Model(model)
	if len(req.Filters) > 0 {
		tx = tx.Where(clause.Where{Exprs: []clause.Expression{filtersAnd{filters: req.Filters}}})
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}

	q := tx.Limit(req.Size)
	if req.From > 0 {
		q = q.Offset(req.From)
	}
	if req.SortBy != "" {
		q = q.Order(clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Name: req.SortBy}, Desc: req.SortOrder != "asc"}}})
	}
	if err := q.Find(dest).Error; err != nil {
		return 0, fmt.Errorf("find: %w", err)
	}
	return total, nil
}

var Module = fx.Options(
	fx.Provide(New),
)
