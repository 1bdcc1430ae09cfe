package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/example/electioncart/internal/cache"
	"github.com/example/electioncart/internal/models"
)

// DashboardStats is the admin dashboard aggregate.
type DashboardStats struct {
	TotalOrders      int64            `json:"total_orders"`
	OrdersByStatus   map[string]int64 `json:"orders_by_status"`
	TotalRevenue     string           `json:"total_revenue"`
	OutstandingTotal string           `json:"outstanding_total"`
	ManualOrders     int64            `json:"manual_orders"`
	ActiveCustomers  int64            `json:"active_customers"`
	OrdersToday      int64            `json:"orders_today"`
	GeneratedAt      time.Time        `json:"generated_at"`
}

// AnalyticsService computes dashboard aggregates with a Redis
// read-through cache in front of the database.
type AnalyticsService struct {
	db        *gorm.DB
	analytics *cache.Analytics
}

func NewAnalyticsService(db *gorm.DB, analytics *cache.Analytics) *AnalyticsService {
	return &AnalyticsService{db: db, analytics: analytics}
}

// Dashboard returns the cached aggregate, recomputing on miss.
func (s *AnalyticsService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	if s.analytics.Get(ctx, cache.KeyDashboardStats, &stats) {
		return &stats, nil
	}

	stats = DashboardStats{
		OrdersByStatus: make(map[string]int64),
		GeneratedAt:    time.Now(),
	}

	if err := s.db.Model(&models.Order{}).Count(&stats.TotalOrders).Error; err != nil {
		return nil, err
	}

	type statusCount struct {
		Status string
		Count  int64
	}
	var byStatus []statusCount
	if err := s.db.Model(&models.Order{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	for _, row := range byStatus {
		stats.OrdersByStatus[row.Status] = row.Count
	}

	var revenue struct{ Total string }
	if err := s.db.Model(&models.PaymentRecord{}).
		Select("coalesce(sum(amount), 0)::text as total").
		Scan(&revenue).Error; err != nil {
		return nil, err
	}
	stats.TotalRevenue = revenue.Total

	var outstanding struct{ Total string }
	if err := s.db.Model(&models.Order{}).
		Select("coalesce(sum(total_amount), 0)::text as total").
		Where("payment_status IN ?", []models.PaymentStatus{models.PaymentUnpaid, models.PaymentPartial}).
		Where("status NOT IN ?", []models.OrderStatus{models.StatusCancelled}).
		Scan(&outstanding).Error; err != nil {
		return nil, err
	}
	stats.OutstandingTotal = outstanding.Total

	if err := s.db.Model(&models.Order{}).Where("is_manual_order").Count(&stats.ManualOrders).Error; err != nil {
		return nil, err
	}

	if err := s.db.Model(&models.User{}).
		Where("role = ? AND is_active", models.RoleCustomer).
		Count(&stats.ActiveCustomers).Error; err != nil {
		return nil, err
	}

	startOfDay := time.Now().Truncate(24 * time.Hour)
	if err := s.db.Model(&models.Order{}).
		Where("created_at >= ?", startOfDay).
		Count(&stats.OrdersToday).Error; err != nil {
		return nil, err
	}

	s.analytics.Set(ctx, cache.KeyDashboardStats, &stats)
	return &stats, nil
}

// DailyRevenuePoint is one day's collected payments.
type DailyRevenuePoint struct {
	Day   string `json:"day"`
	Total string `json:"total"`
}

// DailyRevenue returns collected payments per day over the last n days.
func (s *AnalyticsService) DailyRevenue(ctx context.Context, days int) ([]DailyRevenuePoint, error) {
	if days <= 0 || days > 365 {
		days = 30
	}

	var points []DailyRevenuePoint
	if s.analytics.Get(ctx, cache.KeyRevenueDaily, &points) {
		return points, nil
	}

	since := time.Now().AddDate(0, 0, -days)
	err := s.db.Model(&models.PaymentRecord{}).
		Select("to_char(created_at::date, 'YYYY-MM-DD') as day, coalesce(sum(amount), 0)::text as total").
		Where("created_at >= ?", since).
		Group("created_at::date").
		Order("day asc").
		Scan(&points).Error
	if err != nil {
		return nil, err
	}

	s.analytics.Set(ctx, cache.KeyRevenueDaily, points)
	return points, nil
}
