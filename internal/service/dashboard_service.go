package service

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"go-pos-rd/internal/repository"
)

const (
	defaultChartDays = 7
	maxChartDays     = 90
	defaultTopLimit  = 10
	maxTopLimit      = 50
)

type DashboardStats struct {
	TodaySales     int64           `json:"today_sales"`
	TodayTotal     decimal.Decimal `json:"today_total"`
	MonthTotal     decimal.Decimal `json:"month_total"`
	TotalProducts  int64           `json:"total_products"`
	LowStockCount  int64           `json:"low_stock_count"`
	TotalValuation decimal.Decimal `json:"total_valuation"`
	TotalCustomers int64           `json:"total_customers"`
}

// DailySales is one point of the sales chart; Date is YYYY-MM-DD in the
// business timezone.
type DailySales struct {
	Date  string          `json:"date"`
	Count int64           `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// StockMovementData feeds the inbound/outbound chart.
type StockMovementData struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

type DashboardService interface {
	GetDashboardStats() (*DashboardStats, error)
	GetSalesByDay(days int) ([]DailySales, error)
	GetTopProducts(days, limit int) ([]repository.TopProduct, error)
	GetPaymentMethods(days int) ([]repository.PaymentMethodTotal, error)
	GetStockMovement(days int) ([]StockMovementData, error)
}

type dashboardService struct {
	sales     repository.SaleRepository
	products  repository.ProductRepository
	customers repository.CustomerRepository
	movements repository.StockMovementRepository
	lowStock  int
	loc       *time.Location
	log       *zap.Logger
	now       func() time.Time
}

func NewDashboardService(sales repository.SaleRepository, products repository.ProductRepository, customers repository.CustomerRepository, movements repository.StockMovementRepository, lowStock int, loc *time.Location, log *zap.Logger) DashboardService {
	if loc == nil {
		loc = time.UTC
	}
	return &dashboardService{
		sales:     sales,
		products:  products,
		customers: customers,
		movements: movements,
		lowStock:  lowStock,
		loc:       loc,
		log:       log.Named("dashboard"),
		now:       time.Now,
	}
}

// ClampDays applies the chart window default (7) and ceiling (90).
func ClampDays(days int) int {
	if days <= 0 {
		return defaultChartDays
	}
	if days > maxChartDays {
		return maxChartDays
	}
	return days
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// window covers today plus the days-1 previous calendar days.
func (s *dashboardService) window(days int) (repository.DateRange, []string) {
	days = ClampDays(days)
	today := startOfDay(s.now().In(s.loc))
	from := today.AddDate(0, 0, -(days - 1))
	labels := make([]string, days)
	for i := range labels {
		labels[i] = from.AddDate(0, 0, i).Format("2006-01-02")
	}
	return repository.DateRange{From: from, To: today.AddDate(0, 0, 1)}, labels
}

func (s *dashboardService) GetDashboardStats() (*DashboardStats, error) {
	now := s.now().In(s.loc)
	today := startOfDay(now)
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc)

	daily, err := s.sales.Summary(repository.DateRange{From: today, To: today.AddDate(0, 0, 1)})
	if err != nil {
		return nil, err
	}
	monthly, err := s.sales.Summary(repository.DateRange{From: month, To: month.AddDate(0, 1, 0)})
	if err != nil {
		return nil, err
	}
	products, err := s.products.Count()
	if err != nil {
		return nil, err
	}
	low, err := s.products.CountLowStock(s.lowStock)
	if err != nil {
		return nil, err
	}
	valuation, err := s.products.Valuation()
	if err != nil {
		return nil, err
	}
	customers, err := s.customers.Count()
	if err != nil {
		return nil, err
	}

	return &DashboardStats{
		TodaySales:     daily.Count,
		TodayTotal:     daily.Total,
		MonthTotal:     monthly.Total,
		TotalProducts:  products,
		LowStockCount:  low,
		TotalValuation: valuation,
		TotalCustomers: customers,
	}, nil
}

// GetSalesByDay buckets in Go so day boundaries follow the business timezone
// on every database driver. Days without sales are reported as zero.
func (s *dashboardService) GetSalesByDay(days int) ([]DailySales, error) {
	dr, labels := s.window(days)
	points, err := s.sales.Points(dr)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(labels))
	result := make([]DailySales, len(labels))
	for i, label := range labels {
		index[label] = i
		result[i] = DailySales{Date: label, Total: decimal.Zero}
	}
	for _, p := range points {
		i, ok := index[p.CreatedAt.In(s.loc).Format("2006-01-02")]
		if !ok {
			continue
		}
		result[i].Count++
		result[i].Total = result[i].Total.Add(p.Total)
	}
	return result, nil
}

func (s *dashboardService) GetTopProducts(days, limit int) ([]repository.TopProduct, error) {
	if limit <= 0 {
		limit = defaultTopLimit
	}
	if limit > maxTopLimit {
		limit = maxTopLimit
	}
	dr, _ := s.window(days)
	rows, err := s.sales.TopProducts(dr, limit)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []repository.TopProduct{}
	}
	return rows, nil
}

func (s *dashboardService) GetPaymentMethods(days int) ([]repository.PaymentMethodTotal, error) {
	dr, _ := s.window(days)
	rows, err := s.sales.PaymentMethods(dr)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []repository.PaymentMethodTotal{}
	}
	return rows, nil
}

func (s *dashboardService) GetStockMovement(days int) ([]StockMovementData, error) {
	dr, labels := s.window(days)
	points, err := s.movements.Points(dr)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(labels))
	result := make([]StockMovementData, len(labels))
	for i, label := range labels {
		index[label] = i
		result[i].Date = label
	}
	for _, p := range points {
		i, ok := index[p.CreatedAt.In(s.loc).Format("2006-01-02")]
		if !ok {
			continue
		}
		if p.Quantity >= 0 {
			result[i].Inbound += p.Quantity
		} else {
			result[i].Outbound -= p.Quantity
		}
	}
	return result, nil
}
