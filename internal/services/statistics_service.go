package services

import (
	"fmt"
	"sort"

	"mess_portal_backend/internal/models"
	"mess_portal_backend/internal/repositories"
)

// statsWindowDays bounds the per-date breakdown to the most recent dates
// that actually have orders, not a fixed calendar range.
const statsWindowDays = 7

// --- StatisticsService Interface ---
type StatisticsService interface {
	GetSummary() (*models.StatisticsSummary, error)
}

// --- statisticsService Implementation ---
type statisticsService struct {
	orderRepo repositories.OrderRepository
}

// NewStatisticsService creates a new instance of StatisticsService.
func NewStatisticsService(or repositories.OrderRepository) StatisticsService {
	return &statisticsService{orderRepo: or}
}

// GetSummary aggregates the order ledger into dashboard figures. Per-date and
// per-meal breakdowns sum plate quantities, while the headline counters count
// order rows, so one order for five plates reads as one order overall but
// five plates on its date.
func (s *statisticsService) GetSummary() (*models.StatisticsSummary, error) {
	rows, err := s.orderRepo.GetStatRows()
	if err != nil {
		return nil, fmt.Errorf("failed to load statistics rows: %w", err)
	}

	summary := &models.StatisticsSummary{
		DateStats: []models.DateStats{},
		MealStats: []models.MealStats{},
	}

	byDate := make(map[string]*models.DateStats)
	byMeal := make(map[string]int)

	for _, row := range rows {
		summary.TotalOrders++
		if row.Status == StatusPending {
			summary.PendingCount++
		}

		ds, ok := byDate[row.MenuDate]
		if !ok {
			ds = &models.DateStats{Date: row.MenuDate}
			byDate[row.MenuDate] = ds
		}
		ds.TotalOrders += row.Quantity
		switch row.Status {
		case StatusApproved, StatusCancellationRequested:
			ds.ApprovedOrders += row.Quantity
		case StatusRejected:
			ds.RejectedOrders += row.Quantity
		case StatusPending:
			ds.PendingOrders += row.Quantity
		}

		byMeal[row.MealType] += row.Quantity
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	if len(dates) > statsWindowDays {
		dates = dates[len(dates)-statsWindowDays:]
	}
	for _, date := range dates {
		summary.DateStats = append(summary.DateStats, *byDate[date])
	}

	mealTypes := make([]string, 0, len(byMeal))
	for mealType := range byMeal {
		mealTypes = append(mealTypes, mealType)
	}
	sort.Strings(mealTypes)
	for _, mealType := range mealTypes {
		summary.MealStats = append(summary.MealStats, models.MealStats{
			MealType:    mealType,
			TotalOrders: byMeal[mealType],
		})
	}

	return summary, nil
}
