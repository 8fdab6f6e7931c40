package services

import (
	"fmt"

	"mess_portal_backend/internal/models"
	"mess_portal_backend/internal/repositories"
)

// --- BillingService Interface ---

// BillingService exposes the read models over bills and live order amounts.
// Bills are written by the approval transaction; nothing here mutates.
type BillingService interface {
	GetMyBills(userID int64) ([]models.Bill, error)
	GetAllBills() ([]models.Bill, error)
	GetMyOrderTotals(userID int64) (*models.OrderTotals, error)
}

// --- billingService Implementation ---
type billingService struct {
	billRepo repositories.BillRepository
}

// NewBillingService creates a new instance of BillingService.
func NewBillingService(br repositories.BillRepository) BillingService {
	return &billingService{billRepo: br}
}

func (s *billingService) GetMyBills(userID int64) ([]models.Bill, error) {
	bills, err := s.billRepo.GetBillsByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bills for user: %w", err)
	}
	return bills, nil
}

func (s *billingService) GetAllBills() ([]models.Bill, error) {
	bills, err := s.billRepo.GetBills()
	if err != nil {
		return nil, fmt.Errorf("failed to get bills: %w", err)
	}
	return bills, nil
}

func (s *billingService) GetMyOrderTotals(userID int64) (*models.OrderTotals, error) {
	totals, err := s.billRepo.GetOrderTotals(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute order totals: %w", err)
	}
	return totals, nil
}
