package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"mess_portal_backend/internal/events"
	"mess_portal_backend/internal/metrics"
	"mess_portal_backend/internal/models"
	"mess_portal_backend/internal/repositories"
	"mess_portal_backend/pkg/utils"
)

// Custom Errors
var (
	ErrTokenNotFound    = errors.New("no approved order found for this token")
	ErrAlreadyFulfilled = errors.New("order has already been collected")
	ErrOrderNotApproved = errors.New("order is not approved for collection")
)

// --- FulfillmentService Interface ---

// FulfillmentService verifies pickup tokens at the counter and records
// collection exactly once.
type FulfillmentService interface {
	LookupByToken(token string) (*models.Order, error)
	MarkFulfilled(orderID int64) (*models.Order, error)
}

// --- fulfillmentService Implementation ---
type fulfillmentService struct {
	orderRepo repositories.OrderRepository
	db        repositories.SQLExecutor
	publisher events.Publisher
}

// NewFulfillmentService creates a new instance of FulfillmentService.
func NewFulfillmentService(or repositories.OrderRepository, db repositories.SQLExecutor, publisher events.Publisher) FulfillmentService {
	return &fulfillmentService{orderRepo: or, db: db, publisher: publisher}
}

// LookupByToken matches a presented token case-insensitively against approved
// orders. Tokens on pending or rejected orders never resolve, even when the
// code itself looks valid.
func (s *fulfillmentService) LookupByToken(token string) (*models.Order, error) {
	normalized := strings.ToUpper(strings.TrimSpace(token))
	if !utils.IsValidPickupToken(normalized) {
		metrics.TokenLookups.WithLabelValues("invalid").Inc()
		return nil, ErrTokenNotFound
	}

	order, err := s.orderRepo.GetApprovedOrderByToken(normalized)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			metrics.TokenLookups.WithLabelValues("not_found").Inc()
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}

	metrics.TokenLookups.WithLabelValues("found").Inc()
	return order, nil
}

// MarkFulfilled stamps collection once. A second call fails instead of
// silently re-timestamping, guarding against double collection.
func (s *fulfillmentService) MarkFulfilled(orderID int64) (*models.Order, error) {
	rowsAffected, err := s.orderRepo.MarkFulfilled(s.db, orderID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to mark order %d fulfilled: %w", orderID, err)
	}
	if rowsAffected == 0 {
		order, err := s.orderRepo.GetOrderByID(orderID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, ErrOrderNotFound
			}
			return nil, fmt.Errorf("failed to fetch order %d: %w", orderID, err)
		}
		if order.IsFulfilled {
			return nil, ErrAlreadyFulfilled
		}
		return nil, ErrOrderNotApproved
	}

	metrics.OrdersFulfilled.Inc()
	if s.publisher != nil {
		s.publisher.Publish(events.Change{Entity: events.EntityOrder, Action: events.ActionUpdated, ID: orderID, At: time.Now()})
	}
	return s.orderRepo.GetOrderByID(orderID)
}
