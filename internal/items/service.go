package items

import (
	"context"
	"fmt"
	"strings"

	"github.com/edi-sejahtera/sejahtera/internal/platform/httpx"
)

// Service applies item rules on top of the repository.
type Service struct {
	repo Repository
}

// NewService constructs the item service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func normalize(req ItemRequest) (ItemRequest, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Unit = strings.TrimSpace(req.Unit)
	if err := httpx.Validate(req); err != nil {
		return req, err
	}
	if req.Price.IsNegative() {
		return req, httpx.FieldErrors{"price": "tidak boleh negatif"}
	}
	return req, nil
}

// List returns items matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Item, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	list, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return list, nil
}

// Get returns one item.
func (s *Service) Get(ctx context.Context, id int64) (Item, error) {
	it, err := s.repo.Get(ctx, id)
	if err != nil {
		return Item{}, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

// Create stores a new item.
func (s *Service) Create(ctx context.Context, req ItemRequest) (Item, error) {
	req, err := normalize(req)
	if err != nil {
		return Item{}, err
	}
	it, err := s.repo.Create(ctx, Item{Name: req.Name, Unit: req.Unit, Price: req.Price, StockQuantity: req.StockQuantity})
	if err != nil {
		return Item{}, fmt.Errorf("create item: %w", err)
	}
	return it, nil
}

// Update replaces an item. Setting StockQuantity here is how goods receipts
// are booked; invoices only move stock through reconciliation.
func (s *Service) Update(ctx context.Context, id int64, req ItemRequest) (Item, error) {
	req, err := normalize(req)
	if err != nil {
		return Item{}, err
	}
	it, err := s.repo.Update(ctx, Item{ID: id, Name: req.Name, Unit: req.Unit, Price: req.Price, StockQuantity: req.StockQuantity})
	if err != nil {
		return Item{}, fmt.Errorf("update item: %w", err)
	}
	return it, nil
}

// Delete removes an item that no invoice references.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}
