package customers

import (
	"context"
	"fmt"
	"strings"

	"github.com/edi-sejahtera/sejahtera/internal/platform/httpx"
)

// Service coordinates customer and branch writes.
type Service struct {
	repo Repository
}

// NewService constructs the customer service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func normalize(req CustomerRequest) (CustomerRequest, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Fax = strings.TrimSpace(req.Fax)
	req.NPWP = strings.TrimSpace(req.NPWP)
	for i := range req.Branches {
		req.Branches[i].Address = strings.TrimSpace(req.Branches[i].Address)
		req.Branches[i].City = strings.TrimSpace(req.Branches[i].City)
		req.Branches[i].PostalCode = strings.TrimSpace(req.Branches[i].PostalCode)
		req.Branches[i].Phone = strings.TrimSpace(req.Branches[i].Phone)
	}
	if err := httpx.Validate(req); err != nil {
		return req, err
	}
	return req, nil
}

func branchFrom(customerID int64, b BranchRequest) Branch {
	return Branch{
		ID:         b.ID,
		CustomerID: customerID,
		Address:    b.Address,
		City:       b.City,
		PostalCode: b.PostalCode,
		Phone:      b.Phone,
	}
}

// List returns customers matching name, branch address or branch phone.
func (s *Service) List(ctx context.Context, search string) ([]Customer, error) {
	list, err := s.repo.List(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return list, nil
}

// Get returns one customer with branches.
func (s *Service) Get(ctx context.Context, id int64) (Customer, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return Customer{}, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

// Create inserts the customer and its branches atomically.
func (s *Service) Create(ctx context.Context, req CustomerRequest) (Customer, error) {
	req, err := normalize(req)
	if err != nil {
		return Customer{}, err
	}
	var id int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		id, err = tx.Insert(ctx, Customer{Name: req.Name, Phone: req.Phone, Fax: req.Fax, NPWP: req.NPWP})
		if err != nil {
			return err
		}
		for _, b := range req.Branches {
			b.ID = 0
			if _, err := tx.InsertBranch(ctx, branchFrom(id, b)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Customer{}, fmt.Errorf("create customer: %w", err)
	}
	return s.Get(ctx, id)
}

// Update replaces the header and reconciles branches: listed branches with an
// id are updated, new ones inserted, unlisted ones deleted.
func (s *Service) Update(ctx context.Context, id int64, req CustomerRequest) (Customer, error) {
	req, err := normalize(req)
	if err != nil {
		return Customer{}, err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateHeader(ctx, Customer{ID: id, Name: req.Name, Phone: req.Phone, Fax: req.Fax, NPWP: req.NPWP}); err != nil {
			return err
		}
		existing, err := tx.Branches(ctx, id)
		if err != nil {
			return err
		}
		owned := make(map[int64]bool, len(existing))
		for _, b := range existing {
			owned[b.ID] = true
		}
		keep := make(map[int64]bool, len(req.Branches))
		for i, b := range req.Branches {
			if b.ID == 0 {
				continue
			}
			if !owned[b.ID] {
				return httpx.FieldErrors{fmt.Sprintf("branches[%d].id", i): "cabang bukan milik pelanggan ini"}
			}
			keep[b.ID] = true
		}
		for _, b := range existing {
			if keep[b.ID] {
				continue
			}
			if err := tx.DeleteBranch(ctx, b.ID); err != nil {
				return err
			}
		}
		for _, b := range req.Branches {
			if b.ID == 0 {
				if _, err := tx.InsertBranch(ctx, branchFrom(id, b)); err != nil {
					return err
				}
				continue
			}
			if err := tx.UpdateBranch(ctx, branchFrom(id, b)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Customer{}, fmt.Errorf("update customer: %w", err)
	}
	return s.Get(ctx, id)
}

// Delete removes a customer and its branches.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	return nil
}
