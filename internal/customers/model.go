// Package customers manages customers and their branch addresses.
package customers

import (
	"time"

	"github.com/edi-sejahtera/sejahtera/internal/platform/httpx"
)

var (
	// ErrNotFound indicates the customer does not exist.
	ErrNotFound = httpx.NotFound("customer not found")
	// ErrInUse indicates invoices still reference the customer.
	ErrInUse = httpx.Conflict("customer is referenced by invoices")
	// ErrBranchInUse indicates a branch slated for removal is used by an invoice.
	ErrBranchInUse = httpx.Conflict("branch is referenced by invoices")
)

// Customer is a buying party. Every customer has at least one branch.
type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Fax       string    `json:"fax"`
	NPWP      string    `json:"npwp"`
	Branches  []Branch  `json:"branches"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Branch is a delivery or billing address of a customer.
type Branch struct {
	ID         int64     `json:"id"`
	CustomerID int64     `json:"customer_id"`
	Address    string    `json:"address"`
	City       string    `json:"city"`
	PostalCode string    `json:"postal_code"`
	Phone      string    `json:"phone"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Branch returns the branch with the given id.
func (c Customer) Branch(id int64) (Branch, bool) {
	for _, b := range c.Branches {
		if b.ID == id {
			return b, true
		}
	}
	return Branch{}, false
}
