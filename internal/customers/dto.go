package customers

// CustomerRequest creates or replaces a customer with its branches.
type CustomerRequest struct {
	Name     string          `json:"name" validate:"required,max=200"`
	Phone    string          `json:"phone" validate:"max=50"`
	Fax      string          `json:"fax" validate:"max=50"`
	NPWP     string          `json:"npwp" validate:"max=32"`
	Branches []BranchRequest `json:"branches" validate:"required,min=1,dive"`
}

// BranchRequest carries an existing branch id on update, or zero for a new one.
type BranchRequest struct {
	ID         int64  `json:"id,omitempty" validate:"gte=0"`
	Address    string `json:"address" validate:"required,max=500"`
	City       string `json:"city" validate:"max=100"`
	PostalCode string `json:"postal_code" validate:"max=20"`
	Phone      string `json:"phone" validate:"max=50"`
}
