package documents

// Company is the letterhead printed on every document.
type Company struct {
	Name             string `envconfig:"NAME" default:"PT. EDI SEJAHTERA"`
	Address          string `envconfig:"ADDRESS" default:"KOMPLEK PERMATA KOTA BLOCK I 3 JL. PANGERAN TUBAGUS ANGKE NO. 170 RT 010 RW 01"`
	AddressSecondary string `envconfig:"ADDRESS_SECONDARY" default:"PEJAGALAN PENJARINGAN JAKARTA UTARA"`
	Phone            string `envconfig:"PHONE" default:"08161816486"`
	Email            string `envconfig:"EMAIL" default:"edisejahtera@yahoo.com / edisejahtera02@gmail.com"`
	Director         string `envconfig:"DIRECTOR" default:"EDI LIAN"`
	Bank             string `envconfig:"BANK" default:"BCA"`
	BankAccount      string `envconfig:"BANK_ACCOUNT" default:"5850136868"`
	Domicile         string `envconfig:"DOMICILE" default:"Jakarta"`
}

// DefaultCompany returns the built-in company profile.
func DefaultCompany() Company {
	return Company{
		Name:             "PT. EDI SEJAHTERA",
		Address:          "KOMPLEK PERMATA KOTA BLOCK I 3 JL. PANGERAN TUBAGUS ANGKE NO. 170 RT 010 RW 01",
		AddressSecondary: "PEJAGALAN PENJARINGAN JAKARTA UTARA",
		Phone:            "08161816486",
		Email:            "edisejahtera@yahoo.com / edisejahtera02@gmail.com",
		Director:         "EDI LIAN",
		Bank:             "BCA",
		BankAccount:      "5850136868",
		Domicile:         "Jakarta",
	}
}
