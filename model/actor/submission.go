package actor

// Submission is a self-service update. Empty fields leave the record
// untouched; a non-nil References slice replaces the list of the
// submitted kind branch.
type Submission struct {
	Kind            Kind        `json:"kind,omitempty"`
	Nationality     Nationality `json:"nationality,omitempty"`
	FullName        string      `json:"fullName,omitempty"`
	CURP            string      `json:"curp,omitempty"`
	Passport        string      `json:"passport,omitempty"`
	LegalName       string      `json:"legalName,omitempty"`
	TaxID           string      `json:"taxId,omitempty"`
	LegalRepName    string      `json:"legalRepName,omitempty"`
	LegalRepID      string      `json:"legalRepId,omitempty"`
	Email           string      `json:"email,omitempty"`
	Phone           string      `json:"phone,omitempty"`
	Address         string      `json:"address,omitempty"`
	Occupation      string      `json:"occupation,omitempty"`
	EmployerName    string      `json:"employerName,omitempty"`
	MonthlyIncome   float64     `json:"monthlyIncome,omitempty"`
	PropertyAddress string      `json:"propertyAddress,omitempty"`
	DeedNumber      string      `json:"deedNumber,omitempty"`
	References      []Reference `json:"references,omitempty"`
}

// Apply merges s into r. Switching kind or nationality keeps the fields of
// the other branch; completeness only reads the active branch.
func (r *Record) Apply(s *Submission) {
	if s == nil {
		return
	}
	if s.Kind != "" {
		r.Kind = s.Kind
	}
	set(&r.Email, s.Email)
	set(&r.Phone, s.Phone)
	set(&r.Address, s.Address)
	if s.Nationality != "" {
		r.Individual.Nationality = s.Nationality
	}
	set(&r.Individual.FullName, s.FullName)
	set(&r.Individual.CURP, s.CURP)
	set(&r.Individual.Passport, s.Passport)
	set(&r.Company.LegalName, s.LegalName)
	set(&r.Company.TaxID, s.TaxID)
	set(&r.Company.LegalRepName, s.LegalRepName)
	set(&r.Company.LegalRepID, s.LegalRepID)
	set(&r.Employment.Occupation, s.Occupation)
	set(&r.Employment.EmployerName, s.EmployerName)
	if s.MonthlyIncome > 0 {
		r.Employment.MonthlyIncome = s.MonthlyIncome
	}
	set(&r.Collateral.PropertyAddress, s.PropertyAddress)
	set(&r.Collateral.DeedNumber, s.DeedNumber)
	if s.References != nil {
		refs := append([]Reference(nil), s.References...)
		if r.Kind == KindCompany {
			r.CommercialReferences = refs
		} else {
			r.PersonalReferences = refs
		}
	}
}

func set(dest *string, value string) {
	if value != "" {
		*dest = value
	}
}
