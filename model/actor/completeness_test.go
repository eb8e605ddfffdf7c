package actor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var t0 = time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

func validRefs(n int) []Reference {
	var refs []Reference
	for i := 0; i < n; i++ {
		refs = append(refs, Reference{Name: "Ref", Phone: "5550000", Relationship: "friend"})
	}
	return refs
}

func individual(role Role, nationality Nationality) *Record {
	r := New("a1", "p1", role, KindIndividual, false, t0)
	r.Apply(&Submission{
		Email: "a@example.com", Phone: "5551234", Address: "Av. Reforma 1",
		FullName: "Ana Ruiz", Nationality: nationality, CURP: "RUAA800101MDFXXX01", Passport: "X1234567",
		PropertyAddress: "Calle 5", DeedNumber: "D-77",
		References: validRefs(3),
	})
	return r
}

func company(role Role) *Record {
	r := New("c1", "p1", role, KindCompany, false, t0)
	r.Apply(&Submission{
		Email: "legal@acme.mx", Phone: "5559999", Address: "Insurgentes 100",
		LegalName: "Acme SA de CV", TaxID: "ACM010101AAA", LegalRepName: "Luis Perez", LegalRepID: "INE-1",
		PropertyAddress: "Calle 5", DeedNumber: "D-77",
		References: validRefs(4),
	})
	return r
}

func TestRules_IsComplete(t *testing.T) {
	type testCase struct {
		name   string
		record func() *Record
		rules  *Rules
		expect bool
	}
	tests := []testCase{
		{name: "mexican individual tenant", record: func() *Record { return individual(RoleTenant, NationalityMexican) }, expect: true},
		{name: "foreign individual tenant", record: func() *Record { return individual(RoleTenant, NationalityForeign) }, expect: true},
		{name: "company landlord", record: func() *Record { return company(RoleLandlord) }, expect: true},
		{name: "company aval", record: func() *Record { return company(RoleAval) }, expect: true},
		{name: "missing nationality", record: func() *Record { return individual(RoleTenant, "") }, expect: false},
		{
			name: "foreign without passport ignores curp",
			record: func() *Record {
				r := individual(RoleJointObligor, NationalityForeign)
				r.Individual.Passport = ""
				return r
			},
			expect: false,
		},
		{
			name: "two entries short",
			record: func() *Record {
				r := individual(RoleTenant, NationalityMexican)
				r.PersonalReferences = validRefs(2)
				return r
			},
			expect: false,
		},
		{
			name: "three entries one invalid",
			record: func() *Record {
				r := individual(RoleTenant, NationalityMexican)
				r.PersonalReferences[1].Relationship = " "
				return r
			},
			expect: false,
		},
		{
			name: "four entries three valid",
			record: func() *Record {
				r := individual(RoleTenant, NationalityMexican)
				r.PersonalReferences = append(r.PersonalReferences, Reference{Name: "incomplete"})
				return r
			},
			expect: true,
		},
		{
			name: "six references",
			record: func() *Record {
				r := individual(RoleTenant, NationalityMexican)
				r.PersonalReferences = validRefs(6)
				return r
			},
			expect: false,
		},
		{
			name: "aval without deed",
			record: func() *Record {
				r := individual(RoleAval, NationalityMexican)
				r.Collateral.DeedNumber = ""
				return r
			},
			expect: false,
		},
		{
			name: "tenant does not need collateral",
			record: func() *Record {
				r := individual(RoleTenant, NationalityMexican)
				r.Collateral = Collateral{}
				return r
			},
			expect: true,
		},
		{
			name:   "required document missing",
			record: func() *Record { return individual(RoleTenant, NationalityMexican) },
			rules:  &Rules{RequiredDocuments: map[Role][]string{RoleTenant: {"ID"}}},
			expect: false,
		},
		{
			name: "required document attached",
			record: func() *Record {
				r := individual(RoleTenant, NationalityMexican)
				r.Documents = append(r.Documents, Document{ID: "d1", Category: "ID", UploadedAt: t0})
				return r
			},
			rules:  &Rules{RequiredDocuments: map[Role][]string{RoleTenant: {"ID"}}},
			expect: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rules := tc.rules
			if rules == nil {
				rules = &Rules{}
			}
			assert.Equal(t, tc.expect, rules.IsComplete(tc.record()), rules.Missing(tc.record()))
		})
	}
}

func TestRecord_BranchSwitch(t *testing.T) {
	r := individual(RoleTenant, NationalityMexican)
	assert.True(t, IsComplete(r))

	r.Apply(&Submission{Nationality: NationalityForeign})
	r.Individual.Passport = ""
	assert.False(t, IsComplete(r))
	assert.Equal(t, []string{"passport"}, defaultRules.Missing(r))
	assert.Equal(t, "RUAA800101MDFXXX01", r.Individual.CURP)

	r.Apply(&Submission{Kind: KindCompany})
	assert.False(t, IsComplete(r))
	r.Apply(&Submission{LegalName: "Ruiz SC", TaxID: "RUI0101", LegalRepName: "Ana Ruiz", LegalRepID: "INE-9", References: validRefs(3)})
	assert.True(t, IsComplete(r))
	assert.Len(t, r.PersonalReferences, 3)
	assert.Len(t, r.CommercialReferences, 3)
}

func TestRecord_Clone(t *testing.T) {
	r := individual(RoleTenant, NationalityMexican)
	clone := r.Clone()
	clone.PersonalReferences[0].Name = "changed"
	clone.Verification.Status = "APPROVED"
	assert.Equal(t, "Ref", r.PersonalReferences[0].Name)
	assert.Equal(t, "PENDING", string(r.Verification.Status))
}
