package service

import "github.com/Hmmmm3247/ContractGuard/model"

// seedCompanies returns a fresh copy of the built-in reputation profiles.
func seedCompanies() []model.CompanyProfile {
	return []model.CompanyProfile{
		{
			ID:                     "vodacom",
			Name:                   "Vodacom SA",
			Industry:               "Telecommunications",
			TrustScore:             42,
			TotalContractsAnalyzed: 1240,
			CommonTraps: []string{
				"Automatic price increase of CPI + 5%",
				"24-month lock-in with high cancellation fees (approx 75% of remaining balance)",
				"Data expires after 30 days despite CPA regulations",
			},
			PositiveTraits: []string{"Network coverage reliability"},
			UserRatings:    model.UserRatings{Negotiability: 1.5, Transparency: 2.5},
		},
		{
			ID:                     "mtn",
			Name:                   "MTN",
			Industry:               "Telecommunications",
			TrustScore:             45,
			TotalContractsAnalyzed: 980,
			CommonTraps: []string{
				"Strict credit vetting",
				"Difficult cancellation process (requires 30 days specific notice)",
				"Unilateral term changes",
			},
			PositiveTraits: []string{"Good device variety"},
			UserRatings:    model.UserRatings{Negotiability: 2.0, Transparency: 3.0},
		},
		{
			ID:                     "virgin_active",
			Name:                   "Virgin Active",
			Industry:               "Health & Fitness",
			TrustScore:             68,
			TotalContractsAnalyzed: 3400,
			CommonTraps: []string{
				"12-month rolling contract auto-renewal",
				"Joining fee often hidden in first month",
				"Cancellation requires medical certificate or relocation proof",
			},
			PositiveTraits: []string{"Clear facility rules", "Standardized contracts"},
			UserRatings:    model.UserRatings{Negotiability: 1.0, Transparency: 4.0},
		},
		{
			ID:                     "planet_fitness",
			Name:                   "Planet Fitness",
			Industry:               "Health & Fitness",
			TrustScore:             35,
			TotalContractsAnalyzed: 2100,
			CommonTraps: []string{
				`Extremely difficult cancellation ("The Black Tag Trap")`,
				"Aggressive debt collection for missed months",
				"Phone calls recorded as verbal contracts",
			},
			PositiveTraits: []string{"Low entry price"},
			UserRatings:    model.UserRatings{Negotiability: 0.5, Transparency: 1.5},
		},
		{
			ID:                     "capitec",
			Name:                   "Capitec Bank",
			Industry:               "Finance",
			TrustScore:             88,
			TotalContractsAnalyzed: 5600,
			CommonTraps: []string{
				"Credit life insurance often optional but presented as mandatory",
				"High initiation fees on small loans",
			},
			PositiveTraits: []string{"Plain language contracts", "Transparent fee structure", "Easy digital signing"},
			UserRatings:    model.UserRatings{Negotiability: 1.0, Transparency: 4.8},
		},
		{
			ID:                     "standard_bank",
			Name:                   "Standard Bank",
			Industry:               "Finance",
			TrustScore:             72,
			TotalContractsAnalyzed: 4100,
			CommonTraps: []string{
				"Complex fee tiers",
				"Legacy clauses in old account types",
			},
			PositiveTraits: []string{"Solid regulatory compliance"},
			UserRatings:    model.UserRatings{Negotiability: 2.5, Transparency: 3.5},
		},
		{
			ID:                     "pam_golding",
			Name:                   "Pam Golding Properties",
			Industry:               "Real Estate",
			TrustScore:             78,
			TotalContractsAnalyzed: 800,
			CommonTraps: []string{
				"Strict damage deposit return policies",
				"Tenants liable for maintenance beyond fair wear and tear",
			},
			PositiveTraits: []string{"CPA compliant leases", "Professional dispute resolution"},
			UserRatings:    model.UserRatings{Negotiability: 3.0, Transparency: 4.2},
		},
	}
}
