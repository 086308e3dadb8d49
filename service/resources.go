package service

// DemoScenario is a sample contract users can analyse without uploading.
type DemoScenario struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Text        string `json:"text"`
}

// LegalMyth is a common belief about South African contract law.
type LegalMyth struct {
	Myth   string `json:"myth"`
	Fact   string `json:"fact"`
	IsTrue bool   `json:"isTrue"`
}

// Resources is the static learning material served to the UI.
type Resources struct {
	Scenarios []DemoScenario `json:"scenarios"`
	Myths     []LegalMyth    `json:"myths"`
}

func LearningResources() Resources {
	return Resources{
		Scenarios: []DemoScenario{
			{
				Title:       "The 'Trap' Gym Contract",
				Description: "See how hidden cancellation fees and auto-renewals work.",
				Text: `MEMBERSHIP AGREEMENT - TITAN FITNESS
1. DURATION: This agreement is for a minimum period of 36 months.
2. FEES: Monthly fee of R950. Annual levy of R1200 payable in December.
3. ESCALATION: Fees shall increase by 15% or CPI + 5% (whichever is higher) annually.
4. CANCELLATION: Member may not cancel within the first 24 months. Thereafter, a cancellation penalty equal to 75% of the remaining contract value applies.
5. WAIVER: Member waives all rights under the Consumer Protection Act regarding cooling-off periods.`,
			},
			{
				Title:       "Predatory Loan Shark",
				Description: "Analyze illegal interest rates and reckless lending terms.",
				Text: `PERSONAL LOAN AGREEMENT
LENDER: QuickCash 4 U
PRINCIPAL DEBT: R10,000
INTEREST: 30% per month calculated daily.
INITIATION FEE: R2,500.
SECURITY: Borrower hereby hands over their ID book and Bank Card until the debt is paid in full.
DEFAULT: If payment is 1 day late, the Lender may seize all assets of the Borrower without a court order.`,
			},
			{
				Title:       "Vague Freelance NDA",
				Description: "Spot how companies try to own your future work.",
				Text: `NON-DISCLOSURE AND IP AGREEMENT
1. ASSIGNMENT: The Client shall own all Intellectual Property created by the Freelancer during the engagement, as well as any IP created by the Freelancer for a period of 5 years after termination, regardless of whether it relates to the Client's business.
2. NON-COMPETE: Freelancer agrees not to work for any other company in the technology sector globally for 24 months.
3. PAYMENT: Payment terms are Net 90 days.`,
			},
		},
		Myths: []LegalMyth{
			{
				Myth:   "I can cancel any contract within 5 days.",
				Fact:   "Only true for Direct Marketing! If you approached them (walked into a store), the 5-day cooling-off period usually doesn't apply.",
				IsTrue: false,
			},
			{
				Myth:   "Verbal contracts are valid in SA.",
				Fact:   "Generally YES. But they are hard to prove. Some specific contracts (like property sales) MUST be in writing.",
				IsTrue: true,
			},
			{
				Myth:   "They can keep my deposit if I cancel.",
				Fact:   "The CPA says they can charge a 'reasonable' penalty, but they cannot arbitrarily forfeit your entire deposit without proving costs.",
				IsTrue: false,
			},
			{
				Myth:   "My landlord can lock me out for late rent.",
				Fact:   "ILLEGAL. No eviction or lockout without a court order, regardless of what the lease says.",
				IsTrue: false,
			},
		},
	}
}
