package model

// ChatRole is the author of a chat message.
type ChatRole string

const (
	RoleUser  ChatRole = "user"
	RoleModel ChatRole = "model"
)

// GeneralConversationID keys the transcript used when no contract is open.
const GeneralConversationID = "general_legal_concierge"

type ChatMessage struct {
	ID        string            `json:"id"`
	Role      ChatRole          `json:"role"`
	Text      string            `json:"text"`
	Timestamp int64             `json:"timestamp"`
	Sources   []GroundingSource `json:"sources,omitempty"`
}

type UserRatings struct {
	Negotiability float64 `json:"negotiability"`
	Transparency  float64 `json:"transparency"`
}

// CompanyProfile is a reputation profile, either seeded or discovered at runtime.
type CompanyProfile struct {
	ID                     string            `json:"id"`
	Name                   string            `json:"name"`
	Industry               string            `json:"industry"`
	TrustScore             int               `json:"trustScore"`
	LogoURL                string            `json:"logoUrl,omitempty"`
	CommonTraps            []string          `json:"commonTraps"`
	PositiveTraits         []string          `json:"positiveTraits"`
	UserRatings            UserRatings       `json:"userRatings"`
	TotalContractsAnalyzed int               `json:"totalContractsAnalyzed"`
	Sources                []GroundingSource `json:"sources,omitempty"`
}

// ReviewStatus values. Only VERIFIED reviews are ever listed.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "PENDING"
	ReviewVerified ReviewStatus = "VERIFIED"
	ReviewRejected ReviewStatus = "REJECTED"
)

const (
	AuthorVerifiedCustomer = "Verified Customer"
	AuthorUnverified       = "Unverified User"
)

type CommunityReview struct {
	ID               string       `json:"id"`
	CompanyID        string       `json:"companyId"`
	CompanyName      string       `json:"companyName"`
	AuthorName       string       `json:"authorName"`
	Rating           int          `json:"rating"`
	Title            string       `json:"title"`
	Content          string       `json:"content"`
	Timestamp        int64        `json:"timestamp"`
	Status           ReviewStatus `json:"status"`
	VerifiedCustomer bool         `json:"verifiedCustomer"`
	LinkedContractID string       `json:"linkedContractId,omitempty"`
}

// ReviewStats aggregates verified reviews of one company.
type ReviewStats struct {
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

// UserIdentity describes who the user is when prompting the model.
type UserIdentity string

const (
	IdentityConsumer      UserIdentity = "Individual Consumer"
	IdentityFreelancer    UserIdentity = "Freelancer / Sole Prop"
	IdentitySmallBusiness UserIdentity = "Small Business Owner"
)

type NegotiationTone string

const (
	TonePolite     NegotiationTone = "Polite & Cooperative"
	ToneAssertive  NegotiationTone = "Firm & Professional"
	ToneAggressive NegotiationTone = "Aggressive & Hardball"
)
