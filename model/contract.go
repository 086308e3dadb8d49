package model

import (
	"time"
)

// RiskLevel is the overall risk assessment reported by the model.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Valid reports whether r is one of the known levels.
func (r RiskLevel) Valid() bool {
	return r == RiskLow || r == RiskMedium || r == RiskHigh
}

// FlagSeverity colours a flagged clause.
type FlagSeverity string

const (
	FlagRed    FlagSeverity = "RED"
	FlagYellow FlagSeverity = "YELLOW"
	FlagGreen  FlagSeverity = "GREEN"
)

func (s FlagSeverity) Valid() bool {
	return s == FlagRed || s == FlagYellow || s == FlagGreen
}

// ContractStatus constants
const (
	StatusActive  = "ACTIVE"
	StatusExpired = "EXPIRED"
	StatusPending = "PENDING"
)

// ThumbnailPDF marks a record whose source document was not an image.
const ThumbnailPDF = "PDF"

// OriginalUploadNote labels the first snapshot of every contract.
const OriginalUploadNote = "Original Upload"

// ContractFlag is a single flagged clause.
type ContractFlag struct {
	Type            FlagSeverity `json:"type"`
	Clause          string       `json:"clause"`
	Explanation     string       `json:"explanation"`
	FinancialImpact string       `json:"financialImpact,omitempty"`
	Confidence      int          `json:"confidence"`
}

// TrickeryTactic is a detected dark pattern with its counter-move.
type TrickeryTactic struct {
	Tactic      string `json:"tactic"`
	Quote       string `json:"quote,omitempty"`
	Explanation string `json:"explanation"`
	CounterMove string `json:"counterMove"`
	Confidence  int    `json:"confidence"`
}

type NegotiationPoint struct {
	Point      string `json:"point"`
	Confidence int    `json:"confidence"`
}

// GroundingSource is a web citation returned alongside a grounded response.
type GroundingSource struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// ContractAnalysis holds the fields produced by a single analysis call.
type ContractAnalysis struct {
	ID                 string             `json:"id,omitempty"`
	ProviderName       string             `json:"providerName,omitempty"`
	Summary            string             `json:"summary"`
	ContractType       string             `json:"contractType"`
	Parties            []string           `json:"parties"`
	Duration           string             `json:"duration"`
	TotalCost          string             `json:"totalCost"`
	RiskScore          int                `json:"riskScore"`
	RiskLevel          RiskLevel          `json:"riskLevel"`
	Flags              []ContractFlag     `json:"flags"`
	Trickery           []TrickeryTactic   `json:"trickery"`
	NegotiationPoints  []NegotiationPoint `json:"negotiationPoints"`
	BetterAlternatives []string           `json:"betterAlternatives,omitempty"`
	GroundingSources   []GroundingSource  `json:"groundingSources,omitempty"`
}

// VersionSnapshot is an immutable history entry. Only the headline fields are
// kept, so a snapshot cannot restore a full analysis.
type VersionSnapshot struct {
	VersionID   string    `json:"versionId"`
	DateCreated time.Time `json:"dateCreated"`
	Summary     string    `json:"summary"`
	RiskScore   int       `json:"riskScore"`
	TotalCost   string    `json:"totalCost"`
	ChangesNote string    `json:"changesNote,omitempty"`
}

// SavedDraft is correspondence the user parked on a contract.
type SavedDraft struct {
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	UpdatedAt int64  `json:"updatedAt"`
}

// ContractRecord is the persisted vault entry. Versions is newest-first and
// Versions[0] always mirrors Summary, RiskScore and TotalCost.
type ContractRecord struct {
	ContractAnalysis
	DateAdded   time.Time         `json:"dateAdded"`
	Status      string            `json:"status"`
	RenewalDate string            `json:"renewalDate,omitempty"`
	Thumbnail   string            `json:"thumbnail,omitempty"`
	SavedDraft  *SavedDraft       `json:"savedDraft,omitempty"`
	Versions    []VersionSnapshot `json:"versions"`
}

// CurrentVersion returns the active snapshot.
func (r *ContractRecord) CurrentVersion() (VersionSnapshot, bool) {
	if r == nil || len(r.Versions) == 0 {
		return VersionSnapshot{}, false
	}
	return r.Versions[0], true
}

// ValidStatus reports whether s is a known lifecycle status.
func ValidStatus(s string) bool {
	return s == StatusActive || s == StatusExpired || s == StatusPending
}
