package ingest

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Hmmmm3247/ContractGuard/model"
	"github.com/Hmmmm3247/ContractGuard/pkg/apperr"
)

// DefaultContractType labels analyses whose category the model left out.
const DefaultContractType = "General Agreement"

// Kind tags the schema a response is expected to match.
type Kind int

const (
	KindAnalysis Kind = iota + 1
	KindCompanyProfile
	KindModeration
	KindTranslation
	KindEmailDraft
)

func (k Kind) String() string {
	switch k {
	case KindAnalysis:
		return "analysis"
	case KindCompanyProfile:
		return "company_profile"
	case KindModeration:
		return "moderation"
	case KindTranslation:
		return "translation"
	case KindEmailDraft:
		return "email_draft"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Response is implemented by one struct per Kind.
type Response interface {
	Kind() Kind
}

type AnalysisResponse struct{ Analysis *model.ContractAnalysis }

type CompanyProfileResponse struct{ Profile *model.CompanyProfile }

type ModerationResponse struct {
	Approved     bool   `json:"approved"`
	Reason       string `json:"reason"`
	SuggestedFix string `json:"suggestedFix,omitempty"`
}

type TranslationResponse struct{ Analysis *model.ContractAnalysis }

type EmailDraftResponse struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (AnalysisResponse) Kind() Kind       { return KindAnalysis }
func (CompanyProfileResponse) Kind() Kind { return KindCompanyProfile }
func (ModerationResponse) Kind() Kind     { return KindModeration }
func (TranslationResponse) Kind() Kind    { return KindTranslation }
func (EmailDraftResponse) Kind() Kind     { return KindEmailDraft }

// Request is the input to Parse. Sources are grounding citations taken from
// response metadata; Original is the analysis a translation was made from.
type Request struct {
	Kind     Kind
	Text     string
	Sources  []model.GroundingSource
	Original *model.ContractAnalysis
}

// Parse dispatches to the parser for req.Kind.
func Parse(req Request) (Response, error) {
	switch req.Kind {
	case KindAnalysis:
		a, err := ParseAnalysis(req.Text, req.Sources)
		if err != nil {
			return nil, err
		}
		return AnalysisResponse{Analysis: a}, nil
	case KindCompanyProfile:
		p, err := ParseCompanyProfile(req.Text, req.Sources)
		if err != nil {
			return nil, err
		}
		return CompanyProfileResponse{Profile: p}, nil
	case KindModeration:
		m, err := ParseModeration(req.Text)
		if err != nil {
			return nil, err
		}
		return *m, nil
	case KindTranslation:
		a, err := ParseTranslation(req.Text, req.Original)
		if err != nil {
			return nil, err
		}
		return TranslationResponse{Analysis: a}, nil
	case KindEmailDraft:
		d, err := ParseEmailDraft(req.Text)
		if err != nil {
			return nil, err
		}
		return *d, nil
	default:
		return nil, fmt.Errorf("unknown response kind %s", req.Kind)
	}
}

func decode(raw string, v any) error {
	obj, err := ExtractObject(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(obj), v); err != nil {
		return apperr.NewMalformed("response was not valid JSON", err)
	}
	return nil
}

// ParseAnalysis decodes a contract analysis and attaches deduplicated sources.
func ParseAnalysis(raw string, sources []model.GroundingSource) (*model.ContractAnalysis, error) {
	var w analysisWire
	if err := decode(raw, &w); err != nil {
		return nil, err
	}
	a := normalizeAnalysis(&w)
	a.GroundingSources = DedupSources(sources)
	return a, nil
}

func normalizeAnalysis(w *analysisWire) *model.ContractAnalysis {
	a := &model.ContractAnalysis{
		ID:                 w.ID.String(),
		ProviderName:       w.ProviderName.String(),
		Summary:            w.Summary.String(),
		ContractType:       w.ContractType.String(),
		Parties:            texts(w.Parties),
		Duration:           w.Duration.String(),
		TotalCost:          w.TotalCost.String(),
		RiskScore:          w.RiskScore.clampInt(0, 100),
		RiskLevel:          model.RiskLevel(strings.ToUpper(w.RiskLevel.String())),
		Flags:              make([]model.ContractFlag, 0, len(w.Flags)),
		Trickery:           make([]model.TrickeryTactic, 0, len(w.Trickery)),
		NegotiationPoints:  make([]model.NegotiationPoint, 0, len(w.NegotiationPoints)),
		BetterAlternatives: texts(w.BetterAlternatives),
	}
	if a.ContractType == "" {
		a.ContractType = DefaultContractType
	}
	// Never derived from the score: the level is the model's call.
	if !a.RiskLevel.Valid() {
		a.RiskLevel = model.RiskMedium
	}
	for _, f := range w.Flags {
		sev := model.FlagSeverity(strings.ToUpper(f.Type.String()))
		if !sev.Valid() {
			sev = model.FlagYellow
		}
		a.Flags = append(a.Flags, model.ContractFlag{
			Type:            sev,
			Clause:          f.Clause.String(),
			Explanation:     f.Explanation.String(),
			FinancialImpact: f.FinancialImpact.String(),
			Confidence:      f.Confidence.clampInt(0, 100),
		})
	}
	for _, t := range w.Trickery {
		a.Trickery = append(a.Trickery, model.TrickeryTactic{
			Tactic:      t.Tactic.String(),
			Quote:       t.Quote.String(),
			Explanation: t.Explanation.String(),
			CounterMove: t.CounterMove.String(),
			Confidence:  t.Confidence.clampInt(0, 100),
		})
	}
	for _, p := range w.NegotiationPoints {
		if p.Point.String() == "" {
			continue
		}
		a.NegotiationPoints = append(a.NegotiationPoints, model.NegotiationPoint{
			Point:      p.Point.String(),
			Confidence: p.Confidence.clampInt(0, 100),
		})
	}
	return a
}

// ParseTranslation decodes a translated analysis. Scores, level, identity and
// sources of the original are restored since a translation must not change them.
func ParseTranslation(raw string, original *model.ContractAnalysis) (*model.ContractAnalysis, error) {
	var w analysisWire
	if err := decode(raw, &w); err != nil {
		return nil, err
	}
	a := normalizeAnalysis(&w)
	if original != nil {
		a.ID = original.ID
		a.ProviderName = original.ProviderName
		a.RiskScore = original.RiskScore
		a.RiskLevel = original.RiskLevel
		a.GroundingSources = original.GroundingSources
		if a.TotalCost == "" {
			a.TotalCost = original.TotalCost
		}
	}
	return a, nil
}

// ParseCompanyProfile decodes a reputation profile. The id is always derived
// from the canonical name, whatever the model proposed.
func ParseCompanyProfile(raw string, sources []model.GroundingSource) (*model.CompanyProfile, error) {
	var w companyWire
	if err := decode(raw, &w); err != nil {
		return nil, err
	}
	p := &model.CompanyProfile{
		ID:             Slug(w.Name.String()),
		Name:           w.Name.String(),
		Industry:       w.Industry.String(),
		TrustScore:     w.TrustScore.clampInt(0, 100),
		LogoURL:        w.LogoURL.String(),
		CommonTraps:    texts(w.CommonTraps),
		PositiveTraits: texts(w.PositiveTraits),
		UserRatings: model.UserRatings{
			Negotiability: w.UserRatings.Negotiability.clampFloat(0, 5),
			Transparency:  w.UserRatings.Transparency.clampFloat(0, 5),
		},
		TotalContractsAnalyzed: w.TotalContractsAnalyzed.clampInt(0, int(^uint32(0)>>1)),
		Sources:                DedupSources(sources),
	}
	if p.Industry == "" {
		p.Industry = "Unknown"
	}
	return p, nil
}

// ParseModeration decodes a verdict. A verdict without an explicit approval
// is a rejection.
func ParseModeration(raw string) (*ModerationResponse, error) {
	var w moderationWire
	if err := decode(raw, &w); err != nil {
		return nil, err
	}
	m := &ModerationResponse{
		Approved:     w.Approved != nil && *w.Approved,
		Reason:       w.Reason.String(),
		SuggestedFix: w.SuggestedFix.String(),
	}
	if !m.Approved && m.Reason == "" {
		m.Reason = "The review did not pass the content safety check."
	}
	return m, nil
}

// ParseEmailDraft decodes {subject, body}; an object with neither is malformed.
func ParseEmailDraft(raw string) (*EmailDraftResponse, error) {
	var w emailWire
	if err := decode(raw, &w); err != nil {
		return nil, err
	}
	d := &EmailDraftResponse{Subject: w.Subject.String(), Body: strings.TrimSpace(string(w.Body))}
	if d.Subject == "" && d.Body == "" {
		return nil, apperr.NewMalformed("email draft had no subject or body", nil)
	}
	return d, nil
}
