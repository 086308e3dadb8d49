package ingest

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// number accepts JSON numbers and numeric strings ("85", "85%"). Anything else
// decodes to zero instead of failing the whole object.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
		f, err := strconv.ParseFloat(s, 64)
		if err == nil {
			*n = number(f)
		}
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return nil
	}
	*n = number(f)
	return nil
}

// clampInt clamps before converting so huge or infinite values cannot overflow.
func (n number) clampInt(lo, hi int) int {
	return int(math.Round(n.clampFloat(float64(lo), float64(hi))))
}

func (n number) clampFloat(lo, hi float64) float64 {
	v := float64(n)
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// text accepts strings and renders numbers or booleans as strings.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = text(s)
		return nil
	}
	if b[0] == '{' || b[0] == '[' {
		return nil
	}
	*t = text(b)
	return nil
}

func (t text) String() string { return strings.TrimSpace(string(t)) }

type flagWire struct {
	Type            text   `json:"type"`
	Clause          text   `json:"clause"`
	Explanation     text   `json:"explanation"`
	FinancialImpact text   `json:"financialImpact"`
	Confidence      number `json:"confidence"`
}

type tacticWire struct {
	Tactic      text   `json:"tactic"`
	Quote       text   `json:"quote"`
	Explanation text   `json:"explanation"`
	CounterMove text   `json:"counterMove"`
	Confidence  number `json:"confidence"`
}

// pointWire also accepts a bare string in place of {point, confidence}.
type pointWire struct {
	Point      text   `json:"point"`
	Confidence number `json:"confidence"`
}

func (p *pointWire) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		p.Point = text(s)
		return nil
	}
	type alias pointWire
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*p = pointWire(a)
	return nil
}

type analysisWire struct {
	ID                 text         `json:"id"`
	ProviderName       text         `json:"providerName"`
	Summary            text         `json:"summary"`
	ContractType       text         `json:"contractType"`
	Parties            []text       `json:"parties"`
	Duration           text         `json:"duration"`
	TotalCost          text         `json:"totalCost"`
	RiskScore          number       `json:"riskScore"`
	RiskLevel          text         `json:"riskLevel"`
	Flags              []flagWire   `json:"flags"`
	Trickery           []tacticWire `json:"trickery"`
	NegotiationPoints  []pointWire  `json:"negotiationPoints"`
	BetterAlternatives []text       `json:"betterAlternatives"`
}

type companyWire struct {
	Name           text   `json:"name"`
	Industry       text   `json:"industry"`
	TrustScore     number `json:"trustScore"`
	LogoURL        text   `json:"logoUrl"`
	CommonTraps    []text `json:"commonTraps"`
	PositiveTraits []text `json:"positiveTraits"`
	UserRatings    struct {
		Negotiability number `json:"negotiability"`
		Transparency  number `json:"transparency"`
	} `json:"userRatings"`
	TotalContractsAnalyzed number `json:"totalContractsAnalyzed"`
}

type moderationWire struct {
	Approved     *bool `json:"approved"`
	Reason       text  `json:"reason"`
	SuggestedFix text  `json:"suggestedFix"`
}

type emailWire struct {
	Subject text `json:"subject"`
	Body    text `json:"body"`
}

func texts(in []text) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		if s := t.String(); s != "" {
			out = append(out, s)
		}
	}
	return out
}
