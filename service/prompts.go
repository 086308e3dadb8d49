package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Hmmmm3247/ContractGuard/model"
)

const analysisSystemInstruction = `You are ContractGuard, a world-class South African legal expert and consumer protection advocate.
Your goal is to protect South African citizens from exploitative contracts.
You have deep knowledge of:
1. The Consumer Protection Act (CPA)
2. The National Credit Act (NCA)
3. The Basic Conditions of Employment Act (BCEA)
4. Rental Housing Act

You have access to Google Search. Use it to:
1. Verify if clauses comply with the latest amendments to South African law.
2. Find real-world industry averages to compare costs.
3. Identify better alternative products or services currently on the market.

CONFIDENCE SCORING:
For every flag, trickery tactic, or negotiation point, assign a 'confidence' score (0-100).
- 90-100: Absolute certainty based on explicit CPA/NCA text or clear math.
- 70-89: High certainty based on standard interpretation.
- 50-69: Likely, but depends on context or missing info.
- <50: Speculative.

SUMMARY RULES:
Keep the summary extremely concise and scannable (max 35 words).
Format: "[Core Cost/Obligation]. [Top 1-2 critical RED flags if present]."
If there are no red flags, mention the key condition or renewal term.
Do not include the document type in the summary, use the contractType field.

TRICKERY DETECTION:
Explicitly identify dark patterns. Explain why it is a trick and how to counter it.`

const negotiationSystemInstruction = `You are a roleplay partner for a negotiation training session.
You will play the role of a service provider agent (e.g. Gym Salesperson, Landlord, Bank Agent).
The user is a customer trying to negotiate better terms based on a contract analysis.
Your personality: professional but firm. You are trained to maximize profit but will concede if the user cites specific laws (CPA) or competitor offers.
Keep your responses concise (spoken word style).`

const conciergeSystemInstruction = `You are ContractGuard's "Legal Concierge", a friendly South African consumer law expert.
The user is browsing the app (reading resources or checking community stats).

YOUR ROLE:
1. Answer general questions about the Consumer Protection Act (CPA), National Credit Act (NCA), and Rental Housing Act.
2. Explain legal concepts in plain English.
3. If the user asks about a specific contract analysis, guide them to use the Upload/Analyze feature.
4. Keep answers concise, helpful, and strictly relevant to South African law.

Avoid giving binding legal advice. Always add a disclaimer if the query is complex.`

func schemaString(typ string, desc string) map[string]any {
	s := map[string]any{"type": typ}
	if desc != "" {
		s["description"] = desc
	}
	return s
}

// analysisSchema mirrors model.ContractAnalysis for response-schema hints.
var analysisSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"contractType": schemaString("STRING", "The specific legal category of the document (e.g. Residential Lease, Employment Contract, Gym Membership, Personal Loan, NDA)."),
		"summary":      schemaString("STRING", "Ultra-concise 1-2 sentence overview including the core obligation and the most critical red flag (if any)."),
		"parties": map[string]any{
			"type":        "ARRAY",
			"items":       schemaString("STRING", ""),
			"description": "The entities involved in the contract.",
		},
		"duration":  schemaString("STRING", "How long the contract lasts."),
		"totalCost": schemaString("STRING", "Total financial obligation in ZAR (R)."),
		"riskScore": schemaString("NUMBER", "A score from 0 (Safe) to 100 (Extremely Risky)."),
		"riskLevel": map[string]any{
			"type":        "STRING",
			"enum":        []string{"HIGH", "MEDIUM", "LOW"},
			"description": "Overall risk assessment.",
		},
		"flags": map[string]any{
			"type": "ARRAY",
			"items": map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"type":            map[string]any{"type": "STRING", "enum": []string{"RED", "YELLOW", "GREEN"}},
					"clause":          schemaString("STRING", "The specific text from the contract."),
					"explanation":     schemaString("STRING", "Why this is good/bad in plain language."),
					"financialImpact": schemaString("STRING", "Potential cost in ZAR if applicable."),
					"confidence":      schemaString("NUMBER", "0-100 score of AI certainty."),
				},
				"required": []string{"type", "clause", "explanation", "confidence"},
			},
		},
		"trickery": map[string]any{
			"type": "ARRAY",
			"items": map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"tactic":      schemaString("STRING", "Name of the manipulative tactic."),
					"quote":       schemaString("STRING", "The text snippet showing this trick."),
					"explanation": schemaString("STRING", "How this trick works."),
					"counterMove": schemaString("STRING", "How to counter this trick."),
					"confidence":  schemaString("NUMBER", "0-100 score of AI certainty."),
				},
				"required": []string{"tactic", "explanation", "counterMove", "confidence"},
			},
		},
		"negotiationPoints": map[string]any{
			"type": "ARRAY",
			"items": map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"point":      schemaString("STRING", "The argument to use."),
					"confidence": schemaString("NUMBER", "Likelihood of success (0-100)."),
				},
				"required": []string{"point", "confidence"},
			},
			"description": "List of negotiation arguments with success probability.",
		},
		"betterAlternatives": map[string]any{
			"type":        "ARRAY",
			"items":       schemaString("STRING", ""),
			"description": "Competitors or alternatives.",
		},
	},
	"required": []string{"contractType", "summary", "riskScore", "flags", "trickery", "negotiationPoints"},
}

var emailSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"subject": schemaString("STRING", ""),
		"body":    schemaString("STRING", ""),
	},
	"required": []string{"subject", "body"},
}

var moderationSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"approved":     schemaString("BOOLEAN", ""),
		"reason":       schemaString("STRING", ""),
		"suggestedFix": schemaString("STRING", ""),
	},
	"required": []string{"approved", "reason"},
}

var analysisSchemaJSON = func() string {
	b, _ := json.MarshalIndent(analysisSchema, "", "  ")
	return string(b)
}()

func analysisTaskPrompt(identity model.UserIdentity, tone model.NegotiationTone) string {
	return fmt.Sprintf(`THE USER IS A: %s.
THE DESIRED NEGOTIATION TONE IS: %s.

TASK: DEEP LEGAL ANALYSIS & RISK SCORING

1. LEGAL GROUNDING (CPA/NCA):
   Use Google Search to cross-reference clauses with the Consumer Protection Act 68 of 2008 and the National Credit Act.
   If a clause violates a specific section (e.g. Section 14 Cancellation), flag it RED.

2. FINANCIAL FORENSICS (CODE EXECUTION):
   Use the Code Execution tool to calculate the TRUE TOTAL COST.
   - If there is an annual escalation (e.g. CPI + 5%%), calculate the compounding effect over the full term.
   - Sum up all monthly fees, admin fees, and initiation fees.
   - Output the final calculated R-value in the 'totalCost' field.

3. TRICKERY DETECTION:
   Identify dark patterns such as:
   - Roach Motel (easy to get in, hard to get out).
   - Forced Continuity (auto-renewal without notice).
   - Confusopoly (intentionally vague pricing).

4. OUTPUT:
   Return ONLY valid JSON matching this schema:
%s`, identity, tone, analysisSchemaJSON)
}

func analyzeTextPrompt(text string, identity model.UserIdentity, tone model.NegotiationTone) string {
	return fmt.Sprintf("Analyze the following CONTRACT TEXT diligently and thoroughly.\n\nCONTRACT TEXT:\n%q\n\n%s",
		text, analysisTaskPrompt(identity, tone))
}

func analyzeDocumentPrompt(identity model.UserIdentity, tone model.NegotiationTone) string {
	return "Analyze this contract document (Image or PDF) diligently and thoroughly.\n" +
		"If this is a PDF, ensure you process the text carefully to catch hidden clauses or small print.\n\n" +
		analysisTaskPrompt(identity, tone)
}

func companyReputationPrompt(companyName string) string {
	return fmt.Sprintf(`Perform a comprehensive background check and reputation analysis on the company: %q.
Focus on their operations in South Africa (or global if not SA based).

Use Google Search to find:
1. Reviews on HelloPeter, Google Reviews, TrustPilot, and social media.
2. Common complaints (hidden fees, bad support, cancellation issues).
3. Determine a 'Trust Score' (0-100) based on the ratio of positive to negative sentiment found online.
   - <40: Poor reputation, many unresolved complaints (e.g. difficult cancellations).
   - 40-70: Mixed reviews.
   - >70: Generally trusted and compliant.

Return a valid JSON object matching this structure:
{
  "id": "generate-a-clean-lowercase-id-from-canonical-name",
  "name": "Canonical Company Name (e.g. 'Vodacom SA' instead of 'vodacom')",
  "industry": "Industry Type",
  "trustScore": number (0-100),
  "commonTraps": ["trap 1", "trap 2", "trap 3"],
  "positiveTraits": ["trait 1", "trait 2"],
  "userRatings": { "negotiability": number (1-5), "transparency": number (1-5) },
  "totalContractsAnalyzed": 0
}`, companyName)
}

func rivalQuery(companyName string) string {
	return fmt.Sprintf("The biggest competitor of %s in South Africa", companyName)
}

func moderationPrompt(content, companyName string) string {
	return fmt.Sprintf(`You are a strict Legal Compliance Officer & Defamation Shield for a South African consumer protection platform.
Analyze the following user review for the company %q.

REVIEW CONTENT: %q

TASK:
Protect the user from defamation liability while preserving their right to honest consumer feedback.

STRICT RULES:
1. DEFAMATION CHECK: REJECT any absolute accusations of criminal conduct unless it is a court ruling.
   - "They are scammers/thieves/frauds" -> REJECT (actionable defamation).
   - "I felt scammed / It feels like theft" -> APPROVE (protected opinion/feeling).
2. DOXXING CHECK: REJECT if specific low-level employee names or private phone numbers are mentioned.
3. HATE SPEECH: REJECT instantly.
4. ALLOW: Honest descriptions of bad service, billing errors, rude staff, or difficult cancellations.

Output JSON:
{
  "approved": boolean,
  "reason": "Detailed legal reason for approval or rejection.",
  "suggestedFix": "If rejected due to phrasing, a rewritten version that conveys the SAME negative sentiment as a legally protected opinion (e.g. change 'They stole my money' to 'They deducted funds without my authorization')."
}`, companyName, content)
}

// aggressionInstruction maps a 1-10 level to drafting guidance.
func aggressionInstruction(level int) string {
	switch {
	case level <= 3:
		return "Maintain a cooperative relationship. Be polite but firm about rights."
	case level <= 7:
		return "Be very firm. State clearly that the terms are unacceptable. Demand a response within a reasonable timeframe."
	default:
		return `MAXIMUM AGGRESSION.
- Cite the Consumer Protection Act (CPA) explicitly.
- Threaten to escalate to the Consumer Goods and Services Ombud (CGSO) or National Consumer Commission.
- Use phrases like 'reservation of rights', 'bad faith', and 'unconscionable conduct'.
- Demand a response within 48 hours.
- Make it clear we are ready to leave/cancel immediately if demands aren't met.`
	}
}

func emailDraftPrompt(req *EmailDraftRequest) string {
	return fmt.Sprintf(`Draft a formal email to %s.

CONTEXT:
My Identity: %s
Contract Context: %s
My Goal/Intent: %s
Desired Tone: %s
Aggression Level: %d/10.

AGGRESSION INSTRUCTIONS:
%s

INSTRUCTIONS:
- Use South African English spelling.
- Use specific placeholders like [My Name], [Account Number], [Date].`,
		req.ProviderName, req.Identity, req.ContractSummary, req.Intent, req.Tone,
		req.AggressionLevel, aggressionInstruction(req.AggressionLevel))
}

func emailRefinePrompt(req *EmailRefineRequest) string {
	return fmt.Sprintf(`Refine the following email draft based on the user's instruction.

CURRENT SUBJECT: %s
CURRENT BODY: %s

USER INSTRUCTION: %s
DESIRED TONE: %s

OUTPUT FORMAT:
Return a JSON object with two fields: "subject" and "body".`,
		req.Subject, req.Body, req.Instruction, req.Tone)
}

func translationPrompt(analysisJSON []byte, language string) string {
	return fmt.Sprintf(`You are a highly skilled legal translator for South African languages.
Translate the following Contract Analysis JSON into %s.

RULES:
1. Preserve the JSON structure exactly.
2. Only translate the values of string fields that are human-readable (summary, explanations, advice, negotiation points).
3. For 'clause' fields (direct quotes from the contract), keep the original English text but append the translation in brackets if it helps understanding.
4. Keep 'riskScore', 'riskLevel', 'confidence' values exactly as is.
5. Keep 'contractType' in English or provide the standard localized legal term.

INPUT JSON:
%s

OUTPUT:
Valid JSON only.`, language, analysisJSON)
}

// SummaryStyle selects how AdaptSummary rewrites an executive summary.
type SummaryStyle string

const (
	SummarySimple   SummaryStyle = "simple"
	SummaryLegal    SummaryStyle = "legal"
	SummaryStandard SummaryStyle = "standard"
)

func summaryStylePrompt(a *model.ContractAnalysis, style SummaryStyle) string {
	instruction := "Explain Like I'm 5. Use very simple language. Focus on 'What do I pay?' and 'What is the danger?'. Avoid legal jargon."
	if style == SummaryLegal {
		instruction = "Professional Legal Summary. Use precise legal terminology suitable for a lawyer or compliance officer. Focus on liability and obligations."
	}
	risks := make([]string, 0, len(a.Flags))
	for _, f := range a.Flags {
		risks = append(risks, f.Explanation)
	}
	return fmt.Sprintf(`Rewrite the executive summary of this contract based on the analysis below.

ANALYSIS CONTEXT:
Risk Level: %s
Key Risks: %s
Original Summary: %s

TASK:
Rewrite the summary in this style: %q
Keep it under 50 words.`, a.RiskLevel, strings.Join(risks, "; "), a.Summary, instruction)
}

// contractContext renders a contract for chat and roleplay instructions.
func contractContext(r *model.ContractRecord) string {
	var sb strings.Builder
	provider := r.ProviderName
	if provider == "" {
		provider = "Unknown"
	}
	contractType := r.ContractType
	if contractType == "" {
		contractType = "General"
	}
	fmt.Fprintf(&sb, "- Provider: %s\n- Type: %s\n- Quick Summary: %s\n- Risk Score: %d/100 (%s)\n",
		provider, contractType, r.Summary, r.RiskScore, r.RiskLevel)

	sb.WriteString("\nKEY RISKS IDENTIFIED (FLAGS):\n")
	for _, f := range r.Flags {
		fmt.Fprintf(&sb, "- [%s] %s: %s\n", f.Type, f.Clause, f.Explanation)
	}

	sb.WriteString("\nTRICKERY / DARK PATTERNS DETECTED:\n")
	if len(r.Trickery) == 0 {
		sb.WriteString("None\n")
	}
	for _, t := range r.Trickery {
		fmt.Fprintf(&sb, "- %s: %s (Counter move: %s)\n", t.Tactic, t.Explanation, t.CounterMove)
	}

	sb.WriteString("\nNEGOTIATION ANGLES & LEVERAGE:\n")
	if len(r.NegotiationPoints) == 0 {
		sb.WriteString("None\n")
	}
	for _, p := range r.NegotiationPoints {
		fmt.Fprintf(&sb, "- %s (Confidence: %d%%)\n", p.Point, p.Confidence)
	}
	return sb.String()
}

func documentAssistantInstruction(r *model.ContractRecord) string {
	return `You are a helpful legal assistant discussing a specific South African contract.

CONTRACT ANALYSIS DATA:
` + contractContext(r) + `
YOUR TASK:
Help the user understand this contract, draft replies, or find loopholes.

IF ASKED TO "SUMMARIZE":
Provide a concise Executive Summary with:
1. The core financial obligation.
2. The Top 3 Key Risks (Red Flags).
3. The Top 3 Negotiation Leverage Points.
Format with bullet points.

Keep answers short, practical, and South African context aware (CPA/NCA).`
}

func negotiationInstruction(identity model.UserIdentity, tone model.NegotiationTone, context string) string {
	if strings.TrimSpace(context) == "" {
		context = "General contract negotiation"
	}
	return fmt.Sprintf(`%s

The user you are roleplaying with is a: %s.
The user is trying to adopt a %s tone.
If they are too soft (and tone is Aggressive), push them to be harder.
If they are too rude (and tone is Polite), gently correct them in character.

Detailed Contract Context & Trickery Detected:
%s

If 'Trickery' or 'Dark Patterns' are listed in the context, be prepared for the user to call you out on them.
Defend the trickery weakly at first (like a typical agent), but concede if they use the correct "Counter Move".`,
		negotiationSystemInstruction, identity, tone, context)
}
