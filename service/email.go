package service

import (
	"context"
	"strings"

	"github.com/Hmmmm3247/ContractGuard/model"
	"github.com/Hmmmm3247/ContractGuard/pkg/ingest"
	"github.com/Hmmmm3247/ContractGuard/pkg/validate"
)

const (
	fallbackSubject = "Contract Query"
	fallbackBody    = "Could not generate email."
)

// EmailDraftRequest asks for a first draft to a provider. When ContractID is
// set the provider and summary are taken from the stored contract.
type EmailDraftRequest struct {
	ContractID      string                `json:"contractId,omitempty"`
	ProviderName    string                `json:"providerName"`
	ContractSummary string                `json:"contractSummary"`
	Intent          string                `json:"intent" validate:"notblank,max=2000"`
	Identity        model.UserIdentity    `json:"identity,omitempty"`
	Tone            model.NegotiationTone `json:"tone,omitempty"`
	AggressionLevel int                   `json:"aggressionLevel" validate:"min=1,max=10"`
}

// EmailRefineRequest rewrites an existing draft according to an instruction.
type EmailRefineRequest struct {
	Subject     string                `json:"subject"`
	Body        string                `json:"body" validate:"notblank"`
	Instruction string                `json:"instruction" validate:"notblank,max=2000"`
	Tone        model.NegotiationTone `json:"tone,omitempty"`
}

// EmailDraft is a subject and body pair.
type EmailDraft struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type EmailService struct {
	vault *Vault
	ai    Generator
}

func NewEmailService(vault *Vault, ai Generator) *EmailService {
	return &EmailService{vault: vault, ai: ai}
}

// Draft generates an email. A reply that is not the expected JSON still
// yields a usable draft carrying the raw text.
func (s *EmailService) Draft(ctx context.Context, req *EmailDraftRequest) (*EmailDraft, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	r := *req
	r.Identity, r.Tone = withDefaults(r.Identity, r.Tone)
	if r.ContractID != "" {
		rec, err := s.vault.Get(ctx, r.ContractID)
		if err != nil {
			return nil, err
		}
		if r.ProviderName == "" {
			r.ProviderName = rec.ProviderName
		}
		if r.ContractSummary == "" {
			r.ContractSummary = rec.Summary
		}
	}
	if r.ProviderName == "" {
		r.ProviderName = unknownProvider
	}

	res, err := s.ai.Generate(ctx, &GenerateRequest{
		Purpose: "email_draft",
		Parts:   []Part{TextPart(emailDraftPrompt(&r))},
		JSON:    true,
		Schema:  emailSchema,
	})
	if err != nil {
		return nil, err
	}
	return s.toDraft(ctx, res.Text, fallbackSubject, fallbackBody), nil
}

// Refine rewrites a draft. On an unreadable reply the current subject is kept.
func (s *EmailService) Refine(ctx context.Context, req *EmailRefineRequest) (*EmailDraft, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	r := *req
	if r.Tone == "" {
		r.Tone = model.ToneAssertive
	}

	res, err := s.ai.Generate(ctx, &GenerateRequest{
		Purpose: "email_refine",
		Parts:   []Part{TextPart(emailRefinePrompt(&r))},
		JSON:    true,
		Schema:  emailSchema,
	})
	if err != nil {
		return nil, err
	}
	return s.toDraft(ctx, res.Text, r.Subject, r.Body), nil
}

func (s *EmailService) toDraft(ctx context.Context, raw, subject, body string) *EmailDraft {
	parsed, err := ingest.ParseEmailDraft(raw)
	if err != nil {
		logIngestFailure(ctx, ingest.KindEmailDraft, raw, err)
		if text := strings.TrimSpace(raw); text != "" {
			body = text
		}
		return &EmailDraft{Subject: subject, Body: body}
	}
	draft := &EmailDraft{Subject: parsed.Subject, Body: parsed.Body}
	if draft.Subject == "" {
		draft.Subject = subject
	}
	return draft
}

// Save stores a draft on its contract.
func (s *EmailService) Save(ctx context.Context, contractID string, draft *EmailDraft) (*model.ContractRecord, error) {
	if err := validate.Struct(struct {
		Body string `json:"body" validate:"notblank"`
	}{draft.Body}); err != nil {
		return nil, err
	}
	return s.vault.SaveDraft(ctx, contractID, draft.Subject, draft.Body)
}
