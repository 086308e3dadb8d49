package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Hmmmm3247/ContractGuard/model"
	"github.com/Hmmmm3247/ContractGuard/pkg/apperr"
	"github.com/Hmmmm3247/ContractGuard/pkg/ingest"
	"github.com/Hmmmm3247/ContractGuard/pkg/logger"
)

const rawPreviewBytes = 512

// logIngestFailure records a response that could not be parsed.
func logIngestFailure(ctx context.Context, kind ingest.Kind, raw string, err error) {
	ingestFailuresTotal.WithLabelValues(kind.String()).Inc()
	logger.Warn(ctx, "failed to ingest AI response",
		"kind", kind.String(),
		"error", err,
		"raw", ingest.Preview(raw, rawPreviewBytes),
	)
}

// AnalyzeTextRequest asks for an analysis of pasted contract text. With
// ParentID set the result becomes a new version of that contract.
type AnalyzeTextRequest struct {
	Text     string                `json:"text" validate:"notblank"`
	Identity model.UserIdentity    `json:"identity,omitempty"`
	Tone     model.NegotiationTone `json:"tone,omitempty"`
	ParentID string                `json:"parentId,omitempty"`
}

// AnalyzeDocumentRequest carries an uploaded image or PDF.
type AnalyzeDocumentRequest struct {
	Data     []byte
	Identity model.UserIdentity
	Tone     model.NegotiationTone
	ParentID string
}

// AnalysisService runs contract analyses and files the results in the vault.
type AnalysisService struct {
	vault          *Vault
	ai             Generator
	thinkingBudget int
	maxUpload      int64
}

func NewAnalysisService(vault *Vault, ai Generator, thinkingBudget int, maxUpload int64) *AnalysisService {
	return &AnalysisService{vault: vault, ai: ai, thinkingBudget: thinkingBudget, maxUpload: maxUpload}
}

func withDefaults(identity model.UserIdentity, tone model.NegotiationTone) (model.UserIdentity, model.NegotiationTone) {
	if identity == "" {
		identity = model.IdentityConsumer
	}
	if tone == "" {
		tone = model.ToneAssertive
	}
	return identity, tone
}

// AnalyzeText analyses pasted contract text and saves the result.
func (s *AnalysisService) AnalyzeText(ctx context.Context, req *AnalyzeTextRequest) (*model.ContractRecord, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, apperr.NewValidation("Please paste the contract text to analyze.")
	}
	identity, tone := withDefaults(req.Identity, req.Tone)

	analysis, err := s.analyze(ctx, []Part{TextPart(analyzeTextPrompt(req.Text, identity, tone))})
	if err != nil {
		return nil, err
	}
	return s.file(ctx, analysis, "", req.ParentID)
}

// AnalyzeDocument analyses an uploaded JPEG, PNG, WEBP or PDF no larger than
// the upload limit. The type is sniffed from the content.
func (s *AnalysisService) AnalyzeDocument(ctx context.Context, req *AnalyzeDocumentRequest) (*model.ContractRecord, error) {
	mimeType, err := s.checkUpload(req.Data)
	if err != nil {
		return nil, err
	}
	identity, tone := withDefaults(req.Identity, req.Tone)

	analysis, err := s.analyze(ctx, []Part{
		{MimeType: mimeType, Data: req.Data},
		TextPart(analyzeDocumentPrompt(identity, tone)),
	})
	if err != nil {
		return nil, err
	}

	thumbnail, err := MakeThumbnail(req.Data, mimeType)
	if err != nil {
		// The analysis is still worth keeping without a preview.
		logger.Warn(ctx, "failed to build thumbnail", "mime_type", mimeType, "error", err)
		thumbnail = ""
	}
	return s.file(ctx, analysis, thumbnail, req.ParentID)
}

func (s *AnalysisService) checkUpload(data []byte) (string, error) {
	if len(data) == 0 {
		return "", apperr.NewValidation("Please choose a file to upload.")
	}
	if s.maxUpload > 0 && int64(len(data)) > s.maxUpload {
		return "", apperr.NewValidation(fmt.Sprintf("File is too large. The limit is %d MB.", s.maxUpload>>20))
	}
	mimeType := http.DetectContentType(data)
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	switch mimeType {
	case MimeJPEG, MimePNG, MimeWEBP, MimePDF:
		return mimeType, nil
	default:
		return "", apperr.NewValidation("Unsupported file type. Upload a JPEG, PNG, WEBP or PDF.")
	}
}

func (s *AnalysisService) analyze(ctx context.Context, parts []Part) (*model.ContractAnalysis, error) {
	res, err := s.ai.Generate(ctx, &GenerateRequest{
		Purpose:           "analysis",
		SystemInstruction: analysisSystemInstruction,
		Parts:             parts,
		Search:            true,
		CodeExecution:     true,
		ThinkingBudget:    s.thinkingBudget,
	})
	if err != nil {
		return nil, err
	}
	analysis, err := ingest.ParseAnalysis(res.Text, res.Sources)
	if err != nil {
		logIngestFailure(ctx, ingest.KindAnalysis, res.Text, err)
		return nil, apperr.NewMalformed("Failed to read the analysis. Please try again.", err)
	}
	return analysis, nil
}

// file saves a fresh analysis, or appends it as a counter-offer version.
func (s *AnalysisService) file(ctx context.Context, analysis *model.ContractAnalysis, thumbnail, parentID string) (*model.ContractRecord, error) {
	if parentID != "" {
		ctx = logger.With(ctx, logger.ContractIDKey, parentID)
		rec, err := s.vault.AppendVersion(ctx, parentID, analysis, CounterOfferNote)
		if err != nil {
			return nil, err
		}
		logger.Info(ctx, "contract version appended", "versions", len(rec.Versions), "risk_score", rec.RiskScore)
		return rec, nil
	}
	rec, err := s.vault.CreateInitial(ctx, analysis, thumbnail)
	if err != nil {
		return nil, err
	}
	logger.Info(logger.With(ctx, logger.ContractIDKey, rec.ID), "contract saved", "risk_score", rec.RiskScore, "risk_level", rec.RiskLevel)
	return rec, nil
}

// Translate renders a stored analysis in another language. English returns
// the stored analysis as is. The translation is not persisted.
func (s *AnalysisService) Translate(ctx context.Context, contractID, language string) (*model.ContractAnalysis, error) {
	language = strings.TrimSpace(language)
	if language == "" {
		return nil, apperr.NewValidation("language is required")
	}
	rec, err := s.vault.Get(ctx, contractID)
	if err != nil {
		return nil, err
	}
	original := rec.ContractAnalysis
	if strings.EqualFold(language, "English") {
		return &original, nil
	}

	input, err := json.Marshal(original)
	if err != nil {
		return nil, fmt.Errorf("failed to encode analysis: %w", err)
	}
	res, err := s.ai.Generate(ctx, &GenerateRequest{
		Purpose: "translation",
		Parts:   []Part{TextPart(translationPrompt(input, language))},
		JSON:    true,
	})
	if err != nil {
		return nil, err
	}
	translated, err := ingest.ParseTranslation(res.Text, &original)
	if err != nil {
		logIngestFailure(ctx, ingest.KindTranslation, res.Text, err)
		return nil, apperr.NewMalformed("Could not translate the report.", err)
	}
	return translated, nil
}

// AdaptSummary rewrites a stored summary in the given style. The standard
// style is the stored summary itself.
func (s *AnalysisService) AdaptSummary(ctx context.Context, contractID string, style SummaryStyle) (string, error) {
	if style == "" {
		style = SummaryStandard
	}
	switch style {
	case SummarySimple, SummaryLegal, SummaryStandard:
	default:
		return "", apperr.NewValidation("style must be one of: simple legal standard")
	}
	rec, err := s.vault.Get(ctx, contractID)
	if err != nil {
		return "", err
	}
	if style == SummaryStandard {
		return rec.Summary, nil
	}

	res, err := s.ai.Generate(ctx, &GenerateRequest{
		Purpose: "summary",
		Parts:   []Part{TextPart(summaryStylePrompt(&rec.ContractAnalysis, style))},
	})
	if err != nil {
		return "", err
	}
	if text := strings.TrimSpace(res.Text); text != "" {
		return text, nil
	}
	return rec.Summary, nil
}
