package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Hmmmm3247/ContractGuard/model"
	"github.com/Hmmmm3247/ContractGuard/pkg/apperr"
	"github.com/Hmmmm3247/ContractGuard/pkg/ingest"
	"github.com/Hmmmm3247/ContractGuard/pkg/logger"
	"github.com/Hmmmm3247/ContractGuard/pkg/validate"
)

// moderationFailedText is returned whenever the safety check itself fails.
const moderationFailedText = "System error during security check. Please try again."

// ReviewDraft is a review submitted for moderation.
type ReviewDraft struct {
	CompanyID        string `json:"companyId" validate:"notblank"`
	CompanyName      string `json:"companyName" validate:"notblank"`
	Rating           int    `json:"rating" validate:"min=1,max=5"`
	Title            string `json:"title" validate:"notblank,max=200"`
	Content          string `json:"content" validate:"notblank,max=5000"`
	LinkedContractID string `json:"linkedContractId,omitempty"`
}

// ReviewBoard gates community reviews behind an AI moderation check.
type ReviewBoard struct {
	reviews *Collection[model.CommunityReview]
	vault   *Vault
	ai      Generator
	now     func() time.Time
}

func NewReviewBoard(medium Medium, vault *Vault, ai Generator) *ReviewBoard {
	return &ReviewBoard{
		reviews: NewCollection(medium, KeyReviews, func(r model.CommunityReview) string {
			return r.ID
		}, Append),
		vault: vault,
		ai:    ai,
		now:   time.Now,
	}
}

// Submit runs the moderation check and, only if it approves, stores the
// review as VERIFIED. A rejection is ModerationRejected carrying the reason
// and any suggested rewrite. A failed check never stores anything.
func (b *ReviewBoard) Submit(ctx context.Context, draft *ReviewDraft) (*model.CommunityReview, error) {
	if err := validate.Struct(draft); err != nil {
		return nil, err
	}

	verdict, err := b.moderate(ctx, draft.Content, draft.CompanyName)
	if err != nil {
		reviewVerdictsTotal.WithLabelValues("error").Inc()
		logger.Warn(ctx, "review moderation failed", "company_id", draft.CompanyID, "error", err)
		return nil, apperr.NewUnavailable(moderationFailedText, err)
	}
	if !verdict.Approved {
		reviewVerdictsTotal.WithLabelValues("rejected").Inc()
		logger.Info(ctx, "review rejected by moderation", "company_id", draft.CompanyID)
		return nil, apperr.NewRejected(verdict.Reason, verdict.SuggestedFix)
	}
	reviewVerdictsTotal.WithLabelValues("approved").Inc()

	linked := strings.TrimSpace(draft.LinkedContractID)
	verified := false
	if linked != "" {
		verified, err = b.vault.Exists(ctx, linked)
		if err != nil {
			return nil, err
		}
		if !verified {
			linked = ""
		}
	}

	review := model.CommunityReview{
		ID:               uuid.NewString(),
		CompanyID:        draft.CompanyID,
		CompanyName:      draft.CompanyName,
		AuthorName:       model.AuthorUnverified,
		Rating:           draft.Rating,
		Title:            strings.TrimSpace(draft.Title),
		Content:          strings.TrimSpace(draft.Content),
		Timestamp:        b.now().UnixMilli(),
		Status:           model.ReviewVerified,
		VerifiedCustomer: verified,
		LinkedContractID: linked,
	}
	if verified {
		review.AuthorName = model.AuthorVerifiedCustomer
	}

	if err := b.reviews.Upsert(ctx, review); err != nil {
		return nil, err
	}
	return &review, nil
}

func (b *ReviewBoard) moderate(ctx context.Context, content, companyName string) (*ingest.ModerationResponse, error) {
	res, err := b.ai.Generate(ctx, &GenerateRequest{
		Purpose: "moderation",
		Parts:   []Part{TextPart(moderationPrompt(content, companyName))},
		JSON:    true,
		Schema:  moderationSchema,
	})
	if err != nil {
		return nil, err
	}
	verdict, err := ingest.ParseModeration(res.Text)
	if err != nil {
		logIngestFailure(ctx, ingest.KindModeration, res.Text, err)
		return nil, err
	}
	return verdict, nil
}

// ForCompany lists verified reviews of one company, newest first.
func (b *ReviewBoard) ForCompany(ctx context.Context, companyID string) ([]model.CommunityReview, error) {
	return b.verified(ctx, func(r *model.CommunityReview) bool { return r.CompanyID == companyID })
}

// All lists every verified review, newest first.
func (b *ReviewBoard) All(ctx context.Context) ([]model.CommunityReview, error) {
	return b.verified(ctx, func(*model.CommunityReview) bool { return true })
}

func (b *ReviewBoard) verified(ctx context.Context, keep func(r *model.CommunityReview) bool) ([]model.CommunityReview, error) {
	all, err := b.reviews.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.CommunityReview, 0, len(all))
	for i := range all {
		if all[i].Status == model.ReviewVerified && keep(&all[i]) {
			out = append(out, all[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out, nil
}

// Stats counts and averages the verified ratings of one company.
func (b *ReviewBoard) Stats(ctx context.Context, companyID string) (model.ReviewStats, error) {
	reviews, err := b.ForCompany(ctx, companyID)
	if err != nil || len(reviews) == 0 {
		return model.ReviewStats{}, err
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return model.ReviewStats{Count: len(reviews), Average: float64(sum) / float64(len(reviews))}, nil
}
