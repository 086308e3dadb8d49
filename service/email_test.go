package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hmmmm3247/ContractGuard/model"
	"github.com/Hmmmm3247/ContractGuard/pkg/apperr"
)

func newTestEmail(ai Generator) (*EmailService, *Vault) {
	m := NewMemoryMedium()
	vault := NewVault(m, 0, nil)
	return NewEmailService(vault, ai), vault
}

func TestEmailDraft(t *testing.T) {
	ai := replyText(`{"subject": "Notice of Cancellation", "body": "Dear Titan Fitness,\n\nI hereby cancel."}`)
	svc, _ := newTestEmail(ai)

	draft, err := svc.Draft(context.Background(), &EmailDraftRequest{
		ProviderName:    "Titan Fitness",
		Intent:          "Cancel my membership",
		AggressionLevel: 9,
	})
	require.NoError(t, err)
	assert.Equal(t, "Notice of Cancellation", draft.Subject)
	assert.Contains(t, draft.Body, "I hereby cancel.")

	prompt := ai.last().Parts[0].Text
	assert.Contains(t, prompt, "Titan Fitness")
	assert.Contains(t, prompt, "MAXIMUM AGGRESSION")
	assert.Contains(t, prompt, string(model.IdentityConsumer))
	assert.True(t, ai.last().JSON)
}

func TestEmailDraftFromContract(t *testing.T) {
	ctx := context.Background()
	ai := replyText(`{"subject": "Query", "body": "Hello"}`)
	svc, vault := newTestEmail(ai)
	rec, err := vault.CreateInitial(ctx, sampleAnalysis("36 month lock-in", 85), "")
	require.NoError(t, err)

	_, err = svc.Draft(ctx, &EmailDraftRequest{ContractID: rec.ID, Intent: "Negotiate", AggressionLevel: 2})
	require.NoError(t, err)
	prompt := ai.last().Parts[0].Text
	assert.Contains(t, prompt, "Titan Fitness")
	assert.Contains(t, prompt, "36 month lock-in")

	_, err = svc.Draft(ctx, &EmailDraftRequest{ContractID: "missing", Intent: "Negotiate", AggressionLevel: 2})
	assert.ErrorIs(t, err, apperr.NotFound)
}

func TestEmailDraftFallbacks(t *testing.T) {
	tests := []struct {
		name        string
		reply       string
		wantSubject string
		wantBody    string
	}{
		{name: "prose reply", reply: "Dear Sir, please cancel my account.", wantSubject: fallbackSubject, wantBody: "Dear Sir, please cancel my account."},
		{name: "empty object", reply: "{}", wantSubject: fallbackSubject, wantBody: "{}"},
		{name: "body only", reply: `{"body": "Please cancel."}`, wantSubject: fallbackSubject, wantBody: "Please cancel."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestEmail(replyText(tt.reply))

			draft, err := svc.Draft(context.Background(), &EmailDraftRequest{Intent: "Cancel", AggressionLevel: 5})
			require.NoError(t, err)
			assert.Equal(t, tt.wantSubject, draft.Subject)
			assert.Equal(t, tt.wantBody, draft.Body)
		})
	}
}

func TestEmailDraftValidation(t *testing.T) {
	ai := replyText("unused")
	svc, _ := newTestEmail(ai)

	_, err := svc.Draft(context.Background(), &EmailDraftRequest{Intent: "", AggressionLevel: 5})
	assert.ErrorIs(t, err, apperr.Validation)
	_, err = svc.Draft(context.Background(), &EmailDraftRequest{Intent: "Cancel", AggressionLevel: 11})
	assert.ErrorIs(t, err, apperr.Validation)
	assert.Zero(t, ai.calls())
}

func TestEmailRefine(t *testing.T) {
	ctx := context.Background()

	t.Run("parsed", func(t *testing.T) {
		ai := replyText(`{"subject": "Formal Notice", "body": "Refined body"}`)
		svc, _ := newTestEmail(ai)

		draft, err := svc.Refine(ctx, &EmailRefineRequest{Subject: "Notice", Body: "Original body", Instruction: "make it formal"})
		require.NoError(t, err)
		assert.Equal(t, "Formal Notice", draft.Subject)
		assert.Equal(t, "Refined body", draft.Body)
		assert.Contains(t, ai.last().Parts[0].Text, string(model.ToneAssertive))
	})

	t.Run("unreadable keeps subject", func(t *testing.T) {
		svc, _ := newTestEmail(replyText("Here is a shorter version: please cancel."))

		draft, err := svc.Refine(ctx, &EmailRefineRequest{Subject: "Notice", Body: "Original body", Instruction: "shorter"})
		require.NoError(t, err)
		assert.Equal(t, "Notice", draft.Subject)
		assert.Equal(t, "Here is a shorter version: please cancel.", draft.Body)
	})

	t.Run("missing instruction", func(t *testing.T) {
		svc, _ := newTestEmail(replyText("unused"))
		_, err := svc.Refine(ctx, &EmailRefineRequest{Body: "Original body"})
		assert.ErrorIs(t, err, apperr.Validation)
	})
}

func TestEmailSave(t *testing.T) {
	ctx := context.Background()
	svc, vault := newTestEmail(replyText("unused"))
	rec, err := vault.CreateInitial(ctx, sampleAnalysis("x", 10), "")
	require.NoError(t, err)

	updated, err := svc.Save(ctx, rec.ID, &EmailDraft{Subject: "Cancel", Body: "Dear Titan"})
	require.NoError(t, err)
	require.NotNil(t, updated.SavedDraft)
	assert.Equal(t, "Dear Titan", updated.SavedDraft.Body)

	_, err = svc.Save(ctx, rec.ID, &EmailDraft{Subject: "Empty"})
	assert.ErrorIs(t, err, apperr.Validation)
	_, err = svc.Save(ctx, "missing", &EmailDraft{Body: "x"})
	assert.ErrorIs(t, err, apperr.NotFound)
}
