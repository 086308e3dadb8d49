package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hmmmm3247/ContractGuard/model"
	"github.com/Hmmmm3247/ContractGuard/pkg/apperr"
)

func newTestVault(maxContracts int) (*Vault, *ChatStore, *countingMedium) {
	m := newCountingMedium()
	chats := NewChatStore(m)
	return NewVault(m, maxContracts, chats), chats, m
}

func sampleAnalysis(summary string, score int) *model.ContractAnalysis {
	return &model.ContractAnalysis{
		Summary:   summary,
		Parties:   []string{"Titan Fitness", "Member"},
		Duration:  "12 months",
		TotalCost: "R11,400",
		RiskScore: score,
		RiskLevel: model.RiskHigh,
	}
}

func TestVaultCreateInitial(t *testing.T) {
	ctx := context.Background()
	v, _, _ := newTestVault(0)
	v.now = fixedClock(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))

	rec, err := v.CreateInitial(ctx, sampleAnalysis("first", 85), "")
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "Titan Fitness", rec.ProviderName)
	assert.Equal(t, model.StatusActive, rec.Status)
	assert.Equal(t, "2026-03-01", rec.RenewalDate)
	require.Len(t, rec.Versions, 1)
	assert.Equal(t, model.OriginalUploadNote, rec.Versions[0].ChangesNote)
	assert.Equal(t, 85, rec.Versions[0].RiskScore)
	assert.Equal(t, "first", rec.Versions[0].Summary)

	stored, err := v.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, stored.ID)
}

func TestVaultCreateInitialNoParties(t *testing.T) {
	v, _, _ := newTestVault(0)
	a := sampleAnalysis("x", 10)
	a.Parties = nil

	rec, err := v.CreateInitial(context.Background(), a, model.ThumbnailPDF)
	require.NoError(t, err)
	assert.Equal(t, unknownProvider, rec.ProviderName)
	assert.Equal(t, model.ThumbnailPDF, rec.Thumbnail)
}

func TestVaultNewestFirst(t *testing.T) {
	ctx := context.Background()
	v, _, _ := newTestVault(0)

	first, err := v.CreateInitial(ctx, sampleAnalysis("first", 10), "")
	require.NoError(t, err)
	second, err := v.CreateInitial(ctx, sampleAnalysis("second", 20), "")
	require.NoError(t, err)

	list, err := v.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestVaultAppendVersion(t *testing.T) {
	ctx := context.Background()
	v, _, _ := newTestVault(0)

	orig, err := v.CreateInitial(ctx, sampleAnalysis("original", 85), "")
	require.NoError(t, err)
	_, err = v.UpdateStatus(ctx, orig.ID, model.StatusPending, "")
	require.NoError(t, err)

	before := orig.Versions[0]

	next := sampleAnalysis("counter offer", 40)
	next.ID = "ignored"
	next.TotalCost = "R9,600"
	next.ProviderName = "Some Other Gym"
	rec, err := v.AppendVersion(ctx, orig.ID, next, CounterOfferNote)
	require.NoError(t, err)

	assert.Equal(t, orig.ID, rec.ID)
	assert.Equal(t, orig.DateAdded, rec.DateAdded)
	assert.Equal(t, model.StatusPending, rec.Status)
	assert.Equal(t, "Titan Fitness", rec.ProviderName)
	assert.Equal(t, 40, rec.RiskScore)
	require.Len(t, rec.Versions, 2)
	assert.Equal(t, CounterOfferNote, rec.Versions[0].ChangesNote)
	assert.Equal(t, rec.RiskScore, rec.Versions[0].RiskScore)
	assert.Equal(t, rec.Summary, rec.Versions[0].Summary)
	assert.Equal(t, rec.TotalCost, rec.Versions[0].TotalCost)
	assert.Equal(t, before, rec.Versions[1])

	stored, err := v.Get(ctx, orig.ID)
	require.NoError(t, err)
	assert.Equal(t, *rec, *stored)
	assert.Equal(t, before, stored.Versions[1])

	count, err := v.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestVaultCreateInitialNeverReplacesStoredContract(t *testing.T) {
	ctx := context.Background()
	v, _, _ := newTestVault(0)

	gym := sampleAnalysis("gym", 85)
	gym.ID = "contract_1"
	first, err := v.CreateInitial(ctx, gym, "")
	require.NoError(t, err)

	counter := sampleAnalysis("gym counter offer", 55)
	counter.ID = "contract_1"
	_, err = v.AppendVersion(ctx, first.ID, counter, CounterOfferNote)
	require.NoError(t, err)

	lease := sampleAnalysis("lease", 30)
	lease.ID = first.ID
	second, err := v.CreateInitial(ctx, lease, "")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEmpty(t, second.ID)

	list, err := v.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, "lease", list[0].Summary)
	assert.Equal(t, first.ID, list[1].ID)
	assert.Equal(t, "gym counter offer", list[1].Summary)
	assert.Len(t, list[1].Versions, 2)
}

func TestVaultRoundTripsFullRecordOverSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vault.db")
	m, err := NewSQLiteMedium(path)
	require.NoError(t, err)

	v := NewVault(m, 0, NewChatStore(m))
	v.now = fixedClock(time.Date(2025, 6, 14, 9, 30, 15, 123456789, time.UTC))

	rec, err := v.CreateInitial(ctx, fullAnalysis("36 month gym membership.", 85), "data:image/jpeg;base64,AAEC")
	require.NoError(t, err)
	_, err = v.SaveDraft(ctx, rec.ID, "Cancellation", "Dear Titan Fitness")
	require.NoError(t, err)
	v.now = fixedClock(time.Date(2025, 7, 1, 8, 0, 0, 42, time.UTC))
	want, err := v.AppendVersion(ctx, rec.ID, fullAnalysis("Revised 24 month offer.", 55), CounterOfferNote)
	require.NoError(t, err)
	require.NotNil(t, want.SavedDraft)
	require.Len(t, want.Versions, 2)

	reopened, err := NewSQLiteMedium(path)
	require.NoError(t, err)
	got, err := NewVault(reopened, 0, nil).Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, *want, *got)

	records := NewCollection(reopened, "records_copy", func(r model.ContractRecord) string { return r.ID }, Prepend)
	require.NoError(t, records.Upsert(ctx, *want))
	found, ok, err := records.FindByID(ctx, want.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, *want, found)
}

func fullAnalysis(summary string, score int) *model.ContractAnalysis {
	return &model.ContractAnalysis{
		ProviderName: "Titan Fitness",
		Summary:      summary,
		ContractType: "Gym Membership",
		Parties:      []string{"Titan Fitness", "Member"},
		Duration:     "36 months",
		TotalCost:    "R34,200",
		RiskScore:    score,
		RiskLevel:    model.RiskHigh,
		Flags: []model.ContractFlag{
			{Type: model.FlagRed, Clause: "75% penalty", Explanation: "Unreasonable under CPA s14", FinancialImpact: "R15,000", Confidence: 90},
			{Type: model.FlagYellow, Clause: "Annual levy", Explanation: "Extra R1200", Confidence: 70},
		},
		Trickery: []model.TrickeryTactic{
			{Tactic: "Waiver of rights", Quote: "Member waives all rights", Explanation: "Void under CPA", CounterMove: "Strike the clause", Confidence: 85},
		},
		NegotiationPoints:  []model.NegotiationPoint{{Point: "Cite CPA section 14", Confidence: 80}},
		BetterAlternatives: []string{"Planet Fitness month-to-month"},
		GroundingSources:   []model.GroundingSource{{Title: "Consumer Protection Act", URI: "https://example.org/cpa"}},
	}
}

func TestVaultAppendVersionDefaultNote(t *testing.T) {
	ctx := context.Background()
	v, _, _ := newTestVault(0)
	orig, err := v.CreateInitial(ctx, sampleAnalysis("original", 85), "")
	require.NoError(t, err)

	rec, err := v.AppendVersion(ctx, orig.ID, sampleAnalysis("next", 50), " ")
	require.NoError(t, err)
	assert.Equal(t, DefaultVersionNote, rec.Versions[0].ChangesNote)
}

func TestVaultAppendVersionMissingParent(t *testing.T) {
	ctx := context.Background()
	v, _, m := newTestVault(0)
	_, err := v.CreateInitial(ctx, sampleAnalysis("original", 85), "")
	require.NoError(t, err)
	writes := m.writes()

	_, err = v.AppendVersion(ctx, "missing", sampleAnalysis("next", 10), "")
	assert.ErrorIs(t, err, apperr.NotFound)
	assert.Equal(t, writes, m.writes())

	list, err := v.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Versions, 1)
}

func TestVaultRevertUnsupported(t *testing.T) {
	ctx := context.Background()
	v, _, _ := newTestVault(0)
	rec, err := v.CreateInitial(ctx, sampleAnalysis("original", 85), "")
	require.NoError(t, err)

	_, err = v.RevertToVersion(ctx, rec.ID, rec.Versions[0].VersionID)
	kind, ok := apperr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindUnsupported, kind)

	_, err = v.RevertToVersion(ctx, rec.ID, "nope")
	assert.ErrorIs(t, err, apperr.NotFound)
	_, err = v.RevertToVersion(ctx, "nope", "nope")
	assert.ErrorIs(t, err, apperr.NotFound)
}

func TestVaultCapDropsOldest(t *testing.T) {
	ctx := context.Background()
	v, chats, _ := newTestVault(2)

	oldest, err := v.CreateInitial(ctx, sampleAnalysis("one", 10), "")
	require.NoError(t, err)
	_, err = chats.Append(ctx, oldest.ID, model.RoleUser, "hello", nil)
	require.NoError(t, err)

	_, err = v.CreateInitial(ctx, sampleAnalysis("two", 20), "")
	require.NoError(t, err)
	newest, err := v.CreateInitial(ctx, sampleAnalysis("three", 30), "")
	require.NoError(t, err)

	list, err := v.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newest.ID, list[0].ID)

	ok, err := v.Exists(ctx, oldest.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	history, err := chats.History(ctx, oldest.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestVaultDeleteClearsChat(t *testing.T) {
	ctx := context.Background()
	v, chats, _ := newTestVault(0)
	rec, err := v.CreateInitial(ctx, sampleAnalysis("one", 10), "")
	require.NoError(t, err)
	_, err = chats.Append(ctx, rec.ID, model.RoleUser, "is this legal?", nil)
	require.NoError(t, err)

	require.NoError(t, v.Delete(ctx, rec.ID))

	_, err = v.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, apperr.NotFound)
	history, err := chats.History(ctx, rec.ID)
	require.NoError(t, err)
	assert.Empty(t, history)

	// Deleting again is a no-op.
	assert.NoError(t, v.Delete(ctx, rec.ID))
}

func TestVaultUpdateStatus(t *testing.T) {
	ctx := context.Background()
	v, _, _ := newTestVault(0)
	rec, err := v.CreateInitial(ctx, sampleAnalysis("one", 10), "")
	require.NoError(t, err)

	updated, err := v.UpdateStatus(ctx, rec.ID, model.StatusExpired, "2030-01-01")
	require.NoError(t, err)
	assert.Equal(t, model.StatusExpired, updated.Status)
	assert.Equal(t, "2030-01-01", updated.RenewalDate)

	// Empty fields leave stored values alone.
	updated, err = v.UpdateStatus(ctx, rec.ID, "", "")
	require.NoError(t, err)
	assert.Equal(t, model.StatusExpired, updated.Status)
	assert.Equal(t, "2030-01-01", updated.RenewalDate)

	_, err = v.UpdateStatus(ctx, rec.ID, "CANCELLED", "")
	assert.ErrorIs(t, err, apperr.Validation)
	_, err = v.UpdateStatus(ctx, "missing", model.StatusActive, "")
	assert.ErrorIs(t, err, apperr.NotFound)
}

func TestVaultUpdateUnknownIgnored(t *testing.T) {
	ctx := context.Background()
	v, _, m := newTestVault(0)

	found, err := v.Update(ctx, &model.ContractRecord{ContractAnalysis: model.ContractAnalysis{ID: "ghost"}})
	require.NoError(t, err)
	assert.False(t, found)
	assert.Zero(t, m.writes())
}

func TestVaultSaveDraft(t *testing.T) {
	ctx := context.Background()
	v, _, _ := newTestVault(0)
	v.now = fixedClock(time.UnixMilli(1700000000000))
	rec, err := v.CreateInitial(ctx, sampleAnalysis("one", 10), "")
	require.NoError(t, err)

	updated, err := v.SaveDraft(ctx, rec.ID, "Cancellation", "Dear Titan")
	require.NoError(t, err)
	require.NotNil(t, updated.SavedDraft)
	assert.Equal(t, "Cancellation", updated.SavedDraft.Subject)
	assert.Equal(t, int64(1700000000000), updated.SavedDraft.UpdatedAt)
}

func TestVaultContractsWith(t *testing.T) {
	ctx := context.Background()
	v, _, _ := newTestVault(0)
	a := sampleAnalysis("phone", 50)
	a.Parties = []string{"Vodacom SA (Pty) Ltd"}
	_, err := v.CreateInitial(ctx, a, "")
	require.NoError(t, err)
	_, err = v.CreateInitial(ctx, sampleAnalysis("gym", 80), "")
	require.NoError(t, err)

	matches, err := v.ContractsWith(ctx, "vodacom sa")
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	has, err := v.HasContractWith(ctx, "Capitec")
	require.NoError(t, err)
	assert.False(t, has)

	none, err := v.ContractsWith(ctx, "  ")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestRenewalDate(t *testing.T) {
	from := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		duration string
		want     string
	}{
		{"12 months", "2026-01-31"},
		{"1 month", "2025-03-03"},
		{"2-year fixed term", "2027-01-31"},
		{"36 Months", "2028-01-31"},
		{"month-to-month", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.duration, func(t *testing.T) {
			assert.Equal(t, tt.want, renewalDate(tt.duration, from))
		})
	}
}
