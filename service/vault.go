package service

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Hmmmm3247/ContractGuard/model"
	"github.com/Hmmmm3247/ContractGuard/pkg/apperr"
)

const (
	// DefaultVersionNote labels appended versions when the caller gives none.
	DefaultVersionNote = "New Version"
	// CounterOfferNote is what the upload flow passes for a parentId upload.
	CounterOfferNote = "Counter-Offer / Version"

	unknownProvider = "Unknown Provider"
)

// Vault persists contract records and their version history.
type Vault struct {
	contracts    *Collection[model.ContractRecord]
	chats        *ChatStore
	maxContracts int // Maximum contracts to keep, 0 = unlimited
	now          func() time.Time
}

// NewVault builds a vault over medium. chats may be nil; when set, deleting
// a contract also clears its transcript.
func NewVault(medium Medium, maxContracts int, chats *ChatStore) *Vault {
	if maxContracts < 0 {
		maxContracts = 0
	}
	slog.Info("contract vault initialized", "max_contracts", maxContracts)
	return &Vault{
		contracts: NewCollection(medium, KeyVault, func(r model.ContractRecord) string {
			return r.ID
		}, Prepend),
		chats:        chats,
		maxContracts: maxContracts,
		now:          time.Now,
	}
}

func newSnapshot(a *model.ContractAnalysis, note string, at time.Time) model.VersionSnapshot {
	return model.VersionSnapshot{
		VersionID:   uuid.NewString(),
		DateCreated: at,
		Summary:     a.Summary,
		RiskScore:   a.RiskScore,
		TotalCost:   a.TotalCost,
		ChangesNote: note,
	}
}

// CreateInitial saves analysis as a new contract with a single
// "Original Upload" snapshot, newest first in the vault. An empty or already
// stored analysis id is replaced with a fresh one.
func (v *Vault) CreateInitial(ctx context.Context, analysis *model.ContractAnalysis, thumbnail string) (*model.ContractRecord, error) {
	if analysis == nil {
		return nil, apperr.NewValidation("analysis is required")
	}
	now := v.now().UTC()

	rec := model.ContractRecord{
		ContractAnalysis: *analysis,
		DateAdded:        now,
		Status:           model.StatusActive,
		RenewalDate:      renewalDate(analysis.Duration, now),
		Thumbnail:        thumbnail,
		Versions:         []model.VersionSnapshot{newSnapshot(analysis, model.OriginalUploadNote, now)},
	}
	rec.ProviderName = unknownProvider
	if len(analysis.Parties) > 0 && strings.TrimSpace(analysis.Parties[0]) != "" {
		rec.ProviderName = analysis.Parties[0]
	}

	err := v.contracts.Mutate(ctx, func(items []model.ContractRecord) ([]model.ContractRecord, bool, error) {
		// The analysis id comes from the model; it never replaces a stored contract.
		if rec.ID == "" || containsID(items, rec.ID) {
			rec.ID = uuid.NewString()
		}
		items = append([]model.ContractRecord{rec}, items...)
		return v.cleanupIfNeeded(ctx, items), true, nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// AppendVersion attaches analysis to the contract parentID as its newest
// snapshot and makes it the live analysis. Identity, lifecycle metadata and
// earlier snapshots are kept. A missing parent is NotFound and writes nothing.
func (v *Vault) AppendVersion(ctx context.Context, parentID string, analysis *model.ContractAnalysis, note string) (*model.ContractRecord, error) {
	if analysis == nil {
		return nil, apperr.NewValidation("analysis is required")
	}
	if strings.TrimSpace(note) == "" {
		note = DefaultVersionNote
	}

	var updated model.ContractRecord
	err := v.contracts.Mutate(ctx, func(items []model.ContractRecord) ([]model.ContractRecord, bool, error) {
		for i := range items {
			if items[i].ID != parentID {
				continue
			}
			parent := items[i]
			next := parent
			next.ContractAnalysis = *analysis
			next.ID = parent.ID
			next.ProviderName = parent.ProviderName
			versions := make([]model.VersionSnapshot, 0, len(parent.Versions)+1)
			versions = append(versions, newSnapshot(analysis, note, v.now().UTC()))
			next.Versions = append(versions, parent.Versions...)

			items[i] = next
			updated = next
			return items, true, nil
		}
		return nil, false, apperr.NewNotFound("Could not save the new version.")
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// RevertToVersion is not supported: snapshots keep only the headline fields,
// so the full analysis of an older version cannot be restored.
func (v *Vault) RevertToVersion(ctx context.Context, contractID, versionID string) (*model.ContractRecord, error) {
	rec, ok, err := v.contracts.FindByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NewNotFound("contract not found")
	}
	for _, s := range rec.Versions {
		if s.VersionID == versionID {
			return nil, apperr.New(apperr.KindUnsupported, "Reverting to an earlier version is not supported.", nil)
		}
	}
	return nil, apperr.NewNotFound("version not found")
}

// Update replaces a stored record in place. Unknown ids are ignored, matching
// the vault's update-only semantics; the returned bool reports a match.
func (v *Vault) Update(ctx context.Context, rec *model.ContractRecord) (bool, error) {
	found := false
	err := v.contracts.Mutate(ctx, func(items []model.ContractRecord) ([]model.ContractRecord, bool, error) {
		for i := range items {
			if items[i].ID == rec.ID {
				items[i] = *rec
				found = true
				return items, true, nil
			}
		}
		return items, false, nil
	})
	return found, err
}

// UpdateStatus changes lifecycle metadata. An empty renewalDate leaves the
// stored one untouched.
func (v *Vault) UpdateStatus(ctx context.Context, id, status, renewal string) (*model.ContractRecord, error) {
	if status != "" && !model.ValidStatus(status) {
		return nil, apperr.NewValidation("status must be ACTIVE, EXPIRED or PENDING")
	}
	return v.modify(ctx, id, func(r *model.ContractRecord) {
		if status != "" {
			r.Status = status
		}
		if renewal != "" {
			r.RenewalDate = renewal
		}
	})
}

// SaveDraft parks an email draft on the contract.
func (v *Vault) SaveDraft(ctx context.Context, id, subject, body string) (*model.ContractRecord, error) {
	updatedAt := v.now().UnixMilli()
	return v.modify(ctx, id, func(r *model.ContractRecord) {
		r.SavedDraft = &model.SavedDraft{Subject: subject, Body: body, UpdatedAt: updatedAt}
	})
}

func (v *Vault) modify(ctx context.Context, id string, fn func(r *model.ContractRecord)) (*model.ContractRecord, error) {
	var updated model.ContractRecord
	err := v.contracts.Mutate(ctx, func(items []model.ContractRecord) ([]model.ContractRecord, bool, error) {
		for i := range items {
			if items[i].ID == id {
				fn(&items[i])
				updated = items[i]
				return items, true, nil
			}
		}
		return nil, false, apperr.NewNotFound("contract not found")
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes the contract and its chat transcript. Deleting an unknown
// id is a no-op.
func (v *Vault) Delete(ctx context.Context, id string) error {
	if err := v.contracts.RemoveByID(ctx, id); err != nil {
		return err
	}
	if v.chats != nil {
		return v.chats.Clear(ctx, id)
	}
	return nil
}

func (v *Vault) Get(ctx context.Context, id string) (*model.ContractRecord, error) {
	rec, ok, err := v.contracts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NewNotFound("contract not found")
	}
	return &rec, nil
}

// Exists reports whether id is a stored contract.
func (v *Vault) Exists(ctx context.Context, id string) (bool, error) {
	_, ok, err := v.contracts.FindByID(ctx, id)
	return ok, err
}

func (v *Vault) List(ctx context.Context) ([]model.ContractRecord, error) {
	return v.contracts.List(ctx)
}

// Count returns the number of contracts in the vault
func (v *Vault) Count(ctx context.Context) (int, error) {
	items, err := v.contracts.List(ctx)
	return len(items), err
}

// ContractsWith lists stored contracts whose provider name contains
// companyName, case-insensitively.
func (v *Vault) ContractsWith(ctx context.Context, companyName string) ([]model.ContractRecord, error) {
	out := []model.ContractRecord{}
	needle := strings.ToLower(strings.TrimSpace(companyName))
	if needle == "" {
		return out, nil
	}
	items, err := v.contracts.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range items {
		if strings.Contains(strings.ToLower(r.ProviderName), needle) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (v *Vault) HasContractWith(ctx context.Context, companyName string) (bool, error) {
	matches, err := v.ContractsWith(ctx, companyName)
	return len(matches) > 0, err
}

func containsID(items []model.ContractRecord, id string) bool {
	for _, r := range items {
		if r.ID == id {
			return true
		}
	}
	return false
}

// cleanupIfNeeded drops the oldest contracts beyond maxContracts.
func (v *Vault) cleanupIfNeeded(ctx context.Context, items []model.ContractRecord) []model.ContractRecord {
	if v.maxContracts <= 0 || len(items) <= v.maxContracts {
		return items
	}

	// Records are newest-first, so the tail holds the oldest.
	for _, r := range items[v.maxContracts:] {
		slog.InfoContext(ctx, "auto-cleaning old contract",
			"contract_id", r.ID,
			"date_added", r.DateAdded,
		)
		if v.chats != nil {
			if err := v.chats.Clear(ctx, r.ID); err != nil {
				slog.WarnContext(ctx, "failed to clear chat of cleaned contract", "contract_id", r.ID, "error", err)
			}
		}
	}
	return items[:v.maxContracts]
}

var durationPattern = regexp.MustCompile(`(?i)(\d+)\s*-?\s*(month|year)s?`)

// renewalDate estimates the end of the first term from a duration such as
// "12 months" or "2-year fixed term". Unparseable durations give "".
func renewalDate(duration string, from time.Time) string {
	m := durationPattern.FindStringSubmatch(duration)
	if m == nil {
		return ""
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 || n > 1200 {
		return ""
	}
	var end time.Time
	if strings.EqualFold(m[2], "year") {
		end = from.AddDate(n, 0, 0)
	} else {
		end = from.AddDate(0, n, 0)
	}
	return end.Format("2006-01-02")
}
