package service

import (
	"context"

	"github.com/Hmmmm3247/ContractGuard/model"
	"github.com/Hmmmm3247/ContractGuard/pkg/apperr"
)

// Watchlist stores copies of company profiles taken when they were added.
type Watchlist struct {
	items *Collection[model.CompanyProfile]
}

func NewWatchlist(medium Medium) *Watchlist {
	return &Watchlist{
		items: NewCollection(medium, KeyWatchlist, func(c model.CompanyProfile) string {
			return c.ID
		}, Append),
	}
}

func (w *Watchlist) List(ctx context.Context) ([]model.CompanyProfile, error) {
	return w.items.List(ctx)
}

func (w *Watchlist) Contains(ctx context.Context, id string) (bool, error) {
	_, ok, err := w.items.FindByID(ctx, id)
	return ok, err
}

// Toggle adds the profile if absent and removes it if present. It returns
// true when the profile was added.
func (w *Watchlist) Toggle(ctx context.Context, company model.CompanyProfile) (bool, error) {
	if company.ID == "" {
		return false, apperr.NewValidation("company id is required")
	}
	added := false
	err := w.items.Mutate(ctx, func(items []model.CompanyProfile) ([]model.CompanyProfile, bool, error) {
		out := make([]model.CompanyProfile, 0, len(items)+1)
		for _, c := range items {
			if c.ID != company.ID {
				out = append(out, c)
			}
		}
		if len(out) == len(items) {
			out = append(out, company)
			added = true
		}
		return out, true, nil
	})
	return added, err
}
