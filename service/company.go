package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/Hmmmm3247/ContractGuard/model"
	"github.com/Hmmmm3247/ContractGuard/pkg/apperr"
	"github.com/Hmmmm3247/ContractGuard/pkg/ingest"
	"github.com/Hmmmm3247/ContractGuard/pkg/logger"
)

// Trending holds the best and worst rated companies.
type Trending struct {
	Best  []model.CompanyProfile `json:"best"`
	Worst []model.CompanyProfile `json:"worst"`
}

// CompanyDirectory merges the seed profiles with profiles discovered through
// AI lookups. When ids collide the seed profile wins.
type CompanyDirectory struct {
	seeds      []model.CompanyProfile
	discovered *Collection[model.CompanyProfile]
	ai         Generator
	cache      *expirable.LRU[string, *model.CompanyProfile]
	lookups    singleflight.Group
}

func NewCompanyDirectory(medium Medium, ai Generator, cacheSize int, cacheTTL time.Duration) *CompanyDirectory {
	if cacheSize <= 0 {
		cacheSize = 256
	}
	return &CompanyDirectory{
		seeds: seedCompanies(),
		discovered: NewCollection(medium, KeyDiscoveredCompanies, func(c model.CompanyProfile) string {
			return c.ID
		}, Append),
		ai:    ai,
		cache: expirable.NewLRU[string, *model.CompanyProfile](cacheSize, nil, cacheTTL),
	}
}

// All returns seeds first, then discovered profiles not shadowed by a seed.
func (d *CompanyDirectory) All(ctx context.Context) ([]model.CompanyProfile, error) {
	found, err := d.discovered.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.CompanyProfile, 0, len(d.seeds)+len(found))
	seen := make(map[string]struct{}, len(d.seeds)+len(found))
	for _, c := range d.seeds {
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	for _, c := range found {
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out, nil
}

// Search matches the query against name and industry, case-insensitively.
// An empty query lists everything.
func (d *CompanyDirectory) Search(ctx context.Context, query string) ([]model.CompanyProfile, error) {
	all, err := d.All(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return all, nil
	}
	out := make([]model.CompanyProfile, 0)
	for _, c := range all {
		if strings.Contains(strings.ToLower(c.Name), q) || strings.Contains(strings.ToLower(c.Industry), q) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (d *CompanyDirectory) Get(ctx context.Context, id string) (*model.CompanyProfile, error) {
	all, err := d.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, apperr.NewNotFound("company not found")
}

// Discover looks a company up through the AI service and records it in the
// discovered pool. Results are cached per query and concurrent lookups of the
// same query share one call.
func (d *CompanyDirectory) Discover(ctx context.Context, name string) (*model.CompanyProfile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.NewValidation("company name is required")
	}
	key := strings.ToLower(name)
	if p, ok := d.cache.Get(key); ok {
		companyCacheHits.Inc()
		return p, nil
	}
	companyCacheMisses.Inc()

	// The shared lookup outlives any one caller; a caller that gives up only
	// stops waiting.
	flight := d.lookups.DoChan(key, func() (any, error) {
		return d.lookup(context.WithoutCancel(ctx), name)
	})
	select {
	case res := <-flight:
		if res.Err != nil {
			return nil, res.Err
		}
		p := res.Val.(*model.CompanyProfile)
		d.cache.Add(key, p)
		return p, nil
	case <-ctx.Done():
		return nil, apperr.NewUnavailable("Request cancelled.", ctx.Err())
	}
}

func (d *CompanyDirectory) lookup(ctx context.Context, name string) (*model.CompanyProfile, error) {
	res, err := d.ai.Generate(ctx, &GenerateRequest{
		Purpose: "company_profile",
		Parts:   []Part{TextPart(companyReputationPrompt(name))},
		Search:  true,
	})
	if err != nil {
		return nil, err
	}
	profile, err := ingest.ParseCompanyProfile(res.Text, res.Sources)
	if err != nil {
		logIngestFailure(ctx, ingest.KindCompanyProfile, res.Text, err)
		return nil, apperr.NewMalformed("Could not analyze company reputation.", err)
	}

	for _, s := range d.seeds {
		if s.ID == profile.ID {
			seed := s
			return &seed, nil
		}
	}
	if err := d.saveDiscovered(ctx, profile); err != nil {
		return nil, err
	}
	logger.Info(ctx, "company discovered", "company_id", profile.ID, "trust_score", profile.TrustScore)
	return profile, nil
}

// saveDiscovered appends p unless a profile with its id is already stored.
func (d *CompanyDirectory) saveDiscovered(ctx context.Context, p *model.CompanyProfile) error {
	return d.discovered.Mutate(ctx, func(items []model.CompanyProfile) ([]model.CompanyProfile, bool, error) {
		for _, c := range items {
			if c.ID == p.ID {
				return items, false, nil
			}
		}
		return append(items, *p), true, nil
	})
}

// Rival picks a comparison target: another known company in the same
// industry, otherwise the AI's pick of the biggest local competitor.
func (d *CompanyDirectory) Rival(ctx context.Context, id string) (*model.CompanyProfile, error) {
	target, err := d.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	all, err := d.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID != target.ID && all[i].Industry == target.Industry {
			return &all[i], nil
		}
	}
	rival, err := d.Discover(ctx, rivalQuery(target.Name))
	if err != nil {
		return nil, err
	}
	if rival.ID == target.ID {
		return nil, apperr.NewNotFound("Unable to retrieve competitor data at this time.")
	}
	return rival, nil
}

// Trending returns the three highest and three lowest trust scores.
func (d *CompanyDirectory) Trending(ctx context.Context) (*Trending, error) {
	all, err := d.All(ctx)
	if err != nil {
		return nil, err
	}
	sorted := make([]model.CompanyProfile, len(all))
	copy(sorted, all)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TrustScore > sorted[j].TrustScore
	})

	n := min(3, len(sorted))
	t := &Trending{
		Best:  append(make([]model.CompanyProfile, 0, n), sorted[:n]...),
		Worst: make([]model.CompanyProfile, 0, n),
	}
	for i := len(sorted) - 1; i >= len(sorted)-n; i-- {
		t.Worst = append(t.Worst, sorted[i])
	}
	return t, nil
}
