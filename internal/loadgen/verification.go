package loadgen

import (
	"context"
	"fmt"

	"github.com/okian/userstats/internal/adapters/repository"
	"github.com/okian/userstats/internal/domain/insights"
	"github.com/okian/userstats/internal/domain/record"
)

// Reports is what one batch should produce.
type Reports struct {
	NamesCounted int
	Countries    []insights.CountryTotal
	Teams        []insights.TeamTotal
}

// Expect computes the reports for batch locally, with the engine configured
// the way the service reported in settings.
func Expect(ctx context.Context, batch []byte, settings ServerSettings) (Reports, error) {
	mode, err := insights.ParseTeamMode(settings.TeamInsightsMode)
	if err != nil {
		return Reports{}, err
	}
	opts := []insights.Option{
		insights.WithTopCountriesLimit(settings.TopCountriesLimit),
		insights.WithTeamMode(mode),
	}
	if settings.Threshold > 0 {
		opts = append(opts, insights.WithSuperuserThreshold(settings.Threshold))
	}

	store := repository.NewMemoryStore()
	defer store.Close()
	engine := insights.NewEngine(store, opts...)

	records, err := record.Decode(ctx, batch)
	if err != nil {
		return Reports{}, err
	}

	var r Reports
	if r.NamesCounted, err = engine.CountNames(ctx, records); err != nil {
		return Reports{}, err
	}
	if r.Countries, err = engine.TopCountries(ctx, records); err != nil {
		return Reports{}, err
	}
	if r.Teams, err = engine.TeamInsights(ctx, records); err != nil {
		return Reports{}, err
	}
	return r, nil
}

// Verify compares the service's answers with the local ones. Order matters:
// both sides break ties by first appearance.
func Verify(want, got Reports) error {
	if want.NamesCounted != got.NamesCounted {
		return fmt.Errorf("%w: user_count %d, want %d", ErrMismatch, got.NamesCounted, want.NamesCounted)
	}
	if len(want.Countries) != len(got.Countries) {
		return fmt.Errorf("%w: %d countries, want %d", ErrMismatch, len(got.Countries), len(want.Countries))
	}
	for i := range want.Countries {
		if want.Countries[i] != got.Countries[i] {
			return fmt.Errorf("%w: country #%d is %+v, want %+v", ErrMismatch, i+1, got.Countries[i], want.Countries[i])
		}
	}
	if len(want.Teams) != len(got.Teams) {
		return fmt.Errorf("%w: %d teams, want %d", ErrMismatch, len(got.Teams), len(want.Teams))
	}
	for i := range want.Teams {
		if want.Teams[i] != got.Teams[i] {
			return fmt.Errorf("%w: team #%d is %+v, want %+v", ErrMismatch, i+1, got.Teams[i], want.Teams[i])
		}
	}
	return nil
}
