// Package insights computes the aggregate reports over a decoded user batch.
//
// Every operation is a single pass over the records and keeps no state of its
// own. The only state that outlives a call is the injected name store, which
// CountNames adds to.
package insights

import (
	"context"
	"fmt"
	"sort"

	"github.com/okian/userstats/internal/domain/record"
	"github.com/okian/userstats/pkg/logger"
	"github.com/okian/userstats/pkg/metrics"
)

// Operation names used in logs and metrics.
const (
	OpCountNames       = "count_names"
	OpFilterSuperusers = "filter_superusers"
	OpTopCountries     = "top_countries"
	OpTeamInsights     = "team_insights"
)

// NameStore receives the name increments of CountNames.
type NameStore interface {
	IncrementAll(ctx context.Context, names []string) error
}

// CountryTotal is one row of the country ranking.
type CountryTotal struct {
	Country string `json:"country"`
	Total   int    `json:"total"`
}

// TeamTotal is one row of the team report.
type TeamTotal struct {
	Team              string `json:"team"`
	CompletedProjects int    `json:"completed_projects"`
}

// TeamMode selects how TeamInsights accumulates.
type TeamMode string

const (
	// TeamModeAggregate sums completed projects of every named record.
	TeamModeAggregate TeamMode = "aggregate"
	// TeamModeLastRecord reports only the final record of the batch, which is
	// what the first version of the service returned.
	TeamModeLastRecord TeamMode = "last_record"
)

// Valid reports whether m is a known mode.
func (m TeamMode) Valid() bool {
	return m == TeamModeAggregate || m == TeamModeLastRecord
}

// ParseTeamMode maps a config value to a TeamMode. Empty means aggregate.
func ParseTeamMode(s string) (TeamMode, error) {
	if s == "" {
		return TeamModeAggregate, nil
	}
	m := TeamMode(s)
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidTeamMode, s)
	}
	return m, nil
}

// Engine runs the four reports.
type Engine struct {
	store      NameStore
	threshold  float64
	topLimit   int
	teamMode   TeamMode
	checkEvery int
	logger     logger.Logger
}

// NewEngine creates an engine that counts names into store.
func NewEngine(store NameStore, opts ...Option) *Engine {
	e := &Engine{
		store:      store,
		threshold:  DefaultSuperuserThreshold,
		topLimit:   DefaultTopCountriesLimit,
		teamMode:   TeamModeAggregate,
		checkEvery: defaultCheckInterval,
		logger:     logger.Named("insights"),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// TeamMode returns the configured team accumulation mode.
func (e *Engine) TeamMode() TeamMode { return e.teamMode }

// CountNames adds one to the store for every record whose normalized name is
// not empty and returns how many records did so in this call. The store total
// is cumulative across calls; the return value is not.
func (e *Engine) CountNames(ctx context.Context, records []record.UserRecord) (int, error) {
	if e.store == nil {
		return 0, ErrNoStore
	}
	names := make([]string, 0, len(records))
	for i, r := range records {
		if err := e.checkpoint(ctx, OpCountNames, i); err != nil {
			return 0, err
		}
		name := record.NormalizeName(r.Name)
		if name == "" {
			metrics.RecordRecordSkipped(OpCountNames, "empty_name")
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return 0, nil
	}
	if err := e.store.IncrementAll(ctx, names); err != nil {
		return 0, fmt.Errorf("%s: %w", OpCountNames, err)
	}
	metrics.RecordNamesCounted(len(names))
	return len(names), nil
}

// FilterSuperusers returns, in source order, the records whose score is at
// least the threshold. An absent score reads as 0; a score that cannot be
// coerced fails the threshold.
func (e *Engine) FilterSuperusers(ctx context.Context, records []record.UserRecord) ([]record.UserRecord, error) {
	out := make([]record.UserRecord, 0)
	for i, r := range records {
		if err := e.checkpoint(ctx, OpFilterSuperusers, i); err != nil {
			return nil, err
		}
		score, err := r.Score.Float()
		if err != nil {
			metrics.RecordRecordSkipped(OpFilterSuperusers, "invalid_score")
		}
		if err == nil && score >= e.threshold {
			out = append(out, r)
		}
	}
	return out, nil
}

// TopCountries ranks countries by their number of qualifying users. Records
// with a score that cannot be coerced are skipped before anything else.
// Ties keep the order in which the countries were first counted.
func (e *Engine) TopCountries(ctx context.Context, records []record.UserRecord) ([]CountryTotal, error) {
	var totals []CountryTotal
	index := make(map[string]int)
	for i, r := range records {
		if err := e.checkpoint(ctx, OpTopCountries, i); err != nil {
			return nil, err
		}
		score, err := r.Score.Float()
		if err != nil {
			metrics.RecordRecordSkipped(OpTopCountries, "invalid_score")
			continue
		}
		if score < e.threshold {
			continue
		}
		country := record.NormalizeCountry(r.Country)
		if country == "" {
			metrics.RecordRecordSkipped(OpTopCountries, "empty_country")
			continue
		}
		if at, ok := index[country]; ok {
			totals[at].Total++
			continue
		}
		index[country] = len(totals)
		totals = append(totals, CountryTotal{Country: country, Total: 1})
	}

	sort.SliceStable(totals, func(i, j int) bool { return totals[i].Total > totals[j].Total })
	if len(totals) > e.topLimit {
		totals = totals[:e.topLimit]
	}
	if totals == nil {
		totals = []CountryTotal{}
	}
	return totals, nil
}

// TeamInsights reports completed projects per trimmed user name, sorted by
// completed projects desc with ties in first-seen order. In
// TeamModeLastRecord only the final record of the batch contributes.
func (e *Engine) TeamInsights(ctx context.Context, records []record.UserRecord) ([]TeamTotal, error) {
	if e.teamMode == TeamModeLastRecord {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", OpTeamInsights, err)
		}
		if len(records) == 0 {
			return []TeamTotal{}, nil
		}
		last := records[len(records)-1]
		key := record.TeamKey(last.Name)
		if key == "" {
			return []TeamTotal{}, nil
		}
		return []TeamTotal{{Team: key, CompletedProjects: last.CompletedProjects()}}, nil
	}

	teams := make([]TeamTotal, 0)
	index := make(map[string]int)
	for i, r := range records {
		if err := e.checkpoint(ctx, OpTeamInsights, i); err != nil {
			return nil, err
		}
		key := record.TeamKey(r.Name)
		if key == "" {
			metrics.RecordRecordSkipped(OpTeamInsights, "empty_name")
			continue
		}
		completed := r.CompletedProjects()
		if at, ok := index[key]; ok {
			teams[at].CompletedProjects += completed
			continue
		}
		index[key] = len(teams)
		teams = append(teams, TeamTotal{Team: key, CompletedProjects: completed})
	}

	sort.SliceStable(teams, func(i, j int) bool { return teams[i].CompletedProjects > teams[j].CompletedProjects })
	return teams, nil
}

// checkpoint checks ctx every checkEvery records.
func (e *Engine) checkpoint(ctx context.Context, op string, i int) error {
	if i%e.checkEvery != 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		e.logger.Debug(ctx, "report interrupted", logger.String("operation", op), logger.Int("record", i))
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
