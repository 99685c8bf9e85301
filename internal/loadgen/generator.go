package loadgen

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/okian/userstats/pkg/logger"
)

// Score distribution, in percent of generated users.
const (
	pctSuperuser     = 35
	pctRegular       = 35
	pctNumericString = 10
	pctJunkString    = 10
	// the remainder gets no score at all
)

// Other generation ratios, in percent.
const (
	pctEmptyName    = 5
	pctEmptyCountry = 5
	pctNoTeam       = 20
	pctOddCompleted = 5
	maxProjects     = 4
	superuserFloor  = 900
	scoreCeiling    = 1000
)

var (
	firstNames = []string{"ana", "bruno", "carla", "diego", "elena", "farid", "greta", "hiro", "ines", "jonas", "kemal", "lucia"}
	lastNames  = []string{"silva", "okafor", "novak", "tanaka", "moreau", "haddad", "larsen", "costa"}
	countries  = []string{"brasil", "portugal", "japan", "nigeria", "france", "germany", "chile", "canada"}
	teamNames  = []string{"alpha", "beta", "gamma", "delta"}
	junkScores = []string{"n/a", "", "high", "9e9999", "NaN"}
	oddFlags   = []any{"true", 1, nil, "yes"}
)

// Generate builds n users from seed. The same seed always yields the same
// batch.
func Generate(ctx context.Context, n int, seed uint64) ([]User, error) {
	logger.Get().Info(ctx, "generating users", logger.Int("users", n), logger.Int64("seed", int64(seed)))

	rng := rand.New(rand.NewPCG(seed, seed>>1|1))
	users := make([]User, n)
	for i := range users {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("context cancelled during user generation: %w", err)
			}
		}
		users[i] = generateUser(rng)
	}
	return users, nil
}

func generateUser(rng *rand.Rand) User {
	u := User{
		Name:    generateName(rng),
		Score:   generateScore(rng),
		Country: generateCountry(rng),
	}
	if rng.IntN(100) >= pctNoTeam {
		u.Team = generateTeam(rng)
	}
	return u
}

func generateName(rng *rand.Rand) string {
	if rng.IntN(100) < pctEmptyName {
		return ""
	}
	name := pick(rng, firstNames) + " " + pick(rng, lastNames)
	return vary(rng, name)
}

func generateCountry(rng *rand.Rand) string {
	if rng.IntN(100) < pctEmptyCountry {
		return ""
	}
	return vary(rng, pick(rng, countries))
}

// vary changes casing and padding so that normalization has work to do.
func vary(rng *rand.Rand, s string) string {
	switch rng.IntN(4) {
	case 0:
		return strings.ToUpper(s)
	case 1:
		return "  " + s + " "
	default:
		return s
	}
}

func generateScore(rng *rand.Rand) any {
	p := rng.IntN(100)
	switch {
	case p < pctSuperuser:
		return superuserFloor + rng.IntN(scoreCeiling-superuserFloor+1)
	case p < pctSuperuser+pctRegular:
		return rng.IntN(superuserFloor)
	case p < pctSuperuser+pctRegular+pctNumericString:
		return strconv.Itoa(rng.IntN(scoreCeiling + 1))
	case p < pctSuperuser+pctRegular+pctNumericString+pctJunkString:
		return pick(rng, junkScores)
	default:
		return nil
	}
}

func generateTeam(rng *rand.Rand) *Team {
	t := &Team{Name: pick(rng, teamNames), Projects: make([]Project, rng.IntN(maxProjects+1))}
	for i := range t.Projects {
		t.Projects[i] = Project{Title: "project-" + strconv.Itoa(i+1), Completed: rng.IntN(2) == 0}
		if rng.IntN(100) < pctOddCompleted {
			t.Projects[i].Completed = pick(rng, oddFlags)
		}
	}
	return t
}

func pick[T any](rng *rand.Rand, from []T) T {
	return from[rng.IntN(len(from))]
}

// Encode renders users as the JSON array the service accepts.
func Encode(users []User) ([]byte, error) {
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode users: %w", err)
	}
	return data, nil
}

// Chunks splits users into consecutive slices of at most size elements.
func Chunks(users []User, size int) [][]User {
	if size <= 0 {
		size = len(users)
	}
	var out [][]User
	for start := 0; start < len(users); start += size {
		end := min(start+size, len(users))
		out = append(out, users[start:end])
	}
	return out
}
