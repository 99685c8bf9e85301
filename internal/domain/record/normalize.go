package record

import (
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Casers keep transform state, so each caller borrows its own.
var titlePool = sync.Pool{
	New: func() any {
		c := cases.Title(language.Und)
		return &c
	},
}

func titleCase(s string) string {
	if s == "" {
		return ""
	}
	c := titlePool.Get().(*cases.Caser)
	defer titlePool.Put(c)
	return c.String(s)
}

// NormalizeName trims and title-cases a user name. It is idempotent.
func NormalizeName(s string) string {
	return titleCase(strings.TrimSpace(s))
}

// NormalizeCountry trims and title-cases a country. It is idempotent.
func NormalizeCountry(s string) string {
	return titleCase(strings.TrimSpace(s))
}

// TeamKey is the bucket key used by team reports: the trimmed name, case kept.
func TeamKey(name string) string {
	return strings.TrimSpace(name)
}
