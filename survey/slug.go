package survey

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
)

var reNonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowers, strips and hyphenates free text into a URL-safe slug.
// Titles with no usable characters fall back to "survey".
func Slugify(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = reNonSlug.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "survey"
	}
	return slug
}

// uniqueSlug probes the survey table for a free slug, suffixing -2, -3, ...
// on collision. Runs inside the caller's transaction.
func uniqueSlug(ctx context.Context, tx *sql.Tx, title string) (string, error) {
	base := Slugify(title)

	slug := base
	for i := 2; ; i++ {
		var taken bool
		err := tx.QueryRowContext(ctx,
			"SELECT EXISTS (SELECT 1 FROM survey WHERE slug = ?)", slug,
		).Scan(&taken)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
		if i > 100 {
			return "", fmt.Errorf("no free slug for %q", base)
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}
