package entities

import (
	"strings"

	"flavourvault-backend/domain/config"
	pkgerrors "flavourvault-backend/pkg/errors"
)

// NormalizeTags applies the recipe tag rules to a replacement list:
// duplicates collapse onto their first occurrence, entries beyond the
// tag cap are dropped, and an empty tag is a validation error. Order
// of the surviving tags is preserved.
func NormalizeTags(tags []string) ([]string, error) {
	cfg := config.DefaultDomainConfig()
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))

	for _, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			return nil, pkgerrors.NewValidationError("tag cannot be empty")
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		if len(out) >= cfg.MaxTagsPerRecipe {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out, nil
}
