package skills

import (
	"context"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/job-pilot/internal/types"
)

// FallbackCategory is assigned when the classifier collaborator fails or
// returns an empty answer.
const FallbackCategory = "General"

// maxConcurrentClassifications bounds the classifier calls issued by a
// batch categorization.
const maxConcurrentClassifications = 4

// Classifier is the external AI collaborator that assigns a category to a
// skill name, constrained to the known categories or a new suggestion.
type Classifier interface {
	ClassifySkill(ctx context.Context, skillName string, knownCategories []string) (string, error)
}

// Result is the outcome of a categorization. IsNew signals that Category is
// not yet a member of the known set and the caller may persist it.
type Result struct {
	Category string `json:"category"`
	IsNew    bool   `json:"is_new"`
}

// Categorizer assigns categories to skill names, consulting the classifier
// collaborator and falling back deterministically to FallbackCategory.
type Categorizer struct {
	classifier Classifier
	verbose    bool
}

// NewCategorizer creates a categorizer over the given classifier.
func NewCategorizer(classifier Classifier) *Categorizer {
	return &Categorizer{classifier: classifier}
}

// SetVerbose enables fallback logging.
func (c *Categorizer) SetVerbose(v bool) { c.verbose = v }

// Categorize resolves a category for skillName. Classifier failure or an
// empty answer never surfaces to the caller; the result falls back to
// FallbackCategory.
func (c *Categorizer) Categorize(ctx context.Context, skillName string, knownCategories []string) Result {
	category := ""
	if c.classifier != nil {
		got, err := c.classifier.ClassifySkill(ctx, skillName, knownCategories)
		if err != nil {
			if c.verbose {
				log.Printf("[SKILLS] classifier failed for %q, using fallback: %v", skillName, err)
			}
		} else {
			category = got
		}
	}
	if category == "" {
		category = FallbackCategory
	}
	return Result{Category: category, IsNew: !containsCategory(knownCategories, category)}
}

// CategorizeBatch categorizes several skill names concurrently, bounded by
// maxConcurrentClassifications. Individual classifier failures fall back per
// name; only context cancellation aborts the batch.
func (c *Categorizer) CategorizeBatch(ctx context.Context, skillNames []string, knownCategories []string) (map[string]Result, error) {
	results := make(map[string]Result, len(skillNames))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentClassifications)
	for _, name := range skillNames {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res := c.Categorize(ctx, name, knownCategories)
			mu.Lock()
			results[name] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func containsCategory(categories []string, category string) bool {
	for _, c := range categories {
		if types.SkillNamesEqual(c, category) {
			return true
		}
	}
	return false
}

// legacyCategories maps known legacy skill names (normalized) to canonical
// categories. Applied once at profile load by ReconcileCategories; never
// consults the classifier.
var legacyCategories = map[string]string{
	"unity":         "Game Development",
	"unreal engine": "Game Development",
	"unreal":        "Game Development",
	"godot":         "Game Development",
	"gamemaker":     "Game Development",
	"react":         "Web Technology",
	"angular":       "Web Technology",
	"vue":           "Web Technology",
	"node.js":       "Web Technology",
	"html":          "Web Technology",
	"css":           "Web Technology",
	"javascript":    "Programming Language",
	"typescript":    "Programming Language",
	"python":        "Programming Language",
	"java":          "Programming Language",
	"c#":            "Programming Language",
	"c++":           "Programming Language",
	"go":            "Programming Language",
	"sql":           "Database",
	"postgresql":    "Database",
	"mysql":         "Database",
	"mongodb":       "Database",
	"aws":           "Cloud",
	"azure":         "Cloud",
	"gcp":           "Cloud",
	"docker":        "DevOps",
	"kubernetes":    "DevOps",
	"git":           "Tooling",
}

// ReconcileCategories applies the legacy lookup table to uncategorized
// skills and returns how many entries changed. Idempotent: categorized
// entries are never touched.
func ReconcileCategories(skills []types.SkillEntry) int {
	changed := 0
	for i := range skills {
		if skills[i].Category != "" {
			continue
		}
		if category, ok := legacyCategories[types.NormalizeSkillName(skills[i].Name)]; ok {
			skills[i].Category = category
			changed++
		}
	}
	return changed
}

// CategoryMigration adapts ReconcileCategories to the store's load-time
// migration hook.
func CategoryMigration(profile *types.Profile) bool {
	return ReconcileCategories(profile.Skills) > 0
}

// KnownCategories returns the distinct categories currently assigned in the
// profile, in first-seen order.
func KnownCategories(profile *types.Profile) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, s := range profile.Skills {
		if s.Category == "" {
			continue
		}
		key := types.NormalizeSkillName(s.Category)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s.Category)
	}
	return out
}
