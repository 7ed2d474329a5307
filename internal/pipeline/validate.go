package pipeline

import (
	"fmt"
	"math"
	"strings"
)

// Ingredient is one validated ingredient entry.
type Ingredient struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Notes    string  `json:"notes"`
}

// Document is a recipe that passed Validate.
type Document struct {
	Title            string       `json:"title"`
	Slug             string       `json:"slug,omitempty"`
	Description      string       `json:"description"`
	Servings         int          `json:"servings"`
	PrepTimeMinutes  int          `json:"prep_time_minutes"`
	CookTimeMinutes  int          `json:"cook_time_minutes"`
	TotalTimeMinutes int          `json:"total_time_minutes"`
	Ingredients      []Ingredient `json:"ingredients"`
	Instructions     []string     `json:"instructions"`
	Tags             []string     `json:"tags"`
	Author           string       `json:"author"`
}

// Validate checks tree against the recipe schema and returns the typed document.
// The author field is always overwritten with authorID first; whatever the
// model or client put there is discarded. Fields are checked in a fixed order
// and the first offending path is reported.
func Validate(tree map[string]any, authorID string) (*Document, error) {
	tree["author"] = authorID

	doc := &Document{}
	var err error

	if doc.Title, err = requiredText(tree, "title"); err != nil {
		return nil, err
	}
	if doc.Slug, err = optionalText(tree, "slug"); err != nil {
		return nil, err
	}
	if doc.Description, err = requiredText(tree, "description"); err != nil {
		return nil, err
	}

	for _, f := range []struct {
		key string
		dst *int
	}{
		{"servings", &doc.Servings},
		{"prep_time_minutes", &doc.PrepTimeMinutes},
		{"cook_time_minutes", &doc.CookTimeMinutes},
		{"total_time_minutes", &doc.TotalTimeMinutes},
	} {
		if *f.dst, err = nonNegativeInt(tree, f.key); err != nil {
			return nil, err
		}
	}

	if doc.Ingredients, err = ingredients(tree); err != nil {
		return nil, err
	}

	raw, ok := tree["instructions"]
	if !ok || raw == nil {
		return nil, violation("instructions", "required field is missing")
	}
	if doc.Instructions, err = stringArray(raw, "instructions"); err != nil {
		return nil, err
	}

	doc.Tags = []string{}
	if raw, ok := tree["tags"]; ok && raw != nil {
		tags, err := stringArray(raw, "tags")
		if err != nil {
			return nil, err
		}
		doc.Tags = dedupe(tags)
	}

	if doc.Author, err = requiredText(tree, "author"); err != nil {
		return nil, err
	}
	return doc, nil
}

func requiredText(tree map[string]any, key string) (string, error) {
	raw, ok := tree[key]
	if !ok || raw == nil {
		return "", violation(key, "required field is missing")
	}
	s, ok := raw.(string)
	if !ok {
		return "", violation(key, "expected string, got %s", typeName(raw))
	}
	if strings.TrimSpace(s) == "" {
		return "", violation(key, "must not be empty")
	}
	return strings.TrimSpace(s), nil
}

func optionalText(tree map[string]any, key string) (string, error) {
	raw, ok := tree[key]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", violation(key, "expected string, got %s", typeName(raw))
	}
	return strings.TrimSpace(s), nil
}

func nonNegativeInt(tree map[string]any, key string) (int, error) {
	raw, ok := tree[key]
	if !ok || raw == nil {
		return 0, violation(key, "required field is missing")
	}
	n, ok := raw.(float64)
	if !ok {
		return 0, violation(key, "expected integer, got %s", typeName(raw))
	}
	if n != math.Trunc(n) {
		return 0, violation(key, "expected integer, got %v", n)
	}
	if n < 0 {
		return 0, violation(key, "must be non-negative, got %v", n)
	}
	if n > math.MaxInt32 {
		return 0, violation(key, "value %v out of range", n)
	}
	return int(n), nil
}

func ingredients(tree map[string]any) ([]Ingredient, error) {
	raw, ok := tree["ingredients"]
	if !ok || raw == nil {
		return nil, violation("ingredients", "required field is missing")
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, violation("ingredients", "expected array, got %s", typeName(raw))
	}

	out := make([]Ingredient, 0, len(items))
	for i, item := range items {
		path := fmt.Sprintf("ingredients[%d]", i)
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, violation(path, "expected object, got %s", typeName(item))
		}

		var ing Ingredient
		var err error
		if ing.Name, err = requiredText(obj, "name"); err != nil {
			return nil, prefixPath(err, path)
		}

		q, present := obj["quantity"]
		if !present || q == nil {
			return nil, violation(path+".quantity", "required field is missing")
		}
		if ing.Quantity, ok = q.(float64); !ok {
			return nil, violation(path+".quantity", "expected number, got %s", typeName(q))
		}

		// unit and notes default to "" when the model leaves them out.
		if ing.Unit, err = optionalText(obj, "unit"); err != nil {
			return nil, prefixPath(err, path)
		}
		if ing.Notes, err = optionalText(obj, "notes"); err != nil {
			return nil, prefixPath(err, path)
		}
		out = append(out, ing)
	}
	return out, nil
}

func stringArray(raw any, path string) ([]string, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, violation(path, "expected array, got %s", typeName(raw))
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, violation(fmt.Sprintf("%s[%d]", path, i), "expected string, got %s", typeName(item))
		}
		out = append(out, s)
	}
	return out, nil
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func prefixPath(err error, prefix string) error {
	if perr, ok := err.(*Error); ok {
		perr.Path = prefix + "." + perr.Path
	}
	return err
}
