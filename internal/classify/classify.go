package classify

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/aucus/proactive-ai-bot/internal/domain"
)

// Ordered returns the categories in match priority. News is the fallback and
// never matched by keyword.
func Ordered() []domain.Category {
	return []domain.Category{domain.CategoryAI, domain.CategoryEdTech, domain.CategoryTech}
}

var categoryKeywords = map[domain.Category][]string{
	domain.CategoryAI: {
		"ai", "artificial intelligence", "machine learning", "deep learning",
		"llm", "gpt", "claude", "인공지능",
	},
	domain.CategoryTech: {
		"technology", "tech", "startup", "innovation", "software", "hardware",
		"기술", "스타트업",
	},
	domain.CategoryEdTech: {
		"edtech", "education technology", "online learning", "e-learning", "교육",
	},
}

// TopicAliases maps short command arguments to categories.
var TopicAliases = map[string]domain.Category{
	"ai":     domain.CategoryAI,
	"tech":   domain.CategoryTech,
	"edtech": domain.CategoryEdTech,
}

// ResolveAlias maps a topic argument to a Category.
func ResolveAlias(alias string) (domain.Category, error) {
	alias = strings.ToLower(strings.TrimSpace(alias))
	if cat, ok := TopicAliases[alias]; ok {
		return cat, nil
	}
	for _, cat := range append(Ordered(), domain.CategoryNews) {
		if strings.EqualFold(string(cat), alias) {
			return cat, nil
		}
	}
	return "", fmt.Errorf("unknown topic %q (valid: ai, tech, edtech)", alias)
}

// Classify returns the first category, in AI, EdTech, Tech order, whose
// keywords appear in the title or description. Returns News as default.
func Classify(title, description string) domain.Category {
	text := strings.ToLower(title + " " + description)
	tokens := tokenize(text)

	for _, cat := range Ordered() {
		for _, kw := range categoryKeywords[cat] {
			if matches(kw, text, tokens) {
				return cat
			}
		}
	}
	return domain.CategoryNews
}

// Multi-word keywords match anywhere in the text. Single words must start a
// token so that "ai" hits "AI가" but not "said".
func matches(kw, text string, tokens []string) bool {
	if strings.ContainsAny(kw, " -") {
		return strings.Contains(text, kw)
	}
	for _, t := range tokens {
		if strings.HasPrefix(t, kw) {
			return true
		}
	}
	return false
}

func tokenize(s string) []string {
	var tokens []string
	for _, word := range strings.Fields(s) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if word != "" {
			tokens = append(tokens, word)
		}
	}
	return tokens
}
