package deck

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
)

// Card is a single question-answer item extracted from a source document.
// Hash is the card's identity across syncs: it survives file moves and
// formatting churn but changes when the content changes.
type Card struct {
	Question string
	Answer   string
	Context  string
	Tags     []string
	Hash     string
}

// Normalize returns the canonical form of the card's content: each field
// lowercased, whitespace-trimmed, with line endings unified, and tags
// sorted, all joined by newlines. Fields are newline-separated so that
// adjacent fields can never run together and collide.
func Normalize(card Card) string {
	normalizePart := func(part string) string {
		p := strings.ToLower(part)
		p = strings.TrimSpace(p)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		return p
	}

	tags := make([]string, 0, len(card.Tags))
	for _, tag := range card.Tags {
		if t := normalizePart(tag); t != "" {
			tags = append(tags, t)
		}
	}
	sort.Strings(tags)

	parts := []string{
		normalizePart(card.Question),
		normalizePart(card.Answer),
		normalizePart(card.Context),
		strings.Join(tags, ","),
	}
	return strings.Join(parts, "\n")
}

// HashCard normalizes the card and returns its SHA-256 hash as a hex string.
func HashCard(card Card) string {
	normalized := Normalize(card)
	sum := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", sum)
}
