package search

import "regexp"

// Mention tokens come in two forms: "@path/to/asset" file references and
// "type:id" content references (topic:123, gallery:ab-9).
var (
	pathTokenRe = regexp.MustCompile(`@([A-Za-z0-9_\-./]+)`)
	refTokenRe  = regexp.MustCompile(`\b(topic|batch|gallery|asset|flyer):([A-Za-z0-9_-]+)\b`)
)

// ExtractTokens returns the mention tokens of a message in order of
// appearance, deduplicated.
func ExtractTokens(text string) []string {
	var tokens []string
	seen := make(map[string]bool)
	add := func(tok string) {
		if tok != "" && !seen[tok] {
			seen[tok] = true
			tokens = append(tokens, tok)
		}
	}
	for _, m := range pathTokenRe.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	for _, m := range refTokenRe.FindAllStringSubmatch(text, -1) {
		add(m[0])
	}
	return tokens
}
