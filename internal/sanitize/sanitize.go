// Package sanitize cleans user-generated content before it is stored.
// Uses bluemonday to strip dangerous HTML (script tags, event handlers,
// javascript: URLs). Post bodies keep safe formatting; every other text
// field is reduced to plain text.
package sanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Policies are built once and shared; bluemonday policies are safe for
// concurrent use after construction.
var (
	richPolicy  *bluemonday.Policy
	plainPolicy *bluemonday.Policy
	policyOnce  sync.Once
)

// initPolicies builds the shared policies on first use.
func initPolicies() {
	policyOnce.Do(func() {
		richPolicy = bluemonday.UGCPolicy()

		// The post editor emits fenced code blocks with language classes.
		richPolicy.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("code", "pre")

		plainPolicy = bluemonday.StrictPolicy()
	})
}

// HTML sanitizes rich post content, stripping dangerous elements while
// preserving safe formatting tags and links.
//
// This MUST be called on post text before storing it in the database.
func HTML(input string) string {
	if input == "" {
		return ""
	}
	initPolicies()
	return strings.TrimSpace(richPolicy.Sanitize(input))
}

// maxDecodePasses bounds how many times Text re-sanitizes decoded output.
const maxDecodePasses = 4

// Text strips every tag from input and returns trimmed plain text. Entities
// escaped by the sanitizer are decoded again so "&" stays "&" and length
// checks count what the user typed. Decoding can surface markup that was
// entity-encoded in the input, so the result is sanitized again until it
// no longer changes.
func Text(input string) string {
	if input == "" {
		return ""
	}
	initPolicies()

	out := input
	for i := 0; i < maxDecodePasses; i++ {
		next := html.UnescapeString(plainPolicy.Sanitize(out))
		if next == out {
			return strings.TrimSpace(out)
		}
		out = next
	}
	// Still changing: keep the escaped form rather than risk live markup.
	return strings.TrimSpace(plainPolicy.Sanitize(out))
}
