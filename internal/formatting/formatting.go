// Package formatting holds the string helpers applied to stored term
// metadata: the allow-list HTML sanitizer, slash un-escaping, and numeric
// entity decoding.
package formatting

import (
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	ksesPolicyOnce sync.Once
	ksesPolicy     *bluemonday.Policy
)

// Kses strips every element and attribute outside the formatting allow-list.
func Kses(raw string) string {
	if raw == "" {
		return ""
	}
	return allowedTags().Sanitize(raw)
}

// allowedTags builds the formatting allow-list once:
// a(href, title), b, blockquote, br, div/p/span(align, class, style),
// em, i, strong.
func allowedTags() *bluemonday.Policy {
	ksesPolicyOnce.Do(func() {
		policy := bluemonday.NewPolicy()
		policy.AllowStandardURLs()

		policy.AllowElements("b", "blockquote", "br", "em", "i", "strong")
		policy.AllowAttrs("href", "title").OnElements("a")
		policy.AllowAttrs("align", "class", "style").OnElements("div", "p", "span")

		ksesPolicy = policy
	})
	return ksesPolicy
}

// StripSlashes removes one level of backslash escaping: `\x` becomes `x`,
// `\\` becomes `\` and `\0` becomes a NUL byte. A trailing lone backslash
// is dropped.
func StripSlashes(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	escaped := false
	for _, r := range s {
		if escaped {
			if r == '0' {
				r = 0
			}
			b.WriteRune(r)
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var (
	decimalEntity = regexp.MustCompile(`&#(\d+);`)
	hexEntity     = regexp.MustCompile(`&#[xX]([0-9a-fA-F]+);`)
)

// DecodeEntities converts numeric character references (`&#65;`,
// `&#x41;`) to their characters. Named entities are left alone.
func DecodeEntities(s string) string {
	if !strings.Contains(s, "&#") {
		return s
	}
	s = decimalEntity.ReplaceAllStringFunc(s, func(m string) string {
		n, err := strconv.ParseInt(m[2:len(m)-1], 10, 32)
		if err != nil {
			return m
		}
		return string(rune(n))
	})
	return hexEntity.ReplaceAllStringFunc(s, func(m string) string {
		n, err := strconv.ParseInt(m[3:len(m)-1], 16, 32)
		if err != nil {
			return m
		}
		return string(rune(n))
	})
}
