package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Hashtags are stored lowercase without the leading '#'. Latin and Cyrillic
// letters, digits, and underscores are allowed.
var hashtagRegex = regexp.MustCompile(`^[a-zа-яё0-9_]+$`)

// MaxHashtagsPerPost limits how many distinct tags one post may carry.
const MaxHashtagsPerPost = 5

// MaxHashtagLength is the maximum tag length in characters.
const MaxHashtagLength = 20

// NormalizeHashtag trims whitespace, strips one leading '#', and lowercases.
func NormalizeHashtag(raw string) string {
	tag := strings.TrimSpace(raw)
	tag = strings.TrimPrefix(tag, "#")
	return strings.ToLower(tag)
}

// ValidateHashtag validates an already-normalized tag.
func ValidateHashtag(tag string) error {
	if tag == "" {
		return fmt.Errorf("hashtag cannot be empty")
	}
	if utf8.RuneCountInString(tag) > MaxHashtagLength {
		return fmt.Errorf("hashtag %q exceeds %d characters", tag, MaxHashtagLength)
	}
	if !hashtagRegex.MatchString(tag) {
		return fmt.Errorf("hashtag %q may only contain letters, numbers, and underscores", tag)
	}
	return nil
}

// NormalizeHashtags normalizes a raw tag list, drops duplicates, and
// validates every surviving tag. Order of first appearance is preserved.
func NormalizeHashtags(raw []string) ([]string, error) {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))

	for _, r := range raw {
		tag := NormalizeHashtag(r)
		if err := ValidateHashtag(tag); err != nil {
			return nil, err
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}

	if len(out) > MaxHashtagsPerPost {
		return nil, fmt.Errorf("a post may carry at most %d hashtags", MaxHashtagsPerPost)
	}

	return out, nil
}
