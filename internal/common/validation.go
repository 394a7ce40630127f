package common

import (
	"fmt"
	"regexp"
	"strings"
)

var countryCodeRegex = regexp.MustCompile(`^[A-Z]{2}$`)

const maxCaptionLength = 2200

func ValidateCaption(caption string) error {
	if len(caption) > maxCaptionLength {
		return fmt.Errorf("%w: caption longer than %d characters", ErrValidation, maxCaptionLength)
	}
	return nil
}

func ValidateCountryCode(code string) error {
	if !countryCodeRegex.MatchString(code) {
		return fmt.Errorf("%w: country code must be two uppercase letters", ErrValidation)
	}
	return nil
}

func ValidateMediaPaths(paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("%w: a post needs at least one media item", ErrValidation)
	}
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("%w: empty media path", ErrValidation)
		}
	}
	return nil
}

func ValidateSearchQuery(query string) error {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return fmt.Errorf("%w: search query must be at least 2 characters", ErrValidation)
	}
	return nil
}
