package validator

import (
	"fmt"
	"strconv"
	"strings"
)

// PageValidator validates pagination parameters at the request boundary
type PageValidator interface {
	Validate(page, pageLimit int) error
	Parse(rawPage, rawLimit string) (page, pageLimit int, err error)
}

type DefaultValidator struct {
	defaultLimit int
	maxLimit     int
}

func NewDefaultValidator(defaultLimit, maxLimit int) PageValidator {
	if defaultLimit < 1 {
		defaultLimit = 5
	}
	if maxLimit < defaultLimit {
		maxLimit = defaultLimit
	}
	return &DefaultValidator{
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

func (v *DefaultValidator) Validate(page, pageLimit int) error {
	if page < 1 {
		return fmt.Errorf("page must be at least 1, got %d", page)
	}
	if pageLimit < 1 {
		return fmt.Errorf("page_limit must be at least 1, got %d", pageLimit)
	}
	if pageLimit > v.maxLimit {
		return fmt.Errorf("page_limit must be at most %d, got %d", v.maxLimit, pageLimit)
	}
	return nil
}

// Parse reads raw query values; empty values fall back to page 1 and the
// default limit.
func (v *DefaultValidator) Parse(rawPage, rawLimit string) (int, int, error) {
	page, err := parseOr(rawPage, 1)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid page: %w", err)
	}

	pageLimit, err := parseOr(rawLimit, v.defaultLimit)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid page_limit: %w", err)
	}

	if err := v.Validate(page, pageLimit); err != nil {
		return 0, 0, err
	}
	return page, pageLimit, nil
}

func parseOr(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
