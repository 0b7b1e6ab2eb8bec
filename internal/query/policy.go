package query

import (
	"fmt"
	"strings"
)

// Page reset triggers accepted by ParseResetPolicy.
const (
	ResetOnSearch        = "search"
	ResetOnSortColumn    = "sort_column"
	ResetOnSortDirection = "sort_direction"
	ResetOnPageSize      = "page_size"
)

// ResetPolicy names which option changes send the table back to page 1.
type ResetPolicy struct {
	OnSearch        bool
	OnSortColumn    bool
	OnSortDirection bool
	OnPageSize      bool
}

// DefaultResetPolicy only resets the page when the page size changes.
// Search edits and sort changes keep the current page.
var DefaultResetPolicy = ResetPolicy{OnPageSize: true}

// ParseResetPolicy builds a policy from trigger names. An empty list yields
// DefaultResetPolicy.
func ParseResetPolicy(triggers []string) (ResetPolicy, error) {
	if len(triggers) == 0 {
		return DefaultResetPolicy, nil
	}
	var policy ResetPolicy
	for _, t := range triggers {
		switch strings.ToLower(strings.TrimSpace(t)) {
		case ResetOnSearch:
			policy.OnSearch = true
		case ResetOnSortColumn:
			policy.OnSortColumn = true
		case ResetOnSortDirection:
			policy.OnSortDirection = true
		case ResetOnPageSize:
			policy.OnPageSize = true
		case "none":
		default:
			return ResetPolicy{}, fmt.Errorf("unknown page reset trigger %q", t)
		}
	}
	return policy, nil
}
