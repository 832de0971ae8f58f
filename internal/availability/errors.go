package availability

import (
	"fmt"

	"github.com/band-availability/backend/internal/storage/models"
)

// ConfigurationError reports an unusable roster.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "invalid roster: " + e.Reason
}

// UnknownMemberError reports a member that is not on the roster.
type UnknownMemberError struct {
	Member models.Member
}

func (e *UnknownMemberError) Error() string {
	return fmt.Sprintf("unknown member: %q", string(e.Member))
}

// ValidateRoster checks that a roster is non-empty and has no duplicate or blank names.
func ValidateRoster(roster []models.Member) error {
	if len(roster) == 0 {
		return &ConfigurationError{Reason: "roster is empty"}
	}

	seen := make(map[models.Member]bool, len(roster))
	for _, m := range roster {
		if m == "" {
			return &ConfigurationError{Reason: "roster contains a blank name"}
		}
		if seen[m] {
			return &ConfigurationError{Reason: fmt.Sprintf("duplicate member %q", string(m))}
		}
		seen[m] = true
	}
	return nil
}
