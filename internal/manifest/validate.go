package manifest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/devansh-kaila-006/neuron-ai-club-sub000/internal/apperr"
	"github.com/devansh-kaila-006/neuron-ai-club-sub000/internal/models"
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^[0-9]{10}$`)
)

// Validate checks the full Team shape before any write. It collects all
// violations so the caller can fix them in one pass.
func (s *Store) Validate(t models.Team) error {
	fields := []string{}

	name := strings.TrimSpace(t.TeamName)
	if len(name) < 3 || len(name) > 20 {
		fields = append(fields, "teamName: must be 3-20 characters")
	}
	if n := len(t.Members); n < models.TeamMinMembers || n > models.TeamMaxMembers {
		fields = append(fields, fmt.Sprintf("members: need %d-%d, got %d",
			models.TeamMinMembers, models.TeamMaxMembers, n))
	}
	for i, m := range t.Members {
		if strings.TrimSpace(m.Name) == "" {
			fields = append(fields, fmt.Sprintf("members[%d].name: empty", i))
		}
		if !emailRe.MatchString(m.Email) {
			fields = append(fields, fmt.Sprintf("members[%d].email: invalid", i))
		}
		if !phoneRe.MatchString(m.Phone) {
			fields = append(fields, fmt.Sprintf("members[%d].phone: must be 10 digits", i))
		}
	}
	if t.TeamCode != "" && !strings.HasPrefix(t.TeamCode, s.codePrefix+"-") {
		fields = append(fields, "teamCode: wrong prefix")
	}

	if len(fields) > 0 {
		return &apperr.ValidationError{Fields: fields}
	}
	return nil
}
