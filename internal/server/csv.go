package server

import (
	"fmt"
	"strings"

	"github.com/devansh-kaila-006/neuron-ai-club-sub000/internal/models"
)

// BuildTeamsCSV renders the manifest export: a pure projection of a
// single List() snapshot.
func BuildTeamsCSV(teams []models.Team) string {
	var b strings.Builder
	b.WriteString("Team Name,Code,Status,Checked-In,Lead Name,Lead Email,Lead Phone,Members\n")
	for _, t := range teams {
		var leadName, leadEmail, leadPhone string
		if lead := t.Lead(); lead != nil {
			leadName, leadEmail, leadPhone = lead.Name, lead.Email, lead.Phone
		}
		checked := "no"
		if t.CheckedIn {
			checked = "yes"
		}
		b.WriteString(fmt.Sprintf("%s,%s,%s,%s,%s,%s,%s,%d\n",
			escapeCSV(t.TeamName),
			escapeCSV(t.TeamCode),
			escapeCSV(t.PaymentStatus),
			checked,
			escapeCSV(leadName),
			escapeCSV(leadEmail),
			escapeCSV(leadPhone),
			len(t.Members),
		))
	}
	return b.String()
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		s = strings.ReplaceAll(s, "\"", "\"\"")
		return "\"" + s + "\""
	}
	return s
}
