package report

import (
	"encoding/json"

	"github.com/Justin-Lund/PS-Decode/pkg/models"
)

// JSONReport wraps the session log with derived totals
type JSONReport struct {
	*models.SessionLog
	ChangedPasses int `json:"changed_passes"`
}

// renderJSON renders the session log as indented JSON
func renderJSON(log *models.SessionLog) ([]byte, error) {
	report := &JSONReport{
		SessionLog:    log,
		ChangedPasses: log.ChangedPasses(),
	}
	return json.MarshalIndent(report, "", "  ")
}
