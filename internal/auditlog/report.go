package auditlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DailyReport summarizes one day of raw artifacts.
type DailyReport struct {
	Date               string         `json:"date"`
	TotalEvents        int            `json:"total_events"`
	EventTypes         map[string]int `json:"event_types"`
	HourlyDistribution map[string]int `json:"hourly_distribution"`
}

// BuildDailyReport scans the raw artifacts whose names start with the given
// date (YYYY-MM-DD) and tallies action kinds and hour-of-day counts. It only
// reads; stored artifacts are never touched.
func (w *Writer) BuildDailyReport(date string) (*DailyReport, error) {
	entries, err := os.ReadDir(filepath.Join(w.dir, dirRaw))
	if err != nil {
		return nil, fmt.Errorf("scan raw artifacts: %w", err)
	}

	report := &DailyReport{
		Date:               date,
		EventTypes:         map[string]int{},
		HourlyDistribution: map[string]int{},
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), date) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(w.dir, dirRaw, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read artifact %s: %w", entry.Name(), err)
		}
		var env rawEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			// Skip anything that is not a raw envelope.
			continue
		}
		report.TotalEvents++
		report.EventTypes[env.Action]++
		report.HourlyDistribution[env.Timestamp.Format("15")]++
	}

	return report, nil
}
