package models

import "strings"

// CapacityAlert is the head count above which the event is flagged as over capacity
const CapacityAlert = 90

// Stats are the dashboard counters shown above the records table
type Stats struct {
	Total        int  `json:"total"`
	ThreeYearOld int  `json:"total3Anos"`
	CommonMatch  int  `json:"totalComumMatch"`
	OverCapacity bool `json:"overCapacity"`
}

// ComputeStats counts records, three-year-olds and records whose "comum"
// contains any of the keywords (case-insensitive).
func ComputeStats(records []ChildRecord, keywords []string) Stats {
	stats := Stats{Total: len(records)}
	for _, r := range records {
		if strings.TrimSpace(r.Idade) == "3" {
			stats.ThreeYearOld++
		}
		comum := strings.ToLower(r.Comum)
		for _, kw := range keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" && strings.Contains(comum, kw) {
				stats.CommonMatch++
				break
			}
		}
	}
	stats.OverCapacity = stats.Total > CapacityAlert
	return stats
}
