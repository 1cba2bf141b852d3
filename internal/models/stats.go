package models

// AdminStats is the dashboard summary, refetched on every admin page visit
type AdminStats struct {
	TotalUsers         int           `json:"total_users"`
	PendingEmergencies int           `json:"pending_emergencies"`
	TotalReports       int           `json:"total_reports"`
	SectionStats       []SectionStat `json:"section_stats"`
}

// SectionStat counts users registered in one electoral section
type SectionStat struct {
	Section int `json:"section"`
	Users   int `json:"users"`
}
