package models

// EmergencyMessage is an incident report in the shared feed.
// Deletion is authorized server-side; the client only decides whether to offer it.
type EmergencyMessage struct {
	ID        ID        `json:"id"`
	UserID    ID        `json:"user_id"`
	UserName  string    `json:"user_name"`
	Message   string    `json:"message"`
	Photo     string    `json:"photo,omitempty"`
	Timestamp Timestamp `json:"timestamp"`
}

// HasPhoto reports whether a photo is attached
func (m *EmergencyMessage) HasPhoto() bool {
	return m.Photo != ""
}

// CanDelete reports whether viewer may be offered the delete control for m
func (m *EmergencyMessage) CanDelete(viewer *User) bool {
	if viewer == nil {
		return false
	}
	return viewer.Role == RoleAdmin || (viewer.ID != "" && m.UserID == viewer.ID)
}
