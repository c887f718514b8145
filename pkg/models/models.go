package models

import "time"

// Session is the authenticated user as the client remembers it
type Session struct {
	Credential  string `json:"access_token"`
	UserID      int    `json:"user_id"`
	DisplayName string `json:"name"`
}

// AuthResult is the body returned by /login and /register
type AuthResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	UserID      int    `json:"user_id"`
	Name        string `json:"name"`
}

// Session converts the auth payload into the session the client keeps
func (r AuthResult) Session() *Session {
	return &Session{
		Credential:  r.AccessToken,
		UserID:      r.UserID,
		DisplayName: r.Name,
	}
}

// JobRecord represents a job the scheduler found or applied to
type JobRecord struct {
	ID        int     `json:"id" yaml:"id"`
	Title     string  `json:"title" yaml:"title"`
	Company   string  `json:"company" yaml:"company"`
	Platform  string  `json:"platform" yaml:"platform"`
	Status    string  `json:"status" yaml:"status"`
	Link      string  `json:"link" yaml:"link"`
	AppliedOn *string `json:"applied_on" yaml:"applied_on,omitempty"` // nullable, YYYY-MM-DD
}

// JobList is the /jobs payload
type JobList struct {
	Jobs  []JobRecord `json:"jobs"`
	Total int         `json:"total"`
}

// StatsSnapshot is the /stats payload
type StatsSnapshot struct {
	TotalJobs  int    `json:"total_jobs"`
	SavedJobs  int    `json:"saved_jobs"`
	Keywords   string `json:"keywords"`
	Location   string `json:"location"`
	DailyLimit int    `json:"daily_limit,omitempty"`
}

// ScheduledJob is one entry of the backend scheduler
type ScheduledJob struct {
	ID          string  `json:"id,omitempty"`
	Name        string  `json:"name,omitempty"`
	NextRunTime *string `json:"next_run_time"`
}

// SchedulerStatus is the /scheduler/status payload
type SchedulerStatus struct {
	Running bool           `json:"running"`
	Jobs    []ScheduledJob `json:"jobs"`
}

// NextRun returns the first scheduled run time the backend reported, if any
func (s *SchedulerStatus) NextRun() (string, bool) {
	if s == nil || len(s.Jobs) == 0 || s.Jobs[0].NextRunTime == nil || *s.Jobs[0].NextRunTime == "" {
		return "", false
	}
	return *s.Jobs[0].NextRunTime, true
}

// UserSummary is one row of the /users roster
type UserSummary struct {
	ID             int     `json:"id"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	HasResume      bool    `json:"has_resume"`
	TelegramChatID *string `json:"telegram_chat_id"`
}

// UserList is the /users payload
type UserList struct {
	Total int           `json:"total"`
	Users []UserSummary `json:"users"`
}

// Ack is the generic acknowledgement returned by command endpoints
type Ack struct {
	OK      bool   `json:"ok,omitempty"`
	Message string `json:"message,omitempty"`
	Status  string `json:"status,omitempty"`
}

// Health is the /health payload
type Health struct {
	Status string `json:"status"`
}

// ParseNextRun parses the scheduler's timestamp format. The backend sends
// python's str(datetime), which may or may not carry a zone offset.
func ParseNextRun(s string) (time.Time, error) {
	layouts := []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05-07:00",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02 15:04:05",
	}
	var err error
	for _, layout := range layouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}
