// Package apitest runs an in-process DevApply backend for tests. It follows
// the REST contract of the real service closely enough to exercise the client
// end to end, and lets tests inject failures and inspect what was sent.
package apitest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/khrees2412/devapply/pkg/models"
)

const maxResumeSize = 5 * 1024 * 1024

var allowedResumeTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// Failure makes a route answer with Status. Detail, when set, is sent as
// {"detail": ...}; otherwise Raw is sent verbatim.
type Failure struct {
	Status int
	Detail string
	Raw    string
	Times  int // 0 means every call
}

// Upload records a received resume
type Upload struct {
	UserID      int
	Filename    string
	ContentType string
	Size        int
}

type user struct {
	id             int
	name           string
	email          string
	password       string
	resume         bool
	telegramChatID *string
}

type Server struct {
	*httptest.Server

	mu          sync.Mutex
	users       []*user
	tokens      map[string]int
	jobs        map[int][]models.JobRecord
	stats       map[int]models.StatsSnapshot
	running     bool
	nextRunTime *string
	runNowCount int
	uploads     []Upload
	failures    map[string]*Failure
	delays      map[string]time.Duration
	hits        map[string]int
	auth        map[string]string
}

// New starts a backend with the scheduler running and no users
func New() *Server {
	next := "2026-10-20 08:00:00+00:00"
	s := &Server{
		tokens:      map[string]int{},
		jobs:        map[int][]models.JobRecord{},
		stats:       map[int]models.StatsSnapshot{},
		running:     true,
		nextRunTime: &next,
		failures:    map[string]*Failure{},
		delays:      map[string]time.Duration{},
		hits:        map[string]int{},
		auth:        map[string]string{},
	}

	r := mux.NewRouter()
	r.Use(s.instrument)
	r.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/users", s.handleUsers).Methods(http.MethodGet)
	r.HandleFunc("/upload_resume", s.handleUpload).Methods(http.MethodPost)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/jobs", s.handleJobs).Methods(http.MethodGet)
	r.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/scheduler/status", s.handleSchedulerStatus).Methods(http.MethodGet)
	r.HandleFunc("/scheduler/stop", s.handleSchedulerStop).Methods(http.MethodPost)
	r.HandleFunc("/scheduler/start", s.handleSchedulerStart).Methods(http.MethodPost)
	r.HandleFunc("/scheduler/run-now", s.handleRunNow).Methods(http.MethodPost)

	s.Server = httptest.NewServer(r)
	return s
}

// route is the key used by Fail, Delay, Hits and Authorization, e.g. "GET /stats"
func route(r *http.Request) string {
	return r.Method + " " + r.URL.Path
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := route(r)

		s.mu.Lock()
		s.hits[key]++
		s.auth[key] = r.Header.Get("Authorization")
		delay := s.delays[key]
		var failure *Failure
		if f, ok := s.failures[key]; ok {
			copied := *f
			failure = &copied
			if f.Times > 0 {
				f.Times--
				if f.Times == 0 {
					delete(s.failures, key)
				}
			}
		}
		s.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}

		if failure != nil {
			if failure.Detail != "" {
				writeJSON(w, failure.Status, map[string]string{"detail": failure.Detail})
			} else {
				w.WriteHeader(failure.Status)
				_, _ = io.WriteString(w, failure.Raw)
			}
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Fail injects a failure for route, e.g. s.Fail("GET /stats", apitest.Failure{Status: 500})
func (s *Server) Fail(route string, f Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = &f
}

// Delay holds every response on route for d
func (s *Server) Delay(route string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[route] = d
}

// Hits reports how many requests reached route
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// TotalHits counts every request received
func (s *Server) TotalHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, h := range s.hits {
		n += h
	}
	return n
}

// Authorization returns the Authorization header of the last request on route
func (s *Server) Authorization(route string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.auth[route]
}

// AddUser registers a user directly and returns an issued token
func (s *Server) AddUser(name, email, password string) (string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.addUserLocked(name, email, password)
	return s.issueTokenLocked(u.id), u.id
}

// SetTelegram links a chat id to a user
func (s *Server) SetTelegram(userID int, chatID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.id == userID {
			u.telegramChatID = &chatID
		}
	}
}

func (s *Server) SetJobs(userID int, jobs []models.JobRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[userID] = jobs
}

func (s *Server) SetStats(userID int, stats models.StatsSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats[userID] = stats
}

// SetScheduler sets the running flag and the next run time (nil for none)
func (s *Server) SetScheduler(running bool, nextRunTime *string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = running
	s.nextRunTime = nextRunTime
}

func (s *Server) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Server) RunNowCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runNowCount
}

func (s *Server) Uploads() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.uploads)
}

func (s *Server) addUserLocked(name, email, password string) *user {
	u := &user{id: len(s.users) + 1, name: name, email: email, password: password}
	s.users = append(s.users, u)
	return u
}

func (s *Server) issueTokenLocked(userID int) string {
	token := fmt.Sprintf("token-%d-%d", userID, len(s.tokens)+1)
	s.tokens[token] = userID
	return token
}

func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (int, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		writeDetail(w, http.StatusUnauthorized, "Authorization header missing")
		return 0, false
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		writeDetail(w, http.StatusUnauthorized, "Invalid authorization scheme")
		return 0, false
	}
	s.mu.Lock()
	userID, ok := s.tokens[token]
	s.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Invalid or expired token")
		return 0, false
	}
	return userID, true
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": []string{"invalid body"}})
		return
	}
	if len([]rune(req.Password)) < 6 {
		writeDetail(w, http.StatusBadRequest, "Password must be at least 6 characters long")
		return
	}
	if len(req.Password) > 72 {
		writeDetail(w, http.StatusBadRequest, "Password cannot be longer than 72 characters")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.email == req.Email {
			writeDetail(w, http.StatusBadRequest, "Email already registered. Please login instead.")
			return
		}
	}
	u := s.addUserLocked(req.Name, req.Email, req.Password)
	writeJSON(w, http.StatusOK, models.AuthResult{
		AccessToken: s.issueTokenLocked(u.id),
		TokenType:   "bearer",
		UserID:      u.id,
		Name:        u.name,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": []string{"invalid body"}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.email == req.Email && u.password == req.Password {
			writeJSON(w, http.StatusOK, models.AuthResult{
				AccessToken: s.issueTokenLocked(u.id),
				TokenType:   "bearer",
				UserID:      u.id,
				Name:        u.name,
			})
			return
		}
	}
	writeDetail(w, http.StatusUnauthorized, "Invalid email or password")
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := models.UserList{Total: len(s.users), Users: []models.UserSummary{}}
	for _, u := range s.users {
		out.Users = append(out.Users, models.UserSummary{
			ID:             u.id,
			Name:           u.name,
			Email:          u.email,
			HasResume:      u.resume,
			TelegramChatID: u.telegramChatID,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(2 * maxResumeSize); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid multipart body")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": []string{"file required"}})
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !slices.Contains(allowedResumeTypes, contentType) {
		writeDetail(w, http.StatusBadRequest, "Invalid file type. Only PDF and Word documents are allowed.")
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Upload failed: "+err.Error())
		return
	}
	if len(data) > maxResumeSize {
		writeDetail(w, http.StatusBadRequest, "File size exceeds 5MB limit")
		return
	}

	s.mu.Lock()
	for _, u := range s.users {
		if u.id == userID {
			u.resume = true
		}
	}
	s.uploads = append(s.uploads, Upload{UserID: userID, Filename: header.Filename, ContentType: contentType, Size: len(data)})
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, models.Ack{OK: true, Message: "Resume uploaded successfully"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.Health{Status: "ok"})
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": []string{"limit must be an integer"}})
			return
		}
		limit = n
	}

	s.mu.Lock()
	jobs := slices.Clone(s.jobs[userID])
	s.mu.Unlock()

	if jobs == nil {
		jobs = []models.JobRecord{}
	}
	if limit >= 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	writeJSON(w, http.StatusOK, models.JobList{Jobs: jobs, Total: len(jobs)})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	stats, found := s.stats[userID]
	total := len(s.jobs[userID])
	s.mu.Unlock()

	if !found {
		stats = models.StatsSnapshot{TotalJobs: total, Keywords: "DevOps", Location: "Bangalore", DailyLimit: 50}
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleSchedulerStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status := models.SchedulerStatus{Running: s.running, Jobs: []models.ScheduledJob{}}
	if s.running {
		status.Jobs = append(status.Jobs, models.ScheduledJob{ID: "daily_scrape", Name: "run_all", NextRunTime: s.nextRunTime})
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleSchedulerStop(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		writeJSON(w, http.StatusOK, models.Ack{Message: "Scheduler is already stopped", Status: "stopped"})
		return
	}
	s.running = false
	writeJSON(w, http.StatusOK, models.Ack{Message: "Scheduler stopped", Status: "stopped"})
}

func (s *Server) handleSchedulerStart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		writeJSON(w, http.StatusOK, models.Ack{Message: "Scheduler is already running", Status: "running"})
		return
	}
	s.running = true
	writeJSON(w, http.StatusOK, models.Ack{Message: "Scheduler started", Status: "running"})
}

func (s *Server) handleRunNow(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runNowCount++
	writeJSON(w, http.StatusOK, models.Ack{Message: "Job scraping completed", Status: "success"})
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
