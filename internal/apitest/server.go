// Package apitest provides an in-memory timesheet API and identity provider
// for tests.
package apitest

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Tiliavir/punch/internal/model"
)

const (
	// Token is the access token the fake accepts and the device flow issues.
	Token = "test-access-token"
	// DeviceCode and UserCode are the device-flow codes the fake hands out.
	DeviceCode = "device-code-123"
	UserCode   = "WDJB-MJHT"
	// TimestampLayout is the timestamp format the fake writes.
	TimestampLayout = "2006-01-02T15:04:05.000Z"

	signingKey = "apitest-signing-key"
)

// PDFFixture is the export the fake serves for pdf requests.
var PDFFixture = []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj<</Type/Catalog>>endobj\n%%EOF\n")

// Request is one request the fake received.
type Request struct {
	Method        string
	Path          string
	RequestID     string
	Authorization string
}

type exportReply struct {
	contentType string
	body        []byte
}

// Server is the fake. All setters are safe for concurrent use with requests.
type Server struct {
	URL string
	srv *httptest.Server

	mu          sync.Mutex
	state       model.ClockState
	events      []model.ClockEvent
	grouped     bool
	useTSKey    bool
	authConfig  *model.AuthConfig
	authDelay   time.Duration
	authFails   int
	authCalls   int
	export      *exportReply
	reject      bool
	statusDelay time.Duration
	pending     int
	userInfoErr bool
	requests    []Request
	updates     []model.EntryUpdate
	user        model.User
}

// New starts a fake and closes it when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := &Server{
		state: model.StateOut,
		user: model.User{
			Subject:  "auth0|42",
			Email:    "ada@example.org",
			Name:     "Ada Lovelace",
			Nickname: "ada",
		},
	}
	r := gin.New()
	r.Use(s.record)

	r.GET("/auth", s.getAuth)
	r.POST("/oauth/device/code", s.deviceCode)
	r.POST("/oauth/token", s.token)

	authed := r.Group("/", s.requireToken)
	authed.GET("/userinfo", s.userInfo)
	authed.GET("/status", s.getStatus)
	authed.POST("/clock", s.postClock)
	authed.GET("/timesheets", s.getTimesheets)
	authed.PUT("/timesheets", s.putTimesheet)
	authed.DELETE("/timesheets", s.deleteTimesheet)
	authed.POST("/export", s.postExport)

	s.srv = httptest.NewServer(r)
	s.URL = s.srv.URL
	t.Cleanup(s.srv.Close)
	return s
}

// AuthConfig is what GET /auth serves unless overridden; the provider domain
// points back at the fake.
func (s *Server) AuthConfig() model.AuthConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.authConfig != nil {
		return *s.authConfig
	}
	return model.AuthConfig{
		Domain:   s.URL,
		ClientID: "punch-cli",
		Audience: "https://api.punch.test",
		Scope:    "openid profile email",
	}
}

func (s *Server) SetAuthConfig(cfg model.AuthConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authConfig = &cfg
}

// SetAuthDelay makes GET /auth wait before answering.
func (s *Server) SetAuthDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authDelay = d
}

// FailAuth makes the next n GET /auth calls answer 500.
func (s *Server) FailAuth(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authFails = n
}

func (s *Server) AuthCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authCalls
}

func (s *Server) SetState(st model.ClockState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
}

// SetStatusDelay makes GET /status wait before answering.
func (s *Server) SetStatusDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusDelay = d
}

// SetEvents replaces the stored events.
func (s *Server) SetEvents(events ...model.ClockEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append([]model.ClockEvent(nil), events...)
}

func (s *Server) Events() []model.ClockEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ClockEvent(nil), s.events...)
}

// SetGrouped switches GET /timesheets to the per-day response shape.
func (s *Server) SetGrouped(grouped bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grouped = grouped
}

// SetTimesheetsKey makes GET /timesheets answer under "timesheets" instead
// of "entries".
func (s *Server) SetTimesheetsKey(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.useTSKey = on
}

// SetExport overrides the POST /export reply.
func (s *Server) SetExport(contentType string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.export = &exportReply{contentType: contentType, body: body}
}

// Reject makes every authenticated endpoint answer 401.
func (s *Server) Reject() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reject = true
}

// SetPending makes the token endpoint answer authorization_pending n times.
func (s *Server) SetPending(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = n
}

// FailUserInfo makes GET /userinfo answer 500.
func (s *Server) FailUserInfo() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userInfoErr = true
}

func (s *Server) User() model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns how many requests hit method and path.
func (s *Server) Count(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func (s *Server) Updates() []model.EntryUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.EntryUpdate(nil), s.updates...)
}

// IDToken returns a signed id token for the fake's user.
func (s *Server) IDToken() string {
	u := s.User()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss":      s.URL + "/",
		"sub":      u.Subject,
		"email":    u.Email,
		"name":     u.Name,
		"nickname": u.Nickname,
		"iat":      time.Now().Unix(),
		"exp":      time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte(signingKey))
	if err != nil {
		panic(err)
	}
	return signed
}

func (s *Server) record(c *gin.Context) {
	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method:        c.Request.Method,
		Path:          c.Request.URL.Path,
		RequestID:     c.GetHeader("X-Request-ID"),
		Authorization: c.GetHeader("Authorization"),
	})
	s.mu.Unlock()
	c.Next()
}

func (s *Server) requireToken(c *gin.Context) {
	s.mu.Lock()
	reject := s.reject
	s.mu.Unlock()
	if reject || c.GetHeader("Authorization") != "Bearer "+Token {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}
	c.Next()
}

func (s *Server) getAuth(c *gin.Context) {
	s.mu.Lock()
	s.authCalls++
	delay := s.authDelay
	fail := s.authFails > 0
	if fail {
		s.authFails--
	}
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-c.Request.Context().Done():
			return
		}
	}
	if fail {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upstream unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"auth0": s.AuthConfig()})
}

func (s *Server) deviceCode(c *gin.Context) {
	if c.PostForm("client_id") == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_client"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"device_code":               DeviceCode,
		"user_code":                 UserCode,
		"verification_uri":          s.URL + "/activate",
		"verification_uri_complete": s.URL + "/activate?user_code=" + UserCode,
		"expires_in":                300,
		"interval":                  1,
	})
}

func (s *Server) token(c *gin.Context) {
	if c.PostForm("device_code") != DeviceCode {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_grant"})
		return
	}
	s.mu.Lock()
	pending := s.pending > 0
	if pending {
		s.pending--
	}
	s.mu.Unlock()
	if pending {
		c.JSON(http.StatusForbidden, gin.H{"error": "authorization_pending"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token": Token,
		"id_token":     s.IDToken(),
		"token_type":   "Bearer",
		"expires_in":   3600,
		"scope":        c.PostForm("scope"),
	})
}

func (s *Server) userInfo(c *gin.Context) {
	s.mu.Lock()
	fail := s.userInfoErr
	u := s.user
	s.mu.Unlock()
	if fail {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "userinfo unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sub":      u.Subject,
		"email":    u.Email,
		"name":     u.Name,
		"nickname": u.Nickname,
	})
}

func (s *Server) getStatus(c *gin.Context) {
	s.mu.Lock()
	st := s.state
	delay := s.statusDelay
	s.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-c.Request.Context().Done():
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": st})
}

func (s *Server) postClock(c *gin.Context) {
	var req model.ClockAction
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.Action != model.StateIn && req.Action != model.StateOut {
		c.JSON(http.StatusBadRequest, gin.H{"error": "action must be in or out"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if req.Action == s.state {
		c.JSON(http.StatusConflict, gin.H{"message": "already clocked " + string(req.Action)})
		return
	}
	now := time.Now().UTC()
	ev := model.ClockEvent{
		Timestamp: now.Format(TimestampLayout),
		Date:      now.Format("2006-01-02"),
		At:        now,
	}
	if req.Action == model.StateIn {
		ev.Type = model.ClockIn
	} else {
		ev.Type = model.ClockOut
		for i := len(s.events) - 1; i >= 0; i-- {
			if s.events[i].Type == model.ClockIn {
				h := now.Sub(s.eventTime(i)).Hours()
				ev.Hours = &h
				ev.ClockInTimestamp = s.events[i].Timestamp
				break
			}
		}
	}
	s.events = append(s.events, ev)
	s.state = req.Action
	c.JSON(http.StatusOK, gin.H{"message": "ok", "timestamp": ev.Timestamp})
}

func (s *Server) eventTime(i int) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, s.events[i].Timestamp); err == nil {
		return t
	}
	return s.events[i].At
}

func (s *Server) getTimesheets(c *gin.Context) {
	from, to := c.Query("start_date"), c.Query("end_date")

	s.mu.Lock()
	var in []model.ClockEvent
	for _, ev := range s.events {
		d := ev.Day()
		if (from == "" || d >= from) && (to == "" || d <= to) {
			in = append(in, ev)
		}
	}
	grouped, key := s.grouped, "entries"
	if s.useTSKey {
		key = "timesheets"
	}
	s.mu.Unlock()

	if !grouped {
		if in == nil {
			in = []model.ClockEvent{}
		}
		c.JSON(http.StatusOK, gin.H{key: in})
		return
	}

	byDate := map[string]*model.DayGroup{}
	var dates []string
	for _, ev := range in {
		d := ev.Day()
		g, ok := byDate[d]
		if !ok {
			g = &model.DayGroup{Date: d, TotalHours: new(float64)}
			byDate[d] = g
			dates = append(dates, d)
		}
		ev.Date = ""
		g.Entries = append(g.Entries, ev)
		*g.TotalHours += ev.ServerHours()
	}
	sort.Strings(dates)
	groups := make([]model.DayGroup, 0, len(dates))
	for _, d := range dates {
		groups = append(groups, *byDate[d])
	}
	c.JSON(http.StatusOK, gin.H{key: groups})
}

func (s *Server) putTimesheet(c *gin.Context) {
	var upd model.EntryUpdate
	if err := c.ShouldBindJSON(&upd); err != nil || upd.Timestamp == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "timestamp is required"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, ev := range s.events {
		if ev.Timestamp != upd.Timestamp {
			continue
		}
		if upd.Hours != nil {
			h := *upd.Hours
			s.events[i].Hours = &h
		}
		s.updates = append(s.updates, upd)
		c.JSON(http.StatusOK, gin.H{"message": "updated"})
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
}

func (s *Server) deleteTimesheet(c *gin.Context) {
	var req model.EntryDelete
	if err := c.ShouldBindJSON(&req); err != nil || req.Timestamp == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "timestamp is required"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, ev := range s.events {
		if ev.Timestamp == req.Timestamp {
			s.events = append(s.events[:i], s.events[i+1:]...)
			c.JSON(http.StatusOK, gin.H{"message": "deleted"})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
}

func (s *Server) postExport(c *gin.Context) {
	var req model.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	s.mu.Lock()
	override := s.export
	s.mu.Unlock()

	if override != nil {
		c.Data(http.StatusOK, override.contentType, override.body)
		return
	}
	switch req.Format {
	case model.ExportPDF:
		c.JSON(http.StatusOK, gin.H{
			"statusCode":      200,
			"body":            base64.StdEncoding.EncodeToString(PDFFixture),
			"isBase64Encoded": true,
		})
	case model.ExportCSV:
		c.JSON(http.StatusOK, gin.H{
			"statusCode": 200,
			"body":       "date,clock_in,clock_out,hours\n" + req.StartDate + ",09:00,17:00,8.00\n",
		})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported format"})
	}
}
