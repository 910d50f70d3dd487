// admin.go - privacy-conscious admin: visitor and contact outcome stats
package main

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Privacy-conscious visitor tracking struct
type VisitorMetric struct {
	ID        int       `json:"id"`
	HashedIP  string    `json:"hashed_ip"` // Hashed instead of raw IP for privacy
	UserAgent string    `json:"user_agent"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

type ContactEvent struct {
	ID        int       `json:"id"`
	HashedIP  string    `json:"hashed_ip"`
	Outcome   string    `json:"outcome"`
	Timestamp time.Time `json:"timestamp"`
}

type OutcomeStat struct {
	Outcome string `json:"outcome"`
	Count   int64  `json:"count"`
}

type AdminStats struct {
	TotalVisitors    int64           `json:"total_visitors"`
	UniqueVisitors   int64           `json:"unique_visitors"`
	VisitorsToday    int64           `json:"visitors_today"`
	VisitorsThisWeek int64           `json:"visitors_this_week"`
	RecentVisitors   []VisitorMetric `json:"recent_visitors"`
	ContactOutcomes  []OutcomeStat   `json:"contact_outcomes"`
	MessagesSent     int64           `json:"messages_sent"`
	ActiveSessions   int             `json:"active_sessions"`
}

// Initialize admin system with privacy considerations
func (s *site) initAdminToken() {
	s.adminToken = generateAdminToken()
	s.hashingSalt = generateAdminToken() // Use for IP hashing

	s.log.Info().Msg("Admin access available at: /admin/login")
	if gin.Mode() == gin.DebugMode {
		s.log.Debug().Str("token", s.adminToken).Msg("admin token (dev only)")
	}
	s.log.Info().Msg("Privacy: visitor tracking enabled with hashed IP addresses")
}

func generateAdminToken() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		panic("generate admin token: " + err.Error())
	}
	return hex.EncodeToString(bytes)
}

// Hash IP address for privacy compliance (consistent per IP)
func (s *site) hashIP(ip string) string {
	hash := sha256.New()
	hash.Write([]byte(ip + s.hashingSalt))
	return hex.EncodeToString(hash.Sum(nil))[:16]
}

// Middleware to check admin authentication
func (s *site) adminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie("admin_token")
		if err != nil || subtle.ConstantTimeCompare([]byte(token), []byte(s.adminToken)) != 1 {
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

var untrackedPrefixes = []string{
	"/static/", "/admin/", "/favicon", "/privacy",
	"/contact", "/theme", "/sections/",
}

// Privacy-conscious visitor tracking middleware. Only page views are counted.
func (s *site) visitorTrackingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}
		for _, p := range untrackedPrefixes {
			if strings.HasPrefix(path, p) {
				c.Next()
				return
			}
		}

		// Respect Do Not Track header
		if c.GetHeader("DNT") == "1" {
			c.Next()
			return
		}

		hashed := s.hashIP(c.ClientIP())
		ua := c.GetHeader("User-Agent")
		s.bg.Add(1)
		go func() {
			defer s.bg.Done()
			s.trackVisitorPrivacy(hashed, ua, path)
		}()
		c.Next()
	}
}

func (s *site) trackVisitorPrivacy(hashedIP, userAgent, path string) {
	_, err := s.db.Exec(`
		INSERT INTO visitors (hashed_ip, user_agent, path, timestamp)
		VALUES (?, ?, ?, ?)
	`, hashedIP, userAgent, path, time.Now().UTC())
	if err != nil {
		s.log.Error().Err(err).Msg("record visitor")
	}
}

// Cleanup old visitor and contact data for privacy compliance
func (s *site) cleanupOldVisitorData() {
	cutoff := time.Now().UTC().Add(-s.cfg.VisitorRetention)
	for _, table := range []string{"visitors", "contact_events"} {
		result, err := s.db.Exec(`DELETE FROM `+table+` WHERE timestamp < ?`, cutoff)
		if err != nil {
			s.log.Error().Err(err).Str("table", table).Msg("privacy cleanup")
			continue
		}
		if n, _ := result.RowsAffected(); n > 0 {
			s.log.Info().Int64("rows", n).Str("table", table).Msg("privacy cleanup removed old records")
		}
	}
}

// Get comprehensive admin statistics
func (s *site) getAdminStats() (*AdminStats, error) {
	stats := &AdminStats{ActiveSessions: s.sessions.cache.Len()}
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	counts := []struct {
		dst   *int64
		query string
		args  []any
	}{
		{&stats.TotalVisitors, `SELECT COUNT(*) FROM visitors`, nil},
		{&stats.UniqueVisitors, `SELECT COUNT(DISTINCT hashed_ip) FROM visitors`, nil},
		{&stats.VisitorsToday, `SELECT COUNT(*) FROM visitors WHERE timestamp >= ?`, []any{today}},
		{&stats.VisitorsThisWeek, `SELECT COUNT(*) FROM visitors WHERE timestamp >= ?`, []any{now.Add(-7 * 24 * time.Hour)}},
		{&stats.MessagesSent, `SELECT COUNT(*) FROM contact_events WHERE outcome = 'sent'`, nil},
	}
	for _, q := range counts {
		if err := s.db.QueryRow(q.query, q.args...).Scan(q.dst); err != nil {
			return nil, err
		}
	}

	rows, err := s.db.Query(`
		SELECT outcome, COUNT(*) FROM contact_events
		GROUP BY outcome
		ORDER BY COUNT(*) DESC, outcome
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var o OutcomeStat
		if err := rows.Scan(&o.Outcome, &o.Count); err != nil {
			continue
		}
		stats.ContactOutcomes = append(stats.ContactOutcomes, o)
	}

	stats.RecentVisitors, err = s.recentVisitors(50)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *site) recentVisitors(limit int) ([]VisitorMetric, error) {
	rows, err := s.db.Query(`
		SELECT id, hashed_ip, user_agent, path, timestamp
		FROM visitors
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var visitors []VisitorMetric
	for rows.Next() {
		var v VisitorMetric
		if err := rows.Scan(&v.ID, &v.HashedIP, &v.UserAgent, &v.Path, &v.Timestamp); err != nil {
			continue
		}
		visitors = append(visitors, v)
	}
	return visitors, rows.Err()
}

func (s *site) recentContactEvents(limit int) ([]ContactEvent, error) {
	rows, err := s.db.Query(`
		SELECT id, hashed_ip, outcome, timestamp
		FROM contact_events
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []ContactEvent
	for rows.Next() {
		var e ContactEvent
		if err := rows.Scan(&e.ID, &e.HashedIP, &e.Outcome, &e.Timestamp); err != nil {
			continue
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// adminCredentials falls back to development defaults only in debug mode.
func (s *site) adminCredentials() (string, string, bool) {
	user, pass := s.cfg.AdminUsername, s.cfg.AdminPassword
	if user != "" && pass != "" {
		return user, pass, true
	}
	if gin.Mode() != gin.DebugMode {
		return "", "", false
	}
	s.log.Warn().Msg("Using default admin credentials. Set ADMIN_USERNAME and ADMIN_PASSWORD.")
	if user == "" {
		user = "admin"
	}
	if pass == "" {
		pass = "admin123"
	}
	return user, pass, true
}

// Setup all admin routes
func (s *site) setupAdminRoutes(r *gin.Engine) {
	// Privacy policy route
	r.GET("/privacy", func(c *gin.Context) {
		c.HTML(http.StatusOK, "privacy.html", gin.H{
			"title": "Privacy Policy",
		})
	})

	// Admin login page
	r.GET("/admin/login", func(c *gin.Context) {
		c.HTML(http.StatusOK, "admin-login.html", gin.H{
			"title": "Admin Login",
		})
	})

	// Admin login handler
	r.POST("/admin/login", func(c *gin.Context) {
		username := c.PostForm("username")
		password := c.PostForm("password")

		wantUser, wantPass, ok := s.adminCredentials()
		if ok &&
			subtle.ConstantTimeCompare([]byte(username), []byte(wantUser)) == 1 &&
			subtle.ConstantTimeCompare([]byte(password), []byte(wantPass)) == 1 {
			// Set secure cookie (24 hours)
			c.SetCookie("admin_token", s.adminToken, 3600*24, "/admin", "", false, true)
			s.log.Info().Str("from", s.hashIP(c.ClientIP())).Msg("admin login successful")
			c.Redirect(http.StatusFound, "/admin/dashboard")
			return
		}

		s.log.Warn().Str("from", s.hashIP(c.ClientIP())).Msg("failed admin login attempt")
		c.HTML(http.StatusUnauthorized, "admin-login.html", gin.H{
			"title": "Admin Login",
			"error": "Invalid credentials",
		})
	})

	// Admin logout
	r.GET("/admin/logout", func(c *gin.Context) {
		c.SetCookie("admin_token", "", -1, "/admin", "", false, true)
		s.log.Info().Str("from", s.hashIP(c.ClientIP())).Msg("admin logout")
		c.Redirect(http.StatusFound, "/admin/login")
	})

	// Protected admin routes group
	adminGroup := r.Group("/admin")
	adminGroup.Use(s.adminAuthMiddleware())

	adminGroup.GET("/dashboard", func(c *gin.Context) {
		stats, err := s.getAdminStats()
		if err != nil {
			s.log.Error().Err(err).Msg("load admin stats")
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{
				"error": "Failed to load statistics",
			})
			return
		}
		c.HTML(http.StatusOK, "admin-dashboard.html", gin.H{
			"stats": stats,
		})
	})

	// Admin API endpoints for HTMX/AJAX
	adminGroup.GET("/api/stats", func(c *gin.Context) {
		stats, err := s.getAdminStats()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	adminGroup.GET("/visitors", func(c *gin.Context) {
		visitors, err := s.recentVisitors(200)
		if err != nil {
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{
				"error": "Failed to load visitors",
			})
			return
		}
		c.HTML(http.StatusOK, "admin-visitors.html", gin.H{
			"visitors": visitors,
		})
	})

	adminGroup.GET("/contacts", func(c *gin.Context) {
		events, err := s.recentContactEvents(200)
		if err != nil {
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{
				"error": "Failed to load contact activity",
			})
			return
		}
		c.HTML(http.StatusOK, "admin-contacts.html", gin.H{
			"events": events,
		})
	})

	// Privacy compliance endpoint
	adminGroup.POST("/privacy/delete-visitor-data", func(c *gin.Context) {
		s.bg.Add(1)
		go func() {
			defer s.bg.Done()
			s.cleanupOldVisitorData()
		}()
		c.JSON(http.StatusOK, gin.H{"message": "Privacy cleanup initiated"})
	})

	// Admin statistics export (for backups or analysis)
	adminGroup.GET("/export/stats", func(c *gin.Context) {
		stats, err := s.getAdminStats()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.Header("Content-Disposition", "attachment; filename=admin-stats.json")
		s.log.Info().Str("by", s.hashIP(c.ClientIP())).Msg("admin stats exported")
		c.JSON(http.StatusOK, stats)
	})
}
