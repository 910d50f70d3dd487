package main

import (
	"database/sql"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pmore/portfolio/internal/contact"
	"github.com/pmore/portfolio/internal/nav"
	"github.com/pmore/portfolio/internal/portfolio"
)

const themeCookie = "theme"

type site struct {
	cfg      config
	db       *sql.DB
	log      zerolog.Logger
	content  *portfolio.Portfolio
	sessions *sessionStore
	limiters *rateLimiters

	adminToken  string
	hashingSalt string

	// background database writes
	bg sync.WaitGroup
}

func main() {
	cfg := loadConfig()
	log := newLogger(cfg.LogLevel)

	s, err := newSite(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	defer s.close()

	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		s.cleanupOldVisitorData()
	}()

	r := s.routes()
	log.Info().Str("port", cfg.Port).Msg("portfolio listening")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Error().Err(err).Msg("server stopped")
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if gin.Mode() == gin.DebugMode {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
			Level(lvl).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}

func newSite(cfg config, log zerolog.Logger) (*site, error) {
	content, err := portfolio.Load(cfg.ContentPath)
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}
	db, err := openDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	s := &site{
		cfg:     cfg,
		db:      db,
		log:     log,
		content: content,
	}
	s.sessions = newSessionStore(cfg.MaxSessions, cfg.SessionTTL, s.contactOptions,
		log.With().Str("component", "sessions").Logger())
	s.limiters = newRateLimiters(cfg.ContactPerMinute, cfg.ContactBurst)
	s.initAdminToken()
	return s, nil
}

// contactOptions configures every new per-session contact controller.
func (s *site) contactOptions() []contact.Option {
	l := s.log.With().Str("component", "contact").Logger()
	return []contact.Option{
		contact.WithGateDelay(s.cfg.GateDelay),
		contact.WithSubmitTimeout(s.cfg.SubmitTimeout),
		contact.WithLogger(l),
		contact.WithSender(contact.NewSimulatedSender(s.cfg.SubmitLatency, contact.SystemClock{}, l)),
	}
}

func (s *site) close() {
	s.bg.Wait()
	s.sessions.purge()
	if err := s.db.Close(); err != nil {
		s.log.Error().Err(err).Msg("close database")
	}
}

func (s *site) routes() *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(s.log), gin.Recovery())
	r.SetFuncMap(template.FuncMap{
		// content links come from our own YAML and include tel: and mailto:
		"safeURL": func(u string) template.URL { return template.URL(u) },
	})
	r.LoadHTMLGlob("templates/*")

	r.Static("/static", "./static")

	r.Use(s.visitorTrackingMiddleware())

	// Home page route
	r.GET("/", s.handleIndex)

	// HTMX contact endpoints
	r.GET("/contact-form", s.handleContactForm)
	r.POST("/contact/field/:field", s.handleContactField)
	r.POST("/contact", s.contactRateLimit(), s.handleContactSubmit)
	r.POST("/contact/reset", s.handleContactReset)
	r.GET("/contact/state", s.handleContactState)

	r.POST("/theme", s.handleTheme)
	r.POST("/sections/visibility", s.handleSectionVisibility)

	s.setupAdminRoutes(r)
	return r
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

func themeFrom(c *gin.Context) nav.Theme {
	v, _ := c.Cookie(themeCookie)
	return nav.ParseTheme(v)
}

func (s *site) handleIndex(c *gin.Context) {
	sess := s.sessions.get(c)
	theme := themeFrom(c)
	c.HTML(http.StatusOK, "index.html", gin.H{
		"dark":    theme.Dark(),
		"nav":     sess.nav.Items(),
		"p":       s.content,
		"contact": s.contactView(sess, ""),
		"intro": gin.H{
			"skills":     SkillsIntro,
			"experience": ExperienceIntro,
			"projects":   ProjectsIntro,
			"education":  EducationIntro,
		},
	})
}

// handleTheme flips the theme cookie. Script callers get JSON, plain form
// posts are redirected back to the page.
func (s *site) handleTheme(c *gin.Context) {
	theme := themeFrom(c).Toggle()
	c.SetCookie(themeCookie, theme.String(), 365*24*3600, "/", "", false, false)

	if c.NegotiateFormat(gin.MIMEJSON, gin.MIMEHTML) == gin.MIMEJSON {
		c.JSON(http.StatusOK, gin.H{"theme": theme})
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// handleSectionVisibility receives visibility reports from the page script
// and returns the re-rendered nav bar.
func (s *site) handleSectionVisibility(c *gin.Context) {
	visible, err := strconv.ParseBool(c.PostForm("visible"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "visible must be true or false"})
		return
	}
	sess := s.sessions.get(c)
	if err := sess.nav.Report(c.PostForm("id"), visible); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.HTML(http.StatusOK, "nav.html", gin.H{
		"nav": sess.nav.Items(),
	})
}
