package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pmore/portfolio/internal/contact"
	"github.com/pmore/portfolio/internal/portfolio"
)

// contactView is what contact.html renders.
type contactView struct {
	Values     map[string]string
	Errors     map[string]string
	State      string
	Submitting bool
	Submitted  bool
	GateReady  bool
	Notice     string

	Intro   string
	Success string
	Info    []portfolio.ContactItem
	Links   []portfolio.Link
}

func (s *site) contactView(sess *session, notice string) contactView {
	snap := sess.contact.Snapshot()
	if notice == "" {
		switch {
		case snap.GateError:
			notice = ContactGateNotice
		case snap.Failure != "":
			notice = ContactFailure
		}
	}

	values := make(map[string]string, 4)
	for _, f := range contact.Fields() {
		values[f.String()] = snap.Form.Value(f)
	}
	return contactView{
		Values:     values,
		Errors:     snap.Errors.ByName(),
		State:      snap.State.String(),
		Submitting: snap.State == contact.StateSubmitting,
		Submitted:  snap.State == contact.StateSubmitted,
		GateReady:  snap.GateReady,
		Notice:     notice,
		Intro:      ContactIntro,
		Success:    ContactSuccess,
		Info:       s.content.Profile.Contact,
		Links:      s.content.Profile.Links,
	}
}

// Contact form fragment
func (s *site) handleContactForm(c *gin.Context) {
	sess := s.sessions.get(c)
	c.HTML(http.StatusOK, "contact.html", s.contactView(sess, ""))
}

// handleContactField is the per-keystroke change handler. It returns only the
// inline error for that field so the input keeps focus.
func (s *site) handleContactField(c *gin.Context) {
	field, ok := contact.ParseField(c.Param("field"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown field"})
		return
	}
	sess := s.sessions.get(c)
	status := http.StatusOK
	if err := sess.contact.ChangeField(field, c.PostForm(field.String())); err != nil {
		// Busy: keep showing whatever error the field already had.
		status = http.StatusConflict
	}
	c.HTML(status, "contact-field-error.html", gin.H{
		"field": field.String(),
		"error": sess.contact.Snapshot().Errors.Get(field),
	})
}

// Handle contact form submission with HTMX
func (s *site) handleContactSubmit(c *gin.Context) {
	sess := s.sessions.get(c)

	// Posted values win over what the change handler saw, so the form also
	// works without script.
	if sess.contact.State() == contact.StateIdle {
		for _, f := range contact.Fields() {
			if v, ok := c.GetPostForm(f.String()); ok {
				if err := sess.contact.ChangeField(f, v); err != nil {
					break
				}
			}
		}
	}

	err := sess.contact.Submit(c.Request.Context())
	switch {
	case err == nil:
		s.recordContactEvent(c, "sent")
	case errors.Is(err, contact.ErrInvalid):
		s.recordContactEvent(c, "invalid")
	case errors.Is(err, contact.ErrGateClosed):
		s.recordContactEvent(c, "gate_closed")
	case errors.Is(err, contact.ErrSubmitting), errors.Is(err, contact.ErrSubmitted):
		// nothing new happened
	default:
		s.log.Warn().Err(err).Msg("contact delivery failed")
		s.recordContactEvent(c, "failed")
	}
	c.HTML(http.StatusOK, "contact.html", s.contactView(sess, ""))
}

// "Send another message"
func (s *site) handleContactReset(c *gin.Context) {
	sess := s.sessions.get(c)
	status := http.StatusOK
	if err := sess.contact.Reset(); err != nil {
		status = http.StatusConflict
	}
	c.HTML(status, "contact.html", s.contactView(sess, ""))
}

func (s *site) handleContactState(c *gin.Context) {
	sess := s.sessions.get(c)
	c.JSON(http.StatusOK, sess.contact.Snapshot())
}

func (s *site) contactRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiters.allow(s.hashIP(c.ClientIP())) {
			c.Next()
			return
		}
		s.recordContactEvent(c, "rate_limited")
		sess := s.sessions.get(c)
		c.HTML(http.StatusTooManyRequests, "contact.html", s.contactView(sess, ContactRateLimited))
		c.Abort()
	}
}

// recordContactEvent stores the outcome of a submit in the background. Only
// the hashed IP and the outcome are kept.
func (s *site) recordContactEvent(c *gin.Context, outcome string) {
	hashed := s.hashIP(c.ClientIP())
	now := time.Now().UTC()
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		_, err := s.db.Exec(
			`INSERT INTO contact_events (hashed_ip, outcome, timestamp) VALUES (?, ?, ?)`,
			hashed, outcome, now)
		if err != nil {
			s.log.Error().Err(err).Str("outcome", outcome).Msg("record contact event")
		}
	}()
}
