package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/dto"
	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/model"
)

// APIProjects lists published projects, filtered by ?category
func (ctl *Controller) APIProjects(c *gin.Context) {
	projects := ctl.svc.PublishedProjects()
	if category := strings.TrimSpace(c.Query("category")); category != "" {
		var filtered []model.Project
		for _, p := range projects {
			if strings.EqualFold(string(p.Category), category) {
				filtered = append(filtered, p)
			}
		}
		projects = filtered
	}

	ok(c, http.StatusOK, projects)
}

// APIBlogPosts lists published posts matching ?q
func (ctl *Controller) APIBlogPosts(c *gin.Context) {
	ok(c, http.StatusOK, ctl.svc.SearchPublishedBlogPosts(strings.TrimSpace(c.Query("q"))))
}

// APIBlogPost returns one post by slug or id and counts the view
func (ctl *Controller) APIBlogPost(c *gin.Context) {
	post, err := ctl.svc.ViewBlogPost(c.Request.Context(), sessionState(c), c.Param("slug"))
	if err != nil {
		ctl.abortWithError(c, err)
		return
	}

	ok(c, http.StatusOK, post)
}

// APISkills lists the skill groups
func (ctl *Controller) APISkills(c *gin.Context) {
	ok(c, http.StatusOK, ctl.svc.ListSkills())
}

// APIProfile returns the public profile
func (ctl *Controller) APIProfile(c *gin.Context) {
	ok(c, http.StatusOK, ctl.svc.Profile())
}

// APISettings returns the site settings
func (ctl *Controller) APISettings(c *gin.Context) {
	ok(c, http.StatusOK, ctl.svc.Settings())
}

// APIContact accepts a json contact form
func (ctl *Controller) APIContact(c *gin.Context) {
	var form dto.ContactForm
	if err := c.ShouldBindJSON(&form); err != nil {
		ctl.badRequest(c, err)
		return
	}

	if err := ctl.submitContact(c, form); err != nil {
		ctl.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"msg": msgContactSent})
}

func (ctl *Controller) submitContact(c *gin.Context, form dto.ContactForm) error {
	if ctl.opt.contact == nil {
		return errContactDisabled
	}
	if ctl.opt.throttle != nil && !ctl.opt.throttle.Allow(c.ClientIP()) {
		return errContactThrottled
	}

	return ctl.opt.contact.Submit(c.Request.Context(), form)
}
