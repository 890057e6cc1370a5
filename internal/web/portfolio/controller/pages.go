package controller

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/Laisky/errors/v2"
	gutils "github.com/Laisky/go-utils/v6"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/Laisky/laisky-portfolio/internal/web/contact"
	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/dto"
	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/model"
	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/service"
	"github.com/Laisky/laisky-portfolio/internal/web/render"
	"github.com/Laisky/laisky-portfolio/internal/web/session"
)

const (
	homeProjectsLimit = 3
	homePostsLimit    = 3
	relatedPostsLimit = 2

	msgContactSent   = "Message sent! Thank you for your message. I'll get back to you soon."
	msgContactFailed = "There was a problem sending your message. Please try again."
)

type homeBody struct {
	Skills   []model.Skill
	Projects []model.Project
	Posts    []model.BlogPost
}

type projectsBody struct {
	Categories []model.ProjectCategory
	Category   string
	Projects   []model.Project
}

type blogBody struct {
	Query string
	Posts []model.BlogPost
}

type postBody struct {
	model.BlogPost
	Related []model.BlogPost
}

// sessionState returns the request session as the service sees it,
// nil when the request has none
func sessionState(c *gin.Context) service.SessionState {
	if sess := session.FromContext(c); sess != nil {
		return sess
	}
	return nil
}

func (ctl *Controller) page(c *gin.Context, title string, body any) render.Page {
	return render.Page{
		Title:   title,
		Path:    c.Request.URL.Path,
		Site:    ctl.svc.Settings(),
		Profile: ctl.svc.Profile(),
		Loading: ctl.svc.Store().IsLoading(),
		Year:    gutils.Clock.GetUTCNow().Year(),
		Body:    body,
	}
}

func (ctl *Controller) renderPage(c *gin.Context, status int, name string, p render.Page) {
	var buf bytes.Buffer
	if err := ctl.pages.Render(&buf, name, p); err != nil {
		ctl.logFromCtx(c).Error("render page", zap.String("page", name), zap.Error(err))
		c.String(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func (ctl *Controller) notFound(c *gin.Context, msg, back string) {
	p := ctl.page(c, "Not found", msg)
	p.Back = back
	ctl.renderPage(c, http.StatusNotFound, "notfound", p)
}

// waitLoaded shows the loading page until the content store is hydrated
func (ctl *Controller) waitLoaded(c *gin.Context) {
	if !ctl.svc.Store().IsLoading() {
		c.Next()
		return
	}

	c.Header("Cache-Control", "no-store")
	ctl.renderPage(c, http.StatusOK, "loading", ctl.page(c, "Loading", nil))
	c.Abort()
}

// countPageView counts the first page of every session
func (ctl *Controller) countPageView(c *gin.Context) {
	if c.Request.Method == http.MethodGet {
		if _, err := ctl.svc.CountPageView(c.Request.Context(), sessionState(c)); err != nil {
			ctl.logFromCtx(c).Warn("count page view", zap.Error(err))
		}
	}
	c.Next()
}

// HomePage renders the landing page
func (ctl *Controller) HomePage(c *gin.Context) {
	projects := ctl.svc.PublishedProjects()
	posts := ctl.svc.PublishedBlogPosts()
	ctl.renderPage(c, http.StatusOK, "home", ctl.page(c, "", homeBody{
		Skills:   ctl.svc.ListSkills(),
		Projects: projects[:min(len(projects), homeProjectsLimit)],
		Posts:    posts[:min(len(posts), homePostsLimit)],
	}))
}

// ProjectsPage renders published projects, optionally of one category
func (ctl *Controller) ProjectsPage(c *gin.Context) {
	category := strings.TrimSpace(c.Query("category"))
	projects := ctl.svc.PublishedProjects()
	if category != "" {
		var filtered []model.Project
		for _, p := range projects {
			if strings.EqualFold(string(p.Category), category) {
				filtered = append(filtered, p)
			}
		}
		projects = filtered
	}

	ctl.renderPage(c, http.StatusOK, "projects", ctl.page(c, "Projects", projectsBody{
		Categories: model.ProjectCategories,
		Category:   category,
		Projects:   projects,
	}))
}

// BlogPage renders published posts matching ?q
func (ctl *Controller) BlogPage(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	ctl.renderPage(c, http.StatusOK, "blog", ctl.page(c, "Blog", blogBody{
		Query: q,
		Posts: ctl.svc.SearchPublishedBlogPosts(q),
	}))
}

// PostPage renders one post by slug or id and counts the view
func (ctl *Controller) PostPage(c *gin.Context) {
	post, err := ctl.svc.ViewBlogPost(c.Request.Context(), sessionState(c), c.Param("slug"))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			ctl.notFound(c, "The blog post you are looking for does not exist.", "/blog")
			return
		}
		ctl.logFromCtx(c).Error("view blog post", zap.Error(err))
	}

	ctl.renderPage(c, http.StatusOK, "post", ctl.page(c, post.Title, postBody{
		BlogPost: post,
		Related:  ctl.svc.RelatedBlogPosts(post.ID, relatedPostsLimit),
	}))
}

// ContactPage renders the contact form
func (ctl *Controller) ContactPage(c *gin.Context) {
	ctl.renderPage(c, http.StatusOK, "contact", ctl.page(c, "Contact", dto.ContactForm{}))
}

// SubmitContactPage handles the html contact form
func (ctl *Controller) SubmitContactPage(c *gin.Context) {
	var form dto.ContactForm
	if err := c.ShouldBind(&form); err != nil {
		p := ctl.page(c, "Contact", form)
		p.Error = msgContactFailed
		ctl.renderPage(c, http.StatusBadRequest, "contact", p)
		return
	}

	if err := ctl.submitContact(c, form); err != nil {
		p := ctl.page(c, "Contact", form)
		p.Error = msgContactFailed
		if errors.Is(err, contact.ErrInvalidMessage) || errors.Is(err, errContactThrottled) {
			p.Error = err.Error()
		}
		ctl.renderPage(c, statusOf(err), "contact", p)
		return
	}

	p := ctl.page(c, "Contact", dto.ContactForm{})
	p.Flash = msgContactSent
	ctl.renderPage(c, http.StatusOK, "contact", p)
}

// CVPage renders the CV download page
func (ctl *Controller) CVPage(c *gin.Context) {
	ctl.renderPage(c, http.StatusOK, "cv", ctl.page(c, "CV", nil))
}

// CVFile streams the current CV. Replaced CV files are not served.
func (ctl *Controller) CVFile(c *gin.Context) {
	name := c.Param("name")
	if cv := ctl.svc.Profile().CV; cv.FileName == "" || cv.FileName != name {
		ctl.notFound(c, "No CV available.", "/cv")
		return
	}

	r, err := ctl.svc.OpenCV(c.Request.Context(), name)
	if err != nil {
		if statusOf(err) == http.StatusNotFound {
			ctl.notFound(c, "No CV available.", "/cv")
			return
		}
		ctl.abortWithError(c, err)
		return
	}
	defer func() { _ = r.Close() }()

	c.DataFromReader(http.StatusOK, -1, "application/pdf", r, map[string]string{
		"Content-Disposition": `inline; filename="` + name + `"`,
	})
}

// NotFoundPage answers unknown routes, json for api paths
func (ctl *Controller) NotFoundPage(c *gin.Context) {
	path := c.Request.URL.Path
	if strings.HasPrefix(path, "/api/") || strings.HasPrefix(path, "/admin/") {
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
		return
	}

	ctl.notFound(c, "", "/")
}
