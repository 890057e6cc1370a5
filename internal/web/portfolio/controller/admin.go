package controller

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/Laisky/laisky-portfolio/internal/web/contact"
	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/dto"
	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/model"
	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/service"
	"github.com/Laisky/laisky-portfolio/internal/web/session"
)

const (
	defaultMessagesLimit = 100
	exportFileName       = "portfolio-export.json"
)

type loginRequest struct {
	Password string `json:"password" form:"password"`
}

func wantsJSON(c *gin.Context) bool {
	return c.ContentType() == binding.MIMEJSON ||
		strings.Contains(c.GetHeader("Accept"), binding.MIMEJSON)
}

func (ctl *Controller) adminHome() string {
	if ctl.opt.adminApp != nil {
		return "/admin/app/"
	}
	return "/admin"
}

// LoginPage renders the password form, or skips it for logged in admins
func (ctl *Controller) LoginPage(c *gin.Context) {
	if sess := session.FromContext(c); sess != nil && sess.IsAdmin(c.Request.Context()) {
		c.Redirect(http.StatusFound, ctl.adminHome())
		return
	}

	ctl.renderPage(c, http.StatusOK, "login", ctl.page(c, "Admin login", nil))
}

// Login checks the admin password
func (ctl *Controller) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		ctl.badRequest(c, err)
		return
	}

	err := ctl.sessions.Login(c.Request.Context(), session.FromContext(c), req.Password)
	if err != nil && !errors.Is(err, session.ErrUnauthorized) {
		ctl.abortWithError(c, err)
		return
	}

	ctl.logFromCtx(c).Info("admin login", zap.Bool("ok", err == nil), zap.String("ip", c.ClientIP()))
	switch {
	case wantsJSON(c) && err != nil:
		ctl.abortWithError(c, err)
	case wantsJSON(c):
		c.JSON(http.StatusOK, gin.H{"msg": "ok"})
	case err != nil:
		p := ctl.page(c, "Admin login", nil)
		p.Error = "Invalid password"
		ctl.renderPage(c, http.StatusUnauthorized, "login", p)
	default:
		c.Redirect(http.StatusSeeOther, ctl.adminHome())
	}
}

// Logout drops the admin flag and returns to the login page
func (ctl *Controller) Logout(c *gin.Context) {
	if err := ctl.sessions.Logout(c.Request.Context(), session.FromContext(c)); err != nil {
		ctl.abortWithError(c, err)
		return
	}

	c.Redirect(http.StatusSeeOther, session.LoginPath)
}

// AdminDashboard returns the content summary
func (ctl *Controller) AdminDashboard(c *gin.Context) {
	board, err := ctl.svc.Dashboard(c.Request.Context())
	if err != nil {
		ctl.abortWithError(c, err)
		return
	}

	ok(c, http.StatusOK, board)
}

// AdminCategories lists the values the edit forms offer
func (ctl *Controller) AdminCategories(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{
		"projectCategories": model.ProjectCategories,
		"blogCategories":    model.BlogCategories,
		"statuses":          []model.Status{model.StatusDraft, model.StatusPublished},
	})
}

// =====================================
// projects
// =====================================

// AdminListProjects lists projects matching ?q, drafts included
func (ctl *Controller) AdminListProjects(c *gin.Context) {
	ok(c, http.StatusOK, ctl.svc.SearchProjects(c.Query("q")))
}

// AdminGetProject returns a project with its edit draft
func (ctl *Controller) AdminGetProject(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		ctl.badRequest(c, err)
		return
	}

	p, err := ctl.svc.GetProject(id)
	if err != nil {
		ctl.abortWithError(c, err)
		return
	}

	ok(c, http.StatusOK, gin.H{"project": p, "draft": dto.NewProjectDraft(p)})
}

// AdminAddProject creates a project
func (ctl *Controller) AdminAddProject(c *gin.Context) {
	var draft dto.ProjectDraft
	if err := c.ShouldBind(&draft); err != nil {
		ctl.badRequest(c, err)
		return
	}

	p, err := ctl.svc.AddProject(c.Request.Context(), draft)
	if err != nil {
		ctl.abortWithError(c, err)
		return
	}

	ok(c, http.StatusCreated, p)
}

// AdminEditProject replaces a project's editable fields
func (ctl *Controller) AdminEditProject(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		ctl.badRequest(c, err)
		return
	}

	var draft dto.ProjectDraft
	if err = c.ShouldBind(&draft); err != nil {
		ctl.badRequest(c, err)
		return
	}

	p, err := ctl.svc.EditProject(c.Request.Context(), id, draft)
	if err != nil {
		ctl.abortWithError(c, err)
		return
	}

	ok(c, http.StatusOK, p)
}

// AdminDeleteProject removes a project
func (ctl *Controller) AdminDeleteProject(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		ctl.badRequest(c, err)
		return
	}

	if err = ctl.svc.DeleteProject(c.Request.Context(), id); err != nil {
		ctl.abortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// =====================================
// blog posts
// =====================================

// AdminListBlogPosts lists posts matching ?q, drafts included
func (ctl *Controller) AdminListBlogPosts(c *gin.Context) {
	ok(c, http.StatusOK, ctl.svc.SearchBlogPosts(c.Query("q")))
}

// AdminGetBlogPost returns a post with its edit draft
func (ctl *Controller) AdminGetBlogPost(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		ctl.badRequest(c, err)
		return
	}

	p, err := ctl.svc.GetBlogPost(id)
	if err != nil {
		ctl.abortWithError(c, err)
		return
	}

	ok(c, http.StatusOK, gin.H{"post": p, "draft": dto.NewBlogPostDraft(p)})
}

// AdminAddBlogPost creates a post
func (ctl *Controller) AdminAddBlogPost(c *gin.Context) {
	var draft dto.BlogPostDraft
	if err := c.ShouldBind(&draft); err != nil {
		ctl.badRequest(c, err)
		return
	}

	p, err := ctl.svc.AddBlogPost(c.Request.Context(), draft)
	if err != nil {
		ctl.abortWithError(c, err)
		return
	}

	ok(c, http.StatusCreated, p)
}

// AdminEditBlogPost replaces a post's editable fields
func (ctl *Controller) AdminEditBlogPost(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		ctl.badRequest(c, err)
		return
	}

	var draft dto.BlogPostDraft
	if err = c.ShouldBind(&draft); err != nil {
		ctl.badRequest(c, err)
		return
	}

	p, err := ctl.svc.EditBlogPost(c.Request.Context(), id, draft)
	if err != nil {
		ctl.abortWithError(c, err)
		return
	}

	ok(c, http.StatusOK, p)
}

// AdminDeleteBlogPost removes a post
func (ctl *Controller) AdminDeleteBlogPost(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		ctl.badRequest(c, err)
		return
	}

	if err = ctl.svc.DeleteBlogPost(c.Request.Context(), id); err != nil {
		ctl.abortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// =====================================
// skills
// =====================================

// AdminListSkills lists skill groups matching ?q
func (ctl *Controller) AdminListSkills(c *gin.Context) {
	ok(c, http.StatusOK, ctl.svc.SearchSkills(c.Query("q")))
}

// AdminGetSkill returns a skill group with its edit draft
func (ctl *Controller) AdminGetSkill(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		ctl.badRequest(c, err)
		return
	}

	for _, s := range ctl.svc.ListSkills() {
		if s.ID == id {
			ok(c, http.StatusOK, gin.H{"skill": s, "draft": dto.NewSkillDraft(s)})
			return
		}
	}

	ctl.abortWithError(c, errors.Wrapf(model.ErrNotFound, "skill %d", id))
}

// AdminAddSkill creates a skill group
func (ctl *Controller) AdminAddSkill(c *gin.Context) {
	var draft dto.SkillDraft
	if err := c.ShouldBind(&draft); err != nil {
		ctl.badRequest(c, err)
		return
	}

	s, err := ctl.svc.AddSkill(c.Request.Context(), draft)
	if err != nil {
		ctl.abortWithError(c, err)
		return
	}

	ok(c, http.StatusCreated, s)
}

// AdminEditSkill replaces a skill group
func (ctl *Controller) AdminEditSkill(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		ctl.badRequest(c, err)
		return
	}

	var draft dto.SkillDraft
	if err = c.ShouldBind(&draft); err != nil {
		ctl.badRequest(c, err)
		return
	}

	s, err := ctl.svc.EditSkill(c.Request.Context(), id, draft)
	if err != nil {
		ctl.abortWithError(c, err)
		return
	}

	ok(c, http.StatusOK, s)
}

// AdminDeleteSkill removes a skill group
func (ctl *Controller) AdminDeleteSkill(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		ctl.badRequest(c, err)
		return
	}

	if err = ctl.svc.DeleteSkill(c.Request.Context(), id); err != nil {
		ctl.abortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// =====================================
// profile & settings
// =====================================

// AdminGetProfile returns the profile
func (ctl *Controller) AdminGetProfile(c *gin.Context) {
	ok(c, http.StatusOK, ctl.svc.Profile())
}

// AdminUpdateProfile replaces the profile. The CV is managed separately.
func (ctl *Controller) AdminUpdateProfile(c *gin.Context) {
	var profile model.ProfileInfo
	if err := c.ShouldBindJSON(&profile); err != nil {
		ctl.badRequest(c, err)
		return
	}

	saved, err := ctl.svc.UpdateProfile(c.Request.Context(), profile)
	if err != nil {
		ctl.abortWithError(c, err)
		return
	}

	ok(c, http.StatusOK, saved)
}

// AdminUploadCV stores the multipart "file" field as the new CV
func (ctl *Controller) AdminUploadCV(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, service.MaxCVSize+1<<20)
	fh, err := c.FormFile("file")
	if err != nil {
		ctl.badRequest(c, errors.Wrap(err, "read file field"))
		return
	}

	f, err := fh.Open()
	if err != nil {
		ctl.badRequest(c, errors.Wrap(err, "open upload"))
		return
	}
	defer func() { _ = f.Close() }()

	cv, err := ctl.svc.UploadCV(c.Request.Context(), fh.Filename, c.PostForm("title"), f, fh.Size)
	if err != nil {
		ctl.abortWithError(c, err)
		return
	}

	ok(c, http.StatusCreated, cv)
}

// AdminRemoveCV deletes the current CV
func (ctl *Controller) AdminRemoveCV(c *gin.Context) {
	if err := ctl.svc.RemoveCV(c.Request.Context()); err != nil {
		ctl.abortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// AdminGetSettings returns the site settings
func (ctl *Controller) AdminGetSettings(c *gin.Context) {
	ok(c, http.StatusOK, ctl.svc.Settings())
}

// AdminUpdateSettings replaces the site settings
func (ctl *Controller) AdminUpdateSettings(c *gin.Context) {
	var st model.SiteSettings
	if err := c.ShouldBindJSON(&st); err != nil {
		ctl.badRequest(c, err)
		return
	}

	ok(c, http.StatusOK, ctl.svc.UpdateSettings(c.Request.Context(), st))
}

// =====================================
// operations
// =====================================

// AdminMessages lists the stored contact messages, newest first
func (ctl *Controller) AdminMessages(c *gin.Context) {
	if ctl.opt.contact == nil || ctl.opt.contact.Inbox() == nil {
		ok(c, http.StatusOK, []contact.Message{})
		return
	}

	limit := defaultMessagesLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			ctl.badRequest(c, errors.Errorf("invalid limit %q", v))
			return
		}
		limit = n
	}

	msgs, err := ctl.opt.contact.Inbox().List(c.Request.Context(), limit)
	if err != nil {
		ctl.abortWithError(c, err)
		return
	}

	ok(c, http.StatusOK, msgs)
}

// AdminExport downloads the full content snapshot
func (ctl *Controller) AdminExport(c *gin.Context) {
	snap, err := ctl.svc.Store().Export(c.Request.Context())
	if err != nil {
		ctl.abortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+exportFileName+`"`)
	c.JSON(http.StatusOK, snap)
}

// AdminFlush writes pending content changes immediately
func (ctl *Controller) AdminFlush(c *gin.Context) {
	if err := ctl.svc.Store().Flush(c.Request.Context()); err != nil {
		ctl.abortWithError(c, err)
		return
	}

	ok(c, http.StatusOK, gin.H{
		"persistent": ctl.svc.Store().Persistent(),
		"pending":    ctl.svc.Store().PendingWrite(),
	})
}
