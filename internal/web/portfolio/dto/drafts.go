// Package dto holds the form drafts and response shapes of the portfolio.
package dto

import (
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/jinzhu/copier"

	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/model"
)

// ProjectDraft is the editable form of a project.
// Tags is the comma separated tag list.
type ProjectDraft struct {
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
	Category    string `json:"category" form:"category" copier:"-"`
	Status      string `json:"status" form:"status" copier:"-"`
	Tags        string `json:"tags" form:"tags" copier:"-"`
	Image       string `json:"image" form:"image"`
	GithubURL   string `json:"githubUrl" form:"githubUrl"`
}

// NewProjectDraft flattens p for editing
func NewProjectDraft(p model.Project) ProjectDraft {
	return ProjectDraft{
		Title:       p.Title,
		Description: p.Description,
		Category:    string(p.Category),
		Status:      string(p.Status),
		Tags:        model.JoinList(p.Tags),
		Image:       p.Image,
		GithubURL:   p.GithubURL,
	}
}

// Validate checks required fields and enums
func (d *ProjectDraft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return errors.Wrap(model.ErrInvalidDraft, "title is required")
	}
	if !model.ProjectCategory(d.Category).Valid() {
		return errors.Wrapf(model.ErrInvalidDraft, "unknown category %q", d.Category)
	}
	if err := validateStatus(d.Status); err != nil {
		return err
	}

	return nil
}

// ToProject converts the draft, leaving ID and Date unset
func (d *ProjectDraft) ToProject() (model.Project, error) {
	var p model.Project
	if err := copier.Copy(&p, d); err != nil {
		return p, errors.Wrap(err, "copy project draft")
	}

	p.Title = strings.TrimSpace(d.Title)
	p.Category = model.ProjectCategory(d.Category)
	p.Status = statusOrDraft(d.Status)
	p.Tags = model.SplitList(d.Tags)
	p.GithubURL = strings.TrimSpace(d.GithubURL)
	if strings.TrimSpace(p.Image) == "" {
		p.Image = model.PlaceholderImage
	}

	return p, nil
}

// BlogPostDraft is the editable form of a blog post.
//
// OriginalTitle is the title captured when the edit form was opened,
// the slug is re-derived only when Title differs from it.
type BlogPostDraft struct {
	Title         string `json:"title" form:"title"`
	Excerpt       string `json:"excerpt" form:"excerpt"`
	Category      string `json:"category" form:"category" copier:"-"`
	Status        string `json:"status" form:"status" copier:"-"`
	Image         string `json:"image" form:"image"`
	ReadTime      string `json:"readTime" form:"readTime"`
	Content       string `json:"content" form:"content"`
	OriginalTitle string `json:"originalTitle,omitempty" form:"originalTitle"`
}

// NewBlogPostDraft prepares p for editing
func NewBlogPostDraft(p model.BlogPost) BlogPostDraft {
	return BlogPostDraft{
		Title:         p.Title,
		Excerpt:       p.Excerpt,
		Category:      string(p.Category),
		Status:        string(p.Status),
		Image:         p.Image,
		ReadTime:      p.ReadTime,
		Content:       p.Content,
		OriginalTitle: p.Title,
	}
}

// Validate checks required fields and enums
func (d *BlogPostDraft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return errors.Wrap(model.ErrInvalidDraft, "title is required")
	}
	if !model.BlogCategory(d.Category).Valid() {
		return errors.Wrapf(model.ErrInvalidDraft, "unknown category %q", d.Category)
	}
	if err := validateStatus(d.Status); err != nil {
		return err
	}

	return nil
}

// ToBlogPost converts the draft, leaving ID, Date, Views and Slug unset
func (d *BlogPostDraft) ToBlogPost() (model.BlogPost, error) {
	var p model.BlogPost
	if err := copier.Copy(&p, d); err != nil {
		return p, errors.Wrap(err, "copy blog draft")
	}

	p.Title = strings.TrimSpace(d.Title)
	p.Category = model.BlogCategory(d.Category)
	p.Status = statusOrDraft(d.Status)
	if strings.TrimSpace(p.Image) == "" {
		p.Image = model.PlaceholderImage
	}
	if strings.TrimSpace(p.ReadTime) == "" {
		p.ReadTime = model.DefaultReadTime
	}

	return p, nil
}

// SkillDraft is the editable form of a skill group.
// Items is the comma separated item list.
type SkillDraft struct {
	Category string `json:"category" form:"category"`
	Items    string `json:"items" form:"items"`
}

// NewSkillDraft flattens s for editing
func NewSkillDraft(s model.Skill) SkillDraft {
	return SkillDraft{Category: s.Category, Items: model.JoinList(s.Items)}
}

// Validate checks required fields
func (d *SkillDraft) Validate() error {
	if strings.TrimSpace(d.Category) == "" {
		return errors.Wrap(model.ErrInvalidDraft, "category is required")
	}
	return nil
}

// ToSkill converts the draft, leaving ID unset
func (d *SkillDraft) ToSkill() model.Skill {
	return model.Skill{
		Category: strings.TrimSpace(d.Category),
		Items:    model.SplitList(d.Items),
	}
}

func validateStatus(s string) error {
	if s == "" || model.Status(s).Valid() {
		return nil
	}
	return errors.Wrapf(model.ErrInvalidDraft, "unknown status %q", s)
}

func statusOrDraft(s string) model.Status {
	if s == "" {
		return model.StatusDraft
	}
	return model.Status(s)
}
