package model

import "slices"

// Status publication status
type Status string

const (
	StatusDraft     Status = "Draft"
	StatusPublished Status = "Published"
)

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// ProjectCategory project category
type ProjectCategory string

const (
	ProjectCategoryWebDevelopment    ProjectCategory = "Web Development"
	ProjectCategoryWebApplication    ProjectCategory = "Web Application"
	ProjectCategoryMobileDevelopment ProjectCategory = "Mobile Development"
	ProjectCategoryAIML              ProjectCategory = "AI/ML"
)

// ProjectCategories lists the selectable project categories in display order
var ProjectCategories = []ProjectCategory{
	ProjectCategoryWebDevelopment,
	ProjectCategoryWebApplication,
	ProjectCategoryMobileDevelopment,
	ProjectCategoryAIML,
}

// Valid reports whether c is a known category
func (c ProjectCategory) Valid() bool {
	return slices.Contains(ProjectCategories, c)
}

// BlogCategory blog post category
type BlogCategory string

// BlogCategories lists the selectable blog categories.
// Travel and Adventure are used by the seeded posts.
var BlogCategories = []BlogCategory{
	"Web Development",
	"React",
	"Next.js",
	"TypeScript",
	"Architecture",
	"Travel",
	"Adventure",
}

// Valid reports whether c is a known category
func (c BlogCategory) Valid() bool {
	return slices.Contains(BlogCategories, c)
}
