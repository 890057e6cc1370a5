package dto

import "github.com/Laisky/laisky-portfolio/internal/web/portfolio/model"

// Snapshot is the persisted content of the site
type Snapshot struct {
	Projects  []model.Project   `json:"projects"`
	BlogPosts []model.BlogPost  `json:"blogPosts"`
	Skills    []model.Skill     `json:"skills"`
	Profile   model.ProfileInfo `json:"profile"`
	PageViews int               `json:"pageViews"`

	// Settings is nil in snapshots written before settings existed
	Settings *model.SiteSettings `json:"settings,omitempty"`
}

// Dashboard is the admin summary
type Dashboard struct {
	PublishedProjects  int              `json:"publishedProjects"`
	DraftProjects      int              `json:"draftProjects"`
	PublishedBlogPosts int              `json:"publishedBlogPosts"`
	DraftBlogPosts     int              `json:"draftBlogPosts"`
	Skills             int              `json:"skills"`
	TotalBlogViews     int              `json:"totalBlogViews"`
	PageViews          int              `json:"pageViews"`
	RecentProjects     []model.Project  `json:"recentProjects"`
	RecentBlogPosts    []model.BlogPost `json:"recentBlogPosts"`
	Loading            bool             `json:"loading"`
}

// ContactForm is what a visitor submits on the contact page
type ContactForm struct {
	Name    string `json:"name" form:"name"`
	Email   string `json:"email" form:"email"`
	Subject string `json:"subject" form:"subject"`
	Message string `json:"message" form:"message"`
}
