// Package model contains the records owned by the content store.
package model

// Project a portfolio project
type Project struct {
	// ID unique within the project list, assigned as max+1
	ID int `json:"id" yaml:"id"`
	// Title title of the project
	Title string `json:"title" yaml:"title"`
	// Description short description shown on cards
	Description string `json:"description" yaml:"description"`
	// Category one of ProjectCategories
	Category ProjectCategory `json:"category" yaml:"category"`
	// Status draft or published
	Status Status `json:"status" yaml:"status"`
	// Date creation date, formatted with DateLayout, never updated on edit
	Date string `json:"date" yaml:"date"`
	// Tags ordered tag list
	Tags []string `json:"tags" yaml:"tags"`
	// Image cover image url or path
	Image string `json:"image" yaml:"image"`
	// GithubURL optional repository link
	GithubURL string `json:"githubUrl,omitempty" yaml:"githubUrl,omitempty"`
}

// BlogPost a blog post
type BlogPost struct {
	// ID unique within the post list, assigned as max+1
	ID int `json:"id" yaml:"id"`
	// Title title of the post
	Title string `json:"title" yaml:"title"`
	// Excerpt summary shown in listings
	Excerpt string `json:"excerpt" yaml:"excerpt"`
	// Category one of BlogCategories
	Category BlogCategory `json:"category" yaml:"category"`
	// Status draft or published
	Status Status `json:"status" yaml:"status"`
	// Date creation date, formatted with DateLayout
	Date string `json:"date" yaml:"date"`
	// Views view counter, never decreases
	Views int `json:"views" yaml:"views"`
	// Image cover image url or path
	Image string `json:"image,omitempty" yaml:"image,omitempty"`
	// ReadTime free text like "5 min read"
	ReadTime string `json:"readTime,omitempty" yaml:"readTime,omitempty"`
	// Slug public address derived from the title
	Slug string `json:"slug,omitempty" yaml:"slug,omitempty"`
	// Content post body, paragraphs separated by a blank line
	Content string `json:"content,omitempty" yaml:"content,omitempty"`
}

// Paragraphs splits Content on blank lines
func (p *BlogPost) Paragraphs() []string {
	return SplitParagraphs(p.Content)
}

// Skill a group of skills
type Skill struct {
	ID       int      `json:"id" yaml:"id"`
	Category string   `json:"category" yaml:"category"`
	Items    []string `json:"items" yaml:"items"`
}

// SocialLinks profile links, empty means hidden
type SocialLinks struct {
	Github    string `json:"github" yaml:"github"`
	Linkedin  string `json:"linkedin" yaml:"linkedin"`
	Twitter   string `json:"twitter" yaml:"twitter"`
	Website   string `json:"website" yaml:"website"`
	Dribbble  string `json:"dribbble" yaml:"dribbble"`
	Youtube   string `json:"youtube" yaml:"youtube"`
	Instagram string `json:"instagram" yaml:"instagram"`
}

// CV the downloadable resume
type CV struct {
	Title      string `json:"title" yaml:"title"`
	FileName   string `json:"fileName" yaml:"fileName"`
	UploadDate string `json:"uploadDate" yaml:"uploadDate"`
	// Path public path, empty when no file is uploaded
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// ProfileInfo the site owner, exactly one exists
type ProfileInfo struct {
	Name        string      `json:"name" yaml:"name"`
	Title       string      `json:"title" yaml:"title"`
	Email       string      `json:"email" yaml:"email"`
	Bio         string      `json:"bio" yaml:"bio"`
	Location    string      `json:"location" yaml:"location"`
	Contact     string      `json:"contact" yaml:"contact"`
	Age         int         `json:"age" yaml:"age"`
	SocialLinks SocialLinks `json:"socialLinks" yaml:"socialLinks"`
	CV          CV          `json:"cv" yaml:"cv"`
}

// SiteSettings admin settings page
type SiteSettings struct {
	General struct {
		SiteName        string `json:"siteName" yaml:"siteName"`
		SiteDescription string `json:"siteDescription" yaml:"siteDescription"`
		SiteLanguage    string `json:"siteLanguage" yaml:"siteLanguage"`
	} `json:"general" yaml:"general"`
	Appearance struct {
		DarkMode       bool   `json:"darkMode" yaml:"darkMode"`
		AccentColor    string `json:"accentColor" yaml:"accentColor"`
		ShowAnimations bool   `json:"showAnimations" yaml:"showAnimations"`
	} `json:"appearance" yaml:"appearance"`
	Privacy struct {
		CookieConsent         bool `json:"cookieConsent" yaml:"cookieConsent"`
		AnalyticsEnabled      bool `json:"analyticsEnabled" yaml:"analyticsEnabled"`
		ContactFormDisclaimer bool `json:"contactFormDisclaimer" yaml:"contactFormDisclaimer"`
	} `json:"privacy" yaml:"privacy"`
	Advanced struct {
		CacheEnabled      bool `json:"cacheEnabled" yaml:"cacheEnabled"`
		ImageOptimization bool `json:"imageOptimization" yaml:"imageOptimization"`
		LazyLoading       bool `json:"lazyLoading" yaml:"lazyLoading"`
	} `json:"advanced" yaml:"advanced"`
}
