package model

import (
	"os"

	"github.com/Laisky/errors/v2"
	"github.com/jinzhu/copier"
	"gopkg.in/yaml.v3"
)

// Defaults is the content a fresh site starts with
type Defaults struct {
	Projects  []Project    `json:"projects" yaml:"projects"`
	BlogPosts []BlogPost   `json:"blogPosts" yaml:"blogPosts"`
	Skills    []Skill      `json:"skills" yaml:"skills"`
	Profile   ProfileInfo  `json:"profile" yaml:"profile"`
	Settings  SiteSettings `json:"settings" yaml:"settings"`
}

// NewDefaults returns a deep copy of the built-in content
func NewDefaults() *Defaults {
	d := new(Defaults)
	if err := copier.CopyWithOption(d, builtinDefaults(), copier.Option{DeepCopy: true}); err != nil {
		panic(err)
	}
	return d
}

// LoadSeedFile overlays the built-in content with a yaml file.
// Sections missing from the file keep their built-in value.
func LoadSeedFile(path string) (*Defaults, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read seed file %q", path)
	}

	var seed struct {
		Projects  []Project     `yaml:"projects"`
		BlogPosts []BlogPost    `yaml:"blogPosts"`
		Skills    []Skill       `yaml:"skills"`
		Profile   *ProfileInfo  `yaml:"profile"`
		Settings  *SiteSettings `yaml:"settings"`
	}
	if err = yaml.Unmarshal(raw, &seed); err != nil {
		return nil, errors.Wrapf(err, "parse seed file %q", path)
	}

	d := NewDefaults()
	if seed.Projects != nil {
		d.Projects = seed.Projects
	}
	if seed.BlogPosts != nil {
		d.BlogPosts = seed.BlogPosts
	}
	if seed.Skills != nil {
		d.Skills = seed.Skills
	}
	if seed.Profile != nil {
		d.Profile = *seed.Profile
	}
	if seed.Settings != nil {
		d.Settings = *seed.Settings
	}

	return d, nil
}

// DefaultSettings returns the built-in site settings
func DefaultSettings() SiteSettings {
	var s SiteSettings
	s.General.SiteName = "Sampresh Karki"
	s.General.SiteDescription = "Personal Portfolio Website"
	s.General.SiteLanguage = "en"
	s.Appearance.DarkMode = true
	s.Appearance.AccentColor = "#dc2626"
	s.Appearance.ShowAnimations = true
	s.Privacy.CookieConsent = true
	s.Privacy.AnalyticsEnabled = true
	s.Privacy.ContactFormDisclaimer = true
	s.Advanced.CacheEnabled = true
	s.Advanced.ImageOptimization = true
	s.Advanced.LazyLoading = true
	return s
}

func builtinDefaults() *Defaults {
	return &Defaults{
		Projects: []Project{
			{
				ID:    1,
				Title: "Web Security Login System",
				Description: "Implemented key security measures on a custom login page, " +
					"focusing on basic authentication techniques and user validation.",
				Category:  ProjectCategoryWebDevelopment,
				Status:    StatusPublished,
				Date:      "January 15, 2023",
				Tags:      []string{"HTML", "CSS", "JavaScript", "Web Security", "Authentication"},
				Image:     "/images/websecurity.png",
				GithubURL: "https://github.com/Sampresh/webSecurity.git",
			},
			{
				ID:    2,
				Title: "Stock Market Prediction AI Model",
				Description: "An AI model trained to forecast stock market trends using historical " +
					"S&P 500 data, focused on improving investment insights.",
				Category:  ProjectCategoryAIML,
				Status:    StatusPublished,
				Date:      "March 22, 2023",
				Tags:      []string{"Python", "Machine Learning", "Data Analysis", "Predictive Analytics"},
				Image:     "/images/ai.png",
				GithubURL: "https://github.com/Sampresh/MarketPredicition-AI-mode.git",
			},
			{
				ID:          3,
				Title:       "Suitcase – Travel Itinerary App",
				Description: "A mobile app that allows users to plan, purchase, and manage travel itineraries in one place.",
				Category:    ProjectCategoryMobileDevelopment,
				Status:      StatusPublished,
				Date:        "May 10, 2023",
				Tags:        []string{"Kotlin", "Android", "UI/UX Design", "Data Handling"},
				Image:       "/images/suitcase.png",
				GithubURL:   "https://github.com/Sampresh/SuitCase-mobile-app.git",
			},
			{
				ID:    4,
				Title: "Live Sports Hosting Website",
				Description: "A platform to stream and manage live sports events, " +
					"built with Django for efficient backend processing.",
				Category:  ProjectCategoryWebDevelopment,
				Status:    StatusPublished,
				Date:      "July 5, 2023",
				Tags:      []string{"Django", "Python", "Backend Development", "Real-Time Data"},
				Image:     "/images/live.png",
				GithubURL: "https://github.com/Sampresh/Live-matchHosting-site.git",
			},
		},
		BlogPosts: []BlogPost{
			{
				ID:    1,
				Title: "A Journey to Pathivara – Power, Peace, and Purpose",
				Excerpt: "Recently, I visited Pathivara Temple in Taplejung, one of Nepal's most powerful and " +
					"spiritually intense destinations. The journey wasn't just about reaching a place; " +
					"it was about feeling something greater than myself.",
				Image:    "/images/pathivara.jpeg",
				Date:     "April 25, 2025",
				ReadTime: "4 min read",
				Category: "Travel",
				Status:   StatusPublished,
				Views:    245,
				Slug:     "journey-to-pathivara",
				Content: "Recently, I visited Pathivara Temple in Taplejung, one of Nepal's most powerful and " +
					"spiritually intense destinations. The journey wasn't just about reaching a place; " +
					"it was about feeling something greater than myself.\n\n" +
					"Perched high in the hills, the climb to Pathivara tested my endurance and focus. " +
					"But every step felt worth it. As I reached the temple, surrounded by silence and " +
					"prayers carried by the wind, I genuinely felt a kind of peace I hadn't experienced in a long time.\n\n" +
					"I'm not overly religious, but something about that place hit different, like I'd stepped " +
					"into a force that grounds you. It reminded me to stay humble, driven, and grateful for where I'm headed.\n\n" +
					"Sometimes, disconnecting from the world helps you reconnect with your own clarity. Pathivara gave me that.",
			},
			{
				ID:    2,
				Title: "Solo Ride to Pokhara – Just Me, My Bike, and the Road",
				Excerpt: "Six months ago, I took a solo bike trip to Pokhara. No group, no plans, just me and " +
					"my machine. It was one of the most freeing things I've ever done.",
				Image:    "/images/pokhara.jpeg",
				Date:     "May 20, 2024",
				ReadTime: "5 min read",
				Category: "Adventure",
				Status:   StatusPublished,
				Views:    189,
				Slug:     "solo-ride-to-pokhara",
				Content: "Six months ago, I took a solo bike trip to Pokhara. No group, no plans, just me and " +
					"my machine. It was one of the most freeing things I've ever done.\n\n" +
					"The ride itself was powerful: winding roads, changing skies, unexpected turns. " +
					"I wasn't looking for adventure, but somehow I found it in every mile. Stopping whenever " +
					"I felt like it, taking in views that no camera could do justice to, and just thinking " +
					"about life without distractions... it was exactly what I needed.\n\n" +
					"Pokhara was beautiful as always, calm lakes, chill cafés, mountain views. But the real " +
					"thrill was in the ride. It taught me that sometimes, being alone on the road gives you " +
					"answers you didn't even know you were looking for.",
			},
		},
		Skills: []Skill{
			{ID: 1, Category: "Programming Languages", Items: []string{"Python", "JavaScript", "HTML", "CSS", "Kotlin"}},
			{ID: 2, Category: "Web Development", Items: []string{"Next.js", "Tailwind CSS", "MongoDB", "HTML", "CSS", "JavaScript"}},
			{ID: 3, Category: "Frameworks & Tools", Items: []string{"Django", "Kotlin (Android)", "Git", "GitHub"}},
			{ID: 4, Category: "Database Management", Items: []string{"MongoDB", "Firebase"}},
			{ID: 5, Category: "AI & Machine Learning", Items: []string{"Data preprocessing", "Model training", "Stock prediction", "S&P 500 data analysis"}},
			{ID: 6, Category: "Cybersecurity", Items: []string{"Web security", "Login authentication", "Secure frontend practices"}},
			{ID: 7, Category: "Core Skills", Items: []string{"Creative Problem Solving", "Project Development", "Team Collaboration", "Adaptability", "Time Management"}},
			{ID: 8, Category: "Creative Skills", Items: []string{"Content Creation", "UI/UX Awareness", "Client Communication", "Travel Operations"}},
		},
		Profile: ProfileInfo{
			Name:  "Sampresh Karki",
			Title: "Computer Systems Engineering Graduate",
			Email: "sampreshkarki2@gmail.com",
			Bio: "I'm Sampresh, a Computer Systems Engineering graduate passionate about tech, AI, " +
				"cybersecurity, and creative problem-solving. I build practical apps, design smart systems, " +
				"and turn ideas into code, always learning, always building.",
			Location: "Nepal",
			Contact:  "9769404538",
			Age:      24,
			SocialLinks: SocialLinks{
				Github:    "https://github.com/Sampresh",
				Linkedin:  "https://www.linkedin.com/in/sampresh-karki-a86409256/",
				Twitter:   "https://twitter.com/sampreshkarki",
				Website:   "https://sampresh.com.np",
				Dribbble:  "https://dribbble.com/sampreshkarki",
				Youtube:   "https://www.youtube.com/@sampres10",
				Instagram: "https://www.instagram.com/sampres10",
			},
			CV: CV{
				Title:      "Sampresh Karki - Resume",
				FileName:   "Sampresh-Karki-Resume.pdf",
				UploadDate: "May 10, 2023",
				Path:       "/cv/Sampresh-Karki-Resume.pdf",
			},
		},
		Settings: DefaultSettings(),
	}
}
