package model

import "time"

type SkillLevel string
type SkillCategory string

const (
	LevelBeginner     SkillLevel = "Beginner"
	LevelIntermediate SkillLevel = "Intermediate"
	LevelAdvanced     SkillLevel = "Advanced"
	LevelExpert       SkillLevel = "Expert"

	CategoryFrontend SkillCategory = "Frontend"
	CategoryBackend  SkillCategory = "Backend"
	CategoryDatabase SkillCategory = "Database"
	CategoryDevOps   SkillCategory = "DevOps"
	CategoryMobile   SkillCategory = "Mobile"
	CategoryOther    SkillCategory = "Other"
)

type PersonalInfo struct {
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle,omitempty"`
	Description string `json:"description"`
	Location    string `json:"location,omitempty"`
	Phone       string `json:"phone,omitempty"`
	ResumeURL   string `json:"resumeUrl,omitempty"`
}

type Skill struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Level    SkillLevel    `json:"level"`
	Category SkillCategory `json:"category"`
}

type Experience struct {
	ID           string     `json:"id"`
	Company      string     `json:"company"`
	Position     string     `json:"position"`
	StartDate    time.Time  `json:"startDate"`
	EndDate      *time.Time `json:"endDate,omitempty"`
	Current      bool       `json:"current"`
	Description  string     `json:"description,omitempty"`
	Technologies []string   `json:"technologies,omitempty"`
	Achievements []string   `json:"achievements,omitempty"`
}

type Education struct {
	ID          string     `json:"id"`
	Institution string     `json:"institution"`
	Degree      string     `json:"degree"`
	Field       string     `json:"field,omitempty"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	GPA         string     `json:"gpa,omitempty"`
	Description string     `json:"description,omitempty"`
}

type Project struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Technologies []string   `json:"technologies,omitempty"`
	GithubURL    string     `json:"githubUrl,omitempty"`
	LiveURL      string     `json:"liveUrl,omitempty"`
	ImageURL     string     `json:"imageUrl,omitempty"`
	Featured     bool       `json:"featured"`
	StartDate    *time.Time `json:"startDate,omitempty"`
	EndDate      *time.Time `json:"endDate,omitempty"`
}

type Certification struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Issuer        string     `json:"issuer"`
	Date          *time.Time `json:"date,omitempty"`
	ExpiryDate    *time.Time `json:"expiryDate,omitempty"`
	CredentialID  string     `json:"credentialId,omitempty"`
	CredentialURL string     `json:"credentialUrl,omitempty"`
}

type Theme struct {
	PrimaryColor   string `json:"primaryColor"`
	SecondaryColor string `json:"secondaryColor"`
	AccentColor    string `json:"accentColor"`
}

func DefaultTheme() Theme {
	return Theme{PrimaryColor: "#396A85", SecondaryColor: "#8CBDD6", AccentColor: "#72A4BD"}
}

// PortfolioOwner is the public slice of the owning account.
type PortfolioOwner struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Portfolio struct {
	ID             string          `json:"id"`
	UserID         string          `json:"userId"`
	Owner          *PortfolioOwner `json:"user,omitempty"`
	Slug           string          `json:"slug"`
	PersonalInfo   PersonalInfo    `json:"personalInfo"`
	Skills         []Skill         `json:"skills"`
	Experience     []Experience    `json:"experience"`
	Education      []Education     `json:"education"`
	Projects       []Project       `json:"projects"`
	Certifications []Certification `json:"certifications"`
	IsPublic       bool            `json:"isPublic"`
	Theme          Theme           `json:"theme"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// PortfolioActivity is a recently updated portfolio as shown on the admin feed.
type PortfolioActivity struct {
	ID        string         `json:"id"`
	Owner     PortfolioOwner `json:"user"`
	Title     string         `json:"title"`
	UpdatedAt time.Time      `json:"updatedAt"`
}
