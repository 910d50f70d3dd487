// Package portfolio loads the static content shown on the site: profile,
// skills, work history, projects and education.
package portfolio

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed portfolio.yaml
var defaultContent []byte

type Portfolio struct {
	Profile      Profile         `yaml:"profile"`
	About        About           `yaml:"about"`
	Skills       []SkillCategory `yaml:"skills"`
	Proficiency  []Proficiency   `yaml:"proficiency"`
	Experience   []Job           `yaml:"experience"`
	Projects     []Project       `yaml:"projects"`
	Education    []Degree        `yaml:"education"`
	Achievements []Highlight     `yaml:"achievements"`
}

type Profile struct {
	Name     string        `yaml:"name"`
	Title    string        `yaml:"title"`
	Summary  string        `yaml:"summary"`
	ImageURL string        `yaml:"image_url"`
	Links    []Link        `yaml:"links"`
	Contact  []ContactItem `yaml:"contact"`
}

type Link struct {
	Label string `yaml:"label"`
	URL   string `yaml:"url"`
}

type ContactItem struct {
	Label string `yaml:"label"`
	Value string `yaml:"value"`
	Href  string `yaml:"href"`
}

type About struct {
	Headline       string      `yaml:"headline"`
	Paragraphs     []string    `yaml:"paragraphs"`
	Technologies   []string    `yaml:"technologies"`
	Stats          []Stat      `yaml:"stats"`
	Certifications []Highlight `yaml:"certifications"`
}

type Stat struct {
	Label string `yaml:"label"`
	Value string `yaml:"value"`
}

// Highlight is a titled card: a certification or an academic achievement.
type Highlight struct {
	Title       string `yaml:"title"`
	Subtitle    string `yaml:"subtitle"`
	Description string `yaml:"description"`
}

type SkillCategory struct {
	Title  string   `yaml:"title"`
	Skills []string `yaml:"skills"`
}

type Proficiency struct {
	Skill string `yaml:"skill"`
	Level int    `yaml:"level"`
}

type Job struct {
	Title        string   `yaml:"title"`
	Company      string   `yaml:"company"`
	Location     string   `yaml:"location"`
	Period       string   `yaml:"period"`
	Description  string   `yaml:"description"`
	Achievements []string `yaml:"achievements"`
	Technologies []string `yaml:"technologies"`
}

type Project struct {
	Title           string   `yaml:"title"`
	Category        string   `yaml:"category"`
	Description     string   `yaml:"description"`
	FullDescription string   `yaml:"full_description"`
	Technologies    []string `yaml:"technologies"`
	Achievements    []string `yaml:"achievements"`
	ImageURL        string   `yaml:"image_url"`
}

// TopTech returns at most n technologies for the project card.
func (p Project) TopTech(n int) []string {
	if len(p.Technologies) <= n {
		return p.Technologies
	}
	return p.Technologies[:n]
}

// MoreTech is how many technologies TopTech(n) leaves out.
func (p Project) MoreTech(n int) int {
	if len(p.Technologies) <= n {
		return 0
	}
	return len(p.Technologies) - n
}

type Degree struct {
	Degree      string   `yaml:"degree"`
	School      string   `yaml:"school"`
	Location    string   `yaml:"location"`
	Period      string   `yaml:"period"`
	Description string   `yaml:"description"`
	Coursework  []string `yaml:"coursework"`
	GPA         string   `yaml:"gpa"`
}

// Default returns the embedded content.
func Default() (*Portfolio, error) {
	return Parse(defaultContent)
}

// Load reads content from path, or the embedded default when path is empty.
func Load(path string) (*Portfolio, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("portfolio: read %s: %w", path, err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("portfolio: %s: %w", path, err)
	}
	return p, nil
}

// Parse decodes and checks a YAML document.
func Parse(data []byte) (*Portfolio, error) {
	var p Portfolio
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Portfolio) validate() error {
	var errs []error
	if p.Profile.Name == "" {
		errs = append(errs, errors.New("profile.name is required"))
	}
	for i, j := range p.Experience {
		if j.Title == "" {
			errs = append(errs, fmt.Errorf("experience[%d].title is required", i))
		}
	}
	for i, pr := range p.Projects {
		if pr.Title == "" {
			errs = append(errs, fmt.Errorf("projects[%d].title is required", i))
		}
	}
	for i, s := range p.Proficiency {
		if s.Level < 0 || s.Level > 100 {
			errs = append(errs, fmt.Errorf("proficiency[%d].level %d out of range", i, s.Level))
		}
	}
	return errors.Join(errs...)
}
