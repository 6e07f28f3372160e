package profile

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Person is a third party the subject's portfolio mentions.
type Person struct {
	Key     string   `yaml:"key"`
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
	About   string   `yaml:"about"`
}

// Profile holds the static personalization data for the portfolio subject:
// names, aliases, links, wording and the canned retrieval hints.
// It is loaded once at startup and treated as read-only afterwards.
type Profile struct {
	Key            string              `yaml:"key"`
	Name           string              `yaml:"name"`
	ShortName      string              `yaml:"short_name"`
	Aliases        []string            `yaml:"aliases"`
	Misspellings   map[string][]string `yaml:"misspellings"`
	Email          string              `yaml:"email"`
	Links          map[string]string   `yaml:"links"`
	SourceLabel    string              `yaml:"source_label"`
	People         []Person            `yaml:"people"`
	FriendAbout    string              `yaml:"friend_about"`
	PortfolioTerms []string            `yaml:"portfolio_terms"`
	Highlights     map[string][]string `yaml:"highlights"`
	SearchHints    map[string][]string `yaml:"search_hints"`
}

// Default returns the embedded profile. It panics if the embedded YAML is broken,
// which can only happen at build time.
func Default() *Profile {
	p, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded profile: %v", err))
	}
	return p
}

// Load reads a profile YAML file. An empty path returns the embedded default.
func Load(path string) (*Profile, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates profile YAML.
func Parse(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding profile: %w", err)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	p.Key = strings.ToLower(p.Key)
	return &p, nil
}

func (p *Profile) validate() error {
	var errs []error
	if p.Key == "" {
		errs = append(errs, errors.New("profile key is required"))
	}
	if p.Name == "" {
		errs = append(errs, errors.New("profile name is required"))
	}
	if p.ShortName == "" {
		errs = append(errs, errors.New("profile short_name is required"))
	}
	for i, person := range p.People {
		if person.Key == "" || person.Name == "" {
			errs = append(errs, fmt.Errorf("people[%d]: key and name are required", i))
		}
	}
	return errors.Join(errs...)
}

// Possessive returns the subject's short name in possessive form ("Adil's").
func (p *Profile) Possessive() string {
	return p.ShortName + "'s"
}

// Person looks up a third party by key.
func (p *Profile) Person(key string) (Person, bool) {
	for _, person := range p.People {
		if person.Key == key {
			return person, true
		}
	}
	return Person{}, false
}

// AboutPerson returns the canned description for a third party, falling back
// to the generic friend wording.
func (p *Profile) AboutPerson(key string) string {
	if person, ok := p.Person(key); ok && person.About != "" {
		return person.About
	}
	return p.FriendAbout
}
