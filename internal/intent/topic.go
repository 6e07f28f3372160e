package intent

import (
	"regexp"
	"strings"

	"github.com/AdilSaeed0347/InsightFolio/internal/profile"
)

// Topic is the finer-grained semantic category that drives auxiliary
// retrieval and answer styling.
type Topic string

const (
	TopicSocialMedia Topic = "social_media"
	TopicContact     Topic = "contact"
	TopicSkills      Topic = "skills"
	TopicProjects    Topic = "projects"
	TopicEducation   Topic = "education"
	TopicExperience  Topic = "experience"
	TopicPersonal    Topic = "personal"
	TopicGeneral     Topic = "general"
)

// Label is the human-readable form used in fallback wording.
func (t Topic) Label() string {
	switch t {
	case TopicSocialMedia:
		return "social media"
	case TopicContact:
		return "contact information"
	case TopicSkills:
		return "technical skills"
	case TopicProjects:
		return "projects"
	case TopicEducation:
		return "education"
	case TopicExperience:
		return "professional experience"
	case TopicPersonal:
		return "personal background"
	default:
		return "general information"
	}
}

// Analysis is the semantic reading of one query.
type Analysis struct {
	Primary Topic   `json:"primary"`
	Topics  []Topic `json:"topics"`
	Complex bool    `json:"complex"`
}

type topicRule struct {
	topic Topic
	re    *regexp.Regexp
}

func buildTopicRules(p *profile.Profile) []topicRule {
	personal := `\b(?:about|who\s+is|tell\s+me|background|story|family|brother|mentor|friends?`
	for _, person := range p.People {
		personal += `|` + regexp.QuoteMeta(person.Key)
	}
	personal += `)\b`

	return []topicRule{
		{TopicSocialMedia, regexp.MustCompile(`\b(?:social|media|links?|profiles?|accounts?|platforms?|github|linkedin|facebook)\b`)},
		{TopicContact, regexp.MustCompile(`\b(?:contact|reach|get\s+in\s+touch|connect|email|hire|phone)\b`)},
		{TopicSkills, regexp.MustCompile(`\b(?:skills?|technolog(?:y|ies)|programming|languages?|tools?|tech)\b`)},
		{TopicProjects, regexp.MustCompile(`\b(?:projects?|built|developed|created|apps?)\b`)},
		{TopicEducation, regexp.MustCompile(`\b(?:education(?:al)?|study|studies|university|degrees?|academic|bootcamps?|qualifications?)\b`)},
		{TopicExperience, regexp.MustCompile(`\b(?:experiences?|jobs?|work|career|internships?)\b`)},
		{TopicPersonal, regexp.MustCompile(personal)},
	}
}

// Analyze lists every topic the query touches in fixed topic order. The first
// one is primary; touching more than one makes the query complex.
func (c *Classifier) Analyze(query string) Analysis {
	lower := strings.ToLower(query)
	var topics []Topic
	for _, rule := range c.topics {
		if rule.re.MatchString(lower) {
			topics = append(topics, rule.topic)
		}
	}
	if len(topics) == 0 {
		return Analysis{Primary: TopicGeneral, Topics: []Topic{TopicGeneral}}
	}
	return Analysis{
		Primary: topics[0],
		Topics:  topics,
		Complex: len(topics) > 1,
	}
}
