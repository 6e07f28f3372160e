package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AdilSaeed0347/InsightFolio/internal/profile"
)

func newTestClassifier() *Classifier {
	return New(profile.Default())
}

func TestClassifyIntent(t *testing.T) {
	c := newTestClassifier()

	tests := []struct {
		query string
		want  Intent
	}{
		{"Who is Adil?", Introduction},
		{"tell me about his projects", Introduction},
		{"Where did he get his degree?", Education},
		{"Which universities did he apply to", Education},
		{"What projects has he built?", Projects},
		{"show me the chatbot", Projects},
		{"Is he good at Python?", Skills},
		{"contact", Contact},
		{"How can I get in touch", Contact},
		{"Does he have any internships?", Experience},
		{"what work has he done", Experience},
		{"who", Introduction},
		{"what is the capital of France?", General},
		{"", General},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, c.ClassifyIntent(tt.query))
		})
	}
}

func TestIsInScope(t *testing.T) {
	c := newTestClassifier()
	assert.True(t, c.IsInScope("what skills does he have"))
	assert.True(t, c.IsInScope("his skill set"))
	assert.True(t, c.IsInScope("Tell me about Asad Ali"))
	assert.True(t, c.IsInScope("github"))
	assert.False(t, c.IsInScope("what is the capital of France"))
	assert.False(t, c.IsInScope("democracy in greece"))
}

func TestIsGeneralKnowledge(t *testing.T) {
	c := newTestClassifier()

	tests := []struct {
		query string
		want  bool
	}{
		{"what is 12 * 4", true},
		{"2+2", true},
		{"What is the capital of France?", true},
		{"how is the weather today", true},
		{"population of pakistan", true},
		{"What programming languages does he use?", false},
		{"what is the weather like where Adil lives", false},
		{"who is the president of his university", false},
		{"hi, what's the capital of spain", true},
		{"tell me about his projects", false},
		{"what's the weather in your city", true},
		{"what is the weather where saeed lives", false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsGeneralKnowledge(tt.query))
		})
	}
}

func TestIsAssistantSelfQuery(t *testing.T) {
	c := newTestClassifier()

	for _, q := range []string{
		"What is your name?",
		"what's your name",
		"Who are you",
		"are you a bot?",
		"Who created you?",
		"tell me about yourself",
	} {
		assert.True(t, c.IsAssistantSelfQuery(q), q)
	}
	for _, q := range []string{
		"who is Adil",
		"what are your creator's projects",
		"how are you able to know this",
		"Are your answers accurate",
	} {
		assert.False(t, c.IsAssistantSelfQuery(q), q)
	}
}

func TestRoute(t *testing.T) {
	c := newTestClassifier()
	assert.Equal(t, RouteSelf, c.Route("who are you?"))
	assert.Equal(t, RouteGeneral, c.Route("what is 7 + 5"))
	assert.Equal(t, RouteGeneral, c.Route("What is the capital of France?"))
	assert.Equal(t, RoutePortfolio, c.Route("what is the capital of france and his projects"))
	assert.Equal(t, RoutePortfolio, c.Route("contact"))
}

func TestAnalyze(t *testing.T) {
	c := newTestClassifier()

	a := c.Analyze("contact")
	assert.Equal(t, TopicContact, a.Primary)
	assert.False(t, a.Complex)

	a = c.Analyze("What are his github and linkedin accounts?")
	assert.Equal(t, TopicSocialMedia, a.Primary)

	a = c.Analyze("What skills and projects does he have?")
	assert.Equal(t, TopicSkills, a.Primary)
	assert.Equal(t, []Topic{TopicSkills, TopicProjects}, a.Topics)
	assert.True(t, a.Complex)

	a = c.Analyze("tell me about asad")
	assert.Equal(t, TopicPersonal, a.Primary)

	a = c.Analyze("hello there")
	assert.Equal(t, TopicGeneral, a.Primary)
	assert.Equal(t, []Topic{TopicGeneral}, a.Topics)
	assert.False(t, a.Complex)
}

func TestArithmetic(t *testing.T) {
	expr, ok := Arithmetic("what is 12 * 4?")
	assert.True(t, ok)
	assert.Equal(t, "12 * 4", expr)

	_, ok = Arithmetic("no math here")
	assert.False(t, ok)
}

func TestTopicLabel(t *testing.T) {
	assert.Equal(t, "social media", TopicSocialMedia.Label())
	assert.Equal(t, "general information", Topic("unknown").Label())
}
