package splitter

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdilSaeed0347/InsightFolio/internal/intent"
	"github.com/AdilSaeed0347/InsightFolio/internal/profile"
)

func newTestSplitter() *Splitter {
	p := profile.Default()
	return New(p, intent.New(p), slog.Default())
}

func TestSplit_NonSplittable(t *testing.T) {
	s := newTestSplitter()

	got := s.Split("What is the capital of France?")
	require.Len(t, got, 1)
	assert.Equal(t, "What is the capital of France?", got[0].Text)
	assert.Equal(t, intent.General, got[0].Intent)
	assert.Empty(t, got[0].Person)
}

func TestSplit_ShortQuery(t *testing.T) {
	s := newTestSplitter()

	got := s.Split("contact")
	require.Len(t, got, 1)
	assert.Equal(t, "contact", got[0].Text)
	assert.Equal(t, intent.Contact, got[0].Intent)
}

func TestSplit_MultiPerson(t *testing.T) {
	s := newTestSplitter()

	got := s.Split("Who is Adil and who is Asad?")
	require.Len(t, got, 2)

	assert.Equal(t, "adil", got[0].Person)
	assert.Equal(t, "Who is Adil Saeed?", got[0].Text)
	assert.Equal(t, PriorityHigh, got[0].Priority)

	assert.Equal(t, "asad", got[1].Person)
	assert.Equal(t, "Who is Asad Ali?", got[1].Text)
	assert.Equal(t, intent.ThirdParty, got[1].Intent)
	assert.Equal(t, PriorityMedium, got[1].Priority)
}

func TestSplit_SubjectAlwaysFirst(t *testing.T) {
	s := newTestSplitter()

	got := s.Split("Tell me about Saad Khan and Adil's projects")
	require.Len(t, got, 2)
	assert.Equal(t, "adil", got[0].Person)
	assert.Equal(t, "Tell me about Adil Saeed", got[0].Text)
	assert.Equal(t, "saad", got[1].Person)
	assert.Equal(t, "Who is Saad Khan?", got[1].Text)
}

func TestSplit_SubjectQuestionForms(t *testing.T) {
	s := newTestSplitter()

	tests := []struct {
		query string
		want  string
	}{
		{"who is adil and who is his brother, what education do they have", "Who is Adil Saeed and what is his educational background?"},
		{"Who is Adil and Umer Khan, what projects", "Who is Adil Saeed and what are his projects?"},
		{"What projects did Adil and Daud build", "What are Adil Saeed's projects?"},
		{"Adil and Rohail skills", "What are Adil Saeed's technical skills?"},
		{"how to contact Adil or Hasnain", "How to contact Adil Saeed?"},
		{"Adil versus Hasnain", "Who is Adil Saeed?"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := s.Split(tt.query)
			require.Len(t, got, 2)
			assert.Equal(t, tt.want, got[0].Text)
		})
	}
}

func TestSplit_ThirdPartyNeedsWholeWord(t *testing.T) {
	s := newTestSplitter()

	// "saadat" must not be read as Saad.
	got := s.Split("What did Adil learn from saadat hasan manto")
	require.Len(t, got, 1)
	assert.Equal(t, "adil", got[0].Person)
}

func TestSplit_SinglePerson(t *testing.T) {
	s := newTestSplitter()

	got := s.Split("Who is Asad really?")
	require.Len(t, got, 1)
	assert.Equal(t, "asad", got[0].Person)
	assert.Equal(t, PriorityMedium, got[0].Priority)
	assert.Equal(t, intent.Introduction, got[0].Intent)
}

func TestSplit_ByTopics(t *testing.T) {
	s := newTestSplitter()

	got := s.Split("Tell me about his projects and his education")
	require.Len(t, got, 2)
	assert.Equal(t, "Tell me about his projects", got[0].Text)
	assert.Equal(t, "What is Adil's educational background?", got[1].Text)
	assert.Equal(t, intent.Education, got[1].Intent)
	for _, sq := range got {
		assert.Equal(t, "adil", sq.Person)
	}

	got = s.Split("What are Adil's projects and skills?")
	require.Len(t, got, 2)
	assert.Equal(t, "What are Adil's projects", got[0].Text)
	assert.Equal(t, "What are Adil's skills?", got[1].Text)
}

func TestSplit_ByTopicsWhoIsClause(t *testing.T) {
	s := newTestSplitter()

	// The "who is ... and" clause is consumed as a connector.
	got := s.Split("Show his work, who is adil and what projects has he built")
	require.Len(t, got, 2)
	assert.Equal(t, "Show his work,", got[0].Text)
	assert.Equal(t, "what projects has he built", got[1].Text)
	assert.Equal(t, intent.Projects, got[1].Intent)
}

func TestSplit_ByTopicsFallsBackWhenPartsTooShort(t *testing.T) {
	s := newTestSplitter()

	got := s.Split("projects and work")
	require.Len(t, got, 1)
	assert.Equal(t, "projects and work", got[0].Text)
}

func TestSplit_RecoversFromPanic(t *testing.T) {
	// A splitter without a profile panics while rewriting fragments.
	s := &Splitter{logger: slog.Default()}

	got := s.Split("his projects and his skills")
	require.Len(t, got, 1)
	assert.Equal(t, "his projects and his skills", got[0].Text)
	assert.Equal(t, intent.General, got[0].Intent)
}

func TestPeople(t *testing.T) {
	s := newTestSplitter()
	assert.Equal(t, []string{"adil", "asad"}, s.People("adil and his brother"))
	assert.Empty(t, s.People("nobody here"))
}
