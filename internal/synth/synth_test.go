package synth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdilSaeed0347/InsightFolio/internal/intent"
	"github.com/AdilSaeed0347/InsightFolio/internal/llm"
	"github.com/AdilSaeed0347/InsightFolio/internal/profile"
	"github.com/AdilSaeed0347/InsightFolio/internal/retrieval"
)

type fakeGenerator struct {
	reply string
	err   error
	reqs  []llm.Request
}

func (f *fakeGenerator) Complete(_ context.Context, req llm.Request) (string, error) {
	f.reqs = append(f.reqs, req)
	return f.reply, f.err
}

func docs(n int) []retrieval.Document {
	out := make([]retrieval.Document, n)
	for i := range out {
		out[i] = retrieval.Document{ID: fmt.Sprint(i), Content: fmt.Sprintf("chunk-%d", i), Score: 0.9}
	}
	return out
}

func TestSynthesize(t *testing.T) {
	gen := &fakeGenerator{reply: "Adil Saeed is a developer. I am proud of my OCR project."}
	s := New(gen, profile.Default(), nil)

	ans := s.Synthesize(context.Background(), "what are his projects", docs(8), intent.Analysis{Primary: intent.TopicProjects})

	assert.Equal(t, "a developer. Adil is proud of Adil's OCR project.", ans.Text)
	assert.Equal(t, "projects", ans.QueryType)
	assert.Equal(t, 0.9, ans.Confidence)
	assert.Equal(t, []string{"📚 Adil_Data"}, ans.Sources)
	assert.False(t, ans.Degraded)

	require.Len(t, gen.reqs, 1)
	req := gen.reqs[0]
	assert.Equal(t, 300, req.MaxTokens)
	assert.Equal(t, 0.1, req.Temperature)
	assert.Contains(t, req.System, "💻")
	assert.Contains(t, req.User, "chunk-5")
	assert.NotContains(t, req.User, "chunk-6")
}

func TestSynthesize_ComplexBudget(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	s := New(gen, profile.Default(), nil)

	s.Synthesize(context.Background(), "q", docs(1), intent.Analysis{Primary: intent.TopicSkills, Complex: true})
	require.Len(t, gen.reqs, 1)
	assert.Equal(t, 400, gen.reqs[0].MaxTokens)
}

func TestSynthesize_Fallback(t *testing.T) {
	tests := []struct {
		name string
		gen  llm.Generator
	}{
		{"service error", &fakeGenerator{err: errors.New("503")}},
		{"timeout", &fakeGenerator{err: context.DeadlineExceeded}},
		{"no generator", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.gen, profile.Default(), nil)
			ans := s.Synthesize(context.Background(), "q", docs(2), intent.Analysis{Primary: intent.TopicEducation})

			assert.Equal(t, "Technical issue occurred while processing query about education.", ans.Text)
			assert.Equal(t, 0.5, ans.Confidence)
			assert.True(t, ans.Degraded)
			assert.Empty(t, ans.Sources)
		})
	}
}

func TestSelfReply(t *testing.T) {
	s := New(&fakeGenerator{reply: "I'm a helper bot."}, profile.Default(), nil)
	ans := s.SelfReply(context.Background(), "who are you")
	assert.Equal(t, TypeChatbot, ans.QueryType)
	assert.Equal(t, 0.95, ans.Confidence)

	gen := &fakeGenerator{err: errors.New("down")}
	ans = New(gen, profile.Default(), nil).SelfReply(context.Background(), "who are you")
	assert.Equal(t, "I'm Adil's portfolio assistant. Ask me about his projects or experience!", ans.Text)
	assert.Equal(t, 0.9, ans.Confidence)
	require.Len(t, gen.reqs, 1)
	assert.Equal(t, 50, gen.reqs[0].MaxTokens)
	assert.Equal(t, 0.2, gen.reqs[0].Temperature)
}

func TestGeneralReply(t *testing.T) {
	t.Run("arithmetic is local", func(t *testing.T) {
		gen := &fakeGenerator{}
		ans := New(gen, profile.Default(), nil).GeneralReply(context.Background(), "what is 12 * 3?")
		assert.Equal(t, "🔢 The result is **36**.", ans.Text)
		assert.Equal(t, TypeMath, ans.QueryType)
		assert.Empty(t, gen.reqs)
	})

	t.Run("generated", func(t *testing.T) {
		ans := New(&fakeGenerator{reply: "Paris."}, profile.Default(), nil).GeneralReply(context.Background(), "capital of France")
		assert.Equal(t, "🌍 Paris.", ans.Text)
		assert.Equal(t, TypeGeneral, ans.QueryType)
		assert.Empty(t, ans.Sources)
	})

	t.Run("redirect on failure", func(t *testing.T) {
		ans := New(&fakeGenerator{err: errors.New("x")}, profile.Default(), nil).GeneralReply(context.Background(), "capital of France")
		assert.Equal(t, TypeRedirect, ans.QueryType)
		assert.Equal(t, 0.7, ans.Confidence)
		assert.True(t, strings.HasPrefix(ans.Text, "📋 I specialize in Adil's"))
	})
}

func TestNoInfo(t *testing.T) {
	ans := New(nil, profile.Default(), nil).NoInfo("favourite food")
	assert.Contains(t, ans.Text, "'favourite food' in Adil's portfolio")
	assert.Equal(t, TypeNoInfo, ans.QueryType)
	assert.Equal(t, 0.6, ans.Confidence)
}

func TestThirdParty(t *testing.T) {
	s := New(nil, profile.Default(), nil)

	ans := s.ThirdParty("asad")
	assert.True(t, strings.HasPrefix(ans.Text, "**About Asad Ali**\n\n"))
	assert.Contains(t, ans.Text, "elder brother")

	ans = s.ThirdParty("rohail")
	assert.Contains(t, ans.Text, "friend from Islamia College Peshawar")
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		expr string
		want string
		ok   bool
	}{
		{"2+2", "4", true},
		{"10 - 15", "-5", true},
		{"7 / 2", "3.5", true},
		{"1.5*2", "3", true},
		{"5 / 0", "", false},
		{"hello", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, ok := Evaluate(tt.expr)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEmoji(t *testing.T) {
	assert.Equal(t, "📧", Emoji(intent.TopicContact))
	assert.Equal(t, "📋", Emoji(intent.Topic("unknown")))
}
