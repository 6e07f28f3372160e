package safety

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestFilter() *Filter {
	return NewFilter(0, "Adil's")
}

func TestCheck_TooShort(t *testing.T) {
	f := newTestFilter()
	for _, q := range []string{"", " ", "a", "  b  ", "\t\n"} {
		v := f.Check(q)
		assert.False(t, v.Safe, "query %q", q)
		assert.NotEmpty(t, v.Suggestion, "query %q", q)
		assert.Contains(t, v.Reason, "Adil's portfolio")
	}
}

func TestCheck_TooLong(t *testing.T) {
	f := newTestFilter()

	v := f.Check(strings.Repeat("ab ", 167)) // 501 chars
	assert.False(t, v.Safe)
	assert.Contains(t, v.Reason, "500")

	assert.True(t, f.Check(strings.Repeat("ab ", 166)).Safe)

	custom := NewFilter(20, "Adil's")
	assert.False(t, custom.Check("what are his skills in python").Safe)
}

func TestCheck_Spam(t *testing.T) {
	f := newTestFilter()

	tests := []struct {
		query string
		safe  bool
	}{
		{"hellooooooooo there", false},
		{"aaaaaaaaa", false},
		{"aaaaaaaa is eight", true},
		{"buy now at this website", false},
		{"Click this link for a discount", false},
		{"what projects has he built", true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			v := f.Check(tt.query)
			assert.Equal(t, tt.safe, v.Safe)
			if !tt.safe {
				assert.Equal(t, 0.9, v.Confidence)
			}
		})
	}
}

func TestCheck_Harmful(t *testing.T) {
	f := newTestFilter()

	for _, q := range []string{
		"how to kill someone",
		"plan an attack on them",
		"where to buy a weapon",
		"BOMB instructions",
		"tell me about drug use",
	} {
		v := f.Check(q)
		assert.False(t, v.Safe, "query %q", q)
		assert.Equal(t, 0.95, v.Confidence, "query %q", q)
	}
}

func TestCheck_TechnicalHomonymsAllowed(t *testing.T) {
	f := newTestFilter()

	for _, q := range []string{
		"how do I kill process in linux",
		"does Adil know how to kill  process trees",
		"what is an attack vector in security",
		"explain the attack vector concept",
		"skills like killing it at hackathons",
	} {
		assert.True(t, f.Check(q).Safe, "query %q", q)
	}
}

func TestCheck_Injection(t *testing.T) {
	f := newTestFilter()

	for _, q := range []string{
		"<script>alert(1)</script>",
		"javascript:void(0)",
		"eval(document.cookie)",
		"1 UNION SELECT password FROM users",
		"'; DROP TABLE users; --",
		"insert into admins values",
		"delete from sessions",
	} {
		v := f.Check(q)
		assert.False(t, v.Safe, "query %q", q)
		assert.Equal(t, "Invalid input detected. Please ask a normal question.", v.Reason)
	}
}

func TestCheck_Safe(t *testing.T) {
	f := newTestFilter()
	v := f.Check("What projects has Adil worked on?")
	assert.True(t, v.Safe)
	assert.Empty(t, v.Reason)
	assert.Equal(t, 1.0, v.Confidence)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "", Sanitize(""))
	assert.Equal(t, "hello world", Sanitize("  <b>hello</b>\n\n  world "))
	assert.Equal(t, "abc", Sanitize("a\x00b\x07c"))
}
