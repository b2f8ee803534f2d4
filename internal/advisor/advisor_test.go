package advisor

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalambet/careerpath/internal/roadmap"
)

func newTestAdvisor() *Advisor {
	return New(WithSource(rand.NewPCG(1, 2)), WithDelay(0, 0))
}

func TestRespond_RoadmapWithoutInterests(t *testing.T) {
	a := newTestAdvisor()

	got := a.Respond("Can you show my ROADMAP?", Context{})
	assert.Equal(t, DefaultRules[0].Respond(Context{}), got)
	assert.Contains(t, got, "please complete your profile")
}

func TestRespond_RoadmapWithInterests(t *testing.T) {
	a := newTestAdvisor()

	got := a.Respond("what path should I take", Context{Interests: []string{"Web Dev", "Data"}})
	assert.Contains(t, got, "Based on your interests in web dev, data,")
}

func TestRespond_SkillNamesWeakest(t *testing.T) {
	a := newTestAdvisor()
	c := Context{Skills: []roadmap.Skill{{Name: "CSS", Mastery: 20}, {Name: "JS", Mastery: 90}}}

	got := a.Respond("which skill next?", c)
	assert.Contains(t, got, "your CSS skill could use some improvement")
}

func TestRespond_SkillTieKeepsFirst(t *testing.T) {
	a := newTestAdvisor()
	c := Context{Skills: []roadmap.Skill{{Name: "Go", Mastery: 10}, {Name: "Rust", Mastery: 10}}}

	assert.Contains(t, a.Respond("I want to learn", c), "your Go skill")
}

func TestRespond_SkillWithoutSkills(t *testing.T) {
	a := newTestAdvisor()
	assert.Contains(t, a.Respond("learn", Context{}), "Start by adding your current skills")
}

func TestRespond_Career(t *testing.T) {
	a := newTestAdvisor()

	low := Context{Skills: []roadmap.Skill{{Name: "Go", Mastery: 69}, {Name: "SQL", Mastery: 70}}}
	assert.Contains(t, a.Respond("job hunting", low), "aim to get your average skill mastery above 70%")

	high := Context{Skills: []roadmap.Skill{{Name: "Go", Mastery: 70}}}
	assert.Contains(t, a.Respond("interview tips", high), "Your skills are at a good level")
}

func TestRespond_RuleOrder(t *testing.T) {
	a := newTestAdvisor()

	// "roadmap" outranks "project".
	got := a.Respond("roadmap for my project", Context{})
	assert.Contains(t, got, "I'd love to help you create a roadmap")

	tests := map[string]string{
		"need a portfolio":      "A strong portfolio",
		"I feel stuck":          "Learning can be challenging",
		"what about money":      "Salary depends on location",
		"can I work from home?": "Remote opportunities are abundant",
		"remote positions":      "Remote opportunities are abundant",
	}
	for msg, want := range tests {
		assert.Contains(t, a.Respond(msg, Context{}), want, msg)
	}
}

func TestRespond_CustomRules(t *testing.T) {
	rules := []Rule{
		{Name: "greet", Keywords: []string{"hello"}, Respond: fixed("hi")},
		{Name: "wave", Keywords: []string{"hello", "wave"}, Respond: fixed("o/")},
		{Name: "count", Keywords: []string{"skills"}, Respond: func(c Context) string {
			return fmt.Sprintf("%d skills", len(c.Skills))
		}},
	}
	a := New(WithSource(rand.NewPCG(1, 2)), WithDelay(0, 0), WithRules(rules))

	assert.Equal(t, "hi", a.Respond("HELLO and wave", Context{}))
	assert.Equal(t, "o/", a.Respond("wave back", Context{}))
	assert.Equal(t, "2 skills", a.Respond("my skills", Context{Skills: []roadmap.Skill{{Name: "Go"}, {Name: "SQL"}}}))

	// Default keywords no longer apply.
	assert.Contains(t, DefaultResponses, a.Respond("show my roadmap", Context{}))
}

func TestRespond_FallbackDeterministic(t *testing.T) {
	a := New(WithSource(rand.NewPCG(7, 7)))
	b := New(WithSource(rand.NewPCG(7, 7)))

	for i := 0; i < 10; i++ {
		ra := a.Respond("hello there", Context{})
		rb := b.Respond("hello there", Context{})
		assert.Equal(t, ra, rb)
		assert.Contains(t, DefaultResponses, ra)
	}
}

func TestDelay_Range(t *testing.T) {
	a := New(WithSource(rand.NewPCG(3, 4)), WithDelay(time.Second, 2*time.Second))
	for i := 0; i < 50; i++ {
		d := a.Delay()
		assert.GreaterOrEqual(t, d, time.Second)
		assert.Less(t, d, 2*time.Second)
	}

	fixedDelay := New(WithDelay(5*time.Millisecond, time.Millisecond))
	assert.Equal(t, 5*time.Millisecond, fixedDelay.Delay())
}

func TestReply_Cancelled(t *testing.T) {
	a := New(WithDelay(time.Hour, 2*time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Reply(ctx, "roadmap", Context{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReply_NoDelay(t *testing.T) {
	a := newTestAdvisor()

	got, err := a.Reply(context.Background(), "portfolio", Context{})
	require.NoError(t, err)
	assert.Contains(t, got, "A strong portfolio")
}

func TestConversation(t *testing.T) {
	c := NewConversation(newTestAdvisor())

	msgs := c.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, RoleAssistant, msgs[0].Role)
	assert.Equal(t, Greeting, msgs[0].Content)

	_, err := c.Send(context.Background(), "   ", Context{})
	assert.ErrorIs(t, err, ErrEmptyMessage)

	reply, err := c.Send(context.Background(), "  help with my portfolio ", Context{})
	require.NoError(t, err)
	assert.Equal(t, RoleAssistant, reply.Role)

	msgs = c.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, RoleUser, msgs[1].Role)
	assert.Equal(t, "help with my portfolio", msgs[1].Content)
	assert.Equal(t, reply.ID, msgs[2].ID)
	assert.False(t, c.Pending())
}

func TestConversation_CancelledKeepsUserMessage(t *testing.T) {
	c := NewConversation(New(WithDelay(time.Hour, 2*time.Hour)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Send(ctx, "hello", Context{})
	assert.ErrorIs(t, err, context.Canceled)

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, RoleUser, msgs[1].Role)
	assert.False(t, c.Pending())
}
