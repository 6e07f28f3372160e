package memory

import "time"

// Role tags who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single message in a session. Turns are never edited once stored.
type Turn struct {
	Role      Role      `json:"role" validate:"required,oneof=user assistant"`
	Content   string    `json:"content" validate:"required,max=4000"`
	Timestamp time.Time `json:"timestamp"`
}

// Entity tags shared by last-entity tracking and recent-topic tracking.
// The subject is tagged with the profile key.
const (
	EntityProjects  = "projects"
	EntitySkills    = "skills"
	EntityFriends   = "friends"
	EntityEducation = "education"
	EntityContact   = "contact"
)

// Context is a read-only snapshot of a session used to resolve pronouns.
type Context struct {
	HasContext   bool     `json:"has_context"`
	LastEntity   string   `json:"last_entity,omitempty"`
	RecentTopics []string `json:"recent_topics"`
	TurnCount    int      `json:"turn_count"`
	LastQuery    string   `json:"last_query,omitempty"`
}

// Stats aggregates all live sessions.
type Stats struct {
	ActiveSessions int            `json:"active_sessions"`
	TotalTurns     int            `json:"total_turns"`
	MaxTurns       int            `json:"max_turns_per_session"`
	PopularTopics  map[string]int `json:"popular_topics"`
}
