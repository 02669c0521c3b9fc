// Package history keeps users' conversations with the flows and a personal
// library of saved snippets.
package history

import (
	"errors"
	"strings"
	"time"

	"codecanvas/pkg/core/flows"
	"codecanvas/pkg/core/utils"

	"github.com/google/uuid"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// titleLength is how many characters of the first input name a conversation.
const titleLength = 40

var (
	ErrNotFound = errors.New("history: not found")
	// ErrInvalidID rejects user and conversation ids that are not a single path element.
	ErrInvalidID = errors.New("history: invalid id")
)

// Message is one turn of a conversation. For user messages Prompt holds the
// text the user sent (a request or the code to analyze/document); assistant
// messages carry the result of the flow named by Type.
type Message struct {
	ID            string                             `json:"id"`
	Role          string                             `json:"role"`
	Type          string                             `json:"type"`
	Prompt        string                             `json:"prompt"`
	Code          string                             `json:"code,omitempty"`
	Explanation   string                             `json:"explanation,omitempty"`
	FileName      string                             `json:"fileName,omitempty"`
	Analysis      *flows.AnalyzeCodeOutput           `json:"analysis,omitempty"`
	Documentation *flows.GenerateDocumentationOutput `json:"documentation,omitempty"`
	CreatedAt     time.Time                          `json:"createdAt"`
}

type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewConversation starts a conversation titled after its first input.
func NewConversation(userID, firstInput string) *Conversation {
	now := time.Now().UTC()
	return &Conversation{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     Title(firstInput),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Title derives a conversation title from its first input: the first markdown
// heading if there is one, otherwise the leading text, cut to 40 characters.
func Title(input string) string {
	text := utils.FirstHeading(input)
	if text == "" {
		if plain, err := utils.PlainText(input); err == nil {
			text = plain
		}
	}
	if text == "" {
		text = strings.Join(strings.Fields(input), " ")
	}
	if r := []rune(text); len(r) > titleLength {
		return string(r[:titleLength]) + "..."
	}
	return text
}

// Append adds m, filling its ID and timestamp when unset.
func (c *Conversation) Append(m Message) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	c.Messages = append(c.Messages, m)
	c.UpdatedAt = m.CreatedAt
}

// Turns renders the conversation as the history the generate flow reads,
// oldest first. An assistant turn is its explanation, followed by the code
// when it is a generate turn.
func (c *Conversation) Turns() []flows.ConversationTurn {
	turns := make([]flows.ConversationTurn, 0, len(c.Messages))
	for _, m := range c.Messages {
		if m.Role == RoleUser {
			turns = append(turns, flows.ConversationTurn{Role: RoleUser, Content: m.Prompt})
			continue
		}
		content := m.Explanation
		if m.Type == flows.Generate && m.Code != "" {
			content += "\n\nCódigo generado:\n" + m.Code
		}
		turns = append(turns, flows.ConversationTurn{Role: RoleAssistant, Content: content})
	}
	return turns
}

// Summary is a conversation without its messages, for listings.
type Summary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  int       `json:"messages"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *Conversation) Summary() Summary {
	return Summary{ID: c.ID, Title: c.Title, Messages: len(c.Messages), UpdatedAt: c.UpdatedAt}
}
