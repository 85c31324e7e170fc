// Package queue defines message payloads exchanged over the message broker.
package queue

const (
    UserRegisteredQueue = "user.registered"
    PromptCreatedQueue  = "prompt.created"
)

// Queues lists every queue the audit consumer listens to.
var Queues = []string{UserRegisteredQueue, PromptCreatedQueue}

// UserRegisteredEvent is published after a successful registration.
type UserRegisteredEvent struct {
    UserID       string `json:"user_id"`
    Name         string `json:"name"`
    Email        string `json:"email"`
    Role         string `json:"role"`
    RegisteredAt string `json:"registered_at"`
}

// PromptCreatedEvent is published after an admin adds a catalog entry.
type PromptCreatedEvent struct {
    PromptID   string `json:"prompt_id"`
    AuthorID   string `json:"author_id"`
    CategoryID string `json:"category_id"`
    Title      string `json:"title"`
    Slug       string `json:"slug"`
    IsPremium  bool   `json:"is_premium"`
    CreatedAt  string `json:"created_at"`
}
