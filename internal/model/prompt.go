package model

import "time"

// CategoryRef is the populated form of a prompt's category reference.
type CategoryRef struct {
    ID    string `json:"id"`
    Title string `json:"title,omitempty"`
}

// Prompt is a catalog entry.  PromptText is the gated content; the
// supplementary lists are never nil once loaded from the store.
type Prompt struct {
    ID          string      `json:"id"`
    UserID      string      `json:"user"`
    Category    CategoryRef `json:"category"`
    Title       string      `json:"title"`
    Slug        string      `json:"slug"`
    Description string      `json:"description"`
    PromptText  string      `json:"promptText"`
    IsPremium   bool        `json:"isPremium"`
    KeySentence string      `json:"keySentence,omitempty"`
    WhatItDoes  []string    `json:"whatItDoes"`
    Tips        []string    `json:"tips"`
    HowToUse    []string    `json:"howToUse"`
    CreatedAt   time.Time   `json:"createdAt"`
    UpdatedAt   time.Time   `json:"updatedAt"`
}

// PromptSummary is the public projection returned by category listings.
// Full text is withheld at this tier.
type PromptSummary struct {
    ID          string `json:"id"`
    Title       string `json:"title"`
    Description string `json:"description"`
    IsPremium   bool   `json:"isPremium"`
}
