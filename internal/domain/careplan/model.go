// Package careplan stores the generated care-plan document, one per
// order. Content is opaque markdown from the generation call; this
// package never interprets it.
package careplan

import (
	"time"

	"github.com/google/uuid"
)

type CarePlan struct {
	ID            uuid.UUID `json:"id"`
	OrderID       uuid.UUID `json:"order_id"`
	Content       string    `json:"content"`
	Model         string    `json:"model"`
	PromptVersion string    `json:"prompt_version"`
	CreatedAt     time.Time `json:"created_at"`
}
