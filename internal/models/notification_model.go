package models

import "time"

// Notification is an in-app message stored in the notifications collection.
type Notification struct {
	ID        string            `json:"id" firestore:"-"`
	UserID    string            `json:"userId" firestore:"userId"`
	Type      string            `json:"type" firestore:"type"`
	Title     string            `json:"title" firestore:"title"`
	Body      string            `json:"body" firestore:"body"`
	Data      map[string]string `json:"data,omitempty" firestore:"data,omitempty"`
	Read      bool              `json:"read" firestore:"read"`
	CreatedAt time.Time         `json:"createdAt" firestore:"createdAt"`
}
