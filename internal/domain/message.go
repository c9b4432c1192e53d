package domain

import "time"

type Message struct {
	ID        int64
	UserID    int64
	Content   string
	FromUser  bool
	CreatedAt time.Time
}

type Feedback struct {
	ID        int64
	UserID    int64
	Content   string
	CreatedAt time.Time
}
