package domain

import "time"

// Task is a to-do item attached to one candidate. Two titles carry meaning
// for the bot: the homework assignment and the deadline extension request.
type Task struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	DueDate   *Date     `json:"due_date"`
	CreatedAt time.Time `json:"created_at"`
}

// TaskDetails is the full task record including its subscribed references.
type TaskDetails struct {
	Task       Task        `json:"task"`
	References []Reference `json:"references"`
}
