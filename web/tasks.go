package web

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/gconnectapp/gconnect/argo"
)

// Task is the to-do shaping of a homework record used by the frontend: one
// checkable line per assignment.
type Task struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Done bool   `json:"done"`
	Date string `json:"date"`
}

// TasksFromHomework flattens homework records into tasks. IDs are the due
// date plus a short random suffix — stable enough for list keys, unique
// across assignments sharing a date.
func TasksFromHomework(hw []argo.HomeworkRecord) []Task {
	tasks := make([]Task, 0, len(hw))
	for _, rec := range hw {
		text := rec.Description
		if rec.Subject != "" {
			text = rec.Subject + ": " + rec.Description
		}
		tasks = append(tasks, Task{
			ID:   rec.DueDate + "-" + shortID(),
			Text: text,
			Date: rec.DueDate,
		})
	}
	return tasks
}

func shortID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
