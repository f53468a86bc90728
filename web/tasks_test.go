package web

import (
	"strings"
	"testing"

	"github.com/gconnectapp/gconnect/argo"
)

func TestTasksFromHomework(t *testing.T) {
	hw := []argo.HomeworkRecord{
		{Subject: "MATEMATICA", Description: "es. 5 pag. 10", DueDate: "2024-02-01"},
		{Description: "senza materia", DueDate: "2024-02-02"},
	}

	tasks := TasksFromHomework(hw)
	if len(tasks) != 2 {
		t.Fatalf("got %d tasks, want 2", len(tasks))
	}

	if tasks[0].Text != "MATEMATICA: es. 5 pag. 10" {
		t.Errorf("Text = %q", tasks[0].Text)
	}
	if tasks[1].Text != "senza materia" {
		t.Errorf("subjectless Text = %q", tasks[1].Text)
	}
	if tasks[0].Date != "2024-02-01" || tasks[0].Done {
		t.Errorf("task = %+v", tasks[0])
	}
	if !strings.HasPrefix(tasks[0].ID, "2024-02-01-") {
		t.Errorf("ID = %q, want a due-date prefix", tasks[0].ID)
	}
	if tasks[0].ID == tasks[1].ID {
		t.Error("task IDs collide")
	}
}

func TestTasksFromHomeworkEmpty(t *testing.T) {
	tasks := TasksFromHomework(nil)
	if tasks == nil || len(tasks) != 0 {
		t.Errorf("tasks = %v, want an empty non-nil slice", tasks)
	}
}
