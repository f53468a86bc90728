package argo

import (
	"context"
	"sort"
	"time"
)

// Homework extracts the student's assignments. The rich strategy reads the
// full-year dashboard payload and flattens the per-subject nested assignment
// lists; the fallback handles the older date-keyed map shape some schools
// still serve. Every due date passes the client's date-shift policy.
func (c *Client) Homework(ctx context.Context, s Session) ([]HomeworkRecord, error) {
	return c.homework(ctx, s, nil)
}

func (c *Client) homework(ctx context.Context, s Session, dash map[string]any) ([]HomeworkRecord, error) {
	fetch := func(ctx context.Context) (map[string]any, error) {
		if dash != nil {
			return dash, nil
		}
		return c.dashboard(ctx, s, schoolYearStart(time.Now()))
	}

	strategies := []strategy[HomeworkRecord]{
		{name: "registro", run: func(ctx context.Context) ([]HomeworkRecord, error) {
			payload, err := fetch(ctx)
			if err != nil {
				return nil, err
			}
			return c.homeworkFromRegistro(payload), nil
		}},
		{name: "datemap", run: func(ctx context.Context) ([]HomeworkRecord, error) {
			payload, err := fetch(ctx)
			if err != nil {
				return nil, err
			}
			return c.homeworkFromDateMap(payload), nil
		}},
	}
	return runStrategies(ctx, c, "homework", strategies)
}

// homeworkFromRegistro flattens the registro entries of a dashboard payload:
// one entry per subject per day, each holding its own assignment list keyed
// by delivery date.
func (c *Client) homeworkFromRegistro(payload map[string]any) []HomeworkRecord {
	node := dataNode(payload)
	if node == nil {
		return nil
	}
	entries := firstList(node, "registro", "compiti")
	if entries == nil {
		return nil
	}

	var out []HomeworkRecord
	for _, el := range entries {
		entry, ok := el.(map[string]any)
		if !ok {
			continue
		}
		subject := firstString(entry, "desMateria", "materia")
		for _, a := range firstList(entry, "compiti", "compito") {
			assignment, ok := a.(map[string]any)
			if !ok {
				continue
			}
			desc := firstString(assignment, "compito", "desCompito", "descrizione")
			if desc == "" {
				continue
			}
			due := c.dateShift.Normalize(firstString(assignment, "dataConsegna", "datConsegna", "data"))
			out = append(out, newHomeworkRecord(subject, desc, due))
		}
	}
	return out
}

// homeworkFromDateMap handles the older shape: a map keyed by date whose
// values pair a compiti list with a materie list by index. Dates sort
// lexicographically (ISO dates) so output order is stable across fetches.
func (c *Client) homeworkFromDateMap(payload map[string]any) []HomeworkRecord {
	source := payload
	if node := dataNode(payload); node != nil {
		source = node
	}

	var dates []string
	for key, val := range source {
		if !isoDate.MatchString(key) {
			continue
		}
		if _, ok := val.(map[string]any); ok {
			dates = append(dates, key)
		}
	}
	sort.Strings(dates)

	var out []HomeworkRecord
	for _, date := range dates {
		day := source[date].(map[string]any)
		compiti, ok := day["compiti"].([]any)
		if !ok {
			continue
		}
		materie, _ := day["materie"].([]any)
		due := c.dateShift.Normalize(date)
		for i, item := range compiti {
			desc := asString(item)
			if desc == "" {
				continue
			}
			subject := ""
			if i < len(materie) {
				subject = asString(materie[i])
			}
			out = append(out, newHomeworkRecord(subject, desc, due))
		}
	}
	return out
}
