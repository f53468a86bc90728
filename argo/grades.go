package argo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// dashboardGradeKeys is the fixed search order inside a dashboard payload:
// daily grades first, then periodic, then exam-board, then the generic keys
// some schools use instead.
var dashboardGradeKeys = []string{
	"votiGiornalieri",
	"votiPeriodici",
	"votiScrutinio",
	"voti",
	"valutazioni",
}

// gradeEndpointPaths are the direct REST paths tried when the dashboard
// holds no grades. Which one exists depends on the school's backend version.
var gradeEndpointPaths = []string{
	"votigiornalieri",
	"voti",
	"valutazioni",
}

// gradeWrapperKeys are the dict keys a direct endpoint may wrap its list in.
var gradeWrapperKeys = []string{"voti", "dati", "data", "valutazioni"}

// Grades extracts the student's grades. Three strategies run in order: the
// dashboard payload, the direct grade endpoints, then any sources registered
// with WithGradeSources. "No data anywhere" is an empty slice, not an error;
// only ErrSessionExpired escapes.
func (c *Client) Grades(ctx context.Context, s Session) ([]GradeRecord, error) {
	return c.grades(ctx, s, nil)
}

// grades is the engine behind Grades. A non-nil dash payload (from a caller
// that already fetched the dashboard for another domain) is reused instead
// of re-fetching.
func (c *Client) grades(ctx context.Context, s Session, dash map[string]any) ([]GradeRecord, error) {
	strategies := []strategy[GradeRecord]{
		{name: "dashboard", run: func(ctx context.Context) ([]GradeRecord, error) {
			payload := dash
			if payload == nil {
				var err error
				payload, err = c.dashboard(ctx, s, time.Now().AddDate(0, 0, -30))
				if err != nil {
					return nil, err
				}
			}
			return gradesFromDashboard(payload), nil
		}},
		{name: "endpoints", run: func(ctx context.Context) ([]GradeRecord, error) {
			return c.gradesFromEndpoints(ctx, s)
		}},
	}
	for _, src := range c.extra {
		src := src
		strategies = append(strategies, strategy[GradeRecord]{
			name: src.Name(),
			run: func(ctx context.Context) ([]GradeRecord, error) {
				return src.Grades(ctx, s)
			},
		})
	}
	return runStrategies(ctx, c, "grades", strategies)
}

// gradesFromDashboard searches the known key names in order and maps the
// first non-empty list it finds.
func gradesFromDashboard(payload map[string]any) []GradeRecord {
	node := dataNode(payload)
	if node == nil {
		return nil
	}
	for _, key := range dashboardGradeKeys {
		list, ok := node[key].([]any)
		if !ok || len(list) == 0 {
			continue
		}
		if recs := mapEach(list, gradeFromMap); len(recs) > 0 {
			return recs
		}
	}
	return nil
}

// gradesFromEndpoints probes the direct REST paths, accepting either a bare
// list or a wrapped one. Per-path failures eliminate that path only.
func (c *Client) gradesFromEndpoints(ctx context.Context, s Session) ([]GradeRecord, error) {
	for _, path := range gradeEndpointPaths {
		var raw json.RawMessage
		if err := c.restJSON(ctx, s, http.MethodGet, path, nil, &raw); err != nil {
			if errors.Is(err, ErrSessionExpired) {
				return nil, err
			}
			continue
		}
		list := listOrWrapped(raw, gradeWrapperKeys...)
		if recs := mapEach(list, gradeFromMap); len(recs) > 0 {
			return recs, nil
		}
	}
	return nil, nil
}

// gradeFromMap normalizes one upstream grade object. A record is kept as
// long as any alias yields a subject or a value; a missing alias never drops
// the record.
func gradeFromMap(m map[string]any) (GradeRecord, bool) {
	subject := firstString(m, "desMateria", "materia", "subject")
	value := firstString(m, "codVoto", "voto", "valore", "value")
	if subject == "" && value == "" {
		return GradeRecord{}, false
	}
	return newGradeRecord(
		subject,
		value,
		firstString(m, "datGiorno", "data", "date"),
		firstString(m, "desProva", "tipo", "desCommento", "type"),
		firstString(m, "numPeso", "peso", "weight"),
	), true
}
