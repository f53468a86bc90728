package argo

import (
	"context"
	"time"
)

// Announcements extracts bulletin-board posts and reminders from the same
// dashboard structure the grade extractor reads. Both arrays are
// concatenated, board posts first.
func (c *Client) Announcements(ctx context.Context, s Session) ([]AnnouncementRecord, error) {
	return c.announcements(ctx, s, nil)
}

func (c *Client) announcements(ctx context.Context, s Session, dash map[string]any) ([]AnnouncementRecord, error) {
	strategies := []strategy[AnnouncementRecord]{
		{name: "dashboard", run: func(ctx context.Context) ([]AnnouncementRecord, error) {
			payload := dash
			if payload == nil {
				var err error
				payload, err = c.dashboard(ctx, s, time.Now().AddDate(0, 0, -30))
				if err != nil {
					return nil, err
				}
			}
			return announcementsFromDashboard(payload), nil
		}},
	}
	return runStrategies(ctx, c, "announcements", strategies)
}

func announcementsFromDashboard(payload map[string]any) []AnnouncementRecord {
	node := dataNode(payload)
	if node == nil {
		return nil
	}

	var out []AnnouncementRecord
	for _, key := range [][]string{
		{"bacheca", "bachecaAlunno"},
		{"promemoria", "prlVisualizzaServizio"},
	} {
		list := firstList(node, key...)
		out = append(out, mapEach(list, announcementFromMap)...)
	}
	return out
}

// announcementFromMap tolerates the two alias sets seen in the wild for
// subject, body and date.
func announcementFromMap(m map[string]any) (AnnouncementRecord, bool) {
	subject := firstString(m, "desOggetto", "oggetto", "titolo")
	body := firstString(m, "desMessaggio", "messaggio", "testo", "desAnnotazioni")
	if subject == "" && body == "" {
		return AnnouncementRecord{}, false
	}
	return newAnnouncementRecord(
		subject,
		body,
		firstString(m, "datGiorno", "data", "datEvento"),
	), true
}
