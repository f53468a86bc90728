package argo

import (
	"context"
	"net/http"
	"testing"
)

func TestAnnouncementsBoardFirst(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/dashboard/dashboard", func(w http.ResponseWriter, r *http.Request) {
		writeJSONBody(t, w, dashboardPayload(map[string]any{
			"bacheca": []any{
				map[string]any{"desOggetto": "Circolare 42", "desMessaggio": "Uscita anticipata", "datGiorno": "2024-01-15"},
			},
			"promemoria": []any{
				map[string]any{"oggetto": "Colloqui", "testo": "Prenotare entro venerdì", "data": "2024-01-20"},
			},
		}))
	})
	c, s := newRESTClient(t, mux)

	recs, err := c.Announcements(context.Background(), s)
	if err != nil {
		t.Fatalf("Announcements: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}

	if recs[0].Subject != "Circolare 42" || recs[0].Body != "Uscita anticipata" || recs[0].Date != "2024-01-15" {
		t.Errorf("board post = %+v", recs[0])
	}
	if recs[1].Subject != "Colloqui" || recs[1].Date != "2024-01-20" {
		t.Errorf("reminder = %+v", recs[1])
	}
	if recs[0].Oggetto != recs[0].Subject || recs[0].Messaggio != recs[0].Body || recs[0].Data != recs[0].Date {
		t.Errorf("legacy aliases diverge: %+v", recs[0])
	}
}

func TestAnnouncementDatesNotShifted(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/dashboard/dashboard", func(w http.ResponseWriter, r *http.Request) {
		writeJSONBody(t, w, dashboardPayload(map[string]any{
			"bacheca": []any{
				map[string]any{"desOggetto": "Avviso", "datGiorno": "2024-01-15"},
			},
		}))
	})
	c, s := newRESTClient(t, mux)

	recs, err := c.Announcements(context.Background(), s)
	if err != nil {
		t.Fatalf("Announcements: %v", err)
	}
	if recs[0].Date != "2024-01-15" {
		t.Errorf("Date = %q; announcement dates must pass through unshifted", recs[0].Date)
	}
}

func TestAnnouncementFromMap(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]any
		want AnnouncementRecord
		keep bool
	}{
		{
			name: "canonical aliases",
			in:   map[string]any{"desOggetto": "O", "desMessaggio": "M", "datGiorno": "2024-01-01"},
			want: newAnnouncementRecord("O", "M", "2024-01-01"),
			keep: true,
		},
		{
			name: "alternate aliases",
			in:   map[string]any{"titolo": "O", "desAnnotazioni": "M", "datEvento": "2024-01-02"},
			want: newAnnouncementRecord("O", "M", "2024-01-02"),
			keep: true,
		},
		{
			name: "body only",
			in:   map[string]any{"messaggio": "solo testo"},
			want: newAnnouncementRecord("", "solo testo", ""),
			keep: true,
		},
		{
			name: "nothing usable",
			in:   map[string]any{"data": "2024-01-01"},
			keep: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, keep := announcementFromMap(tt.in)
			if keep != tt.keep {
				t.Fatalf("keep = %v, want %v", keep, tt.keep)
			}
			if keep && got != tt.want {
				t.Errorf("record = %+v, want %+v", got, tt.want)
			}
		})
	}
}
