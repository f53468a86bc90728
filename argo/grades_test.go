package argo

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func TestGradesFromDashboard(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/dashboard/dashboard", func(w http.ResponseWriter, r *http.Request) {
		writeJSONBody(t, w, dashboardPayload(map[string]any{
			"votiGiornalieri": []any{
				map[string]any{"desMateria": "MATH", "codVoto": "8", "datGiorno": "2024-01-10"},
			},
		}))
	})
	c, s := newRESTClient(t, mux)

	recs, err := c.Grades(context.Background(), s)
	if err != nil {
		t.Fatalf("Grades: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}

	g := recs[0]
	if g.Subject != "MATH" || g.Value != "8" || g.Date != "2024-01-10" {
		t.Errorf("record = %+v", g)
	}
	if g.Weight != "100" {
		t.Errorf("Weight = %q, want the default 100", g.Weight)
	}
	if g.Materia != g.Subject || g.Voto != g.Value || g.Data != g.Date || g.Peso != g.Weight {
		t.Errorf("legacy aliases diverge from canonical fields: %+v", g)
	}
}

func TestGradesDashboardKeyOrder(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/dashboard/dashboard", func(w http.ResponseWriter, r *http.Request) {
		writeJSONBody(t, w, dashboardPayload(map[string]any{
			"votiGiornalieri": []any{},
			"votiPeriodici": []any{
				map[string]any{"materia": "STORIA", "voto": 7.5, "data": "2024-02-01"},
			},
			"valutazioni": []any{
				map[string]any{"materia": "IGNORATA", "voto": "4"},
			},
		}))
	})
	c, s := newRESTClient(t, mux)

	recs, err := c.Grades(context.Background(), s)
	if err != nil {
		t.Fatalf("Grades: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	if recs[0].Subject != "STORIA" || recs[0].Value != "7.5" {
		t.Errorf("wrong key won: %+v", recs[0])
	}
}

func TestGradesEndpointFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/dashboard/dashboard", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/votigiornalieri", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	// /voti is unregistered and 404s; /valutazioni answers wrapped.
	mux.HandleFunc("/valutazioni", func(w http.ResponseWriter, r *http.Request) {
		writeJSONBody(t, w, map[string]any{
			"valutazioni": []any{
				map[string]any{"desMateria": "FISICA", "codVoto": "9"},
			},
		})
	})
	c, s := newRESTClient(t, mux)

	recs, err := c.Grades(context.Background(), s)
	if err != nil {
		t.Fatalf("Grades: %v", err)
	}
	if len(recs) != 1 || recs[0].Subject != "FISICA" {
		t.Fatalf("records = %+v, want the wrapped valutazioni entry", recs)
	}
}

func TestGradesSessionExpired(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "expired", http.StatusUnauthorized)
	})
	c, s := newRESTClient(t, mux)

	_, err := c.Grades(context.Background(), s)
	if !errors.Is(err, ErrSessionExpired) {
		t.Errorf("err = %v, want ErrSessionExpired", err)
	}
}

func TestGradesAllStrategiesMiss(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	c, s := newRESTClient(t, mux)

	recs, err := c.Grades(context.Background(), s)
	if err != nil {
		t.Fatalf("upstream failures must not escape: %v", err)
	}
	if recs == nil || len(recs) != 0 {
		t.Errorf("recs = %v, want an empty non-nil slice", recs)
	}
}

type stubGradeSource struct {
	name  string
	recs  []GradeRecord
	calls int
}

func (s *stubGradeSource) Name() string { return s.name }

func (s *stubGradeSource) Grades(ctx context.Context, _ Session) ([]GradeRecord, error) {
	s.calls++
	return s.recs, nil
}

func TestGradesExtraSourceLast(t *testing.T) {
	stub := &stubGradeSource{
		name: "stub",
		recs: []GradeRecord{newGradeRecord("ARTE", "10", "2024-03-01", "", "")},
	}

	t.Run("consulted after built-ins miss", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		})
		srvClient, s := newRESTClient(t, mux)
		c := New(
			WithEndpoints(srvClient.endpoints),
			WithGradeSources(stub),
		)

		recs, err := c.Grades(context.Background(), s)
		if err != nil {
			t.Fatalf("Grades: %v", err)
		}
		if len(recs) != 1 || recs[0].Subject != "ARTE" {
			t.Errorf("records = %+v", recs)
		}
		if stub.calls != 1 {
			t.Errorf("stub consulted %d times, want 1", stub.calls)
		}
	})

	t.Run("skipped when the dashboard hits", func(t *testing.T) {
		stub.calls = 0
		mux := http.NewServeMux()
		mux.HandleFunc("/dashboard/dashboard", func(w http.ResponseWriter, r *http.Request) {
			writeJSONBody(t, w, dashboardPayload(map[string]any{
				"voti": []any{map[string]any{"materia": "MATH", "voto": "6"}},
			}))
		})
		srvClient, s := newRESTClient(t, mux)
		c := New(
			WithEndpoints(srvClient.endpoints),
			WithGradeSources(stub),
		)

		if _, err := c.Grades(context.Background(), s); err != nil {
			t.Fatalf("Grades: %v", err)
		}
		if stub.calls != 0 {
			t.Errorf("stub consulted %d times, want 0", stub.calls)
		}
	})
}

func TestGradeFromMap(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]any
		want GradeRecord
		keep bool
	}{
		{
			name: "numeric value and weight",
			in:   map[string]any{"materia": "MATH", "voto": float64(8), "peso": float64(50)},
			want: newGradeRecord("MATH", "8", "", "", "50"),
			keep: true,
		},
		{
			name: "value only",
			in:   map[string]any{"codVoto": "7+"},
			want: newGradeRecord("", "7+", "", "", ""),
			keep: true,
		},
		{
			name: "neither subject nor value",
			in:   map[string]any{"datGiorno": "2024-01-01"},
			keep: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, keep := gradeFromMap(tt.in)
			if keep != tt.keep {
				t.Fatalf("keep = %v, want %v", keep, tt.keep)
			}
			if keep && got != tt.want {
				t.Errorf("record = %+v, want %+v", got, tt.want)
			}
		})
	}
}
