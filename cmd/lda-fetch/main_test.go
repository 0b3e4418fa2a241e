package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/cognicore/lda/internal/corpus"
)

func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()
	items := map[string]string{
		"1": `{"id":1,"type":"story","title":"Crude oil climbs","text":"<p>OPEC <i>cuts</i></p>"}`,
		"2": `{"id":2,"type":"comment","text":"nice"}`,
		"3": `{"id":3,"type":"story","title":"Wheat harvest"}`,
		"4": `{"id":4,"type":"story","title":""}`,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/topstories.json", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "[1,2,3,4,5]")
	})
	mux.HandleFunc("/item/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/item/"), ".json")
		body, ok := items[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, body)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestToRecord(t *testing.T) {
	tests := []struct {
		name string
		item *hnItem
		want *corpus.Record
	}{
		{"nil", nil, nil},
		{"comment", &hnItem{ID: 1, Type: "comment", Text: "x"}, nil},
		{"untitled story", &hnItem{ID: 2, Type: "story"}, nil},
		{
			name: "story",
			item: &hnItem{ID: 3, Type: "story", Title: "Oil", Text: "<p>prices <b>rise</b></p>"},
			want: &corpus.Record{ID: "hn-3", Title: "Oil", Text: "prices rise"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := toRecord(tt.item)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("toRecord() = %+v, want %+v", got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("toRecord() = %+v, want %+v", *got, *tt.want)
			}
		})
	}
}

func TestRun(t *testing.T) {
	srv := newTestAPI(t)
	f := &fetcher{client: srv.Client(), base: srv.URL}

	for _, name := range []string{"hn.jsonl", "hn.jsonl.gz", "hn.jsonl.zst"} {
		t.Run(name, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), name)
			n, err := run(context.Background(), f, zerolog.Nop(), out, 0, 2)
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if n != 2 {
				t.Fatalf("wrote %d records, want 2", n)
			}

			records, err := corpus.LoadFromJSONL(out)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if len(records) != 2 || records[0].ID != "hn-1" || records[1].ID != "hn-3" {
				t.Fatalf("unexpected records: %+v", records)
			}
			if records[0].Text != "OPEC cuts" {
				t.Errorf("text = %q", records[0].Text)
			}
		})
	}
}

func TestRunCount(t *testing.T) {
	srv := newTestAPI(t)
	f := &fetcher{client: srv.Client(), base: srv.URL}
	out := filepath.Join(t.TempDir(), "hn.jsonl")

	n, err := run(context.Background(), f, zerolog.Nop(), out, 1, 1)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if n != 1 {
		t.Fatalf("wrote %d records, want 1", n)
	}
}

func TestRunTopStoriesError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)
	f := &fetcher{client: srv.Client(), base: srv.URL}

	if _, err := run(context.Background(), f, zerolog.Nop(), filepath.Join(t.TempDir(), "x.jsonl"), 0, 1); err == nil {
		t.Fatal("expected error")
	}
}
