package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cognicore/lda/internal/corpus"
	"github.com/cognicore/lda/internal/logging"
	"github.com/cognicore/lda/pkg/lda/ingest"
)

const defaultAPI = "https://hacker-news.firebaseio.com/v0"

// hnItem is a Hacker News story or comment.
type hnItem struct {
	ID    int64  `json:"id"`
	Type  string `json:"type"`
	Time  int64  `json:"time"`
	Title string `json:"title"`
	URL   string `json:"url"`
	Text  string `json:"text"`
}

type fetcher struct {
	client *http.Client
	base   string
}

func main() {
	os.Exit(execute())
}

// execute returns the exit code once every deferred cleanup has run.
func execute() int {
	var (
		count   = flag.Int("count", 100, "Number of top stories to fetch")
		out     = flag.String("out", "hn.jsonl", "Output JSONL file (.gz and .zst are compressed)")
		api     = flag.String("api", defaultAPI, "Hacker News API base URL")
		workers = flag.Int("workers", 8, "Concurrent item requests")
	)
	flag.Parse()

	logging.Init(logging.DefaultConfig())
	log := logging.Component("lda-fetch")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	f := &fetcher{client: &http.Client{Timeout: 15 * time.Second}, base: strings.TrimRight(*api, "/")}
	n, err := run(ctx, f, log, *out, *count, *workers)
	if err != nil {
		log.Error().Err(err).Msg("fetch failed")
		return 1
	}
	log.Info().Int("documents", n).Str("out", *out).Msg("fetch complete")
	return 0
}

func run(ctx context.Context, f *fetcher, log zerolog.Logger, out string, count, workers int) (int, error) {
	ids, err := f.topStories(ctx)
	if err != nil {
		return 0, fmt.Errorf("top stories: %w", err)
	}
	if count > 0 && count < len(ids) {
		ids = ids[:count]
	}

	records := make([]*corpus.Record, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, id := range ids {
		g.Go(func() error {
			item, err := f.item(gctx, id)
			if err != nil {
				log.Warn().Int64("id", id).Err(err).Msg("skipping item")
				return nil
			}
			records[i] = toRecord(item)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	w, closeFn, err := create(out)
	if err != nil {
		return 0, err
	}
	cw := corpus.NewWriter(w)
	for _, rec := range records {
		if rec == nil {
			continue
		}
		if err := cw.Write(*rec); err != nil {
			closeFn()
			return 0, err
		}
	}
	return cw.Count(), closeFn()
}

// toRecord keeps stories with a title. Other item types yield nil.
func toRecord(item *hnItem) *corpus.Record {
	if item == nil || item.Type != "story" || item.Title == "" {
		return nil
	}
	return &corpus.Record{
		ID:    fmt.Sprintf("hn-%d", item.ID),
		Title: item.Title,
		Text:  ingest.StripHTML(item.Text),
	}
}

func (f *fetcher) topStories(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := f.get(ctx, f.base+"/topstories.json", &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (f *fetcher) item(ctx context.Context, id int64) (*hnItem, error) {
	var item hnItem
	if err := f.get(ctx, fmt.Sprintf("%s/item/%d.json", f.base, id), &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (f *fetcher) get(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: HTTP %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// create opens path for writing, compressing by extension.
func create(path string) (io.Writer, func() error, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	switch {
	case strings.HasSuffix(path, ".gz"):
		gz := gzip.NewWriter(file)
		return gz, closeBoth(gz.Close, file.Close), nil
	case strings.HasSuffix(path, ".zst"):
		zw, err := zstd.NewWriter(file)
		if err != nil {
			file.Close()
			return nil, nil, err
		}
		return zw, closeBoth(zw.Close, file.Close), nil
	}
	return file, file.Close, nil
}

func closeBoth(inner, outer func() error) func() error {
	return func() error {
		err := inner()
		if cerr := outer(); err == nil {
			err = cerr
		}
		return err
	}
}
