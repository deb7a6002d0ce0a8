package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"clubsite/internal/apperrors"
	"clubsite/internal/models"
)

// CollectionFetcher retrieves the published collections
type CollectionFetcher interface {
	FetchMembers(ctx context.Context, cacheBust bool) ([]models.Member, error)
	FetchNews(ctx context.Context, cacheBust bool) ([]models.NewsItem, error)
	FetchEvents(ctx context.Context, cacheBust bool) ([]models.CalendarEvent, error)
}

// DataFetcher reads members.json, news.json and events.json from a base URL
type DataFetcher struct {
	client  *http.Client
	baseURL string
	now     func() time.Time
	debug   bool
}

// NewDataFetcher creates a fetcher for the files published under baseURL
func NewDataFetcher(client *http.Client, baseURL string, debug bool) *DataFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &DataFetcher{
		client:  client,
		baseURL: baseURL,
		now:     time.Now,
		debug:   debug,
	}
}

func (f *DataFetcher) FetchMembers(ctx context.Context, cacheBust bool) ([]models.Member, error) {
	return fetchCollection[models.Member](ctx, f, models.CollectionMembers, cacheBust)
}

func (f *DataFetcher) FetchNews(ctx context.Context, cacheBust bool) ([]models.NewsItem, error) {
	return fetchCollection[models.NewsItem](ctx, f, models.CollectionNews, cacheBust)
}

func (f *DataFetcher) FetchEvents(ctx context.Context, cacheBust bool) ([]models.CalendarEvent, error) {
	return fetchCollection[models.CalendarEvent](ctx, f, models.CollectionEvents, cacheBust)
}

// fetchCollection downloads and decodes one collection.
// A null or non-array body is reported as malformed.
func fetchCollection[T models.Record](ctx context.Context, f *DataFetcher, name models.CollectionName, cacheBust bool) ([]T, error) {
	url := f.baseURL + "/" + name.FileName()
	if cacheBust {
		url += "?t=" + strconv.FormatInt(f.now().UnixMilli(), 10)
	}
	operation := "fetch " + name.FileName()

	if f.debug {
		log.Printf("[DEBUG] Fetching %s", url)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", name, err)
	}
	req.Header.Set("Accept", "application/json")
	if cacheBust {
		req.Header.Set("Cache-Control", "no-cache")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, apperrors.NewNetworkError(operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, apperrors.NewRemoteError(operation, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewNetworkError(operation, err)
	}

	var items []T
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, apperrors.NewRemoteError(operation, resp.StatusCode, "malformed body: "+err.Error())
	}
	if items == nil {
		return nil, apperrors.NewRemoteError(operation, resp.StatusCode, "malformed body: expected a JSON array")
	}

	if f.debug {
		log.Printf("[DEBUG] Fetched %d records from %s", len(items), url)
	}
	return items, nil
}
