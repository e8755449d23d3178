// Package catalog is a thin client for the remote media catalog. It only
// produces the MediaItem shape the rest of the app consumes; presentation is
// someone else's job.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"

	"watchlog/models"
)

const defaultBaseURL = "https://api.themoviedb.org/3"

// Client provides access to the catalog API.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/"); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLanguage sets the preferred metadata language.
func WithLanguage(language string) Option {
	return func(c *Client) {
		c.language = strings.TrimSpace(language)
	}
}

// New creates a catalog client.
func New(apiKey string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("catalog api key required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// SearchResponse is one page of catalog search matches.
type SearchResponse struct {
	Page         int                `json:"page"`
	Results      []models.MediaItem `json:"results"`
	TotalPages   int                `json:"totalPages"`
	TotalResults int                `json:"totalResults"`
}

// searchResult is the raw catalog record. Movies carry title/release_date,
// shows carry name/first_air_date.
type searchResult struct {
	ID               int     `json:"id"`
	Title            string  `json:"title"`
	Name             string  `json:"name"`
	Overview         string  `json:"overview"`
	PosterPath       string  `json:"poster_path"`
	BackdropPath     string  `json:"backdrop_path"`
	ReleaseDate      string  `json:"release_date"`
	FirstAirDate     string  `json:"first_air_date"`
	VoteAverage      float64 `json:"vote_average"`
	GenreIDs         []int   `json:"genre_ids"`
	MediaType        string  `json:"media_type"`
	OriginalLanguage string  `json:"original_language"`
}

type searchResponse struct {
	Page         int            `json:"page"`
	Results      []searchResult `json:"results"`
	TotalPages   int            `json:"total_pages"`
	TotalResults int            `json:"total_results"`
}

// Search queries the catalog by title. Entries that are neither movies nor
// shows (people, collections) are dropped from the results.
func (c *Client) Search(ctx context.Context, query string, page int) (*SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("search query required")
	}
	if page < 1 {
		page = 1
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("include_adult", "false")

	var raw searchResponse
	if err := c.get(ctx, "/search/multi", params, &raw); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	response := &SearchResponse{
		Page:         raw.Page,
		Results:      make([]models.MediaItem, 0, len(raw.Results)),
		TotalPages:   raw.TotalPages,
		TotalResults: raw.TotalResults,
	}
	for _, result := range raw.Results {
		mediaType := models.MediaType(result.MediaType)
		if !mediaType.Valid() {
			continue
		}
		response.Results = append(response.Results, mapResult(result, mediaType))
	}
	return response, nil
}

func mapResult(r searchResult, mediaType models.MediaType) models.MediaItem {
	title := r.Title
	releaseDate := r.ReleaseDate
	if mediaType == models.MediaTypeTV {
		title = r.Name
		releaseDate = r.FirstAirDate
	}
	return models.MediaItem{
		ID:               r.ID,
		Title:            title,
		Overview:         r.Overview,
		PosterPath:       r.PosterPath,
		BackdropPath:     r.BackdropPath,
		ReleaseDate:      releaseDate,
		VoteAverage:      r.VoteAverage,
		GenreIDs:         r.GenreIDs,
		MediaType:        mediaType,
		OriginalLanguage: r.OriginalLanguage,
	}
}

// Genre is a named genre as returned by the detail endpoints.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Details is the full record for one catalog entry.
type Details struct {
	models.MediaItem
	Tagline          string  `json:"tagline,omitempty"`
	Status           string  `json:"status,omitempty"`
	Homepage         string  `json:"homepage,omitempty"`
	RuntimeMinutes   int     `json:"runtimeMinutes,omitempty"`
	NumberOfSeasons  int     `json:"numberOfSeasons,omitempty"`
	NumberOfEpisodes int     `json:"numberOfEpisodes,omitempty"`
	Genres           []Genre `json:"genres,omitempty"`
	LanguageName     string  `json:"languageName,omitempty"`
}

type detailResponse struct {
	searchResult
	Tagline          string  `json:"tagline"`
	Status           string  `json:"status"`
	Homepage         string  `json:"homepage"`
	Runtime          int     `json:"runtime"`
	NumberOfSeasons  int     `json:"number_of_seasons"`
	NumberOfEpisodes int     `json:"number_of_episodes"`
	Genres           []Genre `json:"genres"`
}

// Details fetches the full record for one entry. Extras are forwarded via
// append_to_response.
func (c *Client) Details(ctx context.Context, id int, mediaType models.MediaType, extras ...string) (*Details, error) {
	if !mediaType.Valid() {
		return nil, fmt.Errorf("unknown media type %q", mediaType)
	}
	if id <= 0 {
		return nil, errors.New("catalog id required")
	}

	params := url.Values{}
	if len(extras) > 0 {
		params.Set("append_to_response", strings.Join(extras, ","))
	}

	var raw detailResponse
	path := fmt.Sprintf("/%s/%d", mediaType, id)
	if err := c.get(ctx, path, params, &raw); err != nil {
		return nil, fmt.Errorf("details %s/%d: %w", mediaType, id, err)
	}

	details := &Details{
		MediaItem:        mapResult(raw.searchResult, mediaType),
		Tagline:          raw.Tagline,
		Status:           raw.Status,
		Homepage:         raw.Homepage,
		RuntimeMinutes:   raw.Runtime,
		NumberOfSeasons:  raw.NumberOfSeasons,
		NumberOfEpisodes: raw.NumberOfEpisodes,
		Genres:           raw.Genres,
	}
	details.LanguageName = models.LanguageName(details.MediaItem.OriginalLanguage)
	return details, nil
}

// Ref identifies one catalog entry for batch fetching.
type Ref struct {
	ID        int              `json:"id"`
	MediaType models.MediaType `json:"mediaType"`
}

// DetailsBatch fetches several records concurrently over a bounded pool.
// Results arrive in completion order; match them up by id.
func (c *Client) DetailsBatch(ctx context.Context, refs []Ref) ([]*Details, error) {
	p := pool.NewWithResults[*Details]().WithContext(ctx).WithMaxGoroutines(4)
	for _, ref := range refs {
		p.Go(func(ctx context.Context) (*Details, error) {
			return c.Details(ctx, ref.ID, ref.MediaType)
		})
	}
	return p.Wait()
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}

	endpoint := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("catalog responded %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
