package sunrise

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultAPIURL is the public sunrise-sunset.org endpoint.
const DefaultAPIURL = "https://api.sunrise-sunset.org/json"

// apiResponse mirrors the sunrise-sunset.org JSON body with formatted=0.
type apiResponse struct {
	Results apiResults `json:"results"`
	Status  string     `json:"status"`
}

type apiResults struct {
	Sunrise string `json:"sunrise"` // RFC3339, UTC
	Sunset  string `json:"sunset"`
}

// APIClient looks sunrise up over HTTP.
type APIClient struct {
	baseURL string
	loc     Location
	http    *http.Client
}

// NewAPIClient returns a client for baseURL. A nil httpClient uses a client
// with a 10 second timeout.
func NewAPIClient(baseURL string, loc Location, httpClient *http.Client) *APIClient {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &APIClient{baseURL: baseURL, loc: loc, http: httpClient}
}

// Sunrise fetches the sunrise for day's calendar date.
func (c *APIClient) Sunrise(ctx context.Context, day time.Time) (time.Time, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse api url: %w", err)
	}
	q := u.Query()
	q.Set("lat", strconv.FormatFloat(c.loc.Lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(c.loc.Lon, 'f', -1, 64))
	q.Set("date", day.Format("2006-01-02"))
	q.Set("formatted", "0")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return time.Time{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return time.Time{}, fmt.Errorf("sunrise request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return time.Time{}, fmt.Errorf("%w: http status %d", ErrLookupFailed, resp.StatusCode)
	}
	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return time.Time{}, fmt.Errorf("%w: decode: %v", ErrLookupFailed, err)
	}
	if body.Status != "OK" {
		return time.Time{}, fmt.Errorf("%w: status %q", ErrLookupFailed, body.Status)
	}
	rise, err := time.Parse(time.RFC3339, body.Results.Sunrise)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: sunrise %q: %v", ErrLookupFailed, body.Results.Sunrise, err)
	}
	return rise, nil
}
