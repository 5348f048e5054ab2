// Package oddsapi implements contracts.OddsProvider against the-odds-api.com's
// v4 REST surface (spec §6). Grounded on
// settlement-service/internal/settler.Settler.fetchEventScores for the
// request-build/decode shape, and on Agentchow-HFTKalshiGo's
// x/time/rate.Limiter field pattern for outbound pacing, independent of and
// upstream from the Budget Governor's credit ledger (SPEC_FULL.md §2.2).
package oddsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/avery-hale/sharpline/pkg/contracts"
)

// Client is a contracts.OddsProvider backed by HTTP calls to the-odds-api.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(5), 5),
	}
}

type sportResponse struct {
	Key          string `json:"key"`
	Title        string `json:"title"`
	Active       bool   `json:"active"`
	HasOutrights bool   `json:"has_outrights"`
}

func (c *Client) ActiveSports(ctx context.Context) ([]contracts.SportInfo, error) {
	var raw []sportResponse
	if err := c.get(ctx, "/sports", url.Values{}, &raw); err != nil {
		return nil, fmt.Errorf("active sports: %w", err)
	}

	out := make([]contracts.SportInfo, 0, len(raw))
	for _, s := range raw {
		out = append(out, contracts.SportInfo{Key: s.Key, Title: s.Title, Active: s.Active, HasOutrights: s.HasOutrights})
	}
	return out, nil
}

type outcomeResponse struct {
	Name  string   `json:"name"`
	Price float64  `json:"price"`
	Point *float64 `json:"point,omitempty"`
}

type marketResponse struct {
	Key      string            `json:"key"`
	Outcomes []outcomeResponse `json:"outcomes"`
}

type bookmakerResponse struct {
	Key     string           `json:"key"`
	Title   string           `json:"title"`
	Markets []marketResponse `json:"markets"`
}

type eventResponse struct {
	ID           string              `json:"id"`
	SportKey     string              `json:"sport_key"`
	HomeTeam     string              `json:"home_team"`
	AwayTeam     string              `json:"away_team"`
	CommenceTime string              `json:"commence_time"`
	Bookmakers   []bookmakerResponse `json:"bookmakers"`
}

func (c *Client) OddsForSport(ctx context.Context, sportKey string, bookmakers []string) ([]contracts.EventOdds, contracts.CreditHeaders, error) {
	params := url.Values{
		"markets":    {"h2h,spreads,totals"},
		"bookmakers": {strings.Join(bookmakers, ",")},
		"oddsFormat": {"american"},
	}

	var raw []eventResponse
	headers, err := c.getWithHeaders(ctx, fmt.Sprintf("/sports/%s/odds", sportKey), params, &raw)
	if err != nil {
		return nil, contracts.CreditHeaders{}, fmt.Errorf("odds for sport %s: %w", sportKey, err)
	}

	events := make([]contracts.EventOdds, 0, len(raw))
	for _, e := range raw {
		books := make([]contracts.BookmakerQuote, 0, len(e.Bookmakers))
		for _, b := range e.Bookmakers {
			markets := make([]contracts.MarketQuote, 0, len(b.Markets))
			for _, m := range b.Markets {
				outcomes := make([]contracts.OutcomeQuote, 0, len(m.Outcomes))
				for _, o := range m.Outcomes {
					outcomes = append(outcomes, contracts.OutcomeQuote{Name: o.Name, Price: o.Price, Point: o.Point})
				}
				markets = append(markets, contracts.MarketQuote{Key: m.Key, Outcomes: outcomes})
			}
			books = append(books, contracts.BookmakerQuote{Key: b.Key, Title: b.Title, Markets: markets})
		}
		events = append(events, contracts.EventOdds{
			ID: e.ID, SportKey: e.SportKey, HomeTeam: e.HomeTeam, AwayTeam: e.AwayTeam,
			CommenceTime: e.CommenceTime, Bookmakers: books,
		})
	}

	return events, headers, nil
}

type scoreResponse struct {
	ID        string `json:"id"`
	HomeTeam  string `json:"home_team"`
	AwayTeam  string `json:"away_team"`
	Completed bool   `json:"completed"`
	Scores    []struct {
		Name  string `json:"name"`
		Score string `json:"score"`
	} `json:"scores"`
}

func (c *Client) ScoresForSport(ctx context.Context, sportKey string, daysFrom int) ([]contracts.ScoreEntry, error) {
	params := url.Values{"daysFrom": {strconv.Itoa(daysFrom)}}

	var raw []scoreResponse
	if err := c.get(ctx, fmt.Sprintf("/sports/%s/scores", sportKey), params, &raw); err != nil {
		return nil, fmt.Errorf("scores for sport %s: %w", sportKey, err)
	}

	out := make([]contracts.ScoreEntry, 0, len(raw))
	for _, e := range raw {
		entry := contracts.ScoreEntry{ID: e.ID, HomeTeam: e.HomeTeam, AwayTeam: e.AwayTeam, Completed: e.Completed}
		for _, s := range e.Scores {
			score, err := strconv.ParseFloat(s.Score, 64)
			if err != nil {
				continue
			}
			entry.Scores = append(entry.Scores, contracts.TeamScore{Name: s.Name, Score: score})
		}
		out = append(out, entry)
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	_, err := c.getWithHeaders(ctx, path, params, out)
	return err
}

func (c *Client) getWithHeaders(ctx context.Context, path string, params url.Values, out interface{}) (contracts.CreditHeaders, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return contracts.CreditHeaders{}, fmt.Errorf("rate limiter: %w", err)
	}

	params.Set("apiKey", c.apiKey)
	fullURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return contracts.CreditHeaders{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return contracts.CreditHeaders{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return contracts.CreditHeaders{}, fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	headers := contracts.CreditHeaders{
		RequestsUsed:      atoiOrZero(resp.Header.Get("x-requests-used")),
		RequestsRemaining: atoiOrZero(resp.Header.Get("x-requests-remaining")),
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return headers, fmt.Errorf("decode response: %w", err)
	}

	return headers, nil
}

func atoiOrZero(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}
