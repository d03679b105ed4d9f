package currency

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"
)

const (
	ERAPIURL            = "https://open.er-api.com/v6/latest/INR"
	CurrConvURL         = "https://free.currconv.com/api/v7/convert"
	OpenExchangeRateURL = "https://openexchangerates.org/api/latest.json"

	maxPayloadSize = 1 << 20
)

var (
	ErrMissingCredentials = errors.New("missing API credentials")
	ErrRateNotFound       = errors.New("rate not found in response")
	errInvalidRate        = errors.New("rate is not a positive number")
)

// ERAPISource reads rates.NPR from the open.er-api.com INR table.
type ERAPISource struct {
	URL    string
	Client *http.Client
}

func NewERAPISource(client *http.Client) *ERAPISource {
	return &ERAPISource{URL: ERAPIURL, Client: client}
}

func (s *ERAPISource) Name() string { return "open.er-api.com" }

func (s *ERAPISource) Fetch(ctx context.Context) (float64, error) {
	body, err := getJSON(ctx, s.Client, s.URL)
	if err != nil {
		return 0, err
	}
	return readRate(body, "rates.NPR")
}

// CurrConvSource reads INR_NPR from the free.currconv.com converter.
type CurrConvSource struct {
	URL    string
	APIKey string
	Client *http.Client
}

func NewCurrConvSource(apiKey string, client *http.Client) *CurrConvSource {
	return &CurrConvSource{URL: CurrConvURL, APIKey: apiKey, Client: client}
}

func (s *CurrConvSource) Name() string { return "free.currconv.com" }

func (s *CurrConvSource) Fetch(ctx context.Context) (float64, error) {
	if s.APIKey == "" {
		return 0, ErrMissingCredentials
	}

	q := url.Values{}
	q.Set("q", "INR_NPR")
	q.Set("compact", "ultra")
	q.Set("apiKey", s.APIKey)

	body, err := getJSON(ctx, s.Client, s.URL+"?"+q.Encode())
	if err != nil {
		return 0, err
	}
	return readRate(body, "INR_NPR")
}

// OpenExchangeRatesSource derives INR→NPR from the USD based table.
type OpenExchangeRatesSource struct {
	URL    string
	AppID  string
	Client *http.Client
}

func NewOpenExchangeRatesSource(appID string, client *http.Client) *OpenExchangeRatesSource {
	return &OpenExchangeRatesSource{URL: OpenExchangeRateURL, AppID: appID, Client: client}
}

func (s *OpenExchangeRatesSource) Name() string { return "openexchangerates.org" }

func (s *OpenExchangeRatesSource) Fetch(ctx context.Context) (float64, error) {
	if s.AppID == "" {
		return 0, ErrMissingCredentials
	}

	q := url.Values{}
	q.Set("app_id", s.AppID)
	q.Set("base", "USD")

	body, err := getJSON(ctx, s.Client, s.URL+"?"+q.Encode())
	if err != nil {
		return 0, err
	}

	usdToINR, err := readRate(body, "rates.INR")
	if err != nil {
		return 0, err
	}
	usdToNPR, err := readRate(body, "rates.NPR")
	if err != nil {
		return 0, err
	}
	return usdToNPR / usdToINR, nil
}

// DefaultSources returns the rate APIs in the order they are tried.
func DefaultSources(currConvKey, openExchangeAppID string, client *http.Client) []Source {
	return []Source{
		NewERAPISource(client),
		NewCurrConvSource(currConvKey, client),
		NewOpenExchangeRatesSource(openExchangeAppID, client),
	}
}

func getJSON(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read rate response: %w", err)
	}
	return body, nil
}

func readRate(body []byte, path string) (float64, error) {
	if !gjson.ValidBytes(body) {
		return 0, fmt.Errorf("%w: invalid JSON", ErrRateNotFound)
	}

	v := gjson.GetBytes(body, path)
	if !v.Exists() || (v.Type != gjson.Number && v.Type != gjson.String) {
		return 0, fmt.Errorf("%w: %s", ErrRateNotFound, path)
	}

	rate := v.Float()
	if !validRate(rate) {
		return 0, fmt.Errorf("%w: %s=%s", errInvalidRate, path, v.Raw)
	}
	return rate, nil
}
