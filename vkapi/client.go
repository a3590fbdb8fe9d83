package vkapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/vkmod/vkmod/util"

	"github.com/carlmjohnson/versioninfo"
	"golang.org/x/time/rate"
)

const (
	DefaultHost    = "https://api.vk.com"
	DefaultVersion = "5.199"
	// community access tokens are limited to 20 requests per second
	DefaultRateLimit = 20
)

type Client struct {
	// Client is an HTTP client to use. If not set, defaults to util.RobustHTTPClient().
	Client *http.Client
	// API base URL, without trailing slash
	Host string
	// access token, sent with every request
	Token string
	// API version, sent with every request
	Version string
	// if set, every request waits on this limiter
	Limiter   *rate.Limiter
	UserAgent *string
}

func NewClient(token string) *Client {
	return &Client{
		Client:  util.RobustHTTPClient(),
		Host:    DefaultHost,
		Token:   token,
		Version: DefaultVersion,
		Limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
	}
}

func (c *Client) getClient() *http.Client {
	if c.Client == nil {
		return util.RobustHTTPClient()
	}
	return c.Client
}

// response envelope for all API methods: exactly one of the fields is set
type envelope struct {
	Response json.RawMessage `json:"response"`
	Error    *APIError       `json:"error"`
}

// makeParams converts a map of string keys and any values into form values.
// Slices are joined with commas, which is how the API expects lists; booleans
// become "1" or "0".
func makeParams(p map[string]any) url.Values {
	params := url.Values{}
	for k, v := range p {
		switch val := v.(type) {
		case []string:
			params.Set(k, strings.Join(val, ","))
		case []int64:
			parts := make([]string, len(val))
			for i, n := range val {
				parts[i] = strconv.FormatInt(n, 10)
			}
			params.Set(k, strings.Join(parts, ","))
		case bool:
			if val {
				params.Set(k, "1")
			} else {
				params.Set(k, "0")
			}
		default:
			params.Set(k, fmt.Sprint(v))
		}
	}
	return params
}

// Calls an API method. Parameters are sent form-encoded in a POST body, along with the access token and API version. On success, the "response" field is decoded in to `out` (if non-nil).
//
// API-level failures are returned as *APIError, and unexpected HTTP statuses as *HTTPError.
func (c *Client) Do(ctx context.Context, method string, params map[string]any, out any) error {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return fmt.Errorf("waiting on rate limit: %w", err)
		}
	}

	form := makeParams(params)
	form.Set("access_token", c.Token)
	version := c.Version
	if version == "" {
		version = DefaultVersion
	}
	form.Set("v", version)

	host := c.Host
	if host == "" {
		host = DefaultHost
	}
	uri := host + "/method/" + method

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uri, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if c.UserAgent != nil {
		req.Header.Set("User-Agent", *c.UserAgent)
	} else {
		req.Header.Set("User-Agent", "vkmod/"+versioninfo.Short())
	}

	resp, err := c.getClient().Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &HTTPError{StatusCode: resp.StatusCode, Method: method}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decoding %s response: %w", method, err)
	}
	if env.Error != nil {
		env.Error.Method = method
		return env.Error
	}
	if out != nil && len(env.Response) > 0 {
		if err := json.Unmarshal(env.Response, out); err != nil {
			return fmt.Errorf("decoding %s response: %w", method, err)
		}
	}
	return nil
}
