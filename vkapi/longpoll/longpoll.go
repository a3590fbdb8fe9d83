package longpoll

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/vkmod/vkmod/util"
	"github.com/vkmod/vkmod/vkapi"

	"github.com/cenkalti/backoff/v5"
)

var (
	// seconds the server holds a poll request open
	DefaultWait = 25
	// consecutive failed polls (after HTTP-level retries) before giving up
	DefaultMaxConsecutiveFailures = 10
	DefaultRetryWait              = time.Second
)

// Bots Long Poll event source for a single community.
//
// Next blocks until an event is available, and returns events in the order the server delivered them. Session expiry and cursor resets are handled internally; transport failures are retried with backoff. Next returns an error only when the stream can't continue: the context was cancelled, the token was rejected, or too many consecutive polls failed.
//
// Not safe for concurrent use.
type Source struct {
	// used for groups.getLongPollServer
	Client *vkapi.Client
	// used for poll requests; the timeout must be longer than Wait
	HTTPClient *http.Client
	GroupID    int64
	Logger     *slog.Logger
	// seconds
	Wait                   int
	MaxConsecutiveFailures int
	// initial backoff after a failed poll
	RetryWait time.Duration

	server   *vkapi.LongPollServer
	backlog  []vkapi.Event
	failures int
	bo       *backoff.ExponentialBackOff
}

func NewSource(client *vkapi.Client, groupID int64, logger *slog.Logger) *Source {
	return &Source{
		Client:                 client,
		HTTPClient:             util.RobustHTTPClientTimeout(time.Duration(DefaultWait+15) * time.Second),
		GroupID:                groupID,
		Logger:                 logger,
		Wait:                   DefaultWait,
		MaxConsecutiveFailures: DefaultMaxConsecutiveFailures,
		RetryWait:              DefaultRetryWait,
	}
}

type checkResponse struct {
	TS      vkapi.Cursor  `json:"ts"`
	Updates []vkapi.Event `json:"updates"`
	Failed  int           `json:"failed"`
}

func (s *Source) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s *Source) backoff() *backoff.ExponentialBackOff {
	if s.bo == nil {
		s.bo = backoff.NewExponentialBackOff()
		s.bo.InitialInterval = s.RetryWait
		if s.bo.InitialInterval <= 0 {
			s.bo.InitialInterval = DefaultRetryWait
		}
		s.bo.MaxInterval = time.Minute
	}
	return s.bo
}

func (s *Source) Next(ctx context.Context) (*vkapi.Event, error) {
	for len(s.backlog) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		err := s.poll(ctx)
		if err == nil {
			s.failures = 0
			s.backoff().Reset()
			continue
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if vkapi.IsAuthError(err) {
			pollFailureCount.WithLabelValues("auth").Inc()
			return nil, fmt.Errorf("long poll session: %w", err)
		}
		pollFailureCount.WithLabelValues("transport").Inc()
		s.failures++
		limit := s.MaxConsecutiveFailures
		if limit <= 0 {
			limit = DefaultMaxConsecutiveFailures
		}
		if s.failures >= limit {
			return nil, fmt.Errorf("long poll failed %d consecutive times: %w", s.failures, err)
		}
		wait := s.backoff().NextBackOff()
		s.logger().Warn("long poll request failed, backing off", "err", err, "failures", s.failures, "wait", wait)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	evt := s.backlog[0]
	s.backlog = s.backlog[1:]
	return &evt, nil
}

// performs a single poll, possibly (re-)establishing the session first
func (s *Source) poll(ctx context.Context) error {
	if s.server == nil {
		srv, err := vkapi.GroupsGetLongPollServer(ctx, s.Client, s.GroupID)
		if err != nil {
			return fmt.Errorf("fetching long poll server: %w", err)
		}
		s.logger().Info("long poll session established", "server", srv.Server, "ts", srv.TS)
		s.server = srv
	}

	resp, err := s.check(ctx)
	if err != nil {
		return err
	}

	switch resp.Failed {
	case 0:
		s.server.TS = resp.TS
		s.backlog = append(s.backlog, resp.Updates...)
		pollEventCount.Add(float64(len(resp.Updates)))
	case 1:
		// event history expired or was partially lost; continue from the cursor the server gave us
		s.logger().Warn("long poll history lost, resetting cursor", "ts", resp.TS)
		pollFailureCount.WithLabelValues("history").Inc()
		s.server.TS = resp.TS
	case 2:
		// key expired; keep our cursor so no events are skipped
		pollFailureCount.WithLabelValues("key").Inc()
		srv, err := vkapi.GroupsGetLongPollServer(ctx, s.Client, s.GroupID)
		if err != nil {
			return fmt.Errorf("refreshing long poll key: %w", err)
		}
		s.server.Key = srv.Key
		s.server.Server = srv.Server
	case 3:
		// session lost entirely
		s.logger().Warn("long poll session lost, reconnecting")
		pollFailureCount.WithLabelValues("session").Inc()
		s.server = nil
	default:
		return fmt.Errorf("unknown long poll failure code: %d", resp.Failed)
	}
	return nil
}

func (s *Source) check(ctx context.Context) (*checkResponse, error) {
	u, err := url.Parse(s.server.Server)
	if err != nil {
		return nil, fmt.Errorf("invalid long poll server URL: %w", err)
	}
	wait := s.Wait
	if wait <= 0 {
		wait = DefaultWait
	}
	q := u.Query()
	q.Set("act", "a_check")
	q.Set("key", s.server.Key)
	q.Set("ts", string(s.server.TS))
	q.Set("wait", strconv.Itoa(wait))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	client := s.HTTPClient
	if client == nil {
		client = util.RobustHTTPClientTimeout(time.Duration(wait+15) * time.Second)
		s.HTTPClient = client
	}
	pollRequestCount.Inc()
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("long poll request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("long poll request: unexpected status %d", resp.StatusCode)
	}
	var out checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding long poll response: %w", err)
	}
	if out.Failed == 0 && out.TS == "" {
		return nil, errors.New("long poll response without cursor")
	}
	return &out, nil
}
