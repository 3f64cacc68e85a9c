package recorder

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/smetzlaff/epgrec/internal/domain"
)

// The appliance exposes a legacy HTML web UI instead of an API. The
// parameter names and constant values below were discovered by observing
// the UI's own requests and must be treated as a fixed contract.
const (
	timerPath     = "/timer_neu.html"
	timerListPath = "/timerliste.html"

	paramActive      = "aktiv"
	paramChannel     = "kanal"
	paramTitle       = "titel"
	paramDate        = "datum"
	paramStart       = "von"
	paramStop        = "bis"
	paramMarginStart = "vorlauf"
	paramMarginEnd   = "nachlauf"
	paramFolder      = "ordner"
	paramPriority    = "prio"
	paramSeries      = "serie"
	paramAction      = "aktion"
	paramAudio       = "tonspur"
	paramEPGRecord   = "epgaufnahme"
	paramFormat      = "format"
	paramCacheBust   = "_"
	paramReferer     = "referer"

	actionCreateTimer = "timer_neu"
	audioAllTracks    = "alle"
	epgRecordOn       = "1"
	formatTS          = "ts"
)

// ChannelResolver resolves a guide channel id to its appliance mapping.
type ChannelResolver interface {
	Get(id string) (domain.Channel, bool)
}

// AuditSink receives one human-readable line per significant event.
type AuditSink interface {
	Logf(format string, args ...any)
}

// Client drives the recording appliance's legacy web endpoint.
type Client struct {
	baseURL    string
	channels   ChannelResolver
	audit      AuditSink
	httpClient *http.Client
	pingClient *http.Client
}

// NewClient creates a new appliance client.
func NewClient(host string, port int, timeout, pingTimeout time.Duration, channels ChannelResolver, audit AuditSink) *Client {
	return &Client{
		baseURL:    fmt.Sprintf("http://%s:%d", host, port),
		channels:   channels,
		audit:      audit,
		httpClient: &http.Client{Timeout: timeout},
		pingClient: &http.Client{Timeout: pingTimeout},
	}
}

// BuildTimerQuery builds the exact parameter set the appliance expects for
// one timer. It is pure so the wire format can be pinned down in tests.
func BuildTimerQuery(req *domain.TimerRequest, dvbID string, now time.Time) url.Values {
	v := url.Values{}
	v.Set(paramActive, "1")
	v.Set(paramChannel, dvbID)
	v.Set(paramTitle, req.Title)
	v.Set(paramDate, req.Date)
	v.Set(paramMarginStart, strconv.Itoa(req.MarginStart))
	v.Set(paramMarginEnd, strconv.Itoa(req.MarginEnd))
	v.Set(paramStart, req.StartTime)
	v.Set(paramStop, req.EndTime)
	v.Set(paramAction, actionCreateTimer)
	v.Set(paramAudio, audioAllTracks)
	v.Set(paramEPGRecord, epgRecordOn)
	v.Set(paramFormat, formatTS)
	v.Set(paramFolder, req.Folder)
	v.Set(paramPriority, strconv.Itoa(req.Priority))
	v.Set(paramSeries, req.Series)
	v.Set(paramCacheBust, strconv.FormatInt(now.UnixMilli(), 10))
	// The appliance drops requests that don't claim to come from its own
	// timer-list page.
	v.Set(paramReferer, timerListPath)
	return v
}

// CreateTimer schedules one recording. The channel must be present in the
// appliance mapping; otherwise no HTTP call is made at all.
func (c *Client) CreateTimer(ctx context.Context, req *domain.TimerRequest) error {
	ch, ok := c.channels.Get(req.ChannelID)
	if !ok || ch.DVBID == "" {
		return fmt.Errorf("%w: %s", domain.ErrUnmappedChannel, req.ChannelID)
	}

	query := BuildTimerQuery(req, ch.DVBID, time.Now())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+timerPath+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrApplianceUnreachable, err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrApplianceUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrApplianceUnreachable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", domain.ErrApplianceRejected, resp.StatusCode)
	}

	// The appliance answers 200 even on failure and embeds the error in the
	// page body instead.
	if strings.Contains(string(body), "Error") {
		return fmt.Errorf("%w: response body signals error", domain.ErrApplianceRejected)
	}

	if c.audit != nil {
		c.audit.Logf("timer created: %q on channel %s (%s) %s %s-%s", req.Title, req.ChannelID, ch.Name, req.Date, req.StartTime, req.EndTime)
	}

	return nil
}

// Ping probes the appliance's timer-list page.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+timerListPath, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrApplianceUnreachable, err)
	}

	resp, err := c.pingClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrApplianceUnreachable, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", domain.ErrApplianceUnreachable, resp.StatusCode)
	}

	return nil
}
