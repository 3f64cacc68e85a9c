package recorder

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smetzlaff/epgrec/internal/domain"
)

type fakeResolver map[string]domain.Channel

func (f fakeResolver) Get(id string) (domain.Channel, bool) {
	ch, ok := f[id]
	return ch, ok
}

type captureAudit struct {
	lines []string
}

func (c *captureAudit) Logf(format string, args ...any) {
	c.lines = append(c.lines, fmt.Sprintf(format, args...))
}

func testResolver() fakeResolver {
	return fakeResolver{
		"37": {ID: "37", Name: "Das Erste", DVBID: "ARD"},
		"71": {ID: "71", Name: "ZDF", DVBID: ""}, // mapped but without a DVB id
	}
}

func clientFor(t *testing.T, srv *httptest.Server, channels ChannelResolver, audit AuditSink) *Client {
	t.Helper()
	host, portStr, err := net.SplitHostPort(srv.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return NewClient(host, port, 5*time.Second, time.Second, channels, audit)
}

func sampleRequest() *domain.TimerRequest {
	return &domain.TimerRequest{
		ChannelID:   "37",
		Title:       "Tatort: Der Tod und das Mädchen",
		Date:        "01.09.2026",
		StartTime:   "20:15",
		EndTime:     "22:15",
		MarginStart: 5,
		MarginEnd:   15,
		Priority:    50,
		Folder:      "Auto",
	}
}

func TestBuildTimerQuery(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	v := BuildTimerQuery(sampleRequest(), "ARD", now)

	assert.Equal(t, "1", v.Get("aktiv"))
	assert.Equal(t, "ARD", v.Get("kanal"))
	assert.Equal(t, "Tatort: Der Tod und das Mädchen", v.Get("titel"))
	assert.Equal(t, "01.09.2026", v.Get("datum"))
	assert.Equal(t, "20:15", v.Get("von"))
	assert.Equal(t, "22:15", v.Get("bis"))
	assert.Equal(t, "5", v.Get("vorlauf"))
	assert.Equal(t, "15", v.Get("nachlauf"))
	assert.Equal(t, "Auto", v.Get("ordner"))
	assert.Equal(t, "50", v.Get("prio"))
	assert.Equal(t, "timer_neu", v.Get("aktion"))
	assert.Equal(t, "alle", v.Get("tonspur"))
	assert.Equal(t, "1", v.Get("epgaufnahme"))
	assert.Equal(t, "ts", v.Get("format"))
	assert.Equal(t, "/timerliste.html", v.Get("referer"))
	assert.Equal(t, strconv.FormatInt(now.UnixMilli(), 10), v.Get("_"))
}

func TestCreateTimer_Success(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte("<html>Timer angelegt</html>"))
	}))
	defer srv.Close()

	audit := &captureAudit{}
	client := clientFor(t, srv, testResolver(), audit)

	err := client.CreateTimer(context.Background(), sampleRequest())
	require.NoError(t, err)

	assert.Equal(t, []string{"ARD"}, gotQuery["kanal"])
	assert.Equal(t, []string{"timer_neu"}, gotQuery["aktion"])

	require.Len(t, audit.lines, 1)
	assert.Contains(t, audit.lines[0], "timer created")
	assert.Contains(t, audit.lines[0], "Das Erste")
}

func TestCreateTimer_ErrorInBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The appliance reports failure inside a 200 page.
		w.Write([]byte("<html><div class=\"msg\">Error: timer conflict</div></html>"))
	}))
	defer srv.Close()

	audit := &captureAudit{}
	client := clientFor(t, srv, testResolver(), audit)

	err := client.CreateTimer(context.Background(), sampleRequest())
	require.ErrorIs(t, err, domain.ErrApplianceRejected)
	assert.Empty(t, audit.lines)
}

func TestCreateTimer_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := clientFor(t, srv, testResolver(), nil)

	err := client.CreateTimer(context.Background(), sampleRequest())
	require.ErrorIs(t, err, domain.ErrApplianceRejected)
}

func TestCreateTimer_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := clientFor(t, srv, testResolver(), nil)

	err := client.CreateTimer(context.Background(), sampleRequest())
	require.ErrorIs(t, err, domain.ErrApplianceUnreachable)
}

func TestCreateTimer_UnmappedChannel(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	client := clientFor(t, srv, testResolver(), nil)

	req := sampleRequest()
	req.ChannelID = "999"
	err := client.CreateTimer(context.Background(), req)
	require.ErrorIs(t, err, domain.ErrUnmappedChannel)

	// A channel mapped without a DVB id is just as unusable.
	req.ChannelID = "71"
	err = client.CreateTimer(context.Background(), req)
	require.ErrorIs(t, err, domain.ErrUnmappedChannel)

	assert.Zero(t, atomic.LoadInt32(&calls), "unmapped channels must never reach the appliance")
}

func TestPing(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client := clientFor(t, srv, testResolver(), nil)
	require.NoError(t, client.Ping(context.Background()))
	assert.Equal(t, "/timerliste.html", gotPath)

	srv.Close()
	assert.ErrorIs(t, client.Ping(context.Background()), domain.ErrApplianceUnreachable)
}
