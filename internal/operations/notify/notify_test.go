package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wavewatch/internal/metrics"
	"wavewatch/internal/models"
)

func buySignal() models.Signal {
	return models.Signal{
		Symbol:     "BTCUSDT",
		Strategy:   "wave",
		Label:      "wave 3 explosion",
		Direction:  models.DirectionBuy,
		Entry:      105,
		TakeProfit: 121.18,
		StopLoss:   93.331,
		Indicators: models.Indicators{Price: 105, RSI: 61.5, Delta: 3.25},
		Time:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestFormatAlert(t *testing.T) {
	alert := NewAlert(buySignal())

	assert.Equal(t, "BUY BTCUSDT", alert.Title)
	lines := strings.Split(alert.Message, "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "BUY signal on BTCUSDT", lines[0])
	assert.Equal(t, "Setup: wave 3 explosion (wave)", lines[1])
	assert.Equal(t, "Entry: 105.0000", lines[2])
	assert.Equal(t, "TP: 121.1800", lines[3])
	assert.Equal(t, "SL: 93.3310", lines[4])
	assert.Equal(t, "RSI: 61.50  Delta: 3.2500", lines[5])
}

func TestTelegramNotifier_Send(t *testing.T) {
	var gotPath, gotChat, gotText string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotPath = r.URL.Path
		gotChat = r.FormValue("chat_id")
		gotText = r.FormValue("text")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"}}}`))
	}))
	defer server.Close()

	n := NewTelegramNotifier("TOKEN", "42", server.URL+"/bot%s/%s")
	err := n.Send(context.Background(), NewAlert(buySignal()))
	require.NoError(t, err)

	assert.Equal(t, "/botTOKEN/sendMessage", gotPath)
	assert.Equal(t, "42", gotChat)
	assert.Contains(t, gotText, "BUY signal on BTCUSDT")
}

func TestTelegramNotifier_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`))
	}))
	defer server.Close()

	n := NewTelegramNotifier("TOKEN", "42", server.URL+"/bot%s/%s")
	err := n.Send(context.Background(), NewAlert(buySignal()))

	var nerr *NotificationError
	require.True(t, errors.As(err, &nerr))
	assert.Equal(t, "telegram", nerr.Channel)
}

func TestTelegramNotifier_InvalidChatID(t *testing.T) {
	n := NewTelegramNotifier("TOKEN", "not-a-chat", "http://127.0.0.1:1/bot%s/%s")
	err := n.Send(context.Background(), NewAlert(buySignal()))
	assert.ErrorContains(t, err, "invalid chat id")

	msg, err := NewTelegramNotifier("TOKEN", "@alerts", "").message("hi")
	require.NoError(t, err)
	assert.Equal(t, "@alerts", msg.ChannelUsername)
}

func TestWebhookNotifier_Send(t *testing.T) {
	var payload map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &payload))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	err := NewWebhookNotifier(server.URL).Send(context.Background(), NewAlert(buySignal()))
	require.NoError(t, err)

	assert.Equal(t, "BUY BTCUSDT", payload["title"])
	assert.NotEmpty(t, payload["ts"])
	sig := payload["signal"].(map[string]interface{})
	assert.Equal(t, "BTCUSDT", sig["symbol"])
	assert.Equal(t, "BUY", sig["direction"])
}

func TestWebhookNotifier_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	err := NewWebhookNotifier(server.URL).Send(context.Background(), NewAlert(buySignal()))
	assert.ErrorContains(t, err, "unexpected status 502")
}

func TestRedisNotifier_UnreachableServer(t *testing.T) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	n := NewRedisNotifier(rdb, "")
	assert.Equal(t, DefaultRedisChannel, n.channel)

	err := n.Send(context.Background(), NewAlert(buySignal()))
	var nerr *NotificationError
	require.True(t, errors.As(err, &nerr))
	assert.Equal(t, "redis", nerr.Channel)
}

type fakeWriter struct {
	mu      sync.Mutex
	records []*models.SignalRecord
	err     error
}

func (f *fakeWriter) Create(ctx context.Context, rec *models.SignalRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

func TestJournalNotifier(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, NewJournalNotifier(w).Send(context.Background(), NewAlert(buySignal())))
	require.Len(t, w.records, 1)
	assert.Equal(t, "BUY", w.records[0].Direction)
	assert.Equal(t, 121.18, w.records[0].TakeProfitPrice)

	w.err = errors.New("disk full")
	err := NewJournalNotifier(w).Send(context.Background(), NewAlert(buySignal()))
	assert.ErrorContains(t, err, "disk full")
}

type recordingNotifier struct {
	name string
	err  error

	mu    sync.Mutex
	sent  []Alert
	block chan struct{}
}

func (r *recordingNotifier) Name() string { return r.name }

func (r *recordingNotifier) Send(ctx context.Context, alert Alert) error {
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, alert)
	return r.err
}

func TestDispatcher_FailureDoesNotAffectOtherChannels(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	good := &recordingNotifier{name: "good"}
	bad := &recordingNotifier{name: "bad", err: errors.New("boom")}
	d := NewDispatcher([]Notifier{bad, good}, time.Second, zerolog.Nop(), m)
	require.Len(t, d.Channels(), 2)

	d.Dispatch(context.Background(), NewAlert(buySignal()))
	d.Wait()

	assert.Len(t, good.sent, 1)
	assert.Len(t, bad.sent, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsTotal.WithLabelValues("good", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsTotal.WithLabelValues("bad", "error")))
}

func TestDispatcher_DetachedFromCallerCancel(t *testing.T) {
	n := &recordingNotifier{name: "slow", block: make(chan struct{})}
	d := NewDispatcher([]Notifier{n}, time.Second, zerolog.Nop(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	d.Dispatch(ctx, NewAlert(buySignal()))
	cancel()
	close(n.block)
	d.Wait()

	assert.Len(t, n.sent, 1)
}

func TestDispatcher_Timeout(t *testing.T) {
	n := &recordingNotifier{name: "stuck", block: make(chan struct{})}
	d := NewDispatcher([]Notifier{n}, 20*time.Millisecond, zerolog.Nop(), nil)

	start := time.Now()
	d.Dispatch(context.Background(), NewAlert(buySignal()))
	d.Wait()

	assert.Less(t, time.Since(start), time.Second)
	assert.Empty(t, n.sent)
	assert.Equal(t, DefaultTimeout, NewDispatcher(nil, time.Hour, zerolog.Nop(), nil).timeout)
}
