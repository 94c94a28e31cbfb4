package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/park285/ascn-convert/internal/convert"
	"github.com/park285/ascn-convert/internal/domain"
	"github.com/park285/ascn-convert/internal/rules"
	"github.com/park285/ascn-convert/pkg/convdto"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
	"go.uber.org/zap"
)

const foolsMate = "[Result \"0-1\"]\n\n1. f3 e5 2. g4 Qh4# 0-1\n"

const foolsMateText = "[Result \"0-1\"]\n\n1. Pf2f3 Pe7e5 2. Pg2g4 Qd8h4# 0-1"

type fakeHistory struct {
	digest string
	limit  int
	rows   []*domain.Conversion
}

func (f *fakeHistory) RecentByDigest(_ context.Context, digest string, limit int) ([]*domain.Conversion, error) {
	f.digest, f.limit = digest, limit
	return f.rows, nil
}

func newTestServer(t *testing.T, opts ...ServerOption) (*Server, *Client, func()) {
	t.Helper()
	svc := convert.NewService(rules.NewChessEngine(), zap.NewNop())
	srv := NewServer(svc, zap.NewNop(), opts...)
	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = srv.Serve(ln) }()

	client := NewClient("http://ascnd.test",
		WithDial(func(string) (net.Conn, error) { return ln.Dial() }),
		WithTimeout(5*time.Second),
		WithRetry(1),
	)
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		_ = ln.Close()
	}
	return srv, client, cleanup
}

func TestHealth(t *testing.T) {
	_, client, cleanup := newTestServer(t)
	defer cleanup()
	if err := client.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
}

func TestConvertRoundTripOverHTTP(t *testing.T) {
	_, client, cleanup := newTestServer(t)
	defer cleanup()
	ctx := context.Background()

	bin, err := client.ConvertPGN(ctx, []byte(foolsMate))
	if err != nil {
		t.Fatalf("ConvertPGN: %v", err)
	}
	if !bytes.HasPrefix(bin.Body, []byte("ASCN")) {
		t.Fatalf("body = %q", bin.Body)
	}
	if bin.Summary.Plies != 4 || bin.Summary.Result != "0-1" || bin.Summary.Cached {
		t.Fatalf("summary = %+v", bin.Summary)
	}
	if len(bin.Summary.RequestID) != 36 {
		t.Fatalf("request id = %q, want a uuid", bin.Summary.RequestID)
	}

	text, err := client.ConvertASCN(ctx, bin.Body)
	if err != nil {
		t.Fatalf("ConvertASCN: %v", err)
	}
	if string(text.Body) != foolsMateText {
		t.Fatalf("text = %q", text.Body)
	}
}

func TestRequestIDPropagates(t *testing.T) {
	_, client, cleanup := newTestServer(t)
	defer cleanup()
	client.headers = func() map[string]string { return map[string]string{convdto.HeaderRequestID: "req-42"} }

	resp, err := client.ConvertPGN(context.Background(), []byte(foolsMate))
	if err != nil {
		t.Fatalf("ConvertPGN: %v", err)
	}
	if resp.Summary.RequestID != "req-42" {
		t.Fatalf("request id = %q", resp.Summary.RequestID)
	}
}

func TestParseErrorIs422(t *testing.T) {
	_, client, cleanup := newTestServer(t)
	defer cleanup()

	_, err := client.ConvertPGN(context.Background(), []byte("1. e4 e5 2. Ke3 *"))
	var apiErr convdto.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want convdto.Error", err)
	}
	if apiErr.Code != convdto.CodeParse || apiErr.Retryable() || apiErr.RequestID == "" {
		t.Fatalf("error = %+v", apiErr)
	}

	_, err = client.ConvertASCN(context.Background(), []byte("garbage"))
	if !errors.As(err, &apiErr) || apiErr.Code != convdto.CodeParse {
		t.Fatalf("err = %v, want parse_error", err)
	}
}

func TestOversizeBodyIs413(t *testing.T) {
	srv, _, cleanup := newTestServer(t, WithMaxBody(16))
	defer cleanup()

	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(fasthttp.MethodPost)
	ctx.Request.SetRequestURI(pathConvertPGN)
	ctx.Request.SetBody([]byte(foolsMate))
	srv.Handler()(&ctx)

	if ctx.Response.StatusCode() != fasthttp.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", ctx.Response.StatusCode())
	}
	var body convdto.Error
	if err := json.Unmarshal(ctx.Response.Body(), &body); err != nil || body.Code != convdto.CodeTooLarge {
		t.Fatalf("body = %s (%v)", ctx.Response.Body(), err)
	}
}

func TestUnknownRoute(t *testing.T) {
	srv, _, cleanup := newTestServer(t)
	defer cleanup()

	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(fasthttp.MethodGet)
	ctx.Request.SetRequestURI(pathConvertPGN)
	srv.Handler()(&ctx)
	if ctx.Response.StatusCode() != fasthttp.StatusNotFound {
		t.Fatalf("status = %d, want 404", ctx.Response.StatusCode())
	}
	if len(ctx.Response.Header.Peek(convdto.HeaderRequestID)) == 0 {
		t.Fatalf("missing request id header")
	}
}

func TestDiagramOverHTTP(t *testing.T) {
	_, client, cleanup := newTestServer(t, WithDiagramSize(24))
	defer cleanup()

	img, err := client.Diagram(context.Background(), false, []byte(foolsMate))
	if err != nil {
		t.Fatalf("Diagram: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if cfg.Width != 24*9 {
		t.Fatalf("width = %d", cfg.Width)
	}
}

func TestHistory(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	hist := &fakeHistory{rows: []*domain.Conversion{{
		ID:          "0b9f3c7e-8d3a-4f55-9a53-5d0c1c1f1e11",
		Direction:   domain.DirectionPGNToASCN,
		InputSHA256: strings.Repeat("a", 64),
		Plies:       4,
		Result:      domain.BlackWins,
		CreatedAt:   created,
		Duration:    3 * time.Millisecond,
	}}}
	_, client, cleanup := newTestServer(t, WithHistory(hist))
	defer cleanup()

	resp, err := client.History(context.Background(), strings.Repeat("A", 64), 5)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if hist.digest != strings.Repeat("a", 64) || hist.limit != 5 {
		t.Fatalf("lookup digest=%q limit=%d", hist.digest, hist.limit)
	}
	if len(resp.Conversions) != 1 {
		t.Fatalf("conversions = %+v", resp.Conversions)
	}
	got := resp.Conversions[0]
	if got.Result != "0-1" || got.DurationMS != 3 || got.CreatedAt != "2026-03-01T12:00:00Z" {
		t.Fatalf("record = %+v", got)
	}

	_, err = client.History(context.Background(), "short", 0)
	var apiErr convdto.Error
	if !errors.As(err, &apiErr) || apiErr.Code != convdto.CodeParse {
		t.Fatalf("err = %v, want parse_error", err)
	}
}

func TestHistoryDisabled(t *testing.T) {
	_, client, cleanup := newTestServer(t)
	defer cleanup()
	_, err := client.History(context.Background(), strings.Repeat("a", 64), 1)
	var apiErr convdto.Error
	if !errors.As(err, &apiErr) || apiErr.Code != convdto.CodeNotFound {
		t.Fatalf("err = %v, want not_found", err)
	}
}

func TestBackoff(t *testing.T) {
	if backoffDuration(1) != 100*time.Millisecond || backoffDuration(3) != 400*time.Millisecond {
		t.Fatalf("unexpected backoff steps")
	}
	if backoffDuration(10) != backoffDuration(6) {
		t.Fatalf("backoff should cap")
	}
	if !shouldRetryStatus(503) || shouldRetryStatus(422) {
		t.Fatalf("retry classification wrong")
	}
}
