// Package httpapi serves conversions over HTTP with fasthttp and provides a
// matching client.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/park285/ascn-convert/internal/convert"
	"github.com/park285/ascn-convert/internal/domain"
	"github.com/park285/ascn-convert/pkg/convdto"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const (
	pathConvertPGN  = "/v1/convert/pgn"
	pathConvertASCN = "/v1/convert/ascn"
	pathDiagramPGN  = "/v1/diagram/pgn"
	pathDiagramASCN = "/v1/diagram/ascn"
	pathHistory     = "/v1/conversions"
	pathHealth      = "/healthz"

	defaultMaxBody = 1 << 20
	requestTimeout = 30 * time.Second
)

// History looks up earlier conversions of the same input.
type History interface {
	RecentByDigest(ctx context.Context, digest string, limit int) ([]*domain.Conversion, error)
}

type Server struct {
	svc         *convert.Service
	history     History
	logger      *zap.Logger
	maxBody     int
	diagramSize int
	srv         *fasthttp.Server
}

type ServerOption func(*Server)

func WithMaxBody(n int) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

func WithDiagramSize(px int) ServerOption {
	return func(s *Server) { s.diagramSize = px }
}

// WithHistory enables GET /v1/conversions.
func WithHistory(h History) ServerOption {
	return func(s *Server) { s.history = h }
}

func NewServer(svc *convert.Service, logger *zap.Logger, opts ...ServerOption) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{svc: svc, logger: logger, maxBody: defaultMaxBody}
	for _, opt := range opts {
		opt(s)
	}
	s.srv = &fasthttp.Server{
		Handler:            s.Handler(),
		Name:               "ascnd",
		MaxRequestBodySize: s.maxBody,
		ReadTimeout:        requestTimeout,
		WriteTimeout:       requestTimeout,
		ErrorHandler:       s.handleTransportError,
	}
	return s
}

func (s *Server) ListenAndServe(addr string) error { return s.srv.ListenAndServe(addr) }

func (s *Server) Serve(ln net.Listener) error { return s.srv.Serve(ln) }

func (s *Server) Shutdown(ctx context.Context) error { return s.srv.ShutdownWithContext(ctx) }

// Handler routes requests and stamps each one with a request id.
func (s *Server) Handler() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		reqID := strings.TrimSpace(string(ctx.Request.Header.Peek(convdto.HeaderRequestID)))
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx.Response.Header.Set(convdto.HeaderRequestID, reqID)
		started := time.Now()

		path := string(ctx.Path())
		switch {
		case path == pathHealth && ctx.IsGet():
			ctx.SetContentType("text/plain; charset=utf-8")
			ctx.SetBodyString("ok")
		case path == pathConvertPGN && ctx.IsPost():
			s.handleConvert(ctx, reqID, convert.FormatPGN)
		case path == pathConvertASCN && ctx.IsPost():
			s.handleConvert(ctx, reqID, convert.FormatASCN)
		case path == pathDiagramPGN && ctx.IsPost():
			s.handleDiagram(ctx, reqID, convert.FormatPGN)
		case path == pathDiagramASCN && ctx.IsPost():
			s.handleDiagram(ctx, reqID, convert.FormatASCN)
		case path == pathHistory && ctx.IsGet() && s.history != nil:
			s.handleHistory(ctx, reqID)
		default:
			writeError(ctx, fasthttp.StatusNotFound, convdto.Error{Code: convdto.CodeNotFound, Message: "no route for " + string(ctx.Method()) + " " + path, RequestID: reqID})
		}

		s.logger.Debug("http_request",
			zap.String("request_id", reqID),
			zap.String("method", string(ctx.Method())),
			zap.String("path", path),
			zap.Int("status", ctx.Response.StatusCode()),
			zap.Duration("took", time.Since(started)),
		)
	}
}

func (s *Server) convertBody(ctx *fasthttp.RequestCtx, reqID string, in convert.Format) (*convert.Result, bool) {
	body := ctx.PostBody()
	if len(body) > s.maxBody {
		writeError(ctx, fasthttp.StatusRequestEntityTooLarge, convdto.Error{Code: convdto.CodeTooLarge, Message: "body exceeds " + strconv.Itoa(s.maxBody) + " bytes", RequestID: reqID})
		return nil, false
	}
	cctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	res, err := s.svc.Convert(cctx, in, body)
	if err != nil {
		s.fail(ctx, reqID, err)
		return nil, false
	}
	return res, true
}

func (s *Server) handleConvert(ctx *fasthttp.RequestCtx, reqID string, in convert.Format) {
	res, ok := s.convertBody(ctx, reqID, in)
	if !ok {
		return
	}
	if stream, err := s.svc.Replay(res); err == nil {
		ctx.Response.Header.Set(convdto.HeaderPlies, strconv.Itoa(stream.Len()))
		ctx.Response.Header.Set(convdto.HeaderResult, stream.Outcome.String())
	}
	ctx.Response.Header.Set(convdto.HeaderCached, strconv.FormatBool(res.Cached))
	if in == convert.FormatPGN {
		ctx.SetContentType("application/octet-stream")
	} else {
		ctx.SetContentType("text/plain; charset=utf-8")
	}
	ctx.SetBody(res.Output)
}

func (s *Server) handleDiagram(ctx *fasthttp.RequestCtx, reqID string, in convert.Format) {
	res, ok := s.convertBody(ctx, reqID, in)
	if !ok {
		return
	}
	img, err := s.svc.Diagram(context.Background(), res, s.diagramSize)
	if err != nil {
		s.fail(ctx, reqID, err)
		return
	}
	ctx.SetContentType("image/png")
	ctx.SetBody(img)
}

func (s *Server) handleHistory(ctx *fasthttp.RequestCtx, reqID string) {
	digest := strings.ToLower(strings.TrimSpace(string(ctx.QueryArgs().Peek("sha256"))))
	if len(digest) != 64 {
		writeError(ctx, fasthttp.StatusBadRequest, convdto.Error{Code: convdto.CodeParse, Message: "sha256 must be 64 hex characters", RequestID: reqID})
		return
	}
	limit := ctx.QueryArgs().GetUintOrZero("limit")
	cctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	rows, err := s.history.RecentByDigest(cctx, digest, limit)
	if err != nil {
		s.fail(ctx, reqID, err)
		return
	}
	resp := convdto.HistoryResponse{Conversions: make([]convdto.ConversionRecord, 0, len(rows))}
	for _, c := range rows {
		resp.Conversions = append(resp.Conversions, convdto.ConversionRecord{
			ID:          c.ID,
			Direction:   string(c.Direction),
			InputSHA256: c.InputSHA256,
			Plies:       c.Plies,
			Result:      c.Result.String(),
			CreatedAt:   c.CreatedAt.UTC().Format(time.RFC3339),
			DurationMS:  c.Duration.Milliseconds(),
		})
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		s.fail(ctx, reqID, err)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetBody(payload)
}

func (s *Server) fail(ctx *fasthttp.RequestCtx, reqID string, err error) {
	status, code := classify(err)
	if status >= fasthttp.StatusInternalServerError {
		s.logger.Error("http_convert_error", zap.String("request_id", reqID), zap.Error(err))
	} else {
		s.logger.Info("http_convert_rejected", zap.String("request_id", reqID), zap.String("code", code), zap.Error(err))
	}
	writeError(ctx, status, convdto.Error{Code: code, Message: err.Error(), RequestID: reqID})
}

// handleTransportError answers errors raised before the handler runs, such
// as an oversized body.
func (s *Server) handleTransportError(ctx *fasthttp.RequestCtx, err error) {
	if errors.Is(err, fasthttp.ErrBodyTooLarge) {
		writeError(ctx, fasthttp.StatusRequestEntityTooLarge, convdto.Error{Code: convdto.CodeTooLarge, Message: err.Error()})
		return
	}
	writeError(ctx, fasthttp.StatusBadRequest, convdto.Error{Code: convdto.CodeParse, Message: err.Error()})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, convert.ErrUnknownFormat):
		return fasthttp.StatusUnprocessableEntity, convdto.CodeUnknownFormat
	case errors.Is(err, convert.ErrParse):
		return fasthttp.StatusUnprocessableEntity, convdto.CodeParse
	default:
		return fasthttp.StatusInternalServerError, convdto.CodeInternal
	}
}

func writeError(ctx *fasthttp.RequestCtx, status int, body convdto.Error) {
	payload, err := json.Marshal(body)
	if err != nil {
		payload = []byte(`{"code":"internal","message":"encode error"}`)
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(payload)
}
