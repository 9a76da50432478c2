package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"loanledger/internal/infrastructure/logger"
)

const (
	// How long a reservation lives if the handler never finishes.
	provisionalLockTTL = 60 * time.Second
	// Allowed client/server clock skew for Ax-Request-At.
	maxClockSkew = 10 * time.Minute
	storeTimeout = 2 * time.Second
)

type respRecorder struct {
	w    http.ResponseWriter
	buf  *bytes.Buffer
	code int
}

func (r *respRecorder) Header() http.Header { return r.w.Header() }
func (r *respRecorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.w.Write(b)
}
func (r *respRecorder) WriteHeader(statusCode int) { r.code = statusCode; r.w.WriteHeader(statusCode) }

func fail(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]string{"error": msg})
}

// IdempotencyMiddleware replays the stored response of a mutating request whose
// (method, route, caller, Ax-Request-Id) was already served. A reused request id with a
// different body, or one still in flight, is refused with 409.
func IdempotencyMiddleware(rdb *redis.Client, ttl time.Duration, log *zap.Logger) echo.MiddlewareFunc {
	if log == nil {
		log = zap.NewNop()
	}
	store := replayStore{rdb: rdb}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			reqID := req.Header.Get(headerRequestID)
			if reqID == "" {
				return fail(c, http.StatusBadRequest, "missing "+headerRequestID)
			}
			if !validReqID(reqID) {
				return fail(c, http.StatusBadRequest, "invalid "+headerRequestID+" format")
			}
			reqAt, err := parseRequestAt(req.Header.Get(headerRequestAt))
			if err != nil {
				return fail(c, http.StatusBadRequest, err.Error())
			}
			if !withinSkew(reqAt, nowUTC()) {
				return fail(c, http.StatusBadRequest, headerRequestAt+" too skewed")
			}
			callerID, msg := callerOf(req)
			if msg != "" {
				return fail(c, http.StatusBadRequest, msg)
			}

			var body []byte
			if req.Body != nil {
				body, _ = io.ReadAll(req.Body)
			}
			req.Body = io.NopCloser(bytes.NewReader(body))

			key := replayKey(req.Method, c.Path(), callerID, reqID)
			lg := logger.For(req.Context(), log).With(zap.String("idempotency_key", key))
			ctx, cancel := context.WithTimeout(req.Context(), storeTimeout)
			defer cancel()

			rec := record{
				InProgress:  true,
				BodySHA256:  bodyHash(body),
				RequestID:   reqID,
				RequestAtMS: reqAt.UnixMilli(),
				CreatedAt:   nowUTC(),
			}
			fresh, err := store.reserve(ctx, key, rec)
			if err != nil {
				lg.Error("idempotency store unavailable", zap.Error(err))
				return fail(c, http.StatusServiceUnavailable, "idempotency store unavailable")
			}
			if !fresh {
				cur, err := store.load(ctx, key)
				if err != nil {
					lg.Warn("load idempotency entry", zap.Error(err))
				}
				if cur.BodySHA256 != "" && cur.BodySHA256 != rec.BodySHA256 {
					return fail(c, http.StatusConflict, headerRequestID+" reused with different body")
				}
				if cur.replayable() {
					lg.Debug("replaying stored response", zap.Int("code", cur.Code))
					return c.Blob(cur.Code, echo.MIMEApplicationJSON, cur.Body)
				}
				return fail(c, http.StatusConflict, "request is already in progress")
			}

			w := &respRecorder{w: c.Response().Writer, buf: &bytes.Buffer{}, code: http.StatusOK}
			c.Response().Writer = w
			if err := next(c); err != nil {
				c.Error(err)
			}

			rec.InProgress = false
			rec.Code = w.code
			rec.Body = w.buf.Bytes()
			rec.CreatedAt = nowUTC()
			if err := store.save(context.Background(), key, rec, ttl); err != nil {
				lg.Warn("save idempotency entry", zap.Error(err))
			}
			return nil
		}
	}
}
