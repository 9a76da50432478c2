package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	headerRequestID = "Ax-Request-Id"
	headerRequestAt = "Ax-Request-At"
	headerUserID    = "Ax-User-Id"
	headerAdminID   = "Ax-Admin-Id"
)

var (
	reUUID  = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[1-5][a-f0-9]{3}-[89ab][a-f0-9]{3}-[a-f0-9]{12}$`)
	reHex32 = regexp.MustCompile(`^[a-f0-9]{32}$`)
)

func bodyHash(b []byte) string {
	s := sha256.Sum256(b)
	return hex.EncodeToString(s[:])
}

func nowUTC() time.Time { return time.Now().UTC() }

// replayKey scopes a stored response to one route, one caller and one request id.
func replayKey(method, route, callerID, requestID string) string {
	return strings.Join([]string{"idemp", "ax", strings.ToLower(method), route, callerID, requestID}, ":")
}

// callerOf returns the caller id, or the error message for a missing or malformed one.
// Admin routes are keyed by Ax-Admin-Id, everything else by Ax-User-Id.
func callerOf(req *http.Request) (string, string) {
	header := headerUserID
	if req.Header.Get(headerAdminID) != "" {
		header = headerAdminID
	}
	id := strings.TrimSpace(req.Header.Get(header))
	switch {
	case id == "":
		return "", "missing " + header
	case !reHex32.MatchString(id):
		return "", "invalid " + header
	}
	return id, ""
}

func validReqID(id string) bool {
	id = strings.TrimSpace(id)
	return reUUID.MatchString(id) || reHex32.MatchString(id)
}

// parseRequestAt accepts epoch seconds, epoch milliseconds, or RFC3339 with a zone.
// Timestamps without a zone are rejected.
func parseRequestAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("missing " + headerRequestAt)
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errors.New(headerRequestAt + " must be epoch (s/ms) or RFC3339 with timezone")
}

func withinSkew(at, now time.Time) bool {
	return !at.Before(now.Add(-maxClockSkew)) && !at.After(now.Add(maxClockSkew))
}
