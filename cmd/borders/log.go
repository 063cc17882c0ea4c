package main

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lgc202/borders-go/httpx"
	"github.com/lgc202/borders-go/signature"
)

// logHooks logs each exchange at debug level. The signature is redacted
// from logged URLs.
func logHooks(log *logrus.Logger) ([]httpx.BeforeHook, []httpx.AfterHook) {
	before := func(req *http.Request) error {
		log.WithFields(logrus.Fields{
			"method":     req.Method,
			"url":        redactURL(req.URL),
			"request_id": req.Header.Get("X-Request-ID"),
		}).Debug("sending request")
		return nil
	}
	after := func(req *http.Request, resp *httpx.Response, err error, dur time.Duration) {
		fields := logrus.Fields{
			"method":      req.Method,
			"url":         redactURL(req.URL),
			"duration_ms": dur.Milliseconds(),
			"request_id":  req.Header.Get("X-Request-ID"),
		}
		if err != nil {
			log.WithFields(fields).WithError(err).Debug("request failed")
			return
		}
		fields["status"] = resp.StatusCode
		fields["bytes"] = len(resp.Body)
		if rid := resp.Header.Get("X-Request-ID"); rid != "" {
			fields["request_id"] = rid
		}
		log.WithFields(fields).Debug("response received")
	}
	return []httpx.BeforeHook{before}, []httpx.AfterHook{after}
}

// redactURL masks the signature value and keeps the rest of the raw query
// in place.
func redactURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	c := *u
	c.RawQuery = redactQuery(u.RawQuery)
	return c.String()
}

func redactQuery(raw string) string {
	if raw == "" {
		return raw
	}
	parts := strings.Split(raw, "&")
	for i, part := range parts {
		if strings.HasPrefix(part, signature.Param+"=") {
			parts[i] = signature.Param + "=REDACTED"
		}
	}
	return strings.Join(parts, "&")
}
