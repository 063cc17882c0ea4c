package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/sirupsen/logrus"

	"github.com/lgc202/borders-go/httpx"
	"github.com/lgc202/borders-go/metrics"
)

func main() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-ID", r.Header.Get("X-Request-ID"))
		_, _ = io.WriteString(w, `{"response":"ok"}`)
	}))
	defer srv.Close()

	client, err := httpx.New()
	if err != nil {
		panic(err)
	}

	log := logrus.New()
	log.SetLevel(logrus.DebugLevel)

	m := metrics.New("demo")
	reg := prometheus.NewRegistry()
	reg.MustRegister(m)

	client.WithHooks(m.Hooks()).WithHooks(
		[]httpx.BeforeHook{
			func(req *http.Request) error {
				req.Header.Set("X-Tenant", "tenant-a")
				return nil
			},
		},
		[]httpx.AfterHook{
			func(req *http.Request, resp *httpx.Response, err error, dur time.Duration) {
				entry := log.WithFields(logrus.Fields{
					"method":     req.Method,
					"url":        req.URL.String(),
					"duration":   dur,
					"request_id": client.RequestID(req, resp),
				})
				if err != nil {
					entry.WithError(err).Warn("request failed")
					return
				}
				entry.WithField("status", resp.StatusCode).Debug("request done")
			},
		},
	)

	for i := 0; i < 3; i++ {
		req, err := client.NewRequest(context.Background(), http.MethodGet, srv.URL+"/")
		if err != nil {
			panic(err)
		}
		if _, err := client.Send(req); err != nil {
			panic(err)
		}
	}

	families, err := reg.Gather()
	if err != nil {
		panic(err)
	}
	enc := expfmt.NewEncoder(os.Stdout, expfmt.FmtText)
	for _, mf := range families {
		_ = enc.Encode(mf)
	}
}
