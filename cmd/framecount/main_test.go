package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/framecount/internal/config"
	"github.com/okian/framecount/pkg/logger"
)

func init() {
	if err := logger.Init(logger.WithOutput(io.Discard)); err != nil {
		panic(err)
	}
}

func TestBuild(t *testing.T) {
	convey.Convey("Given the default configuration", t, func() {
		ctx := context.Background()
		cfg := config.New(ctx)
		log := logger.Nop()

		convey.Convey("When the handler is built", func() {
			svc, handler, err := build(ctx, cfg, log)
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc, convey.ShouldNotBeNil)

			convey.Convey("Then health, docs and the API are routed", func() {
				for _, path := range []string{"/healthz", "/api-docs", "/openapi.yaml", "/tiers"} {
					rec := httptest.NewRecorder()
					handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
					convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
				}
			})

			convey.Convey("Then shots are priced with the configured tiers", func() {
				rec := httptest.NewRecorder()
				req := httptest.NewRequest(http.MethodPost, "/shots", strings.NewReader(`{"name":"sq1 sc1 sh1","frames":150}`))
				req.Header.Set("Content-Type", "application/json")
				handler.ServeHTTP(rec, req)

				convey.So(rec.Code, convey.ShouldEqual, http.StatusCreated)
				convey.So(rec.Body.String(), convey.ShouldContainSubstring, `"price":150000`)
			})

			convey.Convey("Then imports are unavailable without an analyzer", func() {
				rec := httptest.NewRecorder()
				req := httptest.NewRequest(http.MethodPost, "/imports", strings.NewReader("\x89PNG\r\n\x1a\n"))
				req.Header.Set("Content-Type", "image/png")
				handler.ServeHTTP(rec, req)

				convey.So(rec.Code, convey.ShouldEqual, http.StatusServiceUnavailable)
			})
		})

		convey.Convey("When the currency locale is malformed", func() {
			cfg.CurrencyLocale = "not a locale!"
			_, _, err := build(ctx, cfg, log)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a server on an ephemeral port", t, func() {
		cfg := config.New(context.Background())
		cfg.Addr = "127.0.0.1:0"
		cfg.ShutdownTimeoutMS = 2000

		convey.Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- run(ctx, cfg, logger.Nop()) }()

			time.Sleep(50 * time.Millisecond)
			cancel()

			convey.Convey("Then run shuts down cleanly", func() {
				select {
				case err := <-done:
					convey.So(err, convey.ShouldBeNil)
				case <-time.After(5 * time.Second):
					convey.So("run did not return", convey.ShouldBeEmpty)
				}
			})
		})
	})
}
