package client_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/framecount/internal/adapters/http/api"
	service "github.com/okian/framecount/internal/app"
	"github.com/okian/framecount/internal/client"
	"github.com/okian/framecount/internal/domain/model"
	"github.com/okian/framecount/internal/domain/pricing"
	"github.com/okian/framecount/pkg/logger"
)

func init() {
	if err := logger.Init(logger.WithOutput(io.Discard)); err != nil {
		panic(err)
	}
}

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

type stubAnalyzer struct {
	candidates []model.Candidate
	err        error
}

func (a stubAnalyzer) Analyze(context.Context, model.Image) ([]model.Candidate, error) {
	return a.candidates, a.err
}

func newServer(svc *service.Service) (*httptest.Server, *client.Client) {
	ts := httptest.NewServer(api.NewServer(svc))
	return ts, client.New(ts.URL, client.WithTimeout(5*time.Second), client.WithPollInterval(10*time.Millisecond))
}

func TestClient_Shots(t *testing.T) {
	Convey("Given a client against a live server", t, func() {
		ctx := context.Background()
		ts, c := newServer(service.New())
		defer ts.Close()

		So(c.Health(ctx), ShouldBeNil)

		Convey("When adding and listing shots", func() {
			view, err := c.AddShot(ctx, "sq1 sc1 sh1", 48, "")
			So(err, ShouldBeNil)
			list, err := c.Shots(ctx)

			Convey("Then the list carries the shot and totals", func() {
				So(err, ShouldBeNil)
				So(view.Name, ShouldEqual, "SQ01_SC01_SH01")
				So(len(list.Shots), ShouldEqual, 1)
				So(list.Summary.TotalPrice, ShouldEqual, int64(125_000))
			})

			Convey("And a duplicate surfaces as an APIError", func() {
				_, err := c.AddShot(ctx, "SQ01_SC01_SH01", 10, "")
				var apiErr *client.APIError
				So(errors.As(err, &apiErr), ShouldBeTrue)
				So(apiErr.Status, ShouldEqual, http.StatusConflict)
				So(apiErr.Code, ShouldEqual, "duplicate_name")
			})

			Convey("And edits and removal round-trip", func() {
				frames := 150
				updated, err := c.UpdateShot(ctx, view.ID, nil, &frames)
				So(err, ShouldBeNil)
				So(updated.Price, ShouldEqual, int64(150_000))

				So(c.RemoveShot(ctx, view.ID), ShouldBeNil)
				err = c.RemoveShot(ctx, view.ID)
				var apiErr *client.APIError
				So(errors.As(err, &apiErr), ShouldBeTrue)
				So(apiErr.Status, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When adding a batch", func() {
			res, err := c.AddBatch(ctx, []model.Candidate{
				{Name: "SQ01_SC01_SH01", Frames: 48},
				{Name: "sq01 sc01 sh01", Frames: 50},
			})
			So(err, ShouldBeNil)
			So(res.Added, ShouldEqual, 1)
			So(res.Duplicates, ShouldEqual, 1)
		})
	})
}

func TestClient_Tiers(t *testing.T) {
	Convey("Given a client against a live server", t, func() {
		ctx := context.Background()
		ts, c := newServer(service.New())
		defer ts.Close()

		Convey("When replacing and removing tiers", func() {
			views, err := c.ReplaceTiers(ctx, []pricing.Tier{
				{Min: 0, Max: 10, Price: 1, Label: "a"},
				{Min: 11, Max: 20, Price: 2, Label: "b"},
			})
			So(err, ShouldBeNil)
			So(len(views), ShouldEqual, 2)

			views, err = c.RemoveTier(ctx, 1)
			So(err, ShouldBeNil)
			So(len(views), ShouldEqual, 1)

			got, err := c.Tiers(ctx)
			So(err, ShouldBeNil)
			So(got[0].Label, ShouldEqual, "a")
		})

		Convey("When clearing the table", func() {
			views, err := c.ReplaceTiers(ctx, nil)
			So(err, ShouldBeNil)
			So(len(views), ShouldEqual, 0)
		})
	})
}

func TestClient_Report(t *testing.T) {
	Convey("Given a server with one shot", t, func() {
		ctx := context.Background()
		ts, c := newServer(service.New())
		defer ts.Close()
		_, err := c.AddShot(ctx, "A", 48, "")
		So(err, ShouldBeNil)

		Convey("When fetching a CSV report", func() {
			body, contentType, err := c.Report(ctx, client.ReportQuery{Format: "csv", Title: "Q3"})

			Convey("Then the raw bytes and type are returned", func() {
				So(err, ShouldBeNil)
				So(contentType, ShouldStartWith, "text/csv")
				So(string(body), ShouldContainSubstring, "125000")
			})
		})

		Convey("When the format is unknown", func() {
			_, _, err := c.Report(ctx, client.ReportQuery{Format: "pdf"})
			var apiErr *client.APIError
			So(errors.As(err, &apiErr), ShouldBeTrue)
			So(apiErr.Status, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestClient_Imports(t *testing.T) {
	Convey("Given a running service with a working analyzer", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithAnalyzer(stubAnalyzer{candidates: []model.Candidate{{Name: "X", Frames: 12}}}))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { So(svc.Stop(ctx), ShouldBeNil) }()
		ts, c := newServer(svc)
		defer ts.Close()

		Convey("When an image is uploaded and awaited", func() {
			pending, err := c.SubmitImport(ctx, pngHeader, "")
			So(err, ShouldBeNil)
			final, err := c.WaitImport(ctx, pending.ID)

			Convey("Then the import completes", func() {
				So(err, ShouldBeNil)
				So(final.State, ShouldEqual, "completed")
				So(final.Added, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a running service whose analyzer fails", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithAnalyzer(stubAnalyzer{err: errors.New("boom")}))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { So(svc.Stop(ctx), ShouldBeNil) }()
		ts, c := newServer(svc)
		defer ts.Close()

		Convey("When an image is uploaded and awaited", func() {
			pending, err := c.SubmitImport(ctx, pngHeader, "image/png")
			So(err, ShouldBeNil)
			final, err := c.WaitImport(ctx, pending.ID)

			Convey("Then ErrImportFailed carries the generic message", func() {
				So(errors.Is(err, client.ErrImportFailed), ShouldBeTrue)
				So(final.Error, ShouldEqual, "image analysis failed")
			})
		})
	})
}

func TestParseTier(t *testing.T) {
	Convey("Given tier specs", t, func() {
		Convey("Then bounded specs parse", func() {
			tier, err := client.ParseTier("0-100:125000:Kategori 1")
			So(err, ShouldBeNil)
			So(tier, ShouldResemble, pricing.Tier{Min: 0, Max: 100, Price: 125_000, Label: "Kategori 1"})
		})

		Convey("Then inf yields an open-ended tier", func() {
			tier, err := client.ParseTier("201-inf:225000:Kategori 3")
			So(err, ShouldBeNil)
			So(tier.Unbounded(pricing.DefaultUnboundedThreshold), ShouldBeTrue)
		})

		Convey("Then malformed specs are rejected", func() {
			for _, spec := range []string{"", "0-100", "0:1:a", "x-10:1:a", "0-10:y:a", "10-5:1:a", "0-10:1: "} {
				_, err := client.ParseTier(spec)
				So(errors.Is(err, client.ErrInvalidTier), ShouldBeTrue)
			}
		})
	})
}
