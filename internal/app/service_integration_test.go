package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	service "github.com/okian/framecount/internal/app"
	"github.com/okian/framecount/internal/domain/model"
	"github.com/okian/framecount/internal/domain/types"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

// stubAnalyzer returns canned candidates or a canned error.
type stubAnalyzer struct {
	mu         sync.Mutex
	candidates []model.Candidate
	err        error
	calls      int
	lastMIME   string
	delay      time.Duration
}

func (a *stubAnalyzer) Analyze(_ context.Context, img model.Image) ([]model.Candidate, error) {
	time.Sleep(a.delay)
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	a.lastMIME = img.MIMEType
	if a.err != nil {
		return nil, a.err
	}
	return a.candidates, nil
}

func waitForImport(ctx context.Context, svc *service.Service, id string) types.ImportStatus {
	deadline := time.Now().Add(3 * time.Second)
	for {
		status, err := svc.Import(ctx, id)
		if err == nil && (status.State == "completed" || status.State == "failed") {
			return status
		}
		if time.Now().After(deadline) {
			return status
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a started service with a working analyzer", t, func() {
		ctx := context.Background()
		stub := &stubAnalyzer{candidates: []model.Candidate{
			{Name: "sq1 sc1 sh1", Frames: 48},
			{Name: "SQ01_SC01_SH01", Frames: 50},
			{Name: "sq1 sc1 sh2", Frames: 180},
			{Name: "", Frames: 12},
		}}
		svc := service.New(
			service.WithWorkerCount(2),
			service.WithQueueSize(8),
			service.WithAnalyzer(stub),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { So(svc.Stop(ctx), ShouldBeNil) }()

		_, err := svc.AddShot(ctx, "SQ01_SC01_SH02", 10, "")
		So(err, ShouldBeNil)

		Convey("When an image is submitted", func() {
			pending, err := svc.SubmitImport(ctx, model.Image{Data: pngHeader})
			So(err, ShouldBeNil)
			So(pending.ID, ShouldStartWith, "imp")
			So(pending.State, ShouldEqual, "pending")

			status := waitForImport(ctx, svc, pending.ID)

			Convey("Then the job completes and unique candidates are added", func() {
				So(status.State, ShouldEqual, "completed")
				So(status.Candidates, ShouldEqual, 4)
				So(status.Added, ShouldEqual, 1)
				So(status.Duplicates, ShouldEqual, 2)
				So(status.Skipped, ShouldEqual, 1)
				So(status.Finished, ShouldNotBeEmpty)

				shots := svc.Shots(ctx)
				So(len(shots), ShouldEqual, 2)
				So(shots[1].Name, ShouldEqual, "SQ01_SC01_SH01")
				So(shots[1].Price, ShouldEqual, int64(125_000))
			})

			Convey("Then the analyzer saw the sniffed MIME type", func() {
				stub.mu.Lock()
				defer stub.mu.Unlock()
				So(stub.lastMIME, ShouldEqual, "image/png")
			})

			Convey("Then stats include the running queue", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["analyzerEnabled"], ShouldEqual, true)
				So(stats, ShouldContainKey, "queueLength")
			})
		})

		Convey("When the upload is empty", func() {
			_, err := svc.SubmitImport(ctx, model.Image{})
			So(errors.Is(err, service.ErrEmptyImage), ShouldBeTrue)
		})

		Convey("When the upload declares a non-image type", func() {
			_, err := svc.SubmitImport(ctx, model.Image{Data: []byte("%PDF-1.7"), MIMEType: "application/pdf"})
			So(errors.Is(err, service.ErrUnsupportedImage), ShouldBeTrue)
		})
	})

	Convey("Given a started service whose analyzer fails", t, func() {
		ctx := context.Background()
		stub := &stubAnalyzer{err: errors.New("upstream 503")}
		svc := service.New(service.WithAnalyzer(stub))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { So(svc.Stop(ctx), ShouldBeNil) }()

		Convey("When an image is submitted", func() {
			pending, err := svc.SubmitImport(ctx, model.Image{Data: pngHeader, MIMEType: "image/png"})
			So(err, ShouldBeNil)
			status := waitForImport(ctx, svc, pending.ID)

			Convey("Then the job fails with a generic message and nothing is added", func() {
				So(status.State, ShouldEqual, "failed")
				So(status.Error, ShouldEqual, "image analysis failed")
				So(len(svc.Shots(ctx)), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a started service with a slow analyzer and one worker", t, func() {
		ctx := context.Background()
		stub := &stubAnalyzer{delay: 100 * time.Millisecond, candidates: []model.Candidate{{Name: "A", Frames: 10}}}
		svc := service.New(service.WithAnalyzer(stub), service.WithWorkerCount(1), service.WithQueueSize(8))
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When it is stopped with imports still queued", func() {
			ids := make([]string, 4)
			for i := range ids {
				status, err := svc.SubmitImport(ctx, model.Image{Data: pngHeader, MIMEType: "image/png"})
				So(err, ShouldBeNil)
				ids[i] = status.ID
			}
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then every import is resolved instead of staying pending", func() {
				for _, id := range ids {
					status, err := svc.Import(ctx, id)
					So(err, ShouldBeNil)
					So(status.State, ShouldBeIn, "completed", "failed")
				}
				last, _ := svc.Import(ctx, ids[3])
				So(last.State, ShouldEqual, "failed")
				So(last.Error, ShouldEqual, "image analysis failed")

				imports, ok := svc.GetStats()["imports"].(map[string]int)
				So(ok, ShouldBeTrue)
				So(imports["pending"], ShouldEqual, 0)
				So(imports["running"], ShouldEqual, 0)
			})

			Convey("And a restarted service processes new imports", func() {
				So(svc.Start(ctx), ShouldBeNil)
				defer func() { So(svc.Stop(ctx), ShouldBeNil) }()

				pending, err := svc.SubmitImport(ctx, model.Image{Data: pngHeader, MIMEType: "image/png"})
				So(err, ShouldBeNil)
				So(waitForImport(ctx, svc, pending.ID).State, ShouldEqual, "completed")
			})
		})
	})

	Convey("Given a service with an analyzer that was never started", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithAnalyzer(&stubAnalyzer{}))

		Convey("When an image is submitted", func() {
			_, err := svc.SubmitImport(ctx, model.Image{Data: pngHeader})

			Convey("Then ErrNotStarted is returned", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})

		Convey("When stopped without starting", func() {
			So(svc.Stop(ctx), ShouldBeNil)
		})
	})
}
