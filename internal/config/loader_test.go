package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/framecount/internal/config"
	"github.com/okian/framecount/internal/domain/pricing"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.CORSOrigins, convey.ShouldResemble, []string{"*"})
				convey.So(len(cfg.Tiers), convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("FRAMECOUNT_ADDR", ":8080")
			_ = os.Setenv("FRAMECOUNT_QUEUE_SIZE", "16")
			_ = os.Setenv("FRAMECOUNT_WORKER_COUNT", "4")
			_ = os.Setenv("FRAMECOUNT_ANALYZER_ENABLED", "true")
			_ = os.Setenv("FRAMECOUNT_ANALYZER_API_KEY", "secret")
			_ = os.Setenv("FRAMECOUNT_ANALYZER_RPS", "0.5")
			_ = os.Setenv("FRAMECOUNT_CORS_ORIGINS", "http://a.test, http://b.test")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 16)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
				convey.So(cfg.AnalyzerEnabled, convey.ShouldBeTrue)
				convey.So(cfg.AnalyzerAPIKey, convey.ShouldEqual, "secret")
				convey.So(cfg.AnalyzerRPS, convey.ShouldEqual, 0.5)
				convey.So(cfg.CORSOrigins, convey.ShouldResemble, []string{"http://a.test", "http://b.test"})
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			yamlContent := `
addr: ":9090"
log_format: console
report_title: "Estimasi LOM"
tiers:
  - {min: 0, max: 50, price: 100000, label: "Pendek"}
  - {min: 51, max: 1000000, price: 200000, label: "Panjang"}
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("FRAMECOUNT_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values replace the defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "console")
				convey.So(cfg.ReportTitle, convey.ShouldEqual, "Estimasi LOM")
				convey.So(cfg.Tiers, convey.ShouldResemble, []pricing.Tier{
					{Min: 0, Max: 50, Price: 100_000, Label: "Pendek"},
					{Min: 51, Max: 1_000_000, Price: 200_000, Label: "Panjang"},
				})
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile("addr: \":9090\"\nworker_count: 8\nqueue_size: 32\n")
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("FRAMECOUNT_CONFIG", tmpFile)
			_ = os.Setenv("FRAMECOUNT_WORKER_COUNT", "3")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.QueueSize, convey.ShouldEqual, 32)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("FRAMECOUNT_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("FRAMECOUNT_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("FRAMECOUNT_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the tier table is malformed", func() {
			tmpFile := createTempConfigFile("tiers:\n  - {min: 10, max: 5, price: 1, label: bad}\n")
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("FRAMECOUNT_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the log format is unknown", func() {
			_ = os.Setenv("FRAMECOUNT_LOG_FORMAT", "xml")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("FRAMECOUNT_QUEUE_SIZE", "invalid")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"FRAMECOUNT_CONFIG",
		"FRAMECOUNT_ADDR",
		"FRAMECOUNT_LOG_FORMAT",
		"FRAMECOUNT_QUEUE_SIZE",
		"FRAMECOUNT_WORKER_COUNT",
		"FRAMECOUNT_ANALYZER_ENABLED",
		"FRAMECOUNT_ANALYZER_API_KEY",
		"FRAMECOUNT_ANALYZER_RPS",
		"FRAMECOUNT_CORS_ORIGINS",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "framecount-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
