// Command shotctl manages a framecount estimate over HTTP.
package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/framecount/internal/client"
)

const (
	defaultURL     = "http://localhost:9080"
	defaultTimeout = 30 * time.Second
	importTimeout  = 5 * time.Minute
)

// cli holds persistent flag values shared by subcommands.
type cli struct {
	baseURL string
	timeout time.Duration
	raw     bool
}

func (c *cli) client() *client.Client {
	return client.New(c.baseURL, client.WithTimeout(c.timeout))
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "shotctl",
		Short: "Manage a shot-cost estimate",
		Long: `shotctl talks to a framecount server.

Shots are priced by the first tier whose frame range contains them.
Names like "sq1 sc2 sh3" are normalized to SQ01_SC02_SH03 and must be unique.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&c.baseURL, "url", envOr("FRAMECOUNT_URL", defaultURL), "Base URL of the server (or set FRAMECOUNT_URL)")
	root.PersistentFlags().DurationVar(&c.timeout, "timeout", defaultTimeout, "HTTP request timeout")
	root.PersistentFlags().BoolVar(&c.raw, "raw", false, "Print plain markdown instead of terminal rendering")

	root.AddCommand(
		newAddCmd(c),
		newEditCmd(c),
		newImportCmd(c),
		newListCmd(c),
		newRmCmd(c),
		newTiersCmd(c),
		newSetTiersCmd(c),
		newRmTierCmd(c),
		newReportCmd(c),
	)
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
