package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"ecoshelf-extractor/adapters"
	"ecoshelf-extractor/bridge"
	"ecoshelf-extractor/internal/config"
	"ecoshelf-extractor/internal/logging"
	"ecoshelf-extractor/internal/types"
	"ecoshelf-extractor/popup"

	"github.com/joho/godotenv"
	"github.com/pterm/pterm"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// tabID names the single page session the CLI opens
const tabID = "cli"

type rootFlags struct {
	relayURL    string
	browser     bool
	timeout     time.Duration
	waitTimeout time.Duration
	trimTimeout time.Duration
	noTrim      bool
	output      string
	verbose     bool
}

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "ecoshelf",
		Short:         "Scrape product details from e-commerce product pages",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.relayURL, "relay", "", "Base URL of the title-trimming relay (default from config)")
	pf.DurationVar(&flags.trimTimeout, "trim-timeout", 0, "Timeout for the title-trimming round trip")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")

	scrape := &cobra.Command{
		Use:   "scrape <url>",
		Short: "Scrape a product page and show its details",
		Long: `Loads the product page, waits for the title to render, extracts price,
rating, dimensions, weights, seller and delivery details, and shows them
the way the extension popup does.

Examples:
  ecoshelf scrape https://www.amazon.com/dp/B0CHX1W1XY
  ecoshelf scrape --browser --output json https://www.amazon.co.uk/dp/B0CHX1W1XY`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScrape(cmd.Context(), flags, args[0])
		},
	}
	scrape.Flags().BoolVar(&flags.browser, "browser", false, "Render the page in a headless browser")
	scrape.Flags().DurationVar(&flags.timeout, "timeout", 0, "Page load timeout")
	scrape.Flags().DurationVar(&flags.waitTimeout, "wait", 0, "How long to wait for the product title to appear")
	scrape.Flags().BoolVar(&flags.noTrim, "no-trim", false, "Keep the full product title")
	scrape.Flags().StringVarP(&flags.output, "output", "o", "", "Output format: 'json' or empty for a table")

	trim := &cobra.Command{
		Use:   "trim <title>",
		Short: "Shorten a product title through the relay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrim(cmd.Context(), flags, args[0])
		},
	}

	root.AddCommand(scrape, trim)
	return root
}

func setup(flags *rootFlags) (*types.Config, *logrus.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := newLogger(cfg.Log, flags.verbose)

	scfg := cfg.ScraperTypes()
	if flags.relayURL != "" {
		scfg.RelayURL = flags.relayURL
	}
	if flags.browser {
		scfg.UseHeadlessBrowser = true
	}
	if flags.timeout > 0 {
		scfg.Timeout = flags.timeout
	}
	if flags.waitTimeout > 0 {
		scfg.WaitTimeout = flags.waitTimeout
	}
	if flags.trimTimeout > 0 {
		scfg.TrimTimeout = flags.trimTimeout
	}
	return scfg, logger, nil
}

// newLogger honors a configured level. Without one the CLI logs warnings
// only, or debug output with --verbose.
func newLogger(log config.LogConfig, verbose bool) *logrus.Logger {
	level := ""
	if log.Explicit {
		level = log.Level
	}

	logger := logging.New(os.Stderr, level, verbose)
	if level == "" && !verbose {
		// keep the popup output readable
		logger.SetLevel(logrus.WarnLevel)
	}
	return logger
}

func runScrape(ctx context.Context, flags *rootFlags, pageURL string) error {
	if flags.output != "" && flags.output != "json" {
		return fmt.Errorf("unsupported --output value: use 'json'")
	}

	scfg, logger, err := setup(flags)
	if err != nil {
		return err
	}

	adapter := adapters.NewAmazonAdapter(scfg, logger)
	defer adapter.Close()

	page, closePage, err := adapter.OpenPage(ctx, pageURL)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", pageURL, err)
	}
	defer closePage()

	var b *bridge.Bridge
	if flags.noTrim {
		b = bridge.New(adapter, logger, bridge.WithoutTrimming())
	} else {
		b = bridge.New(adapter, logger)
	}

	opts := []popup.Option{}
	if flags.output == "json" {
		opts = append(opts, popup.WithJSON())
	} else {
		opts = append(opts, popup.WithSpinner())
	}
	b.SetPopup(popup.New(b, logger, opts...))

	if err := b.OpenTab(ctx, tabID, page); err != nil {
		return err
	}
	defer b.CloseTab(tabID)

	// product pages open the popup on their own
	if !adapters.IsProductPage(pageURL) {
		_, err := b.Dispatch(ctx, tabID, types.Message{Type: types.MessageOpenPopup})
		return err
	}
	return nil
}

func runTrim(ctx context.Context, flags *rootFlags, title string) error {
	scfg, logger, err := setup(flags)
	if err != nil {
		return err
	}

	adapter := adapters.NewAmazonAdapter(scfg, logger)
	defer adapter.Close()

	b := bridge.New(adapter, logger)
	resp, err := b.Dispatch(ctx, tabID, types.Message{Type: types.MessageTrimTitle, Title: title})
	if err != nil {
		return err
	}

	fmt.Println(resp.TrimmedTitle)
	return nil
}
