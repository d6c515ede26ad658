// Command analyze scores one or more codes and prints the result as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/m09352000/my-stock-dashboard-sub000/internal/collector"
	"github.com/m09352000/my-stock-dashboard-sub000/internal/config"
	"github.com/m09352000/my-stock-dashboard-sub000/internal/market"
	"github.com/m09352000/my-stock-dashboard-sub000/internal/model"

	"github.com/tidwall/pretty"
)

func main() {
	full := flag.Bool("full", false, "print the whole analysis including the bar series")
	live := flag.Bool("live", true, "merge today's realtime quote when available")
	color := flag.Bool("color", false, "colorize the JSON output")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: analyze [-full] [-color] [-live=false] CODE...\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(flag.Args(), *full, *live, *color); err != nil {
		fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
		os.Exit(1)
	}
}

func run(codes []string, full, live, color bool) error {
	cfg, err := config.Load(config.Path())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.Log.Level = "warn"
	logger, err := cfg.NewLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	tw, err := cfg.Markets.TW.Clock(model.MarketTW)
	if err != nil {
		return err
	}
	us, err := cfg.Markets.US.Clock(model.MarketUS)
	if err != nil {
		return err
	}

	yahoo := collector.NewYahooFetcher(cfg.Proxy)
	var quotes collector.QuoteSource
	if live {
		router := &collector.RouterQuoteSource{Sources: map[model.Market]collector.QuoteSource{
			model.MarketTW: collector.NewTWSEQuoteSource(cfg.Proxy),
			model.MarketUS: yahoo,
		}}
		if cfg.AlpacaEnabled() {
			router.Sources[model.MarketUS] = collector.NewAlpacaQuoteSource(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.BaseURL)
		}
		quotes = router
	}
	col := collector.NewCollector(yahoo, quotes, market.Clocks{model.MarketTW: tw, model.MarketUS: us}, logger)
	col.HistoryDays = cfg.History.Days

	failed := 0
	for _, code := range codes {
		an, err := col.Analyze(ctx, code)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", code, err)
			failed++
			continue
		}
		var v any = an.Result
		if full {
			v = an
		}
		out, err := json.Marshal(v)
		if err != nil {
			return err
		}
		out = pretty.Pretty(out)
		if color {
			out = pretty.Color(out, nil)
		}
		fmt.Printf("# %s\n%s", an.Code, out)
	}
	if failed == len(codes) {
		return fmt.Errorf("no code could be analyzed")
	}
	return nil
}
