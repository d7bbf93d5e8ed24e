package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"aavetx/internal/application"
	"aavetx/internal/chains"
	"aavetx/internal/config"
	"aavetx/internal/domain"
	"aavetx/internal/infrastructure/logging"
	"aavetx/internal/infrastructure/subgraph"
)

func main() {
	hash := flag.String("hash", "", "transaction hash to look up")
	asJSON := flag.Bool("json", false, "print the resolution as JSON")
	modeFlag := flag.String("mode", "", "resolve mode: sequential or parallel (defaults to RESOLVE_MODE)")
	flag.Parse()
	if *hash == "" && flag.NArg() > 0 {
		*hash = flag.Arg(0)
	}
	if *hash == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	// stdout carries the result
	logCloser, err := logging.Init(logging.Config{
		Level:      "warn",
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		Output:     os.Stderr,
	})
	if err != nil {
		log.Fatalf("logging error: %v", err)
	}

	if logCloser != nil {
		defer logCloser.Close()
	}

	rawMode := cfg.ResolveMode
	if *modeFlag != "" {
		rawMode = *modeFlag
	}
	mode, err := application.ParseMode(rawMode)
	if err != nil {
		log.Fatalf("%v", err)
	}

	registry := chains.Default()
	resolver, err := application.NewResolver(registry, subgraph.NewClient(subgraph.Config{
		Timeout: cfg.FetchTimeout,
		Retries: int(cfg.FetchRetries),
		Backoff: cfg.RetryBackoff,
	}), nil, application.ResolverConfig{Mode: mode, Timeout: cfg.ResolveTimeout})
	if err != nil {
		log.Fatalf("resolver error: %v", err)
	}
	explorer, err := application.NewExplorer(resolver)
	if err != nil {
		log.Fatalf("explorer error: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	res, err := explorer.Lookup(ctx, *hash)
	if err != nil && !errors.Is(err, application.ErrNotFound) {
		log.Fatalf("lookup failed: %v", err)
	}
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			log.Fatalf("encode: %v", err)
		}
	} else {
		printResolution(os.Stdout, registry, res, time.Now())
	}
	if !res.Found {
		os.Exit(1)
	}
}

func printResolution(w io.Writer, registry *chains.Registry, res domain.Resolution, now time.Time) {
	if failed := res.FailedChains(); len(failed) > 0 {
		fmt.Fprintf(w, "warning: could not query %v, result may be incomplete\n", failed)
	}
	if !res.Found {
		fmt.Fprintf(w, "transaction %s not found on any supported chain\n", res.Hash)
		return
	}
	entry, _ := registry.Lookup(res.Chain)
	fmt.Fprintf(w, "Chain:       %s\n", res.Chain)
	if user, ok := res.User(); ok {
		fmt.Fprintf(w, "User:        %s\n", entry.AddressLink(user))
	}
	fmt.Fprintf(w, "Transaction: %s\n", entry.TxLink(res.Hash))
	if ts, ok := res.Timestamp(); ok {
		fmt.Fprintf(w, "Time (UTC):  %s (%s)\n", ts.Format(time.DateTime), domain.HumanizeAge(ts, now))
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tTYPE\tASSET SYMBOL\tASSET AMOUNT\tAMOUNT USD\tASSET ID")
	for _, row := range res.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", row.Time, row.Type, row.AssetSymbol, row.AssetAmount, row.AmountUSD.StringFixed(2), row.AssetID)
	}
	_ = tw.Flush()
}
