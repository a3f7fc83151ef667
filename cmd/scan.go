package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"dirhunter/internal/config"
	"dirhunter/internal/dedup"
	"dirhunter/internal/engine"
	"dirhunter/internal/logger"
	"dirhunter/internal/reporter"
	"dirhunter/internal/scan"
	"dirhunter/internal/wordlist"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Probe a target for hidden files and directories",
	Long: `Scan mode runs one discovery session against a target URL: wordlist
candidates are generated, probed concurrently, filtered against wildcard
noise, and discovered directories are expanded recursively.`,
	Run: func(cmd *cobra.Command, args []string) {
		url, _ := cmd.Flags().GetString("url")
		if url == "" {
			fmt.Println("Please provide a URL with the -u flag.")
			os.Exit(1)
		}

		settings, err := config.Load(configDir)
		if err != nil {
			// A missing config file is fine; flags cover everything.
			settings = config.Settings{Mode: "LOCAL"}
			settings.Logger = logger.Config{Level: "info"}
		}

		logger.Setup(settings.Logger)

		req := buildRequest(cmd, settings)
		req.BaseURL = url

		wordlistPath, _ := cmd.Flags().GetString("wordlist")
		if wordlistPath == "" {
			wordlistPath, _ = settings.WordlistPath("general")
		}
		if wordlistPath == "" {
			fmt.Println("Please provide a wordlist with the -w flag.")
			os.Exit(1)
		}
		entries, err := wordlist.Load(wordlistPath)
		if err != nil {
			fmt.Printf("Error loading wordlist: %v\n", err)
			os.Exit(1)
		}
		req.Wordlist = entries

		summary, findings, err := runScan(req, settings)
		if err != nil {
			fmt.Printf("Scan failed: %v\n", err)
			os.Exit(1)
		}

		if err := exportReport(summary, findings); err != nil {
			log.Error().Err(err).Msg("Failed to export report")
		}

		fmt.Printf("\n%d findings, %d requests, %s, status %s\n",
			summary.Findings, summary.TotalRequests, summary.Duration.Round(time.Millisecond), summary.Status)
	},
}

// buildRequest layers command-line flags over the configured scan section.
func buildRequest(cmd *cobra.Command, settings config.Settings) scan.Request {
	req := settings.Scan

	if exts, _ := cmd.Flags().GetStringSlice("extensions"); len(exts) > 0 {
		req.Extensions = exts
	}
	if threads, _ := cmd.Flags().GetInt("threads"); threads > 0 {
		req.Threads = threads
	}
	if timeout, _ := cmd.Flags().GetInt("timeout"); timeout > 0 {
		req.Timeout = time.Duration(timeout) * time.Second
	}
	if delay, _ := cmd.Flags().GetInt("delay"); delay > 0 {
		req.Delay = time.Duration(delay) * time.Millisecond
	}
	if recursive, _ := cmd.Flags().GetBool("recursive"); recursive {
		req.Recursive = true
	}
	if depth, _ := cmd.Flags().GetInt("depth"); depth > 0 {
		req.RecursionDepth = depth
	}
	if wildcards, _ := cmd.Flags().GetBool("detect-wildcards"); wildcards {
		req.DetectWildcards = true
	}
	if proxy, _ := cmd.Flags().GetString("proxy"); proxy != "" {
		req.Proxy = proxy
	}
	if exclude, _ := cmd.Flags().GetIntSlice("exclude-status"); len(exclude) > 0 {
		req.ExcludeStatus = exclude
	}
	if include, _ := cmd.Flags().GetIntSlice("include-status"); len(include) > 0 {
		req.IncludeStatus = include
	}
	return req
}

// runScan wires the store, event stream and engine together and blocks
// until the session finishes or the user interrupts it.
func runScan(req scan.Request, settings config.Settings) (scan.Summary, []scan.Result, error) {
	var rdb *redis.Client
	if settings.Redis.Enabled {
		opt, err := redis.ParseURL(settings.Redis.URL)
		if err != nil {
			log.Warn().Err(err).Msg("Invalid Redis URL, running without mirror")
		} else {
			rdb = redis.NewClient(opt)
		}
	}
	store := dedup.NewStore(rdb, "dirhunter:probed")

	pub := scan.NewPublisher(256)
	eng, err := engine.New(req, store, pub)
	if err != nil {
		return scan.Summary{}, nil, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range pub.Events() {
			printEvent(ev)
		}
	}()

	summary, err := eng.Run(ctx)
	<-done
	if err != nil {
		return summary, eng.Findings(), err
	}
	return summary, eng.Findings(), nil
}

func printEvent(ev scan.Event) {
	switch ev.Type {
	case scan.EventScanStarted:
		log.Info().Msg("Scan started")
	case scan.EventFinding:
		if ev.Result != nil {
			kind := "file"
			if ev.Result.IsDirectory {
				kind = "dir"
			}
			log.Info().
				Int("status", ev.Result.StatusCode).
				Int64("size", ev.Result.Size).
				Str("type", kind).
				Msg(ev.Result.URL)
		}
	case scan.EventProgress:
		log.Debug().
			Int64("processed", ev.Processed).
			Int64("total", ev.Total).
			Float64("percent", ev.Percent).
			Msg("Progress")
	case scan.EventError:
		log.Debug().Str("reason", ev.Reason).Msg("Probe error")
	case scan.EventScanCompleted:
		log.Info().Msg("Scan completed")
	}
}

func exportReport(summary scan.Summary, findings []scan.Result) error {
	path := outputFile
	if path == "" {
		return nil
	}
	report := reporter.Report{Summary: summary, Findings: findings}
	if strings.HasSuffix(path, ".txt") {
		exporter, err := reporter.NewTxtExporter(path)
		if err != nil {
			return err
		}
		return exporter.Export(report)
	}
	exporter, err := reporter.NewJSONExporter(path)
	if err != nil {
		return err
	}
	return exporter.Export(report)
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringP("url", "u", "", "Target URL to scan")
	scanCmd.Flags().StringP("wordlist", "w", "", "Wordlist file path")
	scanCmd.Flags().StringSliceP("extensions", "e", nil, "Extensions to append to extensionless entries (e.g. php,bak)")
	scanCmd.Flags().IntP("threads", "t", 0, "Number of concurrent workers")
	scanCmd.Flags().Int("timeout", 0, "Per-request timeout in seconds")
	scanCmd.Flags().Int("delay", 0, "Delay between requests in milliseconds")
	scanCmd.Flags().BoolP("recursive", "r", false, "Recurse into discovered directories")
	scanCmd.Flags().Int("depth", 0, "Maximum recursion depth")
	scanCmd.Flags().Bool("detect-wildcards", false, "Calibrate and suppress wildcard responses")
	scanCmd.Flags().String("proxy", "", "HTTP proxy URL")
	scanCmd.Flags().IntSlice("exclude-status", nil, "Status codes to discard")
	scanCmd.Flags().IntSlice("include-status", nil, "Status codes to keep regardless of exclusions")
}
