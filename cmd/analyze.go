package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"dirhunter/internal/advisory"
	"dirhunter/internal/config"
	"dirhunter/internal/coordinator"
	"dirhunter/internal/dedup"
	"dirhunter/internal/engine"
	"dirhunter/internal/logger"
	"dirhunter/internal/scan"
	"dirhunter/internal/wordlist"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Profile a target and generate a prioritized scan plan",
	Long: `Analyze mode fingerprints the target (server, CMS, protective
infrastructure), builds a prioritized list of scan tasks, and optionally
executes them. Planning runs locally by default; with an advisory endpoint
configured it can delegate tuning decisions to it.`,
	Run: func(cmd *cobra.Command, args []string) {
		url, _ := cmd.Flags().GetString("url")
		if url == "" {
			fmt.Println("Please provide a URL with the -u flag.")
			os.Exit(1)
		}

		settings, err := config.Load(configDir)
		if err != nil {
			settings = config.Settings{Mode: "LOCAL"}
			settings.Logger = logger.Config{Level: "info"}
		}
		logger.Setup(settings.Logger)

		modeFlag, _ := cmd.Flags().GetString("mode")
		if modeFlag == "" {
			modeFlag = settings.Mode
		}

		var advClient advisory.Client
		if settings.Advisory.Configured() {
			advClient = advisory.NewOpenAIClient(settings.Advisory)
		}

		wordlistFlag, _ := cmd.Flags().GetString("wordlist")
		resolver := func(hint string) ([]string, error) {
			if wordlistFlag != "" {
				return wordlist.Load(wordlistFlag)
			}
			path, ok := settings.WordlistPath(hint)
			if !ok {
				return nil, fmt.Errorf("no wordlist configured for %q", hint)
			}
			return wordlist.Load(path)
		}

		coord, err := coordinator.New(coordinator.Mode(modeFlag), advClient, resolver)
		if err != nil {
			fmt.Printf("Error creating coordinator: %v\n", err)
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if budget, _ := cmd.Flags().GetDuration("budget"); budget > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, budget)
			defer cancel()
		}

		profile, err := coord.AnalyzeTarget(ctx, url)
		if err != nil {
			fmt.Printf("Error profiling target: %v\n", err)
			os.Exit(1)
		}

		plan, err := coord.GenerateScanPlan(ctx, profile)
		if err != nil {
			fmt.Printf("Error generating plan: %v\n", err)
			os.Exit(1)
		}

		if run, _ := cmd.Flags().GetBool("run"); !run {
			out, err := json.MarshalIndent(plan, "", "  ")
			if err != nil {
				fmt.Printf("Error encoding plan: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(out))
			return
		}

		executePlan(ctx, plan)
	},
}

// executePlan runs the plan's tasks in priority order, sharing one dedup
// store so later tasks never re-probe URLs earlier tasks covered.
func executePlan(ctx context.Context, plan *coordinator.Plan) {
	tasks := make([]coordinator.Task, len(plan.Tasks))
	copy(tasks, plan.Tasks)
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Priority > tasks[j].Priority })

	store := dedup.NewStore(nil, "dirhunter:probed")
	var allFindings []scan.Result
	var last scan.Summary

	for _, task := range tasks {
		if ctx.Err() != nil {
			break
		}
		if len(task.Request.Wordlist) == 0 {
			log.Warn().Str("task", task.ID).Msg("No wordlist for task, skipping")
			continue
		}
		log.Info().Str("task", task.ID).Str("type", task.Type).Msg("Running task")

		pub := scan.NewPublisher(256)
		eng, err := engine.New(task.Request, store, pub)
		if err != nil {
			log.Error().Err(err).Str("task", task.ID).Msg("Task setup failed")
			continue
		}

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
			log.Warn().Err(err).Str("task", task.ID).Msg("Task ended early")
		}
		last = summary
		allFindings = append(allFindings, eng.Findings()...)
	}

	if err := exportReport(last, allFindings); err != nil {
		log.Error().Err(err).Msg("Failed to export report")
	}
	fmt.Printf("\nPlan finished: %d findings across %d tasks\n", len(allFindings), len(tasks))
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringP("url", "u", "", "Target URL to analyze")
	analyzeCmd.Flags().StringP("wordlist", "w", "", "Wordlist file path (overrides configured lists)")
	analyzeCmd.Flags().StringP("mode", "m", "", "Planning mode: LOCAL, AI_AGENT or AUTO")
	analyzeCmd.Flags().Bool("run", false, "Execute the generated plan instead of printing it")
	analyzeCmd.Flags().Duration("budget", 0*time.Second, "Overall time budget for plan execution (0 = unlimited)")
}
