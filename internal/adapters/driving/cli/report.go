package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joelmbaka/introspect/internal/core/domain"
)

// Report command flag values.
var (
	reportUserID     string
	reportUserToken  string
	reportDays       int
	reportMatchCount int
	reportTypes      []string
	reportEntryIDs   []string
	reportJSON       bool
)

var reportCmd = &cobra.Command{
	Use:   "report <prompt>",
	Short: "Generate a report from the command line",
	Long: `Run the report pipeline once for the given prompt and print the result.

The user token can also be supplied via INTROSPECT_USER_TOKEN to keep it out
of shell history.

Examples:
  introspect report "Summarize my June entries" --user u1 --token $TOKEN
  introspect report "What are my latest goals?" --user u1 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportUserID, "user", "", "user id (required)")
	reportCmd.Flags().StringVar(&reportUserToken, "token", "", "bearer token for the entry store")
	reportCmd.Flags().IntVar(&reportDays, "days", 0, "days back to analyze (default 30)")
	reportCmd.Flags().IntVar(&reportMatchCount, "count", 0, "number of entries to retrieve (default 10)")
	reportCmd.Flags().StringSliceVar(&reportTypes, "type", nil, "preferred analysis types (at most 3)")
	reportCmd.Flags().StringSliceVar(&reportEntryIDs, "id", nil, "analyze these entry ids instead of searching")
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "print the raw JSON response")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.Close()

	token := reportUserToken
	if token == "" {
		token = os.Getenv("INTROSPECT_USER_TOKEN")
	}

	req := domain.ReportRequest{
		Prompt:                 args[0],
		UserID:                 reportUserID,
		UserToken:              token,
		DateRangeDays:          reportDays,
		PreferredAnalysisTypes: reportTypes,
		MatchCount:             reportMatchCount,
		EntryIDs:               reportEntryIDs,
	}

	resp := app.pipeline.GenerateReport(cmd.Context(), req)

	if reportJSON {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding response: %w", err)
		}
		cmd.Println(string(data))
		if !resp.Success {
			return fmt.Errorf("report generation failed")
		}
		return nil
	}

	if !resp.Success {
		return fmt.Errorf("report generation failed: %s", resp.ErrorMessage)
	}

	printReport(cmd, resp.Report)
	cmd.Printf("\nGenerated in %.2fs\n", resp.ProcessingTimeSeconds)
	return nil
}

// printReport renders the report for terminal reading.
func printReport(cmd *cobra.Command, r *domain.Report) {
	cmd.Println(r.Title)
	cmd.Println(strings.Repeat("=", len(r.Title)))
	cmd.Println()
	cmd.Println(r.Summary)
	cmd.Println()

	cmd.Printf("Entries analyzed: %d", r.EntriesAnalyzed)
	if r.DateRangeStart != "" && r.DateRangeEnd != "" {
		cmd.Printf(" (%s to %s)", r.DateRangeStart, r.DateRangeEnd)
	}
	cmd.Printf("  Confidence: %.2f\n\n", r.ConfidenceScore)

	cmd.Println("Key insights:")
	for _, ins := range r.KeyInsights {
		cmd.Printf("  - %s (%.2f)\n    %s\n", ins.Title, ins.Confidence, ins.Description)
	}

	if len(r.Recommendations) > 0 {
		cmd.Println("\nRecommendations:")
		for _, rec := range r.Recommendations {
			cmd.Printf("  - [%s] %s\n", rec.Priority, rec.Action)
			if rec.Rationale != "" {
				cmd.Printf("    %s\n", rec.Rationale)
			}
		}
	}

	if len(r.MoodPatterns) > 0 {
		cmd.Println("\nMood patterns:")
		for _, mp := range r.MoodPatterns {
			cmd.Printf("  - %s (%s, seen %d times)\n", mp.DominantMood, mp.Trend, mp.Frequency)
		}
	}

	if len(r.ThemesIdentified) > 0 {
		cmd.Printf("\nThemes: %s\n", strings.Join(r.ThemesIdentified, ", "))
	}
}
