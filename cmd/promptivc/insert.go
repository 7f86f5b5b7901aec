package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/midsbie/promptivd"
)

var (
	insertClient    string
	insertLabel     string
	insertPath      string
	insertText      string
	insertPlacement string
	insertProvider  string
	insertDirective string
	insertStdin     bool
)

func init() {
	rootCmd.AddCommand(insertCmd)

	insertCmd.Flags().StringVar(&insertClient, "client", "promptivc", "source.client identifying this submitter")
	insertCmd.Flags().StringVar(&insertLabel, "label", "", "source.label, e.g. a window or tab title")
	insertCmd.Flags().StringVar(&insertPath, "path", "", "source.path, e.g. a file path the text came from")
	insertCmd.Flags().StringVar(&insertText, "text", "", "text to insert; reads from stdin if omitted and --stdin is set")
	insertCmd.Flags().StringVar(&insertPlacement, "placement", "", "top, bottom, or cursor")
	insertCmd.Flags().StringVar(&insertProvider, "provider", "", "target.provider to pin this job to")
	insertCmd.Flags().StringVar(&insertDirective, "session-directive", "", "reuse_or_create, reuse_only, or start_fresh")
	insertCmd.Flags().BoolVar(&insertStdin, "stdin", false, "read the text to insert from stdin")
}

var insertCmd = &cobra.Command{
	Use:   "insert",
	Short: "Submit a text-insertion job to promptivd",
	RunE:  runInsert,
}

func runInsert(cmd *cobra.Command, args []string) error {
	text := insertText
	if insertStdin {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(data)
	}

	req := promptivd.InsertTextRequest{
		SchemaVersion: promptivd.SchemaVersion,
		Source: promptivd.SourceInfo{
			Client: insertClient,
			Label:  insertLabel,
			Path:   insertPath,
		},
		Text: text,
	}
	if insertPlacement != "" {
		req.Placement = promptivd.NewPlacement(promptivd.PlacementType(insertPlacement))
	}
	if insertProvider != "" || insertDirective != "" {
		req.Target = &promptivd.TargetSpec{
			Provider:         insertProvider,
			SessionDirective: promptivd.SessionDirective(insertDirective),
		}
	}

	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid job: %w", err)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}

	url := viper.GetString("url") + "/v1/insert"
	client := &http.Client{Timeout: 35 * time.Second}
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to reach promptivd at %s: %w", url, err)
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.StatusCode >= 300 {
		fmt.Printf("job rejected (%s): %v\n", resp.Status, result["error"])
		os.Exit(1)
	}

	fmt.Printf("job_id=%v status=%v\n", result["job_id"], result["status"])
	if result["status"] != string(promptivd.AckOK) {
		os.Exit(1)
	}
	return nil
}
