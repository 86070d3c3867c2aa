package windows

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/kbcmdba/ActiveQueryListing-sub000/cmd/cli/config"
	"github.com/kbcmdba/ActiveQueryListing-sub000/cmd/cli/output"
	"github.com/kbcmdba/ActiveQueryListing-sub000/cmd/cli/root"
)

func init() {
	windowsCmd := &cobra.Command{
		Use:   "windows",
		Short: "Inspect maintenance window definitions",
	}

	windowsCmd.AddCommand(listCmd())

	root.RootCmd.AddCommand(windowsCmd)
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all maintenance window definitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, _ := http.NewRequest("GET", config.APIURL()+"/api/v1/windows", nil)
			if tok := config.Token(); tok != "" {
				req.Header.Set("Authorization", "Bearer "+tok)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			data, _ := io.ReadAll(resp.Body)

			if resp.StatusCode != http.StatusOK {
				var errResp struct {
					Error string `json:"error"`
				}
				_ = json.Unmarshal(data, &errResp)
				if errResp.Error != "" {
					return fmt.Errorf("API: %s", errResp.Error)
				}
				return fmt.Errorf("API returned status %d", resp.StatusCode)
			}

			var list []struct {
				ID           int    `json:"id"`
				Type         string `json:"type"`
				Cadence      string `json:"cadence"`
				TimeWindow   string `json:"time_window"`
				SilenceUntil string `json:"silence_until"`
				Description  string `json:"description"`
				CreatedBy    string `json:"created_by"`
			}
			if err := json.Unmarshal(data, &list); err != nil {
				return fmt.Errorf("invalid API response")
			}

			if len(list) == 0 {
				fmt.Println("No maintenance windows defined")
				return nil
			}

			rows := make([][]interface{}, 0, len(list))
			for _, w := range list {
				when := w.SilenceUntil
				if w.Type == "scheduled" {
					when = w.Cadence + " " + w.TimeWindow
				}
				rows = append(rows, []interface{}{w.ID, w.Type, when, w.Description, w.CreatedBy})
			}
			output.RenderTable([]string{"ID", "Type", "Schedule/Expiry", "Description", "Created by"}, rows)
			return nil
		},
	}
}
