package silence

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kbcmdba/ActiveQueryListing-sub000/cmd/cli/config"
	"github.com/kbcmdba/ActiveQueryListing-sub000/cmd/cli/output"
	"github.com/kbcmdba/ActiveQueryListing-sub000/cmd/cli/root"
)

func init() {
	silenceCmd := &cobra.Command{
		Use:   "silence",
		Short: "Manage ad-hoc silences and inspect host silencing",
	}

	silenceCmd.AddCommand(
		createCmd(),
		listCmd(),
		statusCmd(),
	)

	root.RootCmd.AddCommand(silenceCmd)
}

func createCmd() *cobra.Command {
	var targetType string
	var targetID, duration int
	var description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an ad-hoc silence for a host or group",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, _ := json.Marshal(map[string]interface{}{
				"target_type": targetType,
				"target_id":   targetID,
				"duration":    duration,
				"description": description,
			})

			data, status, err := apiPost("/api/v1/silences", body)
			if err != nil {
				return err
			}

			var out struct {
				Success   bool   `json:"success"`
				WindowID  int    `json:"window_id"`
				Message   string `json:"message"`
				ExpiresAt string `json:"expires_at"`
				Error     string `json:"error"`
			}
			if err := json.Unmarshal(data, &out); err != nil {
				return fmt.Errorf("invalid API response (status %d)", status)
			}
			if !out.Success {
				return fmt.Errorf("API: %s", out.Error)
			}

			fmt.Printf("Created window %d: %s (expires %s)\n", out.WindowID, out.Message, out.ExpiresAt)
			return nil
		},
	}

	cmd.Flags().StringVar(&targetType, "target-type", "host", `"host" or "group"`)
	cmd.Flags().IntVar(&targetID, "target-id", 0, "Host or group id")
	cmd.Flags().IntVar(&duration, "duration", 60, "Silence duration in minutes (1-10080)")
	cmd.Flags().StringVar(&description, "description", "", "Reason for the silence")
	cmd.MarkFlagRequired("target-id")

	return cmd
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List currently active maintenance windows",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, status, err := apiGet("/api/v1/silences/active")
			if err != nil {
				return err
			}
			if status != http.StatusOK {
				return apiError(data, status)
			}

			var list []struct {
				WindowID    int      `json:"window_id"`
				Type        string   `json:"type"`
				Description string   `json:"description"`
				Hosts       []string `json:"hosts"`
				ExpiresAt   string   `json:"expires_at"`
				Cadence     string   `json:"cadence"`
				TimeWindow  string   `json:"time_window"`
			}
			if err := json.Unmarshal(data, &list); err != nil {
				return fmt.Errorf("invalid API response")
			}

			if len(list) == 0 {
				fmt.Println("No active maintenance windows")
				return nil
			}

			rows := make([][]interface{}, 0, len(list))
			for _, s := range list {
				when := s.ExpiresAt
				if s.Type == "scheduled" {
					when = s.Cadence + " " + s.TimeWindow
				}
				rows = append(rows, []interface{}{
					s.WindowID, s.Type, s.Description, when, strings.Join(s.Hosts, ", "),
				})
			}
			output.RenderTable([]string{"ID", "Type", "Description", "Until/Cadence", "Hosts"}, rows)
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	var hostID int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether a host is currently silenced",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, status, err := apiGet(fmt.Sprintf("/api/v1/hosts/%d/silence", hostID))
			if err != nil {
				return err
			}
			if status != http.StatusOK {
				return apiError(data, status)
			}

			var out struct {
				Silenced bool `json:"silenced"`
				Silence  *struct {
					WindowID    int    `json:"window_id"`
					Type        string `json:"type"`
					Description string `json:"description"`
					Target      string `json:"target"`
					GroupTag    string `json:"group_tag"`
					ExpiresAt   string `json:"expires_at"`
					Cadence     string `json:"cadence"`
					TimeWindow  string `json:"time_window"`
				} `json:"silence"`
			}
			if err := json.Unmarshal(data, &out); err != nil {
				return fmt.Errorf("invalid API response")
			}

			if !out.Silenced {
				fmt.Printf("Host %d is not silenced\n", hostID)
				return nil
			}

			s := out.Silence
			via := s.Target
			if s.GroupTag != "" {
				via = fmt.Sprintf("group %s", s.GroupTag)
			}
			switch s.Type {
			case "adhoc":
				fmt.Printf("Host %d silenced by window %d (via %s) until %s: %s\n",
					hostID, s.WindowID, via, s.ExpiresAt, s.Description)
			default:
				fmt.Printf("Host %d silenced by window %d (via %s), %s %s: %s\n",
					hostID, s.WindowID, via, s.Cadence, s.TimeWindow, s.Description)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&hostID, "host-id", 0, "Host id")
	cmd.MarkFlagRequired("host-id")

	return cmd
}

func apiError(data []byte, status int) error {
	var errResp struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(data, &errResp)
	if errResp.Error != "" {
		return fmt.Errorf("API: %s", errResp.Error)
	}
	return fmt.Errorf("API returned status %d", status)
}

func apiGet(path string) ([]byte, int, error) {
	req, _ := http.NewRequest("GET", config.APIURL()+path, nil)
	if tok := config.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return data, resp.StatusCode, nil
}

func apiPost(path string, body []byte) ([]byte, int, error) {
	req, _ := http.NewRequest("POST", config.APIURL()+path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if tok := config.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return data, resp.StatusCode, nil
}
