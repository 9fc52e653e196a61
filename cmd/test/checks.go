package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Run every check",
	RunE: func(cmd *cobra.Command, args []string) error {
		tc := newClient(cmd)
		opts := wizardOptionsFrom(cmd)

		tests := []struct {
			name string
			fn   func() bool
		}{
			{"Health Check", tc.testHealthCheck},
			{"Agent Card", tc.testAgentCard},
			{"Wizard Flow", func() bool { return tc.testWizardFlow(opts) }},
			{"A2A Ideation", func() bool { return tc.testIdeation(defaultIdea) }},
		}

		passed := 0
		failed := 0
		for _, test := range tests {
			if test.fn() {
				passed++
			} else {
				failed++
			}
			fmt.Println()
		}

		printHeader("Test Summary")
		fmt.Printf("%sPassed: %d%s\n", colorGreen, passed, colorReset)
		fmt.Printf("%sFailed: %d%s\n", colorRed, failed, colorReset)
		fmt.Printf("Total: %d\n", passed+failed)

		if failed > 0 {
			return fmt.Errorf("%d check(s) failed", failed)
		}
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		return check(newClient(cmd).testHealthCheck())
	},
}

var agentCardCmd = &cobra.Command{
	Use:   "agent-card",
	Short: "Fetch and validate the agent card",
	RunE: func(cmd *cobra.Command, args []string) error {
		return check(newClient(cmd).testAgentCard())
	},
}

var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Walk a session through all four stages and download both exports",
	RunE: func(cmd *cobra.Command, args []string) error {
		return check(newClient(cmd).testWizardFlow(wizardOptionsFrom(cmd)))
	},
}

var ideateCmd = &cobra.Command{
	Use:   "ideate [idea]",
	Short: "Send a business idea to the A2A ideation endpoint",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idea := defaultIdea
		if len(args) == 1 {
			idea = args[0]
		}
		return check(newClient(cmd).testIdeation(idea))
	},
}

const defaultIdea = "location: Jakarta, industry: sustainable fashion, audience: eco-conscious millennials, scale: small, capital: 25000000"

func init() {
	for _, cmd := range []*cobra.Command{allCmd, wizardCmd} {
		cmd.Flags().String("location", "Jakarta", "market location")
		cmd.Flags().String("industry", "food and beverage", "industry")
		cmd.Flags().String("audience", "office workers", "target audience")
		cmd.Flags().String("scale", "small", "business scale: micro, small, medium, large")
		cmd.Flags().Int64("capital", 10000000, "available capital in rupiah")
		cmd.Flags().String("out", "", "directory to save the exported report into")
	}

	rootCmd.AddCommand(allCmd, healthCmd, agentCardCmd, wizardCmd, ideateCmd)
}

type wizardOptions struct {
	Location string
	Industry string
	Audience string
	Scale    string
	Capital  int64
	OutDir   string
}

func wizardOptionsFrom(cmd *cobra.Command) wizardOptions {
	var o wizardOptions
	o.Location, _ = cmd.Flags().GetString("location")
	o.Industry, _ = cmd.Flags().GetString("industry")
	o.Audience, _ = cmd.Flags().GetString("audience")
	o.Scale, _ = cmd.Flags().GetString("scale")
	o.Capital, _ = cmd.Flags().GetInt64("capital")
	o.OutDir, _ = cmd.Flags().GetString("out")
	return o
}

func (tc *TestClient) testHealthCheck() bool {
	printTestHeader("Testing Health Check Endpoint")

	body, _, ok := tc.expect("GET", "/health", nil, 200)
	if !ok {
		return false
	}
	if string(body) != "OK" {
		printError(fmt.Sprintf("Expected body 'OK', got '%s'", string(body)))
		return false
	}

	printSuccess("Health check passed")
	return true
}

func (tc *TestClient) testAgentCard() bool {
	printTestHeader("Testing Agent Card Endpoint")

	body, _, ok := tc.expect("GET", "/.well-known/agent.json", nil, 200)
	if !ok {
		return false
	}

	var agentCard map[string]any
	if err := json.Unmarshal(body, &agentCard); err != nil {
		printError(fmt.Sprintf("Invalid JSON response: %v", err))
		return false
	}

	for _, field := range []string{"name", "description", "url", "version", "capabilities", "skills"} {
		if _, ok := agentCard[field]; !ok {
			printError(fmt.Sprintf("Missing required field: %s", field))
			return false
		}
	}

	printSuccess("Agent card is valid")
	printJSON(body)
	return true
}

// sessionState is the part of the wizard state the smoke test inspects.
type sessionState struct {
	ID      string `json:"id"`
	Current string `json:"current_stage"`
	Market  struct {
		Result *struct {
			Summary     string `json:"summary"`
			MarketNeeds []struct {
				Need  string `json:"need"`
				Score int    `json:"score"`
			} `json:"market_needs"`
		} `json:"result"`
	} `json:"market"`
	Recommendation struct {
		Products []struct {
			Name  string `json:"name"`
			Score int    `json:"score"`
		} `json:"products"`
	} `json:"recommendation"`
}

func (tc *TestClient) testWizardFlow(o wizardOptions) bool {
	printTestHeader("Testing Wizard Flow")

	var st sessionState
	step := func(method, path string, body any, want int) bool {
		data, _, ok := tc.expect(method, path, body, want)
		if !ok {
			return false
		}
		if err := json.Unmarshal(data, &st); err != nil {
			printError(fmt.Sprintf("Invalid JSON response: %v", err))
			return false
		}
		return true
	}

	if !step("POST", "/api/sessions", nil, 201) {
		return false
	}
	base := "/api/sessions/" + st.ID
	printSuccess("Session " + st.ID + " created")

	market := map[string]any{
		"location":        o.Location,
		"custom_industry": o.Industry,
		"audience":        o.Audience,
		"scale":           o.Scale,
		"capital":         o.Capital,
	}
	if !step("POST", base+"/market", market, 200) || st.Market.Result == nil {
		return false
	}
	printSuccess(fmt.Sprintf("Market analysis: %d needs", len(st.Market.Result.MarketNeeds)))
	for i, n := range st.Market.Result.MarketNeeds {
		fmt.Printf("  %d. %s (%d)\n", i, n.Need, n.Score)
	}

	if !step("POST", base+"/needs/0", nil, 200) {
		return false
	}
	printSuccess(fmt.Sprintf("Product recommendations: %d products", len(st.Recommendation.Products)))
	for i, p := range st.Recommendation.Products {
		fmt.Printf("  %d. %s (%d)\n", i, p.Name, p.Score)
	}

	if !step("POST", base+"/products/0", nil, 200) {
		return false
	}
	printSuccess("MVP guide ready")

	start := time.Now()
	promo := map[string]string{
		"start_date": start.Format(time.DateOnly),
		"end_date":   start.AddDate(0, 0, 30).Format(time.DateOnly),
	}
	if !step("POST", base+"/promo", promo, 200) {
		return false
	}
	printSuccess("Promotion strategy ready; current stage " + st.Current)

	for _, format := range []string{"pdf", "xlsx"} {
		data, header, ok := tc.expect("GET", base+"/export/"+format, nil, 200)
		if !ok {
			return false
		}
		msg := fmt.Sprintf("%s export: %d bytes", strings.ToUpper(format), len(data))
		if pages := header.Get("X-Page-Count"); pages != "" {
			msg += ", " + pages + " page(s)"
		}
		printSuccess(msg)

		if o.OutDir != "" {
			path := filepath.Join(o.OutDir, "report-"+st.ID+"."+format)
			if err := os.WriteFile(path, data, 0o644); err != nil {
				printError(fmt.Sprintf("Failed to save %s: %v", path, err))
				return false
			}
			fmt.Printf("  saved %s\n", path)
		}
	}

	return true
}

func (tc *TestClient) testIdeation(idea string) bool {
	printTestHeader("Testing A2A Ideation")
	fmt.Printf("%sBusiness Idea:%s %s\n\n", colorCyan, colorReset, idea)

	request := map[string]any{
		"jsonrpc": "2.0",
		"id":      fmt.Sprintf("test-%d", time.Now().Unix()),
		"method":  "message/send",
		"params": map[string]any{
			"message": map[string]any{
				"kind": "message",
				"role": "user",
				"parts": []map[string]any{
					{"kind": "text", "text": idea},
				},
			},
			"configuration": map[string]any{
				"blocking":            true,
				"acceptedOutputModes": []string{"text", "data"},
			},
		},
	}

	body, _, ok := tc.expect("POST", "/a2a/ideation", request, 200)
	if !ok {
		return false
	}

	var response struct {
		Error  json.RawMessage `json:"error"`
		Result *struct {
			Status struct {
				State   string `json:"state"`
				Message struct {
					Parts []struct {
						Text string `json:"text"`
					} `json:"parts"`
				} `json:"message"`
			} `json:"status"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		printError(fmt.Sprintf("Invalid JSON response: %v", err))
		return false
	}
	if len(response.Error) > 0 {
		printError("Request returned an error")
		printJSON(response.Error)
		return false
	}
	if response.Result == nil {
		printError("Invalid result format")
		return false
	}

	status := response.Result.Status
	if status.State != "completed" {
		printError(fmt.Sprintf("Expected state 'completed', got '%s'", status.State))
		for _, p := range status.Message.Parts {
			fmt.Println(p.Text)
		}
		return false
	}

	printSuccess("Ideation completed successfully")
	fmt.Printf("\n%sGenerated Plan:%s\n", colorGreen, colorReset)
	fmt.Println(strings.Repeat("=", 80))
	for _, p := range status.Message.Parts {
		fmt.Println(p.Text)
	}
	fmt.Println(strings.Repeat("=", 80))
	return true
}
