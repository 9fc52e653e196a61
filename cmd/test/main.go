// Command test is a smoke client that exercises a running idea wizard agent.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorPurple = "\033[35m"
	colorCyan   = "\033[36m"
)

var rootCmd = &cobra.Command{
	Use:   "ideagen-test",
	Short: "Smoke tests for the idea wizard agent",
	Long: `ideagen-test calls a running idea wizard agent over HTTP: the health
check, the agent card, the four-stage wizard API with both exports, and the
A2A ideation endpoint. Each check is a subcommand; "all" runs every one.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("url", "http://localhost:8080", "base URL of the agent")
	rootCmd.PersistentFlags().Duration("timeout", 5*time.Minute, "HTTP client timeout; stage requests can be slow")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newClient builds a TestClient from the persistent flags.
func newClient(cmd *cobra.Command) *TestClient {
	baseURL, _ := cmd.Flags().GetString("url")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	printHeader("Idea Wizard Agent - Test Suite")
	fmt.Printf("%sBase URL: %s%s\n\n", colorCyan, baseURL, colorReset)
	return NewTestClient(strings.TrimRight(baseURL, "/"), timeout)
}

// check turns a boolean test into a command result.
func check(ok bool) error {
	if !ok {
		return fmt.Errorf("check failed")
	}
	return nil
}

func printHeader(text string) {
	fmt.Printf("\n%s%s%s\n", colorBlue, strings.Repeat("=", len(text)+4), colorReset)
	fmt.Printf("%s= %s =%s\n", colorBlue, text, colorReset)
	fmt.Printf("%s%s%s\n\n", colorBlue, strings.Repeat("=", len(text)+4), colorReset)
}

func printTestHeader(text string) {
	fmt.Printf("%s[TEST] %s%s\n", colorCyan, text, colorReset)
	fmt.Println(strings.Repeat("-", 80))
}

func printSuccess(text string) {
	fmt.Printf("%s✓ %s%s\n", colorGreen, text, colorReset)
}

func printError(text string) {
	fmt.Printf("%s✗ %s%s\n", colorRed, text, colorReset)
}

func printJSON(data []byte) {
	var prettyJSON bytes.Buffer
	if err := json.Indent(&prettyJSON, data, "", "  "); err == nil {
		fmt.Printf("\n%sResponse:%s\n%s\n", colorYellow, colorReset, prettyJSON.String())
	}
}
