package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kadrlabs/anthropic-go/anthropic"
	"github.com/kadrlabs/anthropic-go/internal/proxy"
)

var (
	proxyAddr    string
	proxyOrigins []string
)

var proxyCmd = &cobra.Command{
	Use:   "proxy",
	Short: "Run a local proxy that injects API credentials",
	Long: `Serves /v1/* locally and forwards to the Anthropic API with the
x-api-key and anthropic-version headers attached, so browser apps on
this machine never see the key. The key comes from ANTHROPIC_API_KEY.`,
	RunE: runProxy,
}

func init() {
	proxyCmd.Flags().StringVar(&proxyAddr, "addr", "localhost:8600", "listen address")
	proxyCmd.Flags().StringArrayVar(&proxyOrigins, "allow-origin", nil, "allowed CORS origin (repeatable; default any)")
	rootCmd.AddCommand(proxyCmd)
}

func runProxy(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY environment variable is required")
	}

	upstream := cfg.BaseURL
	if upstream == "" {
		upstream = anthropic.DefaultBaseURL
	}
	version := cfg.APIVersion
	if version == "" {
		version = anthropic.DefaultAPIVersion
	}

	return proxy.ListenAndServe(proxyAddr, proxy.Config{
		Upstream:       upstream,
		APIKey:         apiKey,
		APIVersion:     version,
		AllowedOrigins: proxyOrigins,
	})
}
