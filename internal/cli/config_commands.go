// Package cli provides configuration commands.
package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/lenderdesk/docnav/internal/config"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management (init, show, path)",
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

// newConfigInitCmd creates the 'config init' command.
func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Interactively create the configuration file",
		Long: `Create the docnav configuration file, prompting for the platform URL
and API key. The API key is read without echoing when stdin is a terminal.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfgFile
			if path == "" {
				var err error
				path, err = config.DefaultConfigPath()
				if err != nil {
					return err
				}
			}

			if _, err := os.Stat(path); err == nil {
				fmt.Printf("Config file already exists at %s\n", path)
				fmt.Print("Overwrite? [y/N]: ")
				reader := bufio.NewReader(os.Stdin)
				answer, _ := reader.ReadString('\n')
				if !strings.EqualFold(strings.TrimSpace(answer), "y") {
					fmt.Println("Aborted.")
					return nil
				}
			}

			cfg := config.New()

			reader := bufio.NewReader(os.Stdin)
			fmt.Printf("Platform URL [%s]: ", cfg.APIBaseURL)
			url, _ := reader.ReadString('\n')
			if url = strings.TrimSpace(url); url != "" {
				cfg.APIBaseURL = url
			}

			key, err := promptAPIKey()
			if err != nil {
				return err
			}
			cfg.APIKey = key

			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := config.Save(cfg, path); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			fmt.Printf("\n✓ Configuration written to %s\n", path)
			return nil
		},
	}
}

// promptAPIKey reads the API key without echo when stdin is a terminal.
func promptAPIKey() (string, error) {
	fmt.Print("API key: ")
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		key, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read API key: %w", err)
		}
		return strings.TrimSpace(string(key)), nil
	}

	reader := bufio.NewReader(os.Stdin)
	key, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(key), nil
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}

			key, source := config.ResolveAPIKeySource(apiKey, cfgFile)

			fmt.Printf("Platform URL:  %s\n", cfg.APIBaseURL)
			fmt.Printf("API key:       %s (from %s)\n", maskKey(key), source)
			fmt.Printf("Proxy mode:    %s\n", cfg.ProxyMode)
			if cfg.ProxyHost != "" {
				fmt.Printf("Proxy:         %s:%d\n", cfg.ProxyHost, cfg.ProxyPort)
			}
			fmt.Printf("Prefetch:      enabled=%t workers=%d\n", cfg.PrefetchEnabled, cfg.PrefetchWorkers)
			return nil
		},
	}
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfgFile
			if path == "" {
				var err error
				path, err = config.DefaultConfigPath()
				if err != nil {
					return err
				}
			}
			fmt.Println(path)
			return nil
		},
	}
}

func maskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
