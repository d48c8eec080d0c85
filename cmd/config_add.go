package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mika534/mparkdl/internal/config"

	"github.com/spf13/cobra"
)

var configAddFrom string

var configAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a new config",
	RunE: func(cmd *cobra.Command, args []string) error {

		reader := bufio.NewReader(os.Stdin)
		fmt.Print("Enter label for new config: ")
		label, _ := reader.ReadString('\n')
		label = strings.TrimSpace(label)

		if label == "" {
			return fmt.Errorf("label cannot be empty")
		}

		cfgDir := config.ConfigsDir()
		path := filepath.Join(cfgDir, label+".yaml")

		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("a config named %q already exists", label)
		}

		if configAddFrom != "" {
			srcPath, err := config.ConfigPathByLabel(configAddFrom)
			if err != nil {
				return err
			}
			if err := config.AddConfig(label, srcPath); err != nil {
				return fmt.Errorf("failed to copy config: %w", err)
			}
			fmt.Printf("Created new config from %q: %s\n", configAddFrom, path)
			return nil
		}

		if err := os.MkdirAll(cfgDir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}

		if err := config.SaveYAML(config.DefaultConfig(), path); err != nil {
			return fmt.Errorf("failed to save YAML: %w", err)
		}

		fmt.Printf("Created new config: %s\n", path)
		return nil
	},
}

func init() {
	configAddCmd.Flags().StringVar(&configAddFrom, "from", "", "copy settings from an existing config label")
	configCmd.AddCommand(configAddCmd)
}
