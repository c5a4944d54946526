package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/niels/mock-api-server/pkg/config"
	"github.com/niels/mock-api-server/pkg/logging"
	"github.com/niels/mock-api-server/pkg/version"
	"github.com/spf13/cobra"
)

var (
	configPath  string
	debug       bool
	noColor     bool
	showVersion bool
	useColor    bool
	cfg         *config.Config
)

// NewRootCmd creates the root command for mock-api-server
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   version.AppName,
		Short: version.Description,
		Long: fmt.Sprintf(`%s - %s

Open a JSON document whose keys are routes and whose values are responses,
start the server, and every route answers GET requests with
{"data": <value>} on port 9000.
`, version.AppName, version.Description),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				cfg = config.LoadOrDefault(configPath)
			} else {
				cfg = config.LoadDefault()
			}

			logging.InitGlobalLogger(debug, cfg)
			if debug {
				logging.Debug("Debug logging enabled")
			}
			if configPath != "" {
				logging.InfoWith("Configuration loaded", map[string]interface{}{
					"path": configPath,
				})
			}

			useColor = !noColor && cfg.Output.ColorEnabled(isTerminal(os.Stdout))
			color.NoColor = !useColor

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Fprintln(cmd.OutOrStdout(), version.GetVersionInfo())
				return nil
			}
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (YAML or TOML)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug mode")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable coloured output")
	rootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "Show version information")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newRoutesCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version.GetVersionInfo())
			return nil
		},
	}
}
