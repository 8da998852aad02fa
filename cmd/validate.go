package cmd

import (
	"fmt"
	"os"
	"path"

	"github.com/spf13/cobra"

	"github.com/rohanku/release-please/internal/config"
	"github.com/rohanku/release-please/pkg/exitcode"
	"github.com/rohanku/release-please/pkg/logger"
)

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the release configuration file",
		RunE:  runValidate,
	}
	cmd.Flags().String("config", "", "Release config file (default \""+config.DefaultConfigFile+"\")")
	cmd.Flags().String("dir", "", "Repository directory (default \".\")")
	return cmd
}

func runValidate(cmd *cobra.Command, _ []string) error {
	opts, err := config.ResolveOptions(cmd.Flags())
	if err != nil {
		return err
	}
	configPath := path.Join(opts.Dir, opts.ConfigFile)
	data, err := os.ReadFile(configPath)
	if err != nil {
		return withExitCode(exitcode.ConfigError, fmt.Errorf("reading config: %w", err))
	}

	result, err := config.Validate(data)
	if err != nil {
		return withExitCode(exitcode.ConfigError, err)
	}
	if !result.Valid {
		for _, verr := range result.Errors {
			logger.Error("config violation", logger.String("detail", verr.String()))
		}
		return withExitCode(exitcode.ValidationError,
			fmt.Errorf("%s has %d validation error(s)", configPath, len(result.Errors)))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", configPath)
	return nil
}
