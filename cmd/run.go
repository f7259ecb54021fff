// -- cmd/run.go --
package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/uitest-io/uitest/internal/observability"
	"github.com/uitest-io/uitest/internal/runner"
	"github.com/uitest-io/uitest/pkg/suite"
)

// newRunCmd creates and configures the `run` command.
func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run [suites...]",
		Short: "Runs registered test suites (all of them when none are named)",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags to their viper keys so the command line overrides
			// both the config file and environment variables.
			if err := viper.BindPFlag("driver.backend", cmd.Flags().Lookup("backend")); err != nil {
				return err
			}
			if err := viper.BindPFlag("driver.grid_url", cmd.Flags().Lookup("grid-url")); err != nil {
				return err
			}
			if err := viper.BindPFlag("driver.headless", cmd.Flags().Lookup("headless")); err != nil {
				return err
			}
			if err := viper.BindPFlag("download.dir", cmd.Flags().Lookup("download-dir")); err != nil {
				return err
			}
			if err := viper.BindPFlag("download.topology", cmd.Flags().Lookup("download-topology")); err != nil {
				return err
			}
			if err := viper.BindPFlag("report.dir", cmd.Flags().Lookup("report-dir")); err != nil {
				return err
			}
			if err := viper.BindPFlag("runner.concurrency", cmd.Flags().Lookup("concurrency")); err != nil {
				return err
			}
			return viper.BindPFlag("runner.fail_fast", cmd.Flags().Lookup("fail-fast"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			cfg := loadedCfg

			suites, err := selectSuites(suite.All(), args)
			if err != nil {
				return err
			}
			if len(suites) == 0 {
				return fmt.Errorf("no test suites registered")
			}

			r, err := runner.New(cfg, logger, afero.NewOsFs(), nil)
			if err != nil {
				return err
			}

			sum, runErr := r.Run(ctx, suites)
			printSummary(cmd, sum)
			if runErr != nil {
				return runErr
			}
			if _, failed := sum.Counts(); failed > 0 {
				return fmt.Errorf("%d test(s) failed", failed)
			}
			return nil
		},
	}

	runCmd.Flags().String("backend", "", "driver backend: cdp or webdriver")
	runCmd.Flags().String("grid-url", "", "WebDriver/Selenium grid URL (webdriver backend)")
	runCmd.Flags().Bool("headless", true, "run the browser headless")
	runCmd.Flags().String("download-dir", "", "base directory for downloaded files")
	runCmd.Flags().String("download-topology", "", "download topology: local, remote_managed or remote_mounted")
	runCmd.Flags().String("report-dir", "", "directory for evidence output")
	runCmd.Flags().Int("concurrency", 0, "number of tests to run in parallel")
	runCmd.Flags().Bool("fail-fast", false, "abort the run on the first failure")

	return runCmd
}

// selectSuites filters the registry down to the named suites, or returns all
// of them when no names are given.
func selectSuites(all []suite.Suite, names []string) ([]suite.Suite, error) {
	if len(names) == 0 {
		return all, nil
	}
	byName := make(map[string]suite.Suite, len(all))
	for _, s := range all {
		byName[s.Name] = s
	}
	var out []suite.Suite
	for _, name := range names {
		s, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown suite %q", name)
		}
		out = append(out, s)
	}
	return out, nil
}

func printSummary(cmd *cobra.Command, sum *runner.Summary) {
	if sum == nil {
		return
	}
	for _, r := range sum.Results {
		mark := "PASS"
		if r.Status != runner.StatusPassed {
			mark = "FAIL"
		}
		cmd.Printf("%s  %s/%s (%s)\n", mark, r.Suite, r.Test, r.Duration.Round(time.Millisecond))
		if r.Err != nil {
			cmd.Printf("      %v\n", r.Err)
			cmd.Printf("      evidence: %s\n", r.EvidenceDir)
		}
	}
	passed, failed := sum.Counts()
	cmd.Printf("\n%d passed, %d failed in %s\n", passed, failed, sum.Duration.Round(time.Millisecond))

	observability.GetLogger().Info("run summary written",
		zap.Int("passed", passed), zap.Int("failed", failed))
}

func init() {
	rootCmd.AddCommand(newRunCmd())
}
