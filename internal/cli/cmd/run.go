package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bnema/flashota/internal/cli"
	"github.com/bnema/flashota/internal/logging"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the background update daemon",
	Long: `Check for updates every daemon.check_interval and, when daemon.auto_install
is set, install them.

The daemon speaks the systemd notify protocol (Type=notify) and kicks the
watchdog when WatchdogSec is configured. Edits to the config file are applied
between cycles. After a committed update the process exits with status 0 when
daemon.restart_on_success is set, so the service manager can restart the
device into the new firmware.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(_ *cobra.Command, _ []string) error {
	app := GetApp()
	if app == nil {
		return fmt.Errorf("app not initialized")
	}

	ctx, stop := signal.NotifyContext(app.Ctx(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	log := logging.FromContext(ctx)

	d, err := cli.NewDaemon(ctx, app.Config, app.EngineFactory(), app.Notifier)
	if err != nil {
		return err
	}

	app.ConfigMgr.OnConfigChange(d.Reload)
	if err := app.ConfigMgr.Watch(); err != nil {
		log.Warn().Err(err).Msg("config file watching disabled")
	}

	log.Info().
		Str("version", versionLabel(app.BuildInfo)).
		Dur("check_interval", app.Config.Daemon.CheckInterval).
		Bool("auto_install", app.Config.Daemon.AutoInstall).
		Msg("daemon started")

	restart, err := d.Run(ctx)
	if err != nil {
		return err
	}
	if restart {
		log.Info().Msg("new firmware committed, restart required")
	}
	return nil
}
