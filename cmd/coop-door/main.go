// Command coop-door opens and closes a chicken coop door on a weekly
// schedule, deep-sleeping between events.
package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
	"go.uber.org/zap"

	"github.com/sweeney/coop-door/internal/config"
	"github.com/sweeney/coop-door/internal/logger"
	"github.com/sweeney/coop-door/internal/rtc"
)

const defaultEnvFile = "/etc/coop-door/coop-door.env"

// app holds the command-line state and the seams tests replace.
type app struct {
	configPath string
	envFile    string

	openHardware func(cfg *config.Config) (*hardware, error)
	openClock    func(cfg *config.Config) (rtc.Clock, func() error, error)
	onExit       func(func())

	in  io.Reader
	out io.Writer

	// logOut redirects the log; nil logs to stdout.
	logOut io.Writer
}

func newApp() *app {
	return &app{
		openHardware: openRealHardware,
		openClock:    openRealClock,
		onExit:       func(f func()) { atexit.Register(f) },
		in:           os.Stdin,
		out:          os.Stdout,
	}
}

func main() {
	if err := newApp().rootCmd().Execute(); err != nil {
		atexit.Exit(1)
	}
	// A deep-sleep wake ends up here. systemd starts the next run.
	atexit.Exit(0)
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "coop-door",
		Short: "Solar coop door controller",
		Long: `coop-door drives the door and lock of a chicken coop from a weekly ` +
			`schedule held in a DS3231 alarm clock, and sleeps between events.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default: search /etc/coop-door and .)")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", defaultEnvFile, "optional env file loaded before the config")

	root.AddCommand(a.runCmd(), a.initCmd(), a.printStateCmd())
	return root
}

// setup loads the env file, the config and a logger tagged with a fresh
// run id.
func (a *app) setup() (*config.Config, *zap.SugaredLogger, error) {
	envErr := a.loadEnv()

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, nil, err
	}

	l := logger.New(cfg.LogLevel)
	if a.logOut != nil {
		l = logger.NewWriter(a.logOut, cfg.LogLevel)
	}
	log := l.With("run", uuid.NewString())
	a.onExit(func() { _ = log.Sync() })

	if envErr != nil {
		log.Warnw("env file not loaded", "path", a.envFile, "err", envErr)
	}
	return cfg, log, nil
}

func (a *app) loadEnv() error {
	if a.envFile == "" {
		return nil
	}
	if err := godotenv.Load(a.envFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", a.envFile, err)
	}
	return nil
}
