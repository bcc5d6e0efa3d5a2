package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sweeney/coop-door/internal/calibration"
	"github.com/sweeney/coop-door/internal/controller"
	"github.com/sweeney/coop-door/internal/schedule"
)

const (
	dateLayout = "01/02/2006"
	timeLayout = "15:04:05"
)

func (a *app) runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Resume from the retained state and run until the next deep sleep",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd.Context(), nil, false)
		},
	}
}

func (a *app) initCmd() *cobra.Command {
	var date, clock, position string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Set the clock and actuator positions, arm both alarms and sleep",
		Long: `init commissions the controller. With --date, --time and --position it ` +
			`runs unattended; otherwise it asks on the terminal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			src, err := a.calibrationSource(date, clock, position)
			if err != nil {
				return err
			}
			return a.run(cmd.Context(), src, true)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "local date, MM/DD/YYYY")
	cmd.Flags().StringVar(&clock, "time", "", "local time, HH:MM:SS")
	cmd.Flags().StringVar(&position, "position", "", "where the door and lock are: open or closed")
	return cmd
}

// calibrationSource returns a static calibration when every flag is given
// and the terminal prompt when none are.
func (a *app) calibrationSource(date, clock, position string) (calibration.Source, error) {
	if date == "" && clock == "" && position == "" {
		return calibration.Prompt{In: a.in, Out: a.out}, nil
	}
	if date == "" || clock == "" || position == "" {
		return nil, errors.New("--date, --time and --position must be given together")
	}

	at, err := time.ParseInLocation(dateLayout+" "+timeLayout, strings.TrimSpace(date)+" "+strings.TrimSpace(clock), time.Local)
	if err != nil {
		return nil, fmt.Errorf("parse --date/--time: %w", err)
	}
	pos, err := calibration.ParsePosition(position)
	if err != nil {
		return nil, err
	}
	return calibration.Static{At: at, Position: pos}, nil
}

// run drives the controller until it has deep-slept and woken, or a signal
// arrives. force starts at Initialize.
func (a *app) run(ctx context.Context, calib calibration.Source, force bool) error {
	cfg, log, err := a.setup()
	if err != nil {
		return err
	}

	mem, closeStore, err := openStore(cfg.Store)
	if err != nil {
		log.Errorw("open store", "backend", cfg.Store.Backend, "path", cfg.Store.Path, "err", err)
		return err
	}
	a.onExit(func() {
		if err := closeStore(); err != nil {
			log.Warnw("close store", "err", err)
		}
	})

	hw, err := a.openHardware(cfg)
	if err != nil {
		log.Errorw("open hardware", "err", err)
		return err
	}
	a.onExit(func() {
		if err := hw.close(); err != nil {
			log.Warnw("close hardware", "err", err)
		}
	})

	// An unset clock on a plain run still needs a calibration.
	if calib == nil {
		calib = calibration.Prompt{In: a.in, Out: a.out}
	}

	m := controller.New(cfg.Controller(), controller.Peripherals{
		RTC:         hw.clock,
		Lock:        hw.lock,
		Door:        hw.door,
		DriverPower: hw.driverPower,
		Switch:      hw.sw,
		Indicator:   hw.indicator,
		Sleeper:     hw.sleeper,
		Schedule:    schedule.FileSource{Path: cfg.Schedule},
		Calibration: calib,
		Now:         hw.now,
		Sleep:       hw.sleep,
	}, mem, log)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Infow("started", "store", cfg.Store.Backend, "schedule", cfg.Schedule, "force_init", force)
	if force {
		err = m.RunInitialize(ctx)
	} else {
		err = m.Run(ctx)
	}

	switch {
	case errors.Is(err, context.Canceled):
		log.Infow("shutting down", "state", m.State())
		return nil
	case err != nil:
		return err
	}
	log.Infow("woke from deep sleep, restarting")
	return nil
}
