package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sweeney/coop-door/internal/config"
	"github.com/sweeney/coop-door/internal/logic"
	"github.com/sweeney/coop-door/internal/status"
)

func (a *app) printStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "print-state",
		Short: "Print the retained state and RTC as JSON and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.printState()
		},
	}
}

func (a *app) printState() error {
	cfg, log, err := a.setup()
	if err != nil {
		return err
	}

	mem, closeStore, err := openStore(cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeStore()

	cc := cfg.Controller()
	p := logic.LoadPersisted(mem, cc.Lock, cc.Door)

	clock, closeClock, clockErr := a.openClock(cfg)
	if clockErr != nil {
		log.Warnw("rtc unavailable", "err", clockErr)
	} else {
		defer closeClock()
	}

	snap := status.Collect(p, clock, time.Now(), statusConfig(cfg))
	if clockErr != nil {
		snap.RTCError = clockErr.Error()
	}

	_, err = fmt.Fprintf(a.out, "%s\n", status.FormatJSON(snap))
	return err
}

func statusConfig(cfg *config.Config) status.Config {
	return status.Config{
		StoreBackend:  cfg.Store.Backend,
		StorePath:     cfg.Store.Path,
		SchedulePath:  cfg.Schedule,
		LockThreshold: cfg.Lock.Threshold,
		DoorThreshold: cfg.Door.Threshold,
	}
}
