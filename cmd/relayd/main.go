// Command relayd runs the relay as a standalone process. Configuration
// is entirely environment-variable driven; see config.PrintHelp for the
// full table.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/profile"
	"golang.org/x/sync/errgroup"

	"github.com/nostrcore/relay/pkg/app/config"
	"github.com/nostrcore/relay/pkg/app/relay"
	"github.com/nostrcore/relay/pkg/database/badgerstore"
	"github.com/nostrcore/relay/pkg/database/memstore"
	"github.com/nostrcore/relay/pkg/interfaces/store"
	"github.com/nostrcore/relay/pkg/utils/chk"
	"github.com/nostrcore/relay/pkg/utils/context"
	"github.com/nostrcore/relay/pkg/utils/log"
)

func main() {
	cfg, err := config.New()
	if chk.T(err) {
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n\n", err)
		}
		config.PrintHelp(cfg, os.Stderr)
		os.Exit(1)
	}
	if config.GetEnv() {
		config.PrintEnv(cfg, os.Stdout)
		return
	}
	if config.HelpRequested() {
		config.PrintHelp(cfg, os.Stderr)
		return
	}
	log.I.F("starting %s", cfg.AppName)

	if os.Getenv("RELAY_PROFILE") != "" {
		defer profile.Start(profile.MemProfile).Stop()
	}

	var sto store.I
	if cfg.DataDir == "" {
		log.W.Ln("RELAY_DATA_DIR unset, running with an in-memory store")
		sto = memstore.New()
	} else {
		if sto, err = badgerstore.Open(cfg.DataDir); chk.T(err) {
			log.F.F("failed to open store at %s: %v", cfg.DataDir, err)
			os.Exit(1)
		}
	}

	c, cancel := context.Cancel(context.Bg())
	srv := relay.New(c, cancel, cfg, sto)

	group, _ := errgroup.WithContext(c)
	group.Go(func() error {
		return srv.Start(cfg.Listen, cfg.Port)
	})
	group.Go(func() error {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
		select {
		case <-sigs:
			log.I.Ln("received interrupt, shutting down")
		case <-c.Done():
		}
		srv.Shutdown()
		return nil
	})
	if err = group.Wait(); chk.E(err) {
		log.F.F("server terminated: %v", err)
		os.Exit(1)
	}
}
