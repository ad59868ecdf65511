/*
This is an example of application that will use the
engine package to render the testbed scene through a render graph
*/
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/rendergraph/engine"
	"github.com/spaghettifunk/rendergraph/engine/config"
	"github.com/spaghettifunk/rendergraph/engine/renderer/presets"
	"github.com/spaghettifunk/rendergraph/testbed"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML configuration file")
	preset := flag.String("preset", "", fmt.Sprintf("render graph preset, one of %v", presets.Names()))
	debug := flag.Bool("debug", false, "enable the Vulkan validation layer")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	if *preset != "" {
		cfg.RenderGraph.Name = *preset
	}

	tb := testbed.NewTestGame(cfg, *debug)

	e, err := engine.New(tb.Game)
	if err != nil {
		panic(err)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// stop the loop; shutdown itself happens on the main thread
	go func() {
		<-sigCh
		e.Quit()
	}()

	if err := e.Initialize(); err != nil {
		_ = e.Shutdown()
		panic(err)
	}

	runErr := e.Run()
	if err := e.Shutdown(); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	if runErr != nil {
		panic(runErr)
	}
}
