package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cyberic99/nestronic/internal/engine"
	"github.com/cyberic99/nestronic/internal/player"
)

var (
	playSong       int
	playSampleRate int
	playFrames     uint64
	playSilent     bool
	playDebug      bool
)

// playCmd plays an NSF file until the song budget runs out or the user
// interrupts.
var playCmd = &cobra.Command{
	Use:   "play `path/to/tune.nsf`",
	Short: "play an NSF tune",
	Args:  cobra.ExactArgs(1),
	Run:   runPlay,
}

func init() {
	playCmd.Flags().IntVar(&playSong, "song", -1, "0-based song index (default: the file's starting song)")
	playCmd.Flags().IntVar(&playSampleRate, "rate", 44100, "output sample rate in Hz")
	playCmd.Flags().Uint64Var(&playFrames, "frames", 0, "stop after this many playback ticks (0 = play forever)")
	playCmd.Flags().BoolVar(&playSilent, "silent", false, "run the driver without audio output")
	playCmd.Flags().BoolVar(&playDebug, "debug", false, "log bus diagnostics")
}

func runPlay(cmd *cobra.Command, args []string) {
	eng, err := engine.Open(args[0])
	if err != nil {
		fmt.Printf("error opening %s: %v\n", args[0], err)
		os.Exit(1)
	}
	defer eng.Close()

	eng.LogHeader()
	if playDebug {
		eng.Bus().EnableDebug(true)
	}

	p, err := player.New(eng, player.Options{
		Song:       playSong,
		SampleRate: playSampleRate,
		MaxFrames:  playFrames,
	})
	if err != nil {
		fmt.Printf("error initializing playback: %v\n", err)
		os.Exit(1)
	}

	stop := make(chan struct{})
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		fmt.Println("\nshutting down...")
		close(stop)
	}()

	if playSilent {
		err = p.RunSilent(stop)
	} else {
		err = p.Run(stop)
	}
	if err != nil {
		fmt.Printf("playback error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("played %d ticks\n", p.Frames())
}
