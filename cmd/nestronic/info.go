package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cyberic99/nestronic/internal/nsf"
)

// infoCmd dumps an NSF header without starting playback.
var infoCmd = &cobra.Command{
	Use:   "info `path/to/tune.nsf`",
	Short: "show an NSF file's header",
	Args:  cobra.ExactArgs(1),
	Run:   runInfo,
}

func runInfo(cmd *cobra.Command, args []string) {
	h, err := nsf.ReadHeader(args[0])
	if err != nil {
		fmt.Printf("error reading %s: %v\n", args[0], err)
		os.Exit(1)
	}

	fmt.Printf("Name:       %s\n", h.SongName())
	fmt.Printf("Artist:     %s\n", h.Artist())
	fmt.Printf("Copyright:  %s\n", h.Copyright())
	fmt.Printf("Songs:      %d (starting at %d)\n", h.TotalSongs, h.StartingSong)
	fmt.Printf("Load:       $%04X\n", h.LoadAddress)
	fmt.Printf("Init:       $%04X\n", h.InitAddress)
	fmt.Printf("Play:       $%04X\n", h.PlayAddress)
	fmt.Printf("Region:     %s\n", regionName(h))
	fmt.Printf("Speed:      %dus NTSC / %dus PAL\n", h.PlaySpeedNTSC, h.PlaySpeedPAL)
	fmt.Printf("Banked:     %t\n", h.IsBankswitched())
	if h.UsesExtraChips() {
		fmt.Printf("Expansion:  $%02X (not emulated)\n", h.ExtraChips)
	}
}

func regionName(h *nsf.Header) string {
	if h.Region() == nsf.RegionPAL {
		return "PAL"
	}
	return "NTSC"
}
