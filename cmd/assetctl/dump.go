package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/spf13/cobra"

	"github.com/tibia-tools/assets/dat"
	"github.com/tibia-tools/assets/host"
)

func newDumpCmd() *cobra.Command {
	var clientVersion int
	var wantItem, wantOutfit, wantEffect, wantMissile bool

	cmd := &cobra.Command{
		Use:   "dump <path.dat>",
		Short: "Dump a DAT file's parsed things as JSON",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			runDump(args[0], clientVersion, wantItem, wantOutfit, wantEffect, wantMissile)
		},
	}
	cmd.Flags().IntVar(&clientVersion, "client-version", 1098, "client version used to select the DAT wire format")
	cmd.Flags().BoolVar(&wantItem, "items", true, "dump items")
	cmd.Flags().BoolVar(&wantOutfit, "outfits", false, "dump outfits")
	cmd.Flags().BoolVar(&wantEffect, "effects", false, "dump effects")
	cmd.Flags().BoolVar(&wantMissile, "missiles", false, "dump missiles")
	return cmd
}

func prettyPrint(buf []byte) string {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, buf, "", "\t"); err != nil {
		return string(buf)
	}
	return pretty.String()
}

func runDump(path string, clientVersion int, wantItem, wantOutfit, wantEffect, wantMissile bool) {
	logger := log.NewHelper(log.NewFilter(log.NewStdLogger(os.Stdout), log.FilterLevel(log.LevelInfo)))
	h := host.NewOSHost(logger)

	logger.Infof("processing %s", path)
	buf, err := h.ReadBytes(context.Background(), path)
	if err != nil {
		logger.Errorf("reading %s: %v", path, err)
		os.Exit(1)
	}

	table, err := dat.Read(buf, clientVersion, false, defaultFrameDurations)
	if err != nil {
		logger.Errorf("parsing %s: %v", path, err)
		os.Exit(1)
	}

	if wantItem {
		b, _ := json.Marshal(table.Items)
		fmt.Println(prettyPrint(b))
	}
	if wantOutfit {
		b, _ := json.Marshal(table.Outfits)
		fmt.Println(prettyPrint(b))
	}
	if wantEffect {
		b, _ := json.Marshal(table.Effects)
		fmt.Println(prettyPrint(b))
	}
	if wantMissile {
		b, _ := json.Marshal(table.Missiles)
		fmt.Println(prettyPrint(b))
	}
}
