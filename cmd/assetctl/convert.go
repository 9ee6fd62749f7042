package main

import (
	"context"
	"fmt"
	"os"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/spf13/cobra"

	"github.com/tibia-tools/assets/dat"
	"github.com/tibia-tools/assets/host"
	"github.com/tibia-tools/assets/obd"
	"github.com/tibia-tools/assets/session"
	"github.com/tibia-tools/assets/spritestore"
	"github.com/tibia-tools/assets/thing"
)

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a single thing to or from an OBD exchange packet",
	}
	cmd.AddCommand(newConvertExportCmd())
	cmd.AddCommand(newConvertImportCmd())
	return cmd
}

func newConvertExportCmd() *cobra.Command {
	var dir, category, out string
	var id uint32
	var clientVersion int
	var level int

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export one item/outfit/effect/missile and its sprites to an OBD file",
		Run: func(cmd *cobra.Command, args []string) {
			runConvertExport(dir, category, out, id, clientVersion, level)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "directory holding the client's .dat/.spr pair")
	cmd.Flags().StringVar(&category, "category", "item", "one of item, outfit, effect, missile")
	cmd.Flags().Uint32Var(&id, "id", 0, "thing id within its category")
	cmd.Flags().StringVar(&out, "out", "", "output .obd path (required)")
	cmd.Flags().IntVar(&clientVersion, "client-version", 1098, "client version used to select the DAT wire format")
	cmd.Flags().IntVar(&level, "level", 6, "LZMA compression level (1-9; values outside are clamped)")
	cmd.MarkFlagRequired("out")
	return cmd
}

func runConvertExport(dir, categoryName, out string, id uint32, clientVersion, level int) {
	logger := log.NewHelper(log.NewFilter(log.NewStdLogger(os.Stdout), log.FilterLevel(log.LevelInfo)))
	h := host.NewOSHost(logger)
	sess := session.New(h, nil)

	datPath, sprPath, _, err := sess.DiscoverClientFiles(dir)
	if err != nil || datPath == "" || sprPath == "" {
		logger.Errorf("discovering client files under %s: %v", dir, err)
		os.Exit(1)
	}

	category, err := parseCategory(categoryName)
	if err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}

	ctx := context.Background()
	_, result, err := sess.Load(ctx, session.LoadParams{DatFilePath: datPath, SprFilePath: sprPath, ClientVersion: clientVersion})
	if err != nil {
		logger.Errorf("loading project: %v", err)
		os.Exit(1)
	}
	defer sess.Unload(ctx)

	table, err := dat.Read(result.DatBytes, clientVersion, false, defaultFrameDurations)
	if err != nil {
		logger.Errorf("parsing dat: %v", err)
		os.Exit(1)
	}
	store := spritestore.New()
	features := thing.ApplyVersionDefaults(thing.Features{}, clientVersion)
	if err := store.LoadFromBuffer(result.SprBytes, features.Extended); err != nil {
		logger.Errorf("parsing spr: %v", err)
		os.Exit(1)
	}

	bucket := bucketFor(table, category)
	t, ok := bucket[id]
	if !ok {
		logger.Errorf("no %s with id %d in %s", category, id, datPath)
		os.Exit(1)
	}

	sprites := map[uint32][]byte{}
	for _, g := range t.Groups {
		for _, spriteID := range g.SpriteIndex {
			if spriteID == 0 {
				continue
			}
			if pixels, ok := store.Get(spriteID); ok {
				sprites[spriteID] = pixels
			}
		}
	}

	packet := &obd.Packet{
		Sub:           obd.SubV3,
		ClientVersion: uint16(clientVersion),
		Thing:         t,
		Sprites:       sprites,
	}
	buf, err := obd.Encode(packet, level)
	if err != nil {
		logger.Errorf("encoding obd: %v", err)
		os.Exit(1)
	}
	if err := h.WriteBytes(ctx, out, buf); err != nil {
		logger.Errorf("writing %s: %v", out, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s (%d bytes, %d sprites)\n", out, len(buf), len(sprites))
}

func newConvertImportCmd() *cobra.Command {
	var in, outDir string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Decode an OBD file and print its thing summary",
		Run: func(cmd *cobra.Command, args []string) {
			runConvertImport(in, outDir)
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "input .obd path (required)")
	cmd.Flags().StringVar(&outDir, "sprites-out", "", "optional directory to dump decoded sprite bodies into")
	cmd.MarkFlagRequired("in")
	return cmd
}

func runConvertImport(in, outDir string) {
	logger := log.NewHelper(log.NewFilter(log.NewStdLogger(os.Stdout), log.FilterLevel(log.LevelInfo)))
	h := host.NewOSHost(logger)

	buf, err := h.ReadBytes(context.Background(), in)
	if err != nil {
		logger.Errorf("reading %s: %v", in, err)
		os.Exit(1)
	}

	packet, err := obd.Decode(buf, defaultFrameDurations)
	if err != nil {
		logger.Errorf("decoding obd: %v", err)
		os.Exit(1)
	}

	fmt.Printf("sub:           %d\n", packet.Sub)
	fmt.Printf("clientVersion: %d\n", packet.ClientVersion)
	fmt.Printf("category:      %s\n", packet.Thing.Category)
	fmt.Printf("id:            %d\n", packet.Thing.ID)
	fmt.Printf("groups:        %d\n", len(packet.Thing.Groups))
	fmt.Printf("sprites:       %d\n", len(packet.Sprites))

	if outDir == "" {
		return
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		logger.Errorf("creating %s: %v", outDir, err)
		os.Exit(1)
	}
	for id, body := range packet.Sprites {
		path := fmt.Sprintf("%s/sprite_%d.bin", outDir, id)
		if err := h.WriteBytes(context.Background(), path, body); err != nil {
			logger.Errorf("writing %s: %v", path, err)
		}
	}
}

func bucketFor(table *dat.Table, category thing.Category) map[uint32]*thing.Thing {
	switch category {
	case thing.Outfit:
		return table.Outfits
	case thing.Effect:
		return table.Effects
	case thing.Missile:
		return table.Missiles
	default:
		return table.Items
	}
}

func parseCategory(name string) (thing.Category, error) {
	switch name {
	case "item":
		return thing.Item, nil
	case "outfit":
		return thing.Outfit, nil
	case "effect":
		return thing.Effect, nil
	case "missile":
		return thing.Missile, nil
	default:
		return 0, fmt.Errorf("unknown category %q, want one of item, outfit, effect, missile", name)
	}
}
