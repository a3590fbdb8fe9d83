package main

import (
	"context"
	"fmt"

	"github.com/vkmod/vkmod/automod"
	"github.com/vkmod/vkmod/internal/config"

	cli "github.com/urfave/cli/v2"
)

var checkCmd = &cli.Command{
	Name:      "check",
	Usage:     "evaluate a synthetic message against the configured rules, without contacting VK",
	ArgsUsage: "[text]",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "text",
			Usage: "message text (or pass as argument)",
		},
		&cli.Int64Flag{
			Name:  "sender",
			Usage: "sender account id",
			Value: 1,
		},
		&cli.BoolFlag{
			Name:  "sticker",
			Usage: "message carries a sticker",
		},
		&cli.Int64SliceFlag{
			Name:  "repost-from",
			Usage: "message carries a repost of a wall post from this community id (repeatable)",
		},
	},
	Action: func(cctx *cli.Context) error {
		cfg, logger, err := loadConfig(cctx, config.LoadRules)
		if err != nil {
			return err
		}

		engine, err := automod.NewEngine(automod.Config{
			Logger:                logger,
			BannedPatterns:        cfg.BannedPatterns,
			BannedRepostGroups:    cfg.BannedRepostGroups,
			EnableStickerCooldown: cfg.StickerCooldown.Enabled,
			StickerCooldown:       cfg.StickerCooldown.Window,
		})
		if err != nil {
			return err
		}

		text := cctx.String("text")
		if text == "" {
			text = cctx.Args().First()
		}
		var atts []automod.Attachment
		if cctx.Bool("sticker") {
			atts = append(atts, automod.StickerAttachment())
		}
		for _, gid := range cctx.Int64Slice("repost-from") {
			atts = append(atts, automod.WallAttachment(-abs(gid)))
		}

		msg := automod.NewMessage(0, cctx.Int64("sender"), 0, text, atts)
		dec := engine.Evaluate(context.Background(), msg)
		if dec.Rule == "" {
			fmt.Fprintf(cctx.App.Writer, "%s\n", dec.Action)
		} else {
			fmt.Fprintf(cctx.App.Writer, "%s (%s)\n", dec.Action, dec.Rule)
		}
		return nil
	},
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
