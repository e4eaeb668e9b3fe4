// Command mda is a thin CLI front end over pkg/mda: generate, update,
// extract, and list revisions of an MDA container file (spec §6).
package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ipfs/go-cid"
	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"

	"github.com/go-mda/mda/pkg/mda"
)

var log = logging.Logger("mda-cli")

func main() {
	app := &cli.App{
		Name:  "mda",
		Usage: "create and inspect Multimodal Dataset Archive files",
		Commands: []*cli.Command{
			generateCmd,
			extractCmd,
			updateCmd,
			listCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var generateCmd = &cli.Command{
	Name:      "generate",
	Usage:     "create a new MDA file from a training-data file and an initial annotation file",
	ArgsUsage: "<out.mda>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "train", Required: true, Usage: "path to the training-data payload"},
		&cli.StringFlag{Name: "anno", Required: true, Usage: "path to the initial annotation text"},
		&cli.StringFlag{Name: "kind", Value: "text", Usage: "training data kind: text, image, video, audio"},
		&cli.StringFlag{Name: "origin", Usage: "CID of the upstream source, recorded as the container header's origin"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return cli.Exit("expected exactly one output path argument", 1)
		}

		kind, err := parseKind(c.String("kind"))
		if err != nil {
			return err
		}
		trainBytes, err := os.ReadFile(c.String("train"))
		if err != nil {
			return fmt.Errorf("read training data: %w", err)
		}
		annoBytes, err := os.ReadFile(c.String("anno"))
		if err != nil {
			return fmt.Errorf("read annotation: %w", err)
		}

		training := trainingFromBytes(kind, trainBytes)

		originID := cid.Undef
		if raw := c.String("origin"); raw != "" {
			originID, err = cid.Decode(raw)
			if err != nil {
				return fmt.Errorf("--origin is not a valid cid: %w", err)
			}
		}
		header := mda.NewHeaderFromCID(kind, originID, time.Now().Unix())

		if err := mda.Generate(c.Args().First(), header, training, annoBytes); err != nil {
			return err
		}
		log.Infow("generated mda file", "path", c.Args().First(), "kind", kind)
		return nil
	},
}

var extractCmd = &cli.Command{
	Name:      "extract",
	Usage:     "write an annotation revision and the training data to files",
	ArgsUsage: "<in.mda>",
	Flags: []cli.Flag{
		&cli.Int64Flag{Name: "rev", Value: -1, Usage: "revision to extract; -1 for latest"},
		&cli.StringFlag{Name: "anno-out", Required: true, Usage: "path to write the annotation to"},
		&cli.StringFlag{Name: "train-out", Required: true, Usage: "path to write the training data to"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return cli.Exit("expected exactly one input path argument", 1)
		}

		annoFile, err := os.Create(c.String("anno-out"))
		if err != nil {
			return fmt.Errorf("create anno-out: %w", err)
		}
		defer annoFile.Close()

		trainFile, err := os.Create(c.String("train-out"))
		if err != nil {
			return fmt.Errorf("create train-out: %w", err)
		}
		defer trainFile.Close()

		if err := mda.Extract(c.Args().First(), c.Int64("rev"), annoFile, trainFile); err != nil {
			return err
		}
		log.Infow("extracted revision", "path", c.Args().First(), "rev", c.Int64("rev"))
		return nil
	},
}

var updateCmd = &cli.Command{
	Name:      "update",
	Usage:     "append a new annotation revision to an existing MDA file",
	ArgsUsage: "<in.mda>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "anno", Required: true, Usage: "path to the new annotation text"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return cli.Exit("expected exactly one input path argument", 1)
		}
		annoBytes, err := os.ReadFile(c.String("anno"))
		if err != nil {
			return fmt.Errorf("read annotation: %w", err)
		}
		if err := mda.UpdateAnno(c.Args().First(), annoBytes); err != nil {
			return err
		}
		log.Infow("updated mda file", "path", c.Args().First())
		return nil
	},
}

var listCmd = &cli.Command{
	Name:      "list",
	Usage:     "print every revlog revision's header metadata",
	ArgsUsage: "<in.mda>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return cli.Exit("expected exactly one input path argument", 1)
		}
		revisions, err := mda.ListRevisions(c.Args().First())
		if err != nil {
			return err
		}
		for _, r := range revisions {
			fmt.Printf("rev=%d length=%d linkrev=%d nodeid=%s p1=%s p2=%s\n",
				r.Rev, r.Length, r.LinkRev, r.ShortNodeID(), r.ShortP1(), r.ShortP2())
		}
		return nil
	},
}

func parseKind(s string) (mda.DataKind, error) {
	switch s {
	case "text":
		return mda.KindText, nil
	case "image":
		return mda.KindImage, nil
	case "video":
		return mda.KindVideo, nil
	case "audio":
		return mda.KindAudio, nil
	default:
		if n, err := strconv.Atoi(s); err == nil {
			return mda.DataKind(n), nil
		}
		return 0, fmt.Errorf("unknown kind %q: want text, image, video, or audio", s)
	}
}

func trainingFromBytes(kind mda.DataKind, b []byte) mda.TrainingData {
	switch kind {
	case mda.KindText:
		return mda.NewText(string(b))
	case mda.KindImage:
		return mda.NewImage(b)
	case mda.KindVideo:
		return mda.NewVideo(b)
	default:
		return mda.NewAudio(b)
	}
}
