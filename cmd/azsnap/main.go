package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "azsnap",
		Usage: "Bulk Azure snapshot lifecycle operations (search, create, delete)",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
			&cli.IntFlag{
				Name:    "concurrency",
				Usage:   "Max concurrent az operations",
				Value:   10,
				EnvVars: []string{"AZSNAP_CONCURRENCY"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "Search snapshots across subscriptions by creation date",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "from",
						Usage: "Window start (YYYY-MM-DD); prompts when omitted",
					},
					&cli.StringFlag{
						Name:  "to",
						Usage: "Window end (YYYY-MM-DD); prompts when omitted",
					},
					&cli.StringFlag{
						Name:  "keyword",
						Usage: "Case-insensitive substring match on snapshot names",
					},
					&cli.StringFlag{
						Name:  "filter",
						Usage: "JS predicate over snapshot fields, e.g. 'snapshot.ageDays > 90'",
					},
					&cli.StringFlag{
						Name:  "ids-out",
						Usage: "Write matching snapshot resource IDs to this file",
					},
				},
				Action: listCommand,
			},
			{
				Name:      "delete",
				Usage:     "Bulk-delete snapshots by resource ID, suspending and restoring scope locks",
				ArgsUsage: "[resource-id ...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "file",
						Usage: "File with one snapshot resource ID per line",
					},
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "Skip the interactive confirmation",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Validate and report without touching locks or snapshots",
					},
					&cli.BoolFlag{
						Name:  "serial",
						Usage: "Run one operation at a time instead of the bounded pool",
					},
					&cli.StringFlag{
						Name:  "log-dir",
						Usage: "Directory for the persistent summary log",
						Value: "logs",
					},
					&cli.StringFlag{
						Name:  "csv",
						Usage: "Also write a CSV report to this path",
					},
				},
				Action: deleteCommand,
			},
			{
				Name:  "create",
				Usage: "Create OS-disk snapshots for a list of VMs",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "input",
						Usage: "File with 'resourceID vmName' per line",
						Value: "snap_rid_list.txt",
					},
					&cli.StringFlag{
						Name:  "chg",
						Usage: "Change ticket number baked into snapshot names; prompts when omitted",
					},
					&cli.StringFlag{
						Name:  "output",
						Usage: "File to append created snapshot resource IDs to",
					},
				},
				Action: createCommand,
			},
			{
				Name:   "status",
				Usage:  "Show az session status and visible subscriptions",
				Action: statusCommand,
			},
		},
		Action: func(c *cli.Context) error {
			return cli.ShowAppHelp(c)
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
