package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/pillbox/internal/config"
	"github.com/hpungsan/pillbox/internal/db"
	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/notify"
	"github.com/hpungsan/pillbox/internal/ops"
	"github.com/hpungsan/pillbox/internal/schedule"
	"github.com/hpungsan/pillbox/internal/settings"
	"github.com/hpungsan/pillbox/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(database *sql.DB, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "pillbox",
		Usage:   "Medication schedule and adherence tracker",
		Version: Version,
		Commands: []*cli.Command{
			addCmd(database),
			updateCmd(database),
			removeCmd(database),
			pauseCmd(database),
			resumeCmd(database),
			listCmd(database),
			dueCmd(database),
			takeCmd(database),
			logCmd(database),
			toggleCmd(database),
			resolveCmd(database),
			historyCmd(database),
			upcomingCmd(database),
			remindCmd(database, cfg),
			webCmd(database, cfg),
			exportCmd(database, cfg),
			importCmd(database, cfg),
			settingsCmd(database),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// addCmd creates the add command.
func addCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Add a medication",
		ArgsUsage: "<name>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dosage", Aliases: []string{"d"}, Usage: "Dosage, e.g. \"81mg\""},
			&cli.StringSliceFlag{Name: "time", Aliases: []string{"t"}, Usage: "Dose time HH:MM (repeatable)", Required: true},
			&cli.StringFlag{Name: "notes", Aliases: []string{"n"}, Usage: "Markdown instructions"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Add(database, ops.AddInput{
				Name:   c.Args().First(),
				Dosage: c.String("dosage"),
				Times:  c.StringSlice("time"),
				Notes:  c.String("notes"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// updateCmd creates the update command.
func updateCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Update a medication (omitted flags are left unchanged)",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "New name"},
			&cli.StringFlag{Name: "dosage", Aliases: []string{"d"}, Usage: "New dosage"},
			&cli.StringSliceFlag{Name: "time", Aliases: []string{"t"}, Usage: "New dose times (replaces all)"},
			&cli.StringFlag{Name: "notes", Aliases: []string{"n"}, Usage: "New markdown instructions"},
		},
		Action: func(c *cli.Context) error {
			input := ops.UpdateInput{ID: c.Args().First()}
			if c.IsSet("name") {
				v := c.String("name")
				input.Name = &v
			}
			if c.IsSet("dosage") {
				v := c.String("dosage")
				input.Dosage = &v
			}
			if c.IsSet("notes") {
				v := c.String("notes")
				input.Notes = &v
			}
			if c.IsSet("time") {
				v := c.StringSlice("time")
				input.Times = &v
			}

			output, err := ops.Update(database, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// removeCmd creates the remove command.
func removeCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Usage:     "Remove a medication (history is kept)",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.Remove(database, ops.RemoveInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// pauseCmd creates the pause command.
func pauseCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "pause",
		Usage:     "Pause a medication (drops out of schedule and reminders)",
		ArgsUsage: "<id>",
		Action:    setActiveAction(database, false),
	}
}

// resumeCmd creates the resume command.
func resumeCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "resume",
		Usage:     "Resume a paused medication",
		ArgsUsage: "<id>",
		Action:    setActiveAction(database, true),
	}
}

func setActiveAction(database *sql.DB, active bool) cli.ActionFunc {
	return func(c *cli.Context) error {
		output, err := ops.SetActive(database, ops.SetActiveInput{
			ID:     c.Args().First(),
			Active: active,
		})
		if err != nil {
			return outputError(err)
		}
		return outputJSON(output)
	}
}

// listCmd creates the list command.
func listCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List medications",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "all", Aliases: []string{"a"}, Usage: "Include paused medications"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.List(database, ops.ListInput{All: c.Bool("all")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// dueCmd creates the due command.
func dueCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "due",
		Usage: "Today's schedule grouped by dose time",
		Action: func(c *cli.Context) error {
			output, err := ops.Due(database)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// takeCmd creates the take command.
func takeCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "take",
		Usage:     "Mark a dose taken for today",
		ArgsUsage: "<id> <time>",
		Action: func(c *cli.Context) error {
			output, err := ops.Record(database, ops.RecordInput{
				ID:     c.Args().Get(0),
				Time:   c.Args().Get(1),
				Action: "taken",
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// logCmd creates the log command for missed/skipped annotations.
func logCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "log",
		Usage:     "Log a missed or skipped dose (does not change taken status)",
		ArgsUsage: "<id> <time>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "action", Aliases: []string{"a"}, Value: "missed", Usage: "missed|skipped"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Record(database, ops.RecordInput{
				ID:     c.Args().Get(0),
				Time:   c.Args().Get(1),
				Action: c.String("action"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// toggleCmd creates the toggle command.
func toggleCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "toggle",
		Usage:     "Flip a dose between taken and unmarked for today",
		ArgsUsage: "<id> <time>",
		Action: func(c *cli.Context) error {
			output, err := ops.Toggle(database, ops.ToggleInput{
				ID:   c.Args().Get(0),
				Time: c.Args().Get(1),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// resolveCmd creates the resolve command.
func resolveCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "Mark every unmarked dose at a time group taken",
		ArgsUsage: "<time>",
		Action: func(c *cli.Context) error {
			output, err := ops.Resolve(database, ops.ResolveInput{Time: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// historyCmd creates the history command.
func historyCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show the action log, most recent first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "medication", Aliases: []string{"m"}, Usage: "Filter by medication ID"},
			&cli.StringFlag{Name: "day", Usage: "Filter by day (YYYY-MM-DD)"},
			&cli.StringFlag{Name: "action", Aliases: []string{"a"}, Usage: "Filter by action"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultHistoryLimit},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.History(database, ops.HistoryInput{
				MedicationID: c.String("medication"),
				Day:          c.String("day"),
				Action:       c.String("action"),
				Limit:        c.Int("limit"),
				Offset:       c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// upcomingSlot is one row in the upcoming command output.
type upcomingSlot struct {
	MedicationID string `json:"medication_id"`
	Name         string `json:"name"`
	Time         string `json:"time"`
	NextFire     string `json:"next_fire"`
}

// upcomingCmd creates the upcoming command. It computes reminder targets
// directly, without arming timers, so it works outside a remind session.
func upcomingCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "upcoming",
		Usage: "Show the next fire time of every reminder slot",
		Action: func(c *cli.Context) error {
			meds, err := db.ListMedications(database, true)
			if err != nil {
				return outputError(err)
			}

			now := time.Now()
			slots := make([]upcomingSlot, 0)
			for _, m := range meds {
				for _, tod := range m.Times {
					target, err := schedule.NextOccurrence(now, tod)
					if err != nil {
						return outputError(errors.NewInternal(err))
					}
					slots = append(slots, upcomingSlot{
						MedicationID: m.ID,
						Name:         m.Name,
						Time:         tod,
						NextFire:     target.Format(time.RFC3339),
					})
				}
			}
			sort.Slice(slots, func(i, j int) bool {
				if slots[i].NextFire != slots[j].NextFire {
					return slots[i].NextFire < slots[j].NextFire
				}
				return slots[i].MedicationID < slots[j].MedicationID
			})
			return outputJSON(map[string]any{"slots": slots})
		},
	}
}

// remindCmd creates the long-running remind command.
func remindCmd(database *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "remind",
		Usage: "Run the reminder loop until interrupted",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "silent", Aliases: []string{"s"}, Usage: "Keep the loop running without emitting reminders"},
			&cli.DurationFlag{Name: "refresh", Value: time.Minute, Usage: "How often to re-derive the timer set from the store"},
		},
		Action: func(c *cli.Context) error {
			notifier := notify.NewConsoleNotifier(os.Stdout, func() settings.Settings {
				s, err := db.GetSettings(database)
				if err != nil {
					return settings.Default()
				}
				return s
			})

			sched := schedule.New(database, notifier)
			sched.SetPermission(!cfg.DisableNotifications && !c.Bool("silent"))
			defer sched.Stop()

			if err := sched.ArmAll(); err != nil {
				return outputError(err)
			}

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(os.Stderr, "reminder loop running, %d slot(s) armed (ctrl-c to stop)\n", len(sched.ArmedSlots()))

			// Mutations from another process (CLI, web, MCP) show up at the
			// next refresh.
			ticker := time.NewTicker(c.Duration("refresh"))
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					fmt.Fprintln(os.Stderr, "stopping")
					return nil
				case <-ticker.C:
					if err := sched.ArmAll(); err != nil {
						fmt.Fprintf(os.Stderr, "warning: refresh failed: %v\n", err)
					}
				}
			}
		},
	}
}

// webCmd creates the web command.
func webCmd(database *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "web",
		Usage: "Serve the web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Bind address (default from config)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Port (default from config)"},
		},
		Action: func(c *cli.Context) error {
			bind := cfg.WebBind
			if c.IsSet("bind") {
				bind = c.String("bind")
			}
			port := cfg.WebPort
			if c.IsSet("port") {
				port = c.Int("port")
			}

			srv := web.NewServer(database, cfg, Version, bind, port)
			return web.Run(srv)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(database *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export medications, log, and settings to a JSON file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Destination (default: ~/.pillbox/exports/pillbox-<timestamp>.json)"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Export(c.Context, database, cfg, ops.ExportInput{
				Path: c.String("path"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// importCmd creates the import command.
func importCmd(database *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Replace all data from an export file",
		ArgsUsage: "<path>",
		Action: func(c *cli.Context) error {
			output, err := ops.Import(database, cfg, ops.ImportInput{
				Path: c.Args().First(),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// settingsCmd creates the settings command.
func settingsCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Show or change preferences",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "sound", Usage: "on|off"},
			&cli.StringFlag{Name: "vibration", Usage: "on|off"},
			&cli.StringFlag{Name: "high-contrast", Usage: "on|off"},
			&cli.StringFlag{Name: "text-size", Usage: "small|medium|large"},
		},
		Action: func(c *cli.Context) error {
			input := ops.SetSettingsInput{}
			changed := false

			for _, f := range []struct {
				flag string
				dst  **bool
			}{
				{"sound", &input.Sound},
				{"vibration", &input.Vibration},
				{"high-contrast", &input.HighContrast},
			} {
				if c.IsSet(f.flag) {
					v, err := parseOnOff(c.String(f.flag))
					if err != nil {
						return outputError(errors.NewInvalidRequest(err.Error()))
					}
					*f.dst = &v
					changed = true
				}
			}
			if c.IsSet("text-size") {
				v := c.String("text-size")
				input.TextSize = &v
				changed = true
			}

			if !changed {
				output, err := ops.GetSettings(database)
				if err != nil {
					return outputError(err)
				}
				return outputJSON(output)
			}

			output, err := ops.SetSettings(database, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// parseOnOff parses an on/off flag value.
func parseOnOff(s string) (bool, error) {
	switch s {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}

// outputJSON prints a value as indented JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if pErr, ok := err.(*errors.PillboxError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", pErr.Code, pErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
