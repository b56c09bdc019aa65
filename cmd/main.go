package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"

	"bidcal/internal/caldav"
	"bidcal/internal/config"
	"bidcal/internal/extract"
	"bidcal/internal/google"
	"bidcal/internal/ics"
	"bidcal/internal/links"
	"bidcal/internal/models"
	"bidcal/internal/schedule"
	"bidcal/internal/syncer"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "bidcal",
		Usage: "Extract bid deadlines from procurement documents and export them as calendar events.",
		Commands: []*cli.Command{
			authCommand(),
			extractCommand(),
			chatCommand(),
			exportCommand(),
			linksCommand(),
			syncCommand(),
			publishCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with a Google account to get an API token.",
		Action: func(c *cli.Context) error {
			logger := setupLogger("info")
			logger.Info("Starting Google authentication flow.")

			oauthConfig, err := google.GetOAuthConfigForAuthFlow(os.Getenv("GOOGLE_CLIENT_ID"), os.Getenv("GOOGLE_CLIENT_SECRET"))
			if err != nil {
				return fmt.Errorf("failed to get google oauth config: %w", err)
			}

			authURL := oauthConfig.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
			fmt.Printf("Go to the following link in your browser then type the "+
				"authorization code: \n%v\n", authURL)

			fmt.Print("Enter Authorization Code: ")
			reader := bufio.NewReader(os.Stdin)
			authCode, _ := reader.ReadString('\n')
			authCode = strings.TrimSpace(authCode)

			token, err := google.TokenFromWeb(oauthConfig, authCode)
			if err != nil {
				return fmt.Errorf("unable to retrieve token from web: %w", err)
			}

			fmt.Print("Enter a name for this account (e.g., 'personal', 'work'): ")
			accountName, _ := reader.ReadString('\n')
			accountName = strings.TrimSpace(accountName)
			tokenFile := "token-" + accountName + ".json"

			if err := google.SaveToken(tokenFile, token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			logger.Info("Successfully authenticated and saved token.", "file", tokenFile)
			return nil
		},
	}
}

func extractCommand() *cli.Command {
	return &cli.Command{
		Name:  "extract",
		Usage: "Extract bid schedule fields from a document into a record file.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Required: true, Usage: "Path to the bid document (.pdf or plain text)."},
			&cli.StringFlag{Name: "out", Value: "record.json", Usage: "Path for the extracted record."},
			&cli.StringFlag{Name: "settings", Value: config.DefaultPath, Usage: "Settings file path."},
		},
		Action: func(c *cli.Context) error {
			logger := loggerFromEnv()
			settings, err := config.Load(c.String("settings"))
			if err != nil {
				return err
			}

			text, err := extract.ReadDocument(c.Context, c.String("file"))
			if err != nil {
				return err
			}

			client, err := extractClient(c.Context, logger)
			if err != nil {
				return err
			}

			record, err := client.ExtractRecord(c.Context, text, settings.LeadTimes)
			if err != nil {
				return err
			}

			if err := saveRecord(c.String("out"), record); err != nil {
				return err
			}
			logger.Info("Extracted record.", "project", record.ProjectName, "file", c.String("out"))
			return nil
		},
	}
}

func chatCommand() *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Ask a question about a bid document.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Required: true, Usage: "Path to the bid document."},
			&cli.StringFlag{Name: "question", Required: true, Usage: "The question to ask."},
		},
		Action: func(c *cli.Context) error {
			logger := loggerFromEnv()

			text, err := extract.ReadDocument(c.Context, c.String("file"))
			if err != nil {
				return err
			}

			client, err := extractClient(c.Context, logger)
			if err != nil {
				return err
			}

			answer, err := client.Chat(c.Context, text, c.String("question"))
			if err != nil {
				return err
			}
			fmt.Println(answer)
			return nil
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write the record's milestones to an ICS calendar file.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "record", Value: "record.json", Usage: "Record file path."},
			&cli.StringFlag{Name: "out", Usage: "Output path; defaults to <project>_schedule.ics."},
			&cli.StringFlag{Name: "settings", Value: config.DefaultPath, Usage: "Settings file path."},
		},
		Action: func(c *cli.Context) error {
			logger := loggerFromEnv()
			settings, err := config.Load(c.String("settings"))
			if err != nil {
				return err
			}

			record, err := loadRecord(c.String("record"), settings.LeadTimes)
			if err != nil {
				return err
			}

			doc, err := ics.NewGenerator(logger).Calendar(record, settings.Export)
			if err != nil {
				return err
			}

			out := c.String("out")
			if out == "" {
				out = ics.Filename(record.ProjectName)
			}
			if err := os.WriteFile(out, []byte(doc), 0o644); err != nil {
				return fmt.Errorf("failed to write calendar file: %w", err)
			}
			logger.Info("Wrote calendar file.", "file", out)
			return nil
		},
	}
}

func linksCommand() *cli.Command {
	return &cli.Command{
		Name:  "links",
		Usage: "Print Google and Outlook add-event links for every milestone.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "record", Value: "record.json", Usage: "Record file path."},
			&cli.StringFlag{Name: "settings", Value: config.DefaultPath, Usage: "Settings file path."},
		},
		Action: func(c *cli.Context) error {
			settings, err := config.Load(c.String("settings"))
			if err != nil {
				return err
			}

			record, err := loadRecord(c.String("record"), settings.LeadTimes)
			if err != nil {
				return err
			}

			description := schedule.Description(record)
			for _, m := range schedule.List(record, settings.Export.IncludeInternal) {
				start := schedule.FormatInstant(m.Time)
				fmt.Printf("%s (%s)\n", m.Label, start)
				fmt.Printf("  Google:  %s\n", links.BuildGoogleEventURL(m.Summary, start, description, record.SiteAddress))
				fmt.Printf("  Outlook: %s\n", links.BuildOutlookEventURL(m.Summary, start, description, record.SiteAddress))
			}
			return nil
		},
	}
}

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Create one Google Calendar event per milestone.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "record", Value: "record.json", Usage: "Record file path."},
			&cli.StringFlag{Name: "settings", Value: config.DefaultPath, Usage: "Settings file path."},
			&cli.StringFlag{Name: "account", Usage: "Token account name; defaults to the only saved account."},
			&cli.StringFlag{Name: "calendar", Value: "primary", Usage: "Target Google calendar ID."},
			&cli.IntFlag{Name: "delay", Value: 2, Usage: "Seconds to wait between create calls."},
			&cli.BoolFlag{Name: "dry-run", Usage: "Log what would be created without making changes."},
		},
		Action: func(c *cli.Context) error {
			logger := loggerFromEnv()
			settings, err := config.Load(c.String("settings"))
			if err != nil {
				return err
			}

			record, err := loadRecord(c.String("record"), settings.LeadTimes)
			if err != nil {
				return err
			}

			account := c.String("account")
			if account == "" {
				accounts, err := google.GetTokenAccounts()
				if err != nil || len(accounts) == 0 {
					return fmt.Errorf("no google accounts found. Run the 'auth' command first")
				}
				account = accounts[0]
			}

			gClient, err := google.NewClient(c.Context, logger, os.Getenv("GOOGLE_CLIENT_ID"), os.Getenv("GOOGLE_CLIENT_SECRET"), account)
			if err != nil {
				return fmt.Errorf("failed to create google client: %w", err)
			}

			creator := &googleCreator{client: gClient, calendarID: c.String("calendar")}
			s := syncer.NewSyncer(logger, creator, time.Duration(c.Int("delay"))*time.Second, c.Bool("dry-run"))

			if _, _, err := s.Sync(c.Context, record, settings.Export); err != nil {
				return fmt.Errorf("batch sync failed: %w", err)
			}
			return nil
		},
	}
}

func publishCommand() *cli.Command {
	return &cli.Command{
		Name:  "publish",
		Usage: "Upload the ICS schedule to an external planner via CalDAV.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "record", Value: "record.json", Usage: "Record file path."},
			&cli.StringFlag{Name: "settings", Value: config.DefaultPath, Usage: "Settings file path."},
		},
		Action: func(c *cli.Context) error {
			logger := loggerFromEnv()
			settings, err := config.Load(c.String("settings"))
			if err != nil {
				return err
			}

			record, err := loadRecord(c.String("record"), settings.LeadTimes)
			if err != nil {
				return err
			}

			doc, err := ics.NewGenerator(logger).Calendar(record, settings.Export)
			if err != nil {
				return err
			}

			planner, err := caldav.NewClient(logger,
				os.Getenv("PLANNER_URL"),
				os.Getenv("PLANNER_USERNAME"),
				os.Getenv("PLANNER_PASSWORD"),
				os.Getenv("PLANNER_CALENDAR"))
			if err != nil {
				return fmt.Errorf("failed to create planner client: %w", err)
			}

			return planner.PublishSchedule(c.Context, ics.Filename(record.ProjectName), doc)
		},
	}
}

// googleCreator adapts the Google client to the syncer's EventCreator.
type googleCreator struct {
	client     *google.CalendarClient
	calendarID string
}

func (g *googleCreator) CreateEvent(ctx context.Context, event models.Event, reminderMinutes []int64) error {
	return g.client.CreateEvent(ctx, g.calendarID, event, reminderMinutes)
}

// extractClient builds the LLM client from the environment.
func extractClient(ctx context.Context, logger *slog.Logger) (*extract.Client, error) {
	modelName := os.Getenv("BIDCAL_MODEL")
	if modelName == "" {
		modelName = "gpt-4o-mini"
	}
	return extract.New(ctx, extract.Config{
		APIKey:  os.Getenv("OPENAI_API_KEY"),
		Model:   modelName,
		BaseURL: os.Getenv("OPENAI_BASE_URL"),
	}, logger)
}

// loadRecord reads a record file and recomputes every derived deadline with
// the current lead times, so edited anchors or changed settings never leave
// stale derived values behind.
func loadRecord(path string, leadTimes models.LeadTimeSettings) (models.ProjectRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.ProjectRecord{}, fmt.Errorf("failed to read record: %w", err)
	}
	var record models.ProjectRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return models.ProjectRecord{}, fmt.Errorf("failed to parse record: %w", err)
	}
	return schedule.DeriveAll(record, leadTimes), nil
}

func saveRecord(path string, record models.ProjectRecord) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func loggerFromEnv() *slog.Logger {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "info"
	}
	return setupLogger(level)
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
