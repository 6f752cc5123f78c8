package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/playq/internal/events"
	"github.com/desertthunder/playq/internal/metrics"
	"github.com/desertthunder/playq/internal/repositories"
	"github.com/desertthunder/playq/internal/services"
	"github.com/desertthunder/playq/internal/shared"
	"github.com/desertthunder/playq/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The database, publisher and services are opened lazily by the commands that need them.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	httpClient *http.Client

	db        *sql.DB
	publisher events.Publisher
	sessions  services.Sessions
	feeds     services.FeedParser
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	HTTPClient *http.Client
	Sessions   services.Sessions
	Feeds      services.FeedParser
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		httpClient: opts.HTTPClient,
		sessions:   opts.Sessions,
		feeds:      opts.Feeds,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, setupCommand, migrateCommand, sessionCommand, playlistsCommand, globalCommand, feedCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Configure loads the config file named by --config, applies environment overrides and
// validates the result. A missing file keeps the defaults.
func (r *Runner) Configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")
	if path == "" {
		path = r.configPath
	}
	r.configPath = path

	if path != "" {
		config, err := shared.LoadConfig(path)
		switch {
		case errors.Is(err, shared.ErrMissingConfig):
			r.logger.Debug("config file not found, using defaults", "path", path)
		case err != nil:
			return ctx, err
		default:
			r.config = config
		}
	}

	if err := r.config.ApplyEnv(os.LookupEnv); err != nil {
		return ctx, err
	}
	if err := r.config.Validate(); err != nil {
		return ctx, err
	}

	shared.SetLogLevel(r.logger, shared.ParseLogLevel(r.config.Log.Level))
	return ctx, nil
}

// openDatabase opens the configured database and applies pending migrations.
func (r *Runner) openDatabase() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, err
	}

	if err := shared.RunMigrations(db, shared.DialectFor(r.config.Database.Driver)); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := metrics.RegisterDBStats(db, "playq"); err != nil {
		r.logger.Warn("failed to register database metrics", "error", err)
	}

	r.db = db
	return db, nil
}

// playlists returns the session service, opening the store and publisher on first use.
func (r *Runner) playlists(ctx context.Context) (services.Sessions, error) {
	if r.sessions != nil {
		return r.sessions, nil
	}

	db, err := r.openDatabase()
	if err != nil {
		return nil, err
	}

	pub, err := events.NewPublisher(ctx, r.config.Events)
	if err != nil {
		r.logger.Warn("change events disabled", "error", err)
		pub = events.Nop{}
	}
	r.publisher = pub

	store := repositories.NewStore(db, shared.DialectFor(r.config.Database.Driver))
	r.sessions = services.NewPlaylistService(store, pub, r.logger)
	return r.sessions, nil
}

// global returns the adapter bound to the configured global session.
func (r *Runner) global(ctx context.Context) (*services.GlobalSession, error) {
	sessions, err := r.playlists(ctx)
	if err != nil {
		return nil, err
	}
	return services.NewGlobalSession(sessions, r.config.Global.SessionID), nil
}

func (r *Runner) feedParser() services.FeedParser {
	if r.feeds == nil {
		r.feeds = services.NewFeedService(r.config.Feeds, r.httpClient, r.logger)
	}
	return r.feeds
}

func (r *Runner) feedEngine() *tasks.FeedEngine {
	return tasks.NewFeedEngine(r.feedParser())
}

// Close releases the publisher and database, if opened.
func (r *Runner) Close() error {
	var errs []error
	if r.publisher != nil {
		errs = append(errs, r.publisher.Close())
		r.publisher = nil
	}
	if r.db != nil {
		errs = append(errs, r.db.Close())
		r.db = nil
	}
	return errors.Join(errs...)
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// parseItemsFlag reads a JSON array from the --items flag, or from the file named by --items-file.
func parseItemsFlag(cmd *cli.Command) (json.RawMessage, error) {
	raw := cmd.String("items")
	file := cmd.String("items-file")
	if raw != "" && file != "" {
		return nil, fmt.Errorf("%w: cannot specify both --items and --items-file", shared.ErrInvalidArgument)
	}
	if file == "" {
		return json.RawMessage(raw), nil
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read items file: %w", err)
	}
	return json.RawMessage(data), nil
}
