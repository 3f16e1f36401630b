package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/swipearr/internal/repositories"
	"github.com/desertthunder/swipearr/internal/services"
	"github.com/desertthunder/swipearr/internal/session"
	"github.com/desertthunder/swipearr/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	db      *sql.DB
	backend *services.MaintainerrService
	session *session.Session
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
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
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.Client.Timeout()}
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger replaces the runner's logger. Must be called before the session is opened.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Session opens the state database and hydrates the session on first use.
func (r *Runner) Session() (*session.Session, error) {
	if r.session != nil {
		return r.session, nil
	}

	db, err := shared.OpenStateDatabase(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	backend := services.NewMaintainerrService(r.httpClient, r.logger)
	backend.SetPageRate(r.config.Client.PageRate)

	s := session.New(session.Options{
		Backend: backend,
		Store:   repositories.NewStateStore(db, r.logger),
		Logger:  r.logger,
	})
	if err := s.Hydrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}

	r.db, r.backend, r.session = db, backend, s
	return s, nil
}

// connected returns the session after loading the remote data its step needs.
func (r *Runner) connected(ctx context.Context) (*session.Session, error) {
	s, err := r.Session()
	if err != nil {
		return nil, err
	}
	if !s.Connected() {
		return nil, fmt.Errorf("%w: run 'swipearr connect' first", shared.ErrNotAuthenticated)
	}
	if err := s.Resume(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Close releases the state database.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db, r.backend, r.session = nil, nil, nil
	return err
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, connectCommand, disconnectCommand, statusCommand, librariesCommand, collectionsCommand,
		filtersCommand, queueCommand, swipeCommand, progressCommand, refreshCommand, historyCommand,
		posterCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

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
