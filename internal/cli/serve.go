package cli

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rashpile/pako-tasks/internal/audit"
	"github.com/rashpile/pako-tasks/internal/auth"
	"github.com/rashpile/pako-tasks/internal/bot"
	"github.com/rashpile/pako-tasks/internal/command"
	"github.com/rashpile/pako-tasks/internal/command/builtin"
	"github.com/rashpile/pako-tasks/internal/config"
	"github.com/rashpile/pako-tasks/internal/executor"
	"github.com/rashpile/pako-tasks/internal/output"
	"github.com/rashpile/pako-tasks/internal/status"
	"github.com/rashpile/pako-tasks/internal/task"
)

func serveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the Telegram bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if opts.projectRoot != "" {
				cfg.ProjectRoot = opts.projectRoot
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

// Services holds the components shared by the bot's commands.
type Services struct {
	Engine   *executor.Engine
	Registry *command.Registry
	Loader   *command.Loader
	Mode     *output.Mode
}

// NewServices builds the command registry: built-ins first, then one
// command per task.
func NewServices(cfg *config.Config, auditLog audit.Logger, collector status.Collector) *Services {
	engine := executor.NewEngine()
	registry := command.NewRegistry()
	loader := command.NewLoader(cfg.ProjectRoot, cfg.Defaults, engine, registry)
	mode := output.NewMode(cfg.Learning.Enabled)

	registry.RegisterBuiltin(builtin.NewHelpCommand(registry))
	registry.RegisterBuiltin(builtin.NewTasksCommand(loader))
	registry.RegisterBuiltin(builtin.NewStopCommand(engine))
	registry.RegisterBuiltin(builtin.NewShellCommand(executor.NewRunner(), cfg.ProjectRoot, cfg.Console.ConfirmEnabled(), cfg.Defaults.MaxOutput))
	registry.RegisterBuiltin(builtin.NewExplainCommand(mode))
	registry.RegisterBuiltin(builtin.NewStatusCommand(collector, engine))
	registry.RegisterBuiltin(builtin.NewHistoryCommand(auditLog))
	registry.RegisterBuiltin(builtin.NewReloadCommand(loader, registry))
	registry.RegisterBuiltin(builtin.NewVersionCommand())

	return &Services{Engine: engine, Registry: registry, Loader: loader, Mode: mode}
}

// ReloadTasks refreshes the task commands and logs the outcome.
func (s *Services) ReloadTasks() {
	n, err := builtin.Reload(s.Loader, s.Registry)
	if err != nil {
		slog.Warn("failed to load tasks", "error", err)
		return
	}
	slog.Info("loaded tasks", "count", n)
}

func serve(ctx context.Context, cfg *config.Config) error {
	if err := cfg.RequireTelegram(); err != nil {
		return err
	}

	slog.Info("configuration loaded",
		"project_root", cfg.ProjectRoot,
		"database", cfg.Database.Path,
		"learning", cfg.Learning.Enabled,
	)

	explainer, err := cfg.Explainer()
	if err != nil {
		return err
	}

	auditLogger, err := audit.NewSQLiteLogger(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer auditLogger.Close()

	authorizer := auth.NewAllowlist(cfg.Telegram.AllowedChatIDs)

	svc := NewServices(cfg, auditLogger, status.NewGopsutilCollector(cfg.ProjectRoot))
	svc.ReloadTasks()

	b, err := bot.New(bot.Config{
		Token:          cfg.Telegram.Token,
		Authorizer:     authorizer,
		Registry:       svc.Registry,
		Audit:          auditLogger,
		Explainer:      explainer,
		Mode:           svc.Mode,
		AllowedChatIDs: authorizer.Chats(),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher := task.NewWatcher(cfg.ProjectRoot, svc.ReloadTasks)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Without the watcher /reload still works.
		if err := watcher.Run(gctx); err != nil {
			slog.Warn("task list watcher stopped", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		return b.Run(gctx)
	})

	b.NotifyStartup()
	slog.Info("starting bot")

	err = g.Wait()
	svc.Engine.StopActiveTask()
	return err
}
