// Command lessonvault is the terminal browser for a teacher's saved content.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/lessonvault/internal/cache"
	"github.com/abelbrown/lessonvault/internal/config"
	"github.com/abelbrown/lessonvault/internal/content"
	"github.com/abelbrown/lessonvault/internal/coord"
	"github.com/abelbrown/lessonvault/internal/filter"
	"github.com/abelbrown/lessonvault/internal/logging"
	"github.com/abelbrown/lessonvault/internal/notify"
	"github.com/abelbrown/lessonvault/internal/otel"
	"github.com/abelbrown/lessonvault/internal/page"
	"github.com/abelbrown/lessonvault/internal/retry"
	"github.com/abelbrown/lessonvault/internal/session"
	"github.com/abelbrown/lessonvault/internal/stable"
	"github.com/abelbrown/lessonvault/internal/throttle"
	"github.com/abelbrown/lessonvault/internal/ui"
)

func main() {
	token := flag.String("token", "", "access token (overrides config and LESSONVAULT_ACCESS_TOKEN)")
	user := flag.String("user", "", "sqlite backend only: sign in as this user id with a locally minted token")
	flag.Parse()

	if err := run(*token, *user); err != nil {
		fmt.Fprintf(os.Stderr, "lessonvault: %v\n", err)
		os.Exit(1)
	}
}

func run(tokenFlag, userFlag string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := logging.Init(config.Dir()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}
	defer logging.Close()

	if err := os.MkdirAll(config.Dir(), 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	// Structured events: JSONL on disk, the last 512 in memory for the debug overlay.
	ring := otel.NewRingBuffer(512)
	eventsFile, err := os.OpenFile(filepath.Join(config.Dir(), "lessonvault.events.jsonl"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	defer eventsFile.Close()
	events := otel.NewLogger(eventsFile)
	events.SetRingBuffer(ring)
	defer events.Close()
	events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindStartup, Comp: "main", Msg: cfg.Store.Backend})
	logging.Info("event log open", "session", events.SessionID(), "backend", cfg.Store.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess := session.New(session.Options{
		Secret:   []byte(cfg.Store.JWTSecret),
		Resolver: session.NewTable(cfg.Entitlements),
		Log:      events,
	})

	stores, closeStores, err := openStores(ctx, cfg, sess)
	if err != nil {
		return err
	}
	defer closeStores()

	// The program is created after the page, so publishes are late-bound.
	var program *tea.Program
	send := func(msg tea.Msg) {
		if program != nil {
			program.Send(msg)
		}
	}

	notices := notify.Multi{
		notify.Log{L: logging.WithPrefix("notify")},
		notify.Func(func(n notify.Notification) { send(ui.Notice{N: n}) }),
	}

	rs := retry.New()
	rs.MaxRetries = cfg.Timing.MaxRetries
	rs.BaseDelay = cfg.Timing.RetryBase()
	rs.MaxDelay = cfg.Timing.RetryMax()

	orch := coord.New(coord.Config{
		Auth:   sess,
		Stores: stores,
		Cache:  cache.New(cfg.Timing.HistorySize),
		Throttle: throttle.New(throttle.Options{
			MinInterval: cfg.Timing.MinInterval(),
			Cooldown:    cfg.Timing.Cooldown(),
		}),
		Retry:  rs,
		Notify: notices,
		Log:    events,
	})
	proj := stable.New(stable.Options{
		Throttle:  cfg.Timing.ProjectorThrottle(),
		Evidence:  orch,
		OnPublish: func(items []content.Item) { send(ui.ContentPublished{Items: items}) },
		Log:       events,
	})
	pg := page.New(page.Config{
		Orchestrator: orch,
		Projector:    proj,
		Auth:         sess,
		Stores:       stores,
		Notify:       notices,
		Log:          events,
		EmptyRecheck: cfg.Timing.EmptyRecheck(),
	})
	defer pg.Close()
	sess.OnChange(func(u session.User, signedIn bool) {
		if !signedIn {
			pg.SignOut()
		}
	})

	if err := signIn(sess, cfg, tokenFlag, userFlag); err != nil {
		logging.Warn("sign-in failed", "err", err)
		return err
	}

	app := ui.NewApp(ui.Actions{
		Load: func() tea.Cmd {
			return func() tea.Msg {
				pg.InitialLoad(ctx)
				return ui.FetchDone{Errors: pg.Errors()}
			}
		},
		Refresh: func() tea.Cmd {
			return func() tea.Msg {
				pg.HandleRefresh(ctx)
				return ui.FetchDone{Errors: pg.Errors()}
			}
		},
		ChangeTab: func(tab filter.Tab) tea.Cmd {
			return func() tea.Msg {
				pg.HandleTabChange(ctx, tab)
				return ui.FetchDone{Errors: pg.Errors()}
			}
		},
		Delete: func(id string, typ content.Type) tea.Cmd {
			return func() tea.Msg {
				err := pg.HandleDelete(ctx, id, typ)
				return ui.DeleteDone{ID: id, Errors: pg.Errors(), Err: err}
			}
		},
		Select: pg.HandleItemSelect,
	}, ring)

	program = tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer stop()
		_, err := program.Run()
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		program.Quit()
		return nil
	})
	err = g.Wait()

	events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindShutdown, Comp: "main"})
	return err
}

// signIn resolves the session from the flag, the config, or a locally minted token.
func signIn(sess *session.Context, cfg *config.Config, tokenFlag, userFlag string) error {
	token := tokenFlag
	if token == "" {
		token = cfg.Store.AccessToken
	}
	if token == "" && userFlag != "" {
		if cfg.Store.Backend != "sqlite" {
			return fmt.Errorf("-user needs the sqlite backend")
		}
		var err error
		token, err = session.NewToken(userFlag, "", []byte(cfg.Store.JWTSecret), 24*time.Hour)
		if err != nil {
			return err
		}
	}
	if token == "" {
		sess.Settle()
		return fmt.Errorf("no access token: pass -token, set LESSONVAULT_ACCESS_TOKEN, or use -user")
	}
	u, err := sess.SignInWithToken(token)
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	logging.Info("signed in", "user", u.ID, "plan", u.Plan)
	return nil
}
