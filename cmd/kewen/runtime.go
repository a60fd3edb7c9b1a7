package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/kewen/internal/apiclient"
	"github.com/verte-zerg/kewen/internal/config"
	"github.com/verte-zerg/kewen/internal/deck"
	"github.com/verte-zerg/kewen/internal/generator"
	"github.com/verte-zerg/kewen/internal/identity"
	"github.com/verte-zerg/kewen/internal/model"
	"github.com/verte-zerg/kewen/internal/persist"
	"github.com/verte-zerg/kewen/internal/store"
	"github.com/verte-zerg/kewen/internal/tui"
	"github.com/verte-zerg/kewen/internal/validator"
)

// runtime holds the collaborators shared by the practice and stats commands.
type runtime struct {
	store     *store.Store
	client    *apiclient.Client
	identity  persist.IdentityProvider
	validator *validator.Validator
	gateway   *persist.Gateway
}

func openRuntime(ctx context.Context, fileCfg config.FileConfig, logger *log.Logger) (*runtime, error) {
	opts := storeOptions(fileCfg)
	st, err := store.Open(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	rt := &runtime{store: st}
	if url := stringValue(fileCfg.API.URL, ""); url != "" {
		timeout := time.Duration(intValue(fileCfg.API.TimeoutMs, defaultTimeoutMs)) * time.Millisecond
		rt.client = apiclient.New(url, stringValue(fileCfg.API.Token, ""), timeout)
	}
	rt.identity = resolveIdentity(fileCfg)

	// A nil *apiclient.Client must not reach the validator as a non-nil interface.
	var checker validator.Checker
	if rt.client != nil {
		checker = rt.client
	}
	validateTimeout := time.Duration(intValue(fileCfg.API.ValidateTimeoutMs, defaultValidateMs)) * time.Millisecond
	rt.validator = validator.New(checker, validator.WithTimeout(validateTimeout), validator.WithLogger(logger))
	rt.gateway = persist.NewGateway(st, rt.identity, logger)
	return rt, nil
}

func (rt *runtime) close() {
	if err := rt.store.Close(); err != nil {
		logErrf("failed to close db: %v\n", err)
	}
}

// userID is the id stats are read for. Anonymous users see no history.
func (rt *runtime) userID() string {
	id, ok := rt.identity.CurrentUserID(context.Background())
	if !ok {
		return ""
	}
	return id
}

// quizSource picks the quiz service, or a local deck when one is requested
// or no service is configured.
func (rt *runtime) quizSource(req model.QuizRequest, deckPath string) (tui.QuizSource, error) {
	if deckPath == "" && rt.client != nil {
		return rt.client, nil
	}
	if !generator.Supports(req.Kind) {
		return nil, fmt.Errorf("kind %q needs the quiz service; set [api] url or %s", req.Kind, config.EnvAPIURL)
	}
	if deckPath == "" {
		deckPath = config.DefaultDeckPath(req.BookID)
	}
	d, err := deck.Load(deckPath)
	if err != nil {
		return nil, deckLoadError(req.BookID, deckPath, err)
	}
	if _, err := d.Chapter(req.ChapterID); err != nil {
		return nil, err
	}
	return generator.DeckSource{Gen: generator.New(), Deck: d}, nil
}

func storeOptions(fileCfg config.FileConfig) store.Options {
	driver := store.Driver(strings.ToLower(stringValue(fileCfg.Store.Driver, defaultDriver)))
	dsn := stringValue(fileCfg.Store.DSN, "")
	if dsn == "" && driver == store.DriverSQLite {
		dsn = config.DefaultDBPath()
	}
	return store.Options{
		Driver:  driver,
		DSN:     dsn,
		Migrate: boolValue(fileCfg.Store.AutoMigrate, defaultAutoMigrate),
	}
}

// resolveIdentity uses the access token when one is configured. Without a
// token, results are kept under a fixed local id.
func resolveIdentity(fileCfg config.FileConfig) persist.IdentityProvider {
	token := stringValue(fileCfg.API.Token, "")
	if token == "" {
		return identity.Static(localUserID)
	}
	return identity.NewToken(token, stringValue(fileCfg.API.TokenSecret, ""))
}

// openLogger routes background logging to a file while the TUI owns the
// terminal.
func openLogger() (*log.Logger, func()) {
	path := config.DefaultLogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		logErrf("failed to create log directory: %v\n", err)
		return log.New(io.Discard, "", 0), func() {}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logErrf("failed to open log: %v\n", err)
		return log.New(io.Discard, "", 0), func() {}
	}
	return log.New(f, "kewen ", log.LstdFlags), func() {
		if err := f.Close(); err != nil {
			// Best-effort close of the log file.
			_ = err
		}
	}
}

func stringValue(v *string, def string) string {
	if v == nil {
		return def
	}
	return strings.TrimSpace(*v)
}

func intValue(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func boolValue(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
