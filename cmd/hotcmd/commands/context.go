package commands

import (
	"database/sql"
	"os"
	"strings"
	"time"

	"github.com/vandanapadala-pg/hotcommands/config"
	"github.com/vandanapadala-pg/hotcommands/db"
	"github.com/vandanapadala-pg/hotcommands/errors"
	"github.com/vandanapadala-pg/hotcommands/hot"
	"github.com/vandanapadala-pg/hotcommands/hot/router"
	"github.com/vandanapadala-pg/hotcommands/hot/types"
	"github.com/vandanapadala-pg/hotcommands/logger"
	"github.com/vandanapadala-pg/hotcommands/queryexec"
	"github.com/vandanapadala-pg/hotcommands/toolcall"
	"github.com/vandanapadala-pg/hotcommands/translate"
)

// UserFlag is the global --user override.
var UserFlag string

// securityContext resolves the acting user from --user or the environment.
func securityContext() (types.SecurityContext, error) {
	user := UserFlag
	if user == "" {
		user = os.Getenv("USER")
	}
	if user == "" {
		return types.SecurityContext{}, errors.New("cannot determine acting user; pass --user")
	}
	return types.SecurityContext{UserID: user}, nil
}

// splitOwnerName parses "name" or "owner/name" command references, the bare
// form defaulting to the caller.
func splitOwnerName(ref string, sctx types.SecurityContext) (owner, name string) {
	if i := strings.IndexByte(ref, '/'); i >= 0 {
		return ref[:i], ref[i+1:]
	}
	return sctx.UserID, ref
}

// openDatabase opens and migrates the configured database.
func openDatabase() (*sql.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "load configuration")
	}
	path := cfg.Database.Path
	if env := os.Getenv("HOTCMD_DB_PATH"); env != "" {
		path = env
	}
	return db.OpenWithMigrations(path, logger.Logger)
}

// buildEngine assembles the full engine from configuration. The returned
// cleanup closes the engine, the tool transport, and the database.
func buildEngine() (*hot.Engine, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, errors.Wrap(err, "load configuration")
	}

	database, err := openDatabase()
	if err != nil {
		return nil, nil, err
	}

	var translator router.Translator
	if cfg.Translator.BaseURL != "" {
		tr, err := translate.New(translate.Config{
			BaseURL:           cfg.Translator.BaseURL,
			Model:             cfg.Translator.Model,
			APIKey:            cfg.Translator.APIKey,
			Timeout:           time.Duration(cfg.Translator.TimeoutSeconds) * time.Second,
			RequestsPerMinute: cfg.Translator.RequestsPerMinute,
			AllowPrivate:      cfg.Translator.AllowPrivate,
		})
		if err != nil {
			database.Close()
			return nil, nil, err
		}
		translator = tr
	}

	executor := queryexec.New(database, cfg.Engine.MaxResultRows)

	var transport *toolcall.Transport
	var tools router.ToolTransport
	if cfg.Tools.Command != "" {
		transport = toolcall.New(toolcall.Config{
			Command: cfg.Tools.Command,
			Args:    cfg.Tools.Args,
			Env:     cfg.Tools.Env,
		}, logger.Logger)
		tools = transport
	}

	routerCfg := router.DefaultConfig()
	routerCfg.MaxToolRetries = cfg.Engine.MaxToolRetries
	routerCfg.Denylist = cfg.Engine.Denylist
	rt := router.New(translator, executor, tools, routerCfg, logger.Logger)

	engine := hot.New(database, rt, logger.Logger, hot.Config{
		InvocationTimeout: time.Duration(cfg.Engine.InvocationTimeoutSeconds) * time.Second,
		CacheTTL:          time.Duration(cfg.Engine.CacheTTLSeconds) * time.Second,
		AuditBufferSize:   cfg.Engine.AuditBufferSize,
	})

	cleanup := func() {
		engine.Close()
		if transport != nil {
			transport.Close()
		}
		database.Close()
	}
	return engine, cleanup, nil
}
