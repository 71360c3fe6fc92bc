package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof" // registers the /debug/pprof handlers
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	echoapi "github.com/trezcool/gradebook/apps/api/echo"
	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/grading"
	logsvc "github.com/trezcool/gradebook/services/logger"
	"github.com/trezcool/gradebook/storage/database"
	inmemdb "github.com/trezcool/gradebook/storage/database/inmem"
	sqlxrepos "github.com/trezcool/gradebook/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up DB
	db, repo, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	// set up services
	gradingSvc := grading.NewService(repo, logger)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	if conf.Admin.PasswordHash == "" {
		logger.Warn("admin.passwordHash is not set: nobody can log in, see `admin hashpassword`")
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	grading.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("store").Set(storeName(conf))

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			DB:         db,
			GradingSvc: gradingSvc,
			Validate:   validate,
			Translator: translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

// setUpDB opens the configured store. Postgres is created and migrated when needed.
func setUpDB(conf *core.Config) (core.DB, grading.Repository, error) {
	if conf.Database.InMemory {
		db, err := inmemdb.Open()
		if err != nil {
			return nil, nil, errors.Wrap(err, "opening in-memory database")
		}
		return db, inmemdb.NewGradingRepository(db), nil
	}

	if err := database.CreateIfNotExist(context.Background(), conf); err != nil {
		return nil, nil, errors.Wrap(err, "creating database")
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, nil, errors.Wrap(err, "opening database")
	}

	if err = database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, sqlxrepos.NewGradingRepository(db), nil
}

func storeName(conf *core.Config) string {
	if conf.Database.InMemory {
		return "in-memory"
	}
	return conf.Database.Engine
}
