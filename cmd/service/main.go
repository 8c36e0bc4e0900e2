package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gitlab.com/dirk.krummacker/contact-manager/internal/logger"
	"gitlab.com/dirk.krummacker/contact-manager/internal/repository"
	"gitlab.com/dirk.krummacker/contact-manager/internal/service"
	"gitlab.com/dirk.krummacker/contact-manager/internal/tracing"
)

const serviceName = "contacts-api"

type config struct {
	Web struct {
		APIHost         string        `conf:"default:0.0.0.0:5000"`
		ReadTimeout     time.Duration `conf:"default:5s"`
		WriteTimeout    time.Duration `conf:"default:10s"`
		IdleTimeout     time.Duration `conf:"default:120s"`
		ShutdownTimeout time.Duration `conf:"default:20s"`
		RequestLogging  bool          `conf:"default:true"`
		AllowedOrigins  []string      `conf:"default:*"`
	}
	Store struct {
		Kind string `conf:"default:mongo,help:mongo or mysql"`
	}
	Mongo struct {
		URI            string        `conf:"default:mongodb://localhost:27017,mask"`
		Database       string        `conf:"default:contacts"`
		Collection     string        `conf:"default:contacts"`
		ConnectTimeout time.Duration `conf:"default:10s"`
	}
	MySQL struct {
		User     string `conf:"default:contacts"`
		Password string `conf:"default:contacts,mask"`
		Host     string `conf:"default:localhost:3306"`
		Name     string `conf:"default:contacts"`
	}
	Tracing struct {
		Enabled     bool    `conf:"default:false"`
		ServiceName string  `conf:"default:contacts-api"`
		Probability float64 `conf:"default:0.5"`
	}
	Log struct {
		Mode string `conf:"default:prod,help:prod or dev"`
	}
}

// Usage example on the command line:
// > CONTACTS_MONGO_URI=mongodb://localhost:27017 go run main.go
// > CONTACTS_STORE_KIND=mysql CONTACTS_MYSQL_USER=dirk CONTACTS_MYSQL_PASSWORD=bullo92 go run main.go
// > go run main.go --help
func main() {
	var cfg config
	help, err := conf.Parse("CONTACTS", &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return
		}
		fmt.Println("parsing config:", err)
		os.Exit(1)
	}

	log, err := logger.New(serviceName, cfg.Log.Mode)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Errorw("startup", "error", err)
		os.Exit(1)
	}
}

func run(cfg config, log *zap.SugaredLogger) error {
	log.Infow("startup", "status", "starting service")
	defer log.Infow("shutdown", "status", "service stopped")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Store Support

	repo, closeStore, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	// =========================================================================
	// Tracing Support

	tracingName := ""
	if cfg.Tracing.Enabled {
		log.Infow("startup", "status", "initializing tracing support", "probability", cfg.Tracing.Probability)
		provider, err := tracing.Start(tracing.Config{
			ServiceName: cfg.Tracing.ServiceName,
			Probability: cfg.Tracing.Probability,
		})
		if err != nil {
			return fmt.Errorf("starting tracing: %w", err)
		}
		defer provider.Shutdown(context.Background())
		tracingName = cfg.Tracing.ServiceName
	}

	// =========================================================================
	// Start API Service

	log.Infow("startup", "status", "initializing router")

	if cfg.Log.Mode != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := service.New(repo, log).SetupHttpRouter(service.Config{
		RequestLogging: cfg.Web.RequestLogging,
		AllowedOrigins: cfg.Web.AllowedOrigins,
		TracingName:    tracingName,
	})

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	api := http.Server{
		Addr:         cfg.Web.APIHost,
		Handler:      router,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Infow("startup", "status", "api router started", "host", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}
	return nil
}

// openStore connects to the configured store, brings its schema up to date, and returns the
// repository together with a function that releases the connection.
func openStore(cfg config, log *zap.SugaredLogger) (repository.Repository, func(), error) {
	switch strings.ToLower(cfg.Store.Kind) {
	case "mongo":
		log.Infow("startup", "status", "initializing mongo support", "database", cfg.Mongo.Database)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Mongo.ConnectTimeout)
		defer cancel()
		client, err := repository.OpenMongo(ctx, repository.MongoConfig{
			URI:            cfg.Mongo.URI,
			Database:       cfg.Mongo.Database,
			Collection:     cfg.Mongo.Collection,
			ConnectTimeout: cfg.Mongo.ConnectTimeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to mongo: %w", err)
		}
		db := client.Database(cfg.Mongo.Database)
		if err := repository.EnsureCollection(ctx, db, cfg.Mongo.Collection); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, fmt.Errorf("preparing collection: %w", err)
		}
		closeStore := func() {
			log.Infow("shutdown", "status", "stopping mongo support")
			_ = client.Disconnect(context.Background())
		}
		return repository.NewMongo(db.Collection(cfg.Mongo.Collection)), closeStore, nil

	case "mysql":
		log.Infow("startup", "status", "initializing mysql support", "host", cfg.MySQL.Host)

		db, err := repository.OpenMySQL(repository.MySQLConfig{
			User:     cfg.MySQL.User,
			Password: cfg.MySQL.Password,
			Host:     cfg.MySQL.Host,
			Name:     cfg.MySQL.Name,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to mysql: %w", err)
		}

		log.Infow("startup", "status", "updating database schema", "database", cfg.MySQL.Name)
		if err := repository.Migrate(db.DB); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("updating database schema: %w", err)
		}
		repo, err := repository.NewMySQL(db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		closeStore := func() {
			log.Infow("shutdown", "status", "stopping mysql support")
			_ = repo.Close()
			_ = db.Close()
		}
		return repo, closeStore, nil
	}
	return nil, nil, fmt.Errorf("unknown store kind %q", cfg.Store.Kind)
}
