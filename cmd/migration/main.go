package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ardanlabs/conf/v3"
	"go.uber.org/zap"

	"gitlab.com/dirk.krummacker/contact-manager/internal/logger"
	"gitlab.com/dirk.krummacker/contact-manager/internal/repository"
)

type config struct {
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
}

// Prepares the store schema without starting the service: the contacts table for MySQL, or the
// validated contacts collection for MongoDB.
//
// Usage example on the command line:
// > CONTACTS_STORE_KIND=mysql CONTACTS_MYSQL_HOST=localhost:3306 CONTACTS_MYSQL_USER=dirk CONTACTS_MYSQL_PASSWORD=bullo92 go run main.go
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

	log, err := logger.New("contacts-migration", "dev")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Errorw("migration", "error", err)
		os.Exit(1)
	}
}

func run(cfg config, log *zap.SugaredLogger) error {
	switch cfg.Store.Kind {
	case "mysql":
		db, err := repository.OpenMySQL(repository.MySQLConfig{
			User:     cfg.MySQL.User,
			Password: cfg.MySQL.Password,
			Host:     cfg.MySQL.Host,
			Name:     cfg.MySQL.Name,
		})
		if err != nil {
			return err
		}
		defer db.Close()
		log.Infow("migration", "status", "updating database schema", "host", cfg.MySQL.Host, "database", cfg.MySQL.Name)
		if err := repository.Migrate(db.DB); err != nil {
			return fmt.Errorf("updating database schema: %w", err)
		}

	case "mongo":
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Mongo.ConnectTimeout)
		defer cancel()
		client, err := repository.OpenMongo(ctx, repository.MongoConfig{
			URI:            cfg.Mongo.URI,
			Database:       cfg.Mongo.Database,
			Collection:     cfg.Mongo.Collection,
			ConnectTimeout: cfg.Mongo.ConnectTimeout,
		})
		if err != nil {
			return err
		}
		defer client.Disconnect(context.Background())
		log.Infow("migration", "status", "applying collection validator", "database", cfg.Mongo.Database, "collection", cfg.Mongo.Collection)
		if err := repository.EnsureCollection(ctx, client.Database(cfg.Mongo.Database), cfg.Mongo.Collection); err != nil {
			return fmt.Errorf("preparing collection: %w", err)
		}

	default:
		return fmt.Errorf("unknown store kind %q", cfg.Store.Kind)
	}
	log.Infow("migration", "status", "done")
	return nil
}
