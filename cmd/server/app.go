package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/postflow/configs"
	"github.com/maheshrc27/postflow/internal/queue"
	"github.com/maheshrc27/postflow/internal/repository"
	"github.com/maheshrc27/postflow/internal/service"
	"go.mongodb.org/mongo-driver/mongo"
)

// application holds the stores and services shared by every command.
type application struct {
	cfg         *config.Config
	db          *sql.DB
	mongoClient *mongo.Client
	asynqClient *asynq.Client
	redisOpt    asynq.RedisConnOpt

	posts       repository.PostRepository
	connections repository.FacebookConnectionRepository

	publishService    service.PublishService
	postService       service.PostService
	connectionService service.ConnectionService
}

func newApp(ctx context.Context, cfg *config.Config) (*application, error) {
	a := &application{cfg: cfg}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.AppEnv,
		TracesSampleRate: 0.2,
	}); err != nil {
		return nil, fmt.Errorf("sentry.Init: %w", err)
	}

	if err := a.openStore(ctx); err != nil {
		sentry.CaptureException(err)
		a.Close()
		return nil, err
	}

	var media service.MediaURLResolver
	var store service.MediaStore
	if cfg.R2Enabled() {
		r2Service, err := service.NewR2Service(ctx, cfg.R2)
		if err != nil {
			a.Close()
			return nil, err
		}
		media, store = r2Service, r2Service
	}

	var scheduler service.PublishScheduler
	if cfg.RedisURI != "" {
		opt, err := redisConnOpt(cfg.RedisURI)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.redisOpt = opt
		a.asynqClient = asynq.NewClient(opt)
		scheduler = queue.NewScheduler(a.asynqClient)
	}

	credentials := service.NewCredentialService(cfg.SecretKey, a.connections)
	facebook := service.NewFacebookService(cfg.Facebook, media)

	a.publishService = service.NewPublishService(cfg.Sweep, a.posts, credentials, facebook)
	a.postService = service.NewPostService(a.posts, store, scheduler)
	a.connectionService = service.NewConnectionService(cfg.SecretKey, a.connections)

	return a, nil
}

func (a *application) openStore(ctx context.Context) error {
	switch a.cfg.StoreDriver {
	case config.StoreDriverMongo:
		client, db, err := repository.ConnectMongo(ctx, a.cfg.MongoURI, a.cfg.DatabaseName)
		if err != nil {
			return err
		}
		a.mongoClient = client

		posts := repository.NewMongoPostRepository(db)
		if err := posts.EnsureIndexes(ctx); err != nil {
			return err
		}
		a.posts = posts
		a.connections = repository.NewMongoFacebookConnectionRepository(db)

	default:
		db, err := sql.Open("postgres", a.cfg.PostgresURI)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return fmt.Errorf("database is unreachable: %w", err)
		}
		a.db = db
		a.posts = repository.NewPostRepository(db)
		a.connections = repository.NewFacebookConnectionRepository(db)
	}
	return nil
}

func (a *application) Close() {
	if a.asynqClient != nil {
		if err := a.asynqClient.Close(); err != nil {
			log.Printf("Failed to close task queue client: %v", err)
		}
	}
	if a.db != nil {
		log.Println("Closing database connection...")
		if err := a.db.Close(); err != nil {
			log.Printf("Failed to close database: %v", err)
		}
	}
	if a.mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.mongoClient.Disconnect(ctx); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}
	sentry.Flush(2 * time.Second)
}

// redisConnOpt accepts either a redis:// URI or a bare host:port.
func redisConnOpt(uri string) (asynq.RedisConnOpt, error) {
	if strings.Contains(uri, "://") {
		opt, err := asynq.ParseRedisURI(uri)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URI: %w", err)
		}
		return opt, nil
	}
	return asynq.RedisClientOpt{Addr: uri}, nil
}
