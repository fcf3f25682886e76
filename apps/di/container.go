// Package di wires the application services from the configuration.
package di

import (
	"context"
	"fmt"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/Pensezy/EduTrack-CM-sub003/core"
	"github.com/Pensezy/EduTrack-CM-sub003/core/link"
	"github.com/Pensezy/EduTrack-CM-sub003/core/onboarding"
	"github.com/Pensezy/EduTrack-CM-sub003/core/person"
	"github.com/Pensezy/EduTrack-CM-sub003/core/school"
	"github.com/Pensezy/EduTrack-CM-sub003/services/email"
	"github.com/Pensezy/EduTrack-CM-sub003/services/events"
	"github.com/Pensezy/EduTrack-CM-sub003/services/metrics"
	"github.com/Pensezy/EduTrack-CM-sub003/storage/database"
	"github.com/Pensezy/EduTrack-CM-sub003/storage/database/inmem"
	sqlxrepos "github.com/Pensezy/EduTrack-CM-sub003/storage/database/sqlx"
	"github.com/Pensezy/EduTrack-CM-sub003/storage/sessions"
)

// EngineMemory keeps every record in process memory. Any other engine is served by PostgreSQL.
const EngineMemory = "memory"

type Container struct {
	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator
	Metrics    *metricsvc.Prometheus

	DB       *sqlx.DB      // nil with the memory engine
	Redis    *redis.Client // nil without a redis URL
	Mail     core.EmailService
	Events   core.EventPublisher
	Sessions onboarding.SessionStore

	Schools    *school.Service
	Registry   *person.Registry
	Links      *link.Aggregator
	Onboarding *onboarding.Workflow
}

type repositories struct {
	schools school.Repository
	people  person.Repository
	links   link.Repository
}

func NewValidator() (*validator.Validate, ut.Translator) {
	validate, translator := core.NewValidator()
	person.RegisterValidators(validate, translator)
	link.RegisterValidators(validate, translator)
	return validate, translator
}

// New sets up storage, messaging and services. dbLogger receives the record store's breaker events.
func New(ctx context.Context, conf *core.Config, logger, dbLogger core.Logger) (*Container, error) {
	c := &Container{Conf: conf, Logger: logger, Metrics: metricsvc.NewPrometheus()}
	c.Validate, c.Translator = NewValidator()

	repos, err := c.setUpStorage(dbLogger)
	if err != nil {
		return nil, errors.Wrap(err, "setting up storage")
	}
	if err = c.setUpSessions(ctx); err != nil {
		_ = c.Close()
		return nil, errors.Wrap(err, "setting up sessions")
	}
	if err = c.setUpEvents(); err != nil {
		_ = c.Close()
		return nil, errors.Wrap(err, "setting up events")
	}

	if conf.Debug || conf.SendgridApiKey == "" {
		c.Mail = emailsvc.NewConsoleService(conf, logger)
	} else {
		c.Mail = emailsvc.NewSendgridService(conf, logger)
	}

	c.Schools = school.NewService(repos.schools, c.Validate)
	c.Registry = person.NewRegistry(repos.people, c.Schools, person.Deps{
		Validate:   c.Validate,
		Translator: c.Translator,
		Events:     c.Events,
		Metrics:    c.Metrics,
		Logger:     logger,
	}, conf.Registry)
	c.Links = link.NewAggregator(repos.links, c.Registry, c.Schools, link.Deps{
		Validate: c.Validate,
		MailSvc:  c.Mail,
		Events:   c.Events,
		Metrics:  c.Metrics,
		Logger:   logger,
	}, conf.Registry)
	c.Onboarding = onboarding.NewWorkflow(c.Sessions, c.Registry, c.Links, c.Schools, onboarding.Deps{
		Validate: c.Validate,
		Metrics:  c.Metrics,
		Logger:   logger,
	})
	return c, nil
}

func (c *Container) setUpStorage(dbLogger core.Logger) (repositories, error) {
	if c.Conf.Database.Engine == EngineMemory {
		db := inmemdb.Open()
		return repositories{
			schools: inmemdb.NewSchoolRepository(db),
			people:  inmemdb.NewPersonRepository(db),
			links:   inmemdb.NewLinkRepository(db),
		}, nil
	}

	db, err := SetUpDB(c.Conf)
	if err != nil {
		return repositories{}, err
	}
	c.DB = db

	br := database.NewBreaker(c.Conf.Database.Name, dbLogger)
	tables := c.Conf.Database.Tables
	return repositories{
		schools: sqlxrepos.NewSchoolRepository(db, br, tables),
		people:  sqlxrepos.NewPersonRepository(db, br, tables),
		links:   sqlxrepos.NewLinkRepository(db, br, tables),
	}, nil
}

// SetUpDB creates the database if needed, opens it and applies the pending migrations.
func SetUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB, conf.Database.Tables); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func (c *Container) setUpSessions(ctx context.Context) error {
	if c.Conf.Redis.URL == "" {
		c.Sessions = sessions.NewMemoryStore(c.Conf.Redis.SessionTTL)
		return nil
	}
	client, err := sessions.NewRedisClient(ctx, c.Conf.Redis)
	if err != nil {
		return err
	}
	c.Redis = client
	c.Sessions = sessions.NewRedisStore(client, c.Conf.Redis.SessionTTL)
	return nil
}

func (c *Container) setUpEvents() error {
	if c.Conf.AMQP.URL == "" {
		c.Events = eventsvc.NewLogPublisher(c.Logger)
		return nil
	}
	pub, err := eventsvc.NewRabbitMQPublisher(c.Conf.AMQP, c.Logger)
	if err != nil {
		return err
	}
	c.Events = pub
	return nil
}

// Close releases the connections held by the container.
func (c *Container) Close() error {
	var errs []error
	if c.Events != nil {
		if err := c.Events.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "closing event publisher"))
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "closing redis"))
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "closing database"))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%v", errs)
	}
	return nil
}
