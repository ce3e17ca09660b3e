package dig_container

import (
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	"github.com/trezcool/sajili/apps/api/echo"
	"github.com/trezcool/sajili/apps/shared"
	"github.com/trezcool/sajili/core"
	"github.com/trezcool/sajili/core/course"
	"github.com/trezcool/sajili/core/record"
	"github.com/trezcool/sajili/core/report"
	"github.com/trezcool/sajili/core/session"
	"github.com/trezcool/sajili/core/student"
	"github.com/trezcool/sajili/core/user"
	"github.com/trezcool/sajili/services/email"
	"github.com/trezcool/sajili/services/events"
	"github.com/trezcool/sajili/services/logger"
	"github.com/trezcool/sajili/services/metrics"
	"github.com/trezcool/sajili/storage/database"
	"github.com/trezcool/sajili/storage/database/inmem"
	sqlxrepos "github.com/trezcool/sajili/storage/database/sqlx"
)

const (
	engineMemory   = "memory"
	engineDatabase = "postgres"
	busRedis       = "redis"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// Store is the storage selected by `database.engine`.
type Store struct {
	DB  *sqlx.DB // nil with the memory engine
	Mem *inmemdb.DB
}

func (s *Store) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

type Repositories struct {
	dig.Out
	Users    user.Repository
	Students student.Repository
	Courses  course.Repository
	Sessions session.Repository
	Records  record.Repository
}

type ServerParams struct {
	dig.In
	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator
	Bus        core.EventBus
	Metrics    *metricsvc.Prometheus
	UserSvc    *user.Service
	StudentSvc *student.Service
	CourseSvc  *course.Service
	SessionSvc *session.Service
	RecordSvc  *record.Service
	ReportSvc  *report.Service
}

func newLogger(conf *core.Config) core.Logger {
	std := logsvc.NewZerolog(conf, os.Stdout).With().Str("component", "api").Logger()
	return logsvc.NewRollbarLogger(std, conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	std := logsvc.NewZerolog(conf, os.Stdout).With().Str("component", "db").Logger()
	return logsvc.NewRollbarLogger(std, conf)
}

func newStore(conf *core.Config, loggerParam DBLoggerParam) (*Store, error) {
	switch conf.Database.Engine {
	case engineMemory:
		loggerParam.Logger.Warn("using the in-memory store: data is lost on shutdown")
		return &Store{Mem: inmemdb.NewDB()}, nil
	case engineDatabase, "":
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, errors.Wrap(err, "creating database")
		}
		db, err := database.Open(conf)
		if err != nil {
			return nil, errors.Wrap(err, "opening database")
		}
		if err = database.Migrate(db, "up"); err != nil {
			return nil, errors.Wrap(err, "migrating database")
		}
		return &Store{DB: db}, nil
	}
	return nil, errors.Errorf("unknown database engine %q", conf.Database.Engine)
}

func newRepositories(store *Store) Repositories {
	if store.DB == nil {
		return Repositories{
			Users:    inmemdb.NewUserRepository(store.Mem),
			Students: inmemdb.NewStudentRepository(store.Mem),
			Courses:  inmemdb.NewCourseRepository(store.Mem),
			Sessions: inmemdb.NewSessionRepository(store.Mem),
			Records:  inmemdb.NewRecordRepository(store.Mem),
		}
	}
	return Repositories{
		Users:    sqlxrepos.NewUserRepository(store.DB),
		Students: sqlxrepos.NewStudentRepository(store.DB),
		Courses:  sqlxrepos.NewCourseRepository(store.DB),
		Sessions: sqlxrepos.NewSessionRepository(store.DB),
		Records:  sqlxrepos.NewRecordRepository(store.DB),
	}
}

func newMetrics(p *metricsvc.Prometheus) core.Metrics {
	return p
}

func newEventBus(conf *core.Config, metrics core.Metrics, logger core.Logger) (core.EventBus, error) {
	if conf.Events.Backend == busRedis {
		bus, err := eventsvc.NewRedisBus(conf.Events, metrics, logger)
		if err != nil {
			return nil, errors.Wrap(err, "connecting to redis")
		}
		return bus, nil
	}
	return eventsvc.NewMemoryBus(metrics), nil
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug || conf.SendgridApiKey == "" {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newAttendanceConfig(conf *core.Config) core.AttendanceConfig {
	return conf.Attendance
}

func newRotator(conf *core.Config, svc *session.Service) *session.Rotator {
	return session.NewRotator(svc, conf.Attendance.CodeRotation)
}

func newServer(p ServerParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:       p.Conf,
		Logger:     p.Logger,
		Validate:   p.Validate,
		Translator: p.Translator,
		Bus:        p.Bus,
		Metrics:    p.Metrics.Handler(),
		UserSvc:    p.UserSvc,
		StudentSvc: p.StudentSvc,
		CourseSvc:  p.CourseSvc,
		SessionSvc: p.SessionSvc,
		RecordSvc:  p.RecordSvc,
		ReportSvc:  p.ReportSvc,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStore))
	must(c.Provide(newRepositories))
	must(c.Provide(metricsvc.NewPrometheus))
	must(c.Provide(newMetrics))
	must(c.Provide(newEventBus))
	must(c.Provide(newEmailService))
	must(c.Provide(shared.NewValidator))
	must(c.Provide(newAttendanceConfig))
	must(c.Provide(user.NewService))
	must(c.Provide(student.NewService))
	must(c.Provide(course.NewService))
	must(c.Provide(session.NewService))
	must(c.Provide(record.NewService))
	must(c.Provide(report.NewService))
	must(c.Provide(newRotator))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
