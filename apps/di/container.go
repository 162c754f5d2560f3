// Package di builds the application's dependency graph by hand. It is shared by the api server and the admin CLI.
package di

import (
	"context"
	"fmt"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/article"
	"github.com/trezcool/elimu/core/challenge"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/event"
	"github.com/trezcool/elimu/core/feed"
	"github.com/trezcool/elimu/core/learning"
	"github.com/trezcool/elimu/core/media"
	"github.com/trezcool/elimu/core/mentor"
	"github.com/trezcool/elimu/core/opportunity"
	"github.com/trezcool/elimu/core/payment"
	"github.com/trezcool/elimu/core/quiz"
	"github.com/trezcool/elimu/core/scrape"
	"github.com/trezcool/elimu/core/site"
	"github.com/trezcool/elimu/core/user"
	cachesvc "github.com/trezcool/elimu/services/cache"
	emailsvc "github.com/trezcool/elimu/services/email"
	storagesvc "github.com/trezcool/elimu/services/storage"
	"github.com/trezcool/elimu/storage/database"
	dummydb "github.com/trezcool/elimu/storage/database/dummy"
	sqlxrepos "github.com/trezcool/elimu/storage/database/sqlx"
)

// DummyEngine keeps every table in memory. Data is lost on exit.
const DummyEngine = "dummy"

type (
	Repositories struct {
		Users         user.Repository
		Articles      article.Repository
		Courses       course.Repository
		Events        event.Repository
		Opportunities opportunity.Repository
		Learning      learning.Repository
		Challenges    challenge.Repository
		Submissions   challenge.SubmissionRepository
		Quizzes       quiz.Repository
		Attempts      quiz.AttemptRepository
		Mentors       mentor.Repository
		Bookings      mentor.BookingRepository
		Payments      payment.Repository
		Subscriptions payment.SubscriptionRepository
		Vouchers      payment.VoucherRepository
		Scraped       scrape.Repository
	}

	Services struct {
		User         *user.Service
		Article      *article.Service
		Course       *course.Service
		Event        *event.Service
		Opportunity  *opportunity.Service
		Learning     *learning.Service
		Challenge    *challenge.Service
		Submission   *challenge.SubmissionService
		Quiz         *quiz.Service
		Attempt      *quiz.AttemptService
		Mentor       *mentor.Service
		Booking      *mentor.BookingService
		Payment      *payment.Service
		Subscription *payment.SubscriptionService
		Voucher      *payment.VoucherService
		Scrape       *scrape.Service
		Feed         *feed.Service
		Media        *media.Service
		Site         *site.Service
	}

	// Infra holds the outbound adapters the services talk to.
	Infra struct {
		Mail    core.EmailService
		Cache   core.Cache
		Storage core.ObjectStorage
		Invoker core.FunctionInvoker
	}
)

func NewDummyRepositories(db *dummydb.DB) Repositories {
	return Repositories{
		Users:         dummydb.NewUserRepository(db),
		Articles:      dummydb.NewArticleRepository(db),
		Courses:       dummydb.NewCourseRepository(db),
		Events:        dummydb.NewEventRepository(db),
		Opportunities: dummydb.NewOpportunityRepository(db),
		Learning:      dummydb.NewLearningRepository(db),
		Challenges:    dummydb.NewChallengeRepository(db),
		Submissions:   dummydb.NewSubmissionRepository(db),
		Quizzes:       dummydb.NewQuizRepository(db),
		Attempts:      dummydb.NewAttemptRepository(db),
		Mentors:       dummydb.NewMentorRepository(db),
		Bookings:      dummydb.NewBookingRepository(db),
		Payments:      dummydb.NewPaymentRepository(db),
		Subscriptions: dummydb.NewSubscriptionRepository(db),
		Vouchers:      dummydb.NewVoucherRepository(db),
		Scraped:       dummydb.NewScrapedContentRepository(db),
	}
}

func NewSQLRepositories(db *sqlx.DB) Repositories {
	return Repositories{
		Users:         sqlxrepos.NewUserRepository(db),
		Articles:      sqlxrepos.NewArticleRepository(db),
		Courses:       sqlxrepos.NewCourseRepository(db),
		Events:        sqlxrepos.NewEventRepository(db),
		Opportunities: sqlxrepos.NewOpportunityRepository(db),
		Learning:      sqlxrepos.NewLearningRepository(db),
		Challenges:    sqlxrepos.NewChallengeRepository(db),
		Submissions:   sqlxrepos.NewSubmissionRepository(db),
		Quizzes:       sqlxrepos.NewQuizRepository(db),
		Attempts:      sqlxrepos.NewAttemptRepository(db),
		Mentors:       sqlxrepos.NewMentorRepository(db),
		Bookings:      sqlxrepos.NewBookingRepository(db),
		Payments:      sqlxrepos.NewPaymentRepository(db),
		Subscriptions: sqlxrepos.NewSubscriptionRepository(db),
		Vouchers:      sqlxrepos.NewVoucherRepository(db),
		Scraped:       sqlxrepos.NewScrapedContentRepository(db),
	}
}

// OpenDB connects to postgres, creating the database and applying pending migrations when bootstrap is set.
func OpenDB(ctx context.Context, conf *core.Config, bootstrap bool) (*sqlx.DB, error) {
	if bootstrap {
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return nil, err
		}
	}

	db, err := database.Open(ctx, conf)
	if err != nil {
		return nil, err
	}

	if bootstrap {
		if err = database.Migrate(ctx, db, "up"); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return db, nil
}

// OpenRepositories returns in-memory repositories for the dummy engine, postgres ones otherwise.
// The returned *sqlx.DB is nil for the dummy engine.
func OpenRepositories(ctx context.Context, conf *core.Config, bootstrap bool) (Repositories, *sqlx.DB, error) {
	if conf.Database.Engine == DummyEngine {
		return NewDummyRepositories(dummydb.Open()), nil, nil
	}
	db, err := OpenDB(ctx, conf, bootstrap)
	if err != nil {
		return Repositories{}, nil, errors.Wrap(err, "setting up database")
	}
	return NewSQLRepositories(db), db, nil
}

func NewServices(conf *core.Config, logger core.Logger, validate *validator.Validate, repos Repositories, infra Infra) Services {
	usrSvc := user.NewService(repos.Users, infra.Mail, conf)
	articleSvc := article.NewService(repos.Articles)
	courseSvc := course.NewService(repos.Courses)
	eventSvc := event.NewService(repos.Events)
	oppSvc := opportunity.NewService(repos.Opportunities)
	lcSvc := learning.NewService(repos.Learning)
	chlSvc := challenge.NewService(repos.Challenges)
	mentorSvc := mentor.NewService(repos.Mentors)
	feedSvc := feed.NewService(lcSvc, oppSvc, infra.Cache, conf, logger)

	return Services{
		User:         usrSvc,
		Article:      articleSvc,
		Course:       courseSvc,
		Event:        eventSvc,
		Opportunity:  oppSvc,
		Learning:     lcSvc,
		Challenge:    chlSvc,
		Submission:   challenge.NewSubmissionService(repos.Submissions, chlSvc, usrSvc),
		Quiz:         quiz.NewService(repos.Quizzes, repos.Attempts, usrSvc),
		Attempt:      quiz.NewAttemptService(repos.Attempts),
		Mentor:       mentorSvc,
		Booking:      mentor.NewBookingService(repos.Bookings, mentorSvc, usrSvc, infra.Mail, logger),
		Payment:      payment.NewService(repos.Payments, repos.Subscriptions, repos.Vouchers, usrSvc, infra.Mail, conf, logger),
		Subscription: payment.NewSubscriptionService(repos.Subscriptions),
		Voucher:      payment.NewVoucherService(repos.Vouchers),
		Scrape:       scrape.NewService(repos.Scraped, infra.Invoker, lcSvc, oppSvc, feedSvc, validate, logger),
		Feed:         feedSvc,
		Media:        media.NewService(infra.Storage, usrSvc, conf),
		Site:         site.NewService(courseSvc, articleSvc, eventSvc, oppSvc),
	}
}

func NewEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

// NewCache falls back to a no-op cache when redis is not configured or unreachable.
func NewCache(ctx context.Context, conf *core.Config, logger core.Logger) (core.Cache, func()) {
	if conf.Redis.Addr == "" {
		return cachesvc.NewNopCache(), func() {}
	}
	rc, err := cachesvc.NewRedisCache(ctx, conf)
	if err != nil {
		logger.Error(fmt.Sprintf("redis unavailable, caching disabled: %v", err), err)
		return cachesvc.NewNopCache(), func() {}
	}
	return rc, func() { _ = rc.Close() }
}

func NewStorage(ctx context.Context, conf *core.Config) (core.ObjectStorage, func(), error) {
	if conf.Storage.Backend != "gcs" {
		return storagesvc.NewLocalStorage(conf), func() {}, nil
	}
	gcs, err := storagesvc.NewGCSStorage(ctx, conf)
	if err != nil {
		return nil, nil, errors.Wrap(err, "setting up storage")
	}
	return gcs, func() { _ = gcs.Close() }, nil
}

func NewTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

// NewValidator registers every custom validation and its english translation.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate, translator
}
