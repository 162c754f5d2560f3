package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

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
)

type (
	// ServerDeps holds everything the API needs; every service is required.
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator

		UserSvc         *user.Service
		ArticleSvc      *article.Service
		CourseSvc       *course.Service
		EventSvc        *event.Service
		OpportunitySvc  *opportunity.Service
		LearningSvc     *learning.Service
		ChallengeSvc    *challenge.Service
		SubmissionSvc   *challenge.SubmissionService
		QuizSvc         *quiz.Service
		AttemptSvc      *quiz.AttemptService
		MentorSvc       *mentor.Service
		BookingSvc      *mentor.BookingService
		PaymentSvc      *payment.Service
		SubscriptionSvc *payment.SubscriptionService
		VoucherSvc      *payment.VoucherService
		ScrapeSvc       *scrape.Service
		FeedSvc         *feed.Service
		MediaSvc        *media.Service
		SiteSvc         *site.Service
	}

	Server interface {
		http.Handler
		Start()
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
		Shutdown(context.Context) error
		Close() error
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		auth     *authenticator
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		auth:     newAuthenticator(deps.Conf, deps.UserSvc),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	if len(conf.Server.AllowedOrigins) > 0 {
		s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: conf.Server.AllowedOrigins}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	// marketing site
	s.app.GET("/", home)
	registerSiteAPI(s.app.Group("/api/site"), s.deps.SiteSvc)
	if conf.Storage.Backend != "gcs" {
		dir := conf.Storage.LocalDir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(conf.WorkDir, dir)
		}
		s.app.Static("/media", dir)
	}

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(s.auth.jwtConfig)
	admin := v1.Group("/admin", jwt, adminMiddleware())

	registerUserAPI(v1, admin, jwt, s.auth, s.deps)
	registerCatalogAPI(v1.Group("/catalog"), s.deps)
	registerGamificationAPI(v1, jwt, s.auth, s.deps)
	registerMentorshipAPI(v1, jwt, s.auth, s.deps)
	registerPaymentAPI(v1, jwt, s.auth, s.deps)
	registerFeedAPI(v1.Group("/feed", jwt), s.auth, s.deps.FeedSvc)
	registerMediaAPI(v1, jwt, admin, s.auth, s.deps)
	registerScrapeAPI(admin, s.deps)
	registerManagers(admin, s.deps)
}

func (s *server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *server) Errors() <-chan error { return s.errors }

func (s *server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Elimu!")
}
