package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof"

	echoapi "github.com/trezcool/elimu/apps/api/echo"
	"github.com/trezcool/elimu/apps/di"
	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/user"
	funcsvc "github.com/trezcool/elimu/services/functions"
	logsvc "github.com/trezcool/elimu/services/logger"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(logsvc.NewZapLogger(conf), conf)
	logger.Enable(!conf.Debug)
	defer logger.Sync()

	conf.Watch(logger)

	ctx := context.Background()

	// set up DB
	repos, db, err := di.OpenRepositories(ctx, conf, true /* bootstrap */)
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
	if db != nil {
		defer func() {
			if err := db.Close(); err != nil {
				logger.Error("failed to close database", err)
			}
		}()
	}

	// set up services
	cache, closeCache := di.NewCache(ctx, conf, logger)
	defer closeCache()

	store, closeStorage, err := di.NewStorage(ctx, conf)
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
	defer closeStorage()

	validate, translator := di.NewValidator()

	svcs := di.NewServices(conf, logger, validate, repos, di.Infra{
		Mail:    di.NewEmailService(conf, logger),
		Cache:   cache,
		Storage: store,
		Invoker: funcsvc.NewRestInvoker(conf),
	})

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	if err = core.ParseEmailTemplates(conf, logger); err != nil {
		logger.Fatal(err.Error(), err)
	}

	user.LoadCommonPasswords(logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:            conf,
			Logger:          logger,
			Validate:        validate,
			Translator:      translator,
			UserSvc:         svcs.User,
			ArticleSvc:      svcs.Article,
			CourseSvc:       svcs.Course,
			EventSvc:        svcs.Event,
			OpportunitySvc:  svcs.Opportunity,
			LearningSvc:     svcs.Learning,
			ChallengeSvc:    svcs.Challenge,
			SubmissionSvc:   svcs.Submission,
			QuizSvc:         svcs.Quiz,
			AttemptSvc:      svcs.Attempt,
			MentorSvc:       svcs.Mentor,
			BookingSvc:      svcs.Booking,
			PaymentSvc:      svcs.Payment,
			SubscriptionSvc: svcs.Subscription,
			VoucherSvc:      svcs.Voucher,
			ScrapeSvc:       svcs.Scrape,
			FeedSvc:         svcs.Feed,
			MediaSvc:        svcs.Media,
			SiteSvc:         svcs.Site,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(ctx, conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
