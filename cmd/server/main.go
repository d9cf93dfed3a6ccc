package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/generative-ai-go/genai"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"google.golang.org/api/option"

	_ "github.com/webandapp/institute-api/api/swagger"
	"github.com/webandapp/institute-api/internal/handler"
	"github.com/webandapp/institute-api/internal/middleware"
	"github.com/webandapp/institute-api/internal/models"
	"github.com/webandapp/institute-api/internal/repository"
	"github.com/webandapp/institute-api/internal/service"
	"github.com/webandapp/institute-api/internal/store"
	"github.com/webandapp/institute-api/pkg/cache"
	"github.com/webandapp/institute-api/pkg/config"
	"github.com/webandapp/institute-api/pkg/database"
	"github.com/webandapp/institute-api/pkg/kvstore"
	"github.com/webandapp/institute-api/pkg/logger"
	"github.com/webandapp/institute-api/pkg/mail"
	"github.com/webandapp/institute-api/pkg/media"
	corsmiddleware "github.com/webandapp/institute-api/pkg/middleware/cors"
	reqidmiddleware "github.com/webandapp/institute-api/pkg/middleware/requestid"
)

// @title Institute API
// @version 1.0.0
// @description School management backend over a keyed record store
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Record store backend. Redis doubles as the dashboard cache when
	// selected; memory is the zero-dependency default for development.
	var kv kvstore.KV
	var cacheRepo *repository.CacheRepository
	switch cfg.Store.Backend {
	case config.StoreBackendPostgres:
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect postgres", "error", err)
		}
		defer db.Close() //nolint:errcheck
		pg := kvstore.NewPostgres(db)
		if err := pg.Migrate(ctx); err != nil {
			logr.Sugar().Fatalw("failed to migrate kv table", "error", err)
		}
		kv = pg
	case config.StoreBackendRedis:
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect redis", "error", err)
		}
		kv = kvstore.NewRedis(client, cfg.Store.Namespace)
		cacheRepo = repository.NewCacheRepository(client, logr)
		defer cacheRepo.Close() //nolint:errcheck
	default:
		kv = kvstore.NewMemory()
	}

	metricsSvc := service.NewMetricsService()

	recordStore := store.New(kv, logr, cfg.Store.MaxRetries)
	recordStore.SetObserver(metricsSvc)

	userRepo := repository.NewUserRepository(recordStore)
	studentRepo := repository.NewStudentRepository(recordStore)
	teacherRepo := repository.NewTeacherRepository(recordStore)
	classRepo := repository.NewClassRepository(recordStore)
	subjectRepo := repository.NewSubjectRepository(recordStore)
	libraryRepo := repository.NewLibraryRepository(recordStore)
	hostelRepo := repository.NewHostelRepository(recordStore)
	transportRepo := repository.NewTransportRepository(recordStore)
	attendanceRepo := repository.NewAttendanceRepository(recordStore)
	noticeRepo := repository.NewNoticeRepository(recordStore)
	jobRepo := repository.NewJobRepository(recordStore)
	contactRepo := repository.NewContactRepository(recordStore)
	videoRepo := repository.NewVideoRepository(recordStore)

	validate := validator.New()

	photoStorage, err := media.NewStorage(cfg.Media.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init media storage", "error", err)
	}
	urlSigner := media.NewSigner(cfg.Media.SignedURLSecret, cfg.Media.SignedURLTTL)

	var mailer mail.Service
	if cfg.Mail.Provider == "sendgrid" && cfg.Mail.SendGridKey != "" {
		mailer = mail.NewSendGrid(cfg.Mail.SendGridKey, cfg.Mail.FromName, cfg.Mail.FromEmail)
	} else {
		mailer = mail.NewConsole(logr)
	}

	var assistantModel *genai.GenerativeModel
	if cfg.Assistant.Enabled && cfg.Assistant.APIKey != "" {
		client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.Assistant.APIKey))
		if err != nil {
			logr.Sugar().Fatalw("failed to init assistant client", "error", err)
		}
		defer client.Close() //nolint:errcheck
		assistantModel = client.GenerativeModel(cfg.Assistant.Model)
	}

	var cacheBackend service.CacheRepository
	if cacheRepo != nil {
		cacheBackend = cacheRepo
	}
	cacheSvc := service.NewCacheService(cacheBackend, metricsSvc, cfg.Dashboard.CacheTTL, logr, cacheRepo != nil)

	authSvc := service.NewAuthService(userRepo, studentRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		SchoolID:           cfg.Admin.SchoolID,
		AdminEmail:         cfg.Admin.Email,
		AdminPassword:      cfg.Admin.Password,
		AdminFullName:      "Administrator",
	})
	if err := authSvc.BootstrapAdmin(ctx); err != nil {
		logr.Sugar().Fatalw("failed to bootstrap admin account", "error", err)
	}

	feeSvc := service.NewFeeService(studentRepo, mailer, logr, service.FeeConfig{
		DefaultTotal: cfg.Fees.DefaultTotal,
		SeniorTotal:  cfg.Fees.SeniorTotal,
		Installments: cfg.Fees.Installments,
	})
	studentSvc := service.NewStudentService(studentRepo, feeSvc, photoStorage, validate, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, photoStorage, validate, logr)
	classSvc := service.NewClassService(classRepo, teacherRepo, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, validate, logr)
	librarySvc := service.NewLibraryService(libraryRepo, studentRepo, validate, logr)
	hostelSvc := service.NewHostelService(hostelRepo, studentRepo, validate, logr)
	transportSvc := service.NewTransportService(transportRepo, validate, logr)
	noticeSvc := service.NewNoticeService(noticeRepo, jobRepo, photoStorage, validate, logr)

	attendanceSvc, err := service.NewAttendanceService(attendanceRepo, studentRepo, logr, cfg.Attendance.LateAfter)
	if err != nil {
		logr.Sugar().Fatalw("invalid attendance config", "error", err)
	}

	assistantSvc := service.NewAssistantService(assistantModel, logr, assistantModel != nil)
	contactSvc := service.NewContactService(contactRepo, assistantSvc, mailer, validate, logr)
	recaptchaSvc := service.NewRecaptchaService(&http.Client{Timeout: 10 * time.Second}, logr, service.RecaptchaConfig{
		VerifyURL: cfg.Recaptcha.VerifyURL,
		APIKey:    cfg.Recaptcha.APIKey,
		ProjectID: cfg.Recaptcha.ProjectID,
		MinScore:  cfg.Recaptcha.MinScore,
	})

	videoSvc := service.NewVideoService(videoRepo, assistantSvc, &http.Client{Timeout: 30 * time.Second}, logr, service.VideoServiceConfig{
		OperationURL: cfg.Video.OperationURL,
		PollInterval: cfg.Video.PollInterval,
		PollTimeout:  cfg.Video.PollTimeout,
		Workers:      cfg.Video.Workers,
	})
	if cfg.Video.Enabled {
		videoSvc.Start(ctx)
		defer videoSvc.Stop()
	}

	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Students:   studentRepo,
		Teachers:   teacherRepo,
		Classes:    classRepo,
		Books:      libraryRepo,
		Rooms:      hostelRepo,
		Vehicles:   transportRepo,
		Notices:    noticeRepo,
		Attendance: attendanceSvc,
		Cache:      cacheSvc,
		Logger:     logr,
		CacheTTL:   cfg.Dashboard.CacheTTL,
	})

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userRepo)
	studentHandler := handler.NewStudentHandler(studentSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc)
	classHandler := handler.NewClassHandler(classSvc)
	subjectHandler := handler.NewSubjectHandler(subjectSvc)
	feeHandler := handler.NewFeeHandler(feeSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	libraryHandler := handler.NewLibraryHandler(librarySvc)
	hostelHandler := handler.NewHostelHandler(hostelSvc)
	transportHandler := handler.NewTransportHandler(transportSvc)
	noticeHandler := handler.NewNoticeHandler(noticeSvc)
	contactHandler := handler.NewContactHandler(contactSvc, recaptchaSvc)
	assistantHandler := handler.NewAssistantHandler(assistantSvc)
	videoHandler := handler.NewVideoHandler(videoSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc, metricsSvc)
	mediaHandler := handler.NewMediaHandler(photoStorage, urlSigner, cfg.Media.PublicBaseURL)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Scrape)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	// Public surface: login, the notice board, the public contact form and
	// the front-desk assistant.
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.GET("/notices", noticeHandler.ListNotices)
	api.GET("/jobs", noticeHandler.ListJobs)
	api.POST("/contact", middleware.OptionalJWT(authSvc), contactHandler.Submit)
	api.POST("/recaptcha", contactHandler.VerifyCaptcha)
	api.POST("/assistant/ask", assistantHandler.Ask)
	api.GET("/media/download", mediaHandler.Download)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	authed.POST("/auth/logout", authHandler.Logout)
	authed.GET("/auth/me", authHandler.Me)

	// A student may read their own record, fee ledger and attendance
	// status; everything else stays admin-only.
	self := authed.Group("")
	self.Use(middleware.RBAC(string(models.RoleAdmin), "SELF"))
	self.GET("/students/:id", studentHandler.Get)
	self.GET("/students/:id/fees", feeHandler.Summary)
	self.GET("/students/:id/fees/statement", feeHandler.Statement)
	self.GET("/attendance/students/:id", attendanceHandler.StudentStatus)

	admin := authed.Group("")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))

	admin.GET("/users", userHandler.List)

	admin.GET("/students", studentHandler.List)
	admin.POST("/students", studentHandler.Create)
	admin.PUT("/students/:id", studentHandler.Update)
	admin.PATCH("/students/:id/status", studentHandler.ChangeStatus)
	admin.DELETE("/students/:id", studentHandler.Delete)
	admin.GET("/students/:id/certificate", studentHandler.Certificate)

	admin.POST("/students/:id/fees/payments", feeHandler.RecordPayment)
	admin.POST("/students/:id/fees/installments/:installmentId/link", feeHandler.SendLink)

	admin.GET("/teachers", teacherHandler.List)
	admin.POST("/teachers", teacherHandler.Create)
	admin.PUT("/teachers/:id", teacherHandler.Update)
	admin.DELETE("/teachers/:id", teacherHandler.Delete)

	admin.GET("/classes", classHandler.List)
	admin.POST("/classes", classHandler.Create)
	admin.PUT("/classes/:id", classHandler.Update)
	admin.DELETE("/classes/:id", classHandler.Delete)

	admin.GET("/subjects", subjectHandler.List)
	admin.POST("/subjects", subjectHandler.Create)
	admin.PUT("/subjects/:id", subjectHandler.Update)
	admin.DELETE("/subjects/:id", subjectHandler.Delete)

	admin.POST("/attendance/events", attendanceHandler.Record)
	admin.GET("/attendance/register", attendanceHandler.Register)

	admin.GET("/library/books", libraryHandler.List)
	admin.POST("/library/books", libraryHandler.Create)
	admin.POST("/library/books/:id/issue", libraryHandler.Issue)
	admin.POST("/library/books/:id/return", libraryHandler.Return)
	admin.DELETE("/library/books/:id", libraryHandler.Delete)

	admin.GET("/hostel/rooms", hostelHandler.List)
	admin.POST("/hostel/rooms", hostelHandler.Create)
	admin.POST("/hostel/rooms/:id/occupants", hostelHandler.Assign)
	admin.DELETE("/hostel/rooms/:id/occupants/:studentId", hostelHandler.Vacate)
	admin.DELETE("/hostel/rooms/:id", hostelHandler.Delete)

	admin.GET("/transport/vehicles", transportHandler.List)
	admin.POST("/transport/vehicles", transportHandler.Create)
	admin.PUT("/transport/vehicles/:id", transportHandler.Update)
	admin.DELETE("/transport/vehicles/:id", transportHandler.Delete)

	admin.POST("/notices", noticeHandler.CreateNotice)
	admin.DELETE("/notices/:id", noticeHandler.DeleteNotice)
	admin.POST("/jobs", noticeHandler.CreateJob)
	admin.DELETE("/jobs/:id", noticeHandler.DeleteJob)

	admin.GET("/contact", contactHandler.List)
	admin.POST("/contact/:id/draft", contactHandler.DraftReply)
	admin.POST("/contact/:id/reply", contactHandler.Reply)

	admin.POST("/assistant/remove-background", assistantHandler.RemoveBackground)

	admin.GET("/videos", videoHandler.List)
	admin.GET("/videos/:id", videoHandler.Get)
	admin.POST("/videos", videoHandler.Generate)

	admin.POST("/media/sign", mediaHandler.Sign)

	if cfg.Dashboard.Enabled {
		admin.GET("/dashboard", dashboardHandler.Summary)
		admin.GET("/dashboard/system", dashboardHandler.System)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "store", cfg.Store.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
