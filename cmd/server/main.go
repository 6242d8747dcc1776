package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/stjosephms/school-site-api/internal/handler"
	"github.com/stjosephms/school-site-api/internal/middleware"
	"github.com/stjosephms/school-site-api/internal/repository"
	"github.com/stjosephms/school-site-api/internal/service"
	"github.com/stjosephms/school-site-api/pkg/cache"
	"github.com/stjosephms/school-site-api/pkg/config"
	"github.com/stjosephms/school-site-api/pkg/database"
	"github.com/stjosephms/school-site-api/pkg/logger"
	corsmiddleware "github.com/stjosephms/school-site-api/pkg/middleware/cors"
	reqidmiddleware "github.com/stjosephms/school-site-api/pkg/middleware/requestid"
	"github.com/stjosephms/school-site-api/pkg/storage"
)

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	cacheRepo := repository.NewCacheRepository(nil)
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, page cache disabled", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient)
		}
	}
	defer cacheRepo.Close() //nolint:errcheck

	media, err := storage.NewMediaStore(cfg.Media.BaseDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare media directory", "error", err)
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	newsRepo := repository.NewNewsRepository(db)
	schoolInfoRepo := repository.NewSchoolInfoRepository(db)
	aboutRepo := repository.NewAboutRepository(db)
	contactRepo := repository.NewContactRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})
	categorySvc := service.NewCategoryService(categoryRepo, documentRepo, validate, logr)
	documentSvc := service.NewDocumentService(documentRepo, categoryRepo, media, metricsSvc, validate, logr, cfg.Media.MaxUploadBytes)
	newsSvc := service.NewNewsService(newsRepo, cacheRepo, cfg.Cache.HomeTTL, validate, logr)
	schoolSvc := service.NewSchoolInfoService(schoolInfoRepo, cacheRepo, cfg.Cache.InfoTTL, cfg.Site.SchoolName, validate, logr)
	aboutSvc := service.NewAboutService(aboutRepo, logr)
	contactSvc := service.NewContactService(contactRepo, validate, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	categoryHandler := handler.NewCategoryHandler(categorySvc)
	documentHandler := handler.NewDocumentHandler(documentSvc, media, cfg.Site.LoginPath)
	pageHandler := handler.NewPageHandler(categorySvc)
	newsHandler := handler.NewNewsHandler(newsSvc)
	schoolHandler := handler.NewSchoolHandler(schoolSvc)
	aboutHandler := handler.NewAboutHandler(aboutSvc)
	contactHandler := handler.NewContactHandler(contactSvc)
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
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Scrape)

	// The legacy site exposed each well-known category page at a fixed
	// top-level URL; keep those addresses working.
	for slug := range service.WellKnownCategories {
		r.GET("/"+slug, pageHandler.ShowNamed(slug))
	}

	api := r.Group("/api/v1")
	{
		api.POST("/auth/login", authHandler.Login)
		api.GET("/auth/me", middleware.JWT(authSvc), authHandler.Me)

		api.GET("/news", newsHandler.List)
		api.GET("/news/home", newsHandler.Home)
		api.GET("/news/:slug", newsHandler.Get)

		api.GET("/school-info", schoolHandler.Get)
		api.GET("/about/team", aboutHandler.Team)
		api.GET("/about/facilities", aboutHandler.Facilities)

		api.GET("/contact", contactHandler.Info)
		api.POST("/contact/messages", contactHandler.Submit)

		api.GET("/pages/:slug", pageHandler.Show)

		api.GET("/categories", categoryHandler.List)
		api.GET("/categories/:slug", categoryHandler.Get)

		api.GET("/documents/:slug", documentHandler.Get)
		api.GET("/documents/:slug/download", middleware.OptionalJWT(authSvc), documentHandler.Download)

		staff := api.Group("", middleware.JWT(authSvc), middleware.RequireStaff())
		{
			staff.POST("/news", newsHandler.Create)
			staff.PUT("/school-info", schoolHandler.Update)

			// Edit screens address records by id; only the back-office
			// needs the id to slug hop.
			staff.GET("/categories/id/:id", categoryHandler.RedirectByID)
			staff.GET("/documents/id/:id", documentHandler.RedirectByID)

			staff.GET("/documents", documentHandler.List)
			staff.POST("/documents", documentHandler.Create)
			staff.PUT("/documents/:slug", documentHandler.Update)
			staff.DELETE("/documents/:slug", documentHandler.Delete)

			staff.POST("/categories", categoryHandler.Create)
			staff.PUT("/categories/:slug", categoryHandler.Update)
			staff.DELETE("/categories/:slug", categoryHandler.Delete)

			staff.GET("/contact/messages", contactHandler.ListMessages)
			staff.PUT("/contact/messages/:id", contactHandler.UpdateMessageStatus)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server stopped", "error", err)
	}
}
