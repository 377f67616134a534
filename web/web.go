// Package web provides the web server for the pulmoscan portal: HTTP
// serving, routing, embedded templates and background job scheduling.
package web

import (
	"context"
	"embed"
	"html/template"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"pulmoscan/config"
	"pulmoscan/logger"
	"pulmoscan/storage"
	"pulmoscan/web/controller"
	"pulmoscan/web/job"
	"pulmoscan/web/middleware"
	"pulmoscan/web/service"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
)

//go:embed html/*
var htmlFS embed.FS

const placeholderImage = "xray-placeholder.jpg"

// Server is the portal web server with its stores, services, controllers
// and scheduled jobs.
type Server struct {
	httpServer *http.Server
	listener   net.Listener

	index  *controller.IndexController
	portal *controller.PortalController

	userStore    *storage.UserStore
	historyStore *storage.HistoryStore

	userService     *service.UserService
	analysisService *service.AnalysisService

	cron *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a new web server instance with a cancellable context.
func NewServer() *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{ctx: ctx, cancel: cancel}
}

// initServices builds the stores and services the controllers depend on.
func (s *Server) initServices() error {
	userStore, err := storage.NewUserStore(config.GetUsersFilePath())
	if err != nil {
		return err
	}
	s.userStore = userStore
	s.historyStore = storage.NewHistoryStore(config.GetHistoryFilePath())

	s.userService = service.NewUserService(s.userStore)
	s.analysisService = service.NewAnalysisService(
		config.GetUploadFolder(),
		config.GetDisplayFolder(),
		s.historyStore,
		service.SimulatedClassifier{},
	)
	return nil
}

// getHtmlTemplate parses the embedded HTML templates.
func (s *Server) getHtmlTemplate() (*template.Template, error) {
	return template.New("").ParseFS(htmlFS, "html/*.html")
}

// initRouter initializes Gin, registers middleware, templates and
// controllers and returns the configured engine.
func (s *Server) initRouter() (*gin.Engine, error) {
	if config.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.DefaultWriter = io.Discard
		gin.DefaultErrorWriter = io.Discard
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.Default()
	engine.MaxMultipartMemory = service.MaxUploadSize

	store := cookie.NewStore([]byte(config.GetSessionSecret()))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
	})
	engine.Use(sessions.Sessions(config.GetName(), store))

	engine.Use(gzip.Gzip(gzip.DefaultCompression))
	engine.Use(middleware.BodyLimitMiddleware(service.MaxUploadSize))
	engine.Use(middleware.RedirectMiddleware())

	tpl, err := s.getHtmlTemplate()
	if err != nil {
		return nil, err
	}
	engine.SetHTMLTemplate(tpl)

	g := engine.Group("/")
	s.index = controller.NewIndexController(g, s.userService)
	s.portal = controller.NewPortalController(g, s.analysisService, s.historyStore, config.GetDisplayFolder())

	engine.NoRoute(func(c *gin.Context) {
		c.AbortWithStatus(http.StatusNotFound)
	})

	return engine, nil
}

// startTask schedules the background maintenance jobs.
func (s *Server) startTask() {
	s.cron.AddJob("@daily", job.NewPruneDisplayJob(config.GetDisplayFolder(), s.historyStore))
}

// ensurePlaceholder writes a neutral display image used by pages before any
// upload exists.
func ensurePlaceholder(displayDir string) {
	path := filepath.Join(displayDir, placeholderImage)
	if _, err := os.Stat(path); err == nil {
		return
	}
	if err := os.MkdirAll(displayDir, 0o750); err != nil {
		logger.Warning("create display folder:", err)
		return
	}

	img := image.NewRGBA(image.Rect(0, 0, 400, 400))
	for y := 0; y < 400; y++ {
		for x := 0; x < 400; x++ {
			img.Set(x, y, color.RGBA{R: 0xf3, G: 0xf4, B: 0xf6, A: 0xff})
		}
	}
	out, err := os.Create(path)
	if err != nil {
		logger.Warning("create placeholder image:", err)
		return
	}
	defer out.Close()
	if err := jpeg.Encode(out, img, nil); err != nil {
		logger.Warning("encode placeholder image:", err)
		return
	}
	logger.Infof("created placeholder image at %s", path)
}

// Start initializes the stores, router and cron scheduler and begins
// serving.
func (s *Server) Start() (err error) {
	defer func() {
		if err != nil {
			_ = s.Stop()
		}
	}()

	if err = s.initServices(); err != nil {
		return err
	}
	ensurePlaceholder(config.GetDisplayFolder())

	s.cron = cron.New()
	s.cron.Start()
	s.startTask()

	engine, err := s.initRouter()
	if err != nil {
		return err
	}

	listenAddr := config.GetListen()
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}
	s.listener = listener

	s.httpServer = &http.Server{
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if serveErr := s.httpServer.Serve(s.listener); serveErr != nil && serveErr != http.ErrServerClosed {
			logger.Error("web server error:", serveErr)
		}
	}()

	logger.Infof("web server running on %s", listenAddr)
	return nil
}

// Stop shuts the server down and releases its resources.
func (s *Server) Stop() error {
	s.cancel()
	if s.cron != nil {
		s.cron.Stop()
	}

	var err error
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = s.httpServer.Shutdown(ctx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	return err
}
