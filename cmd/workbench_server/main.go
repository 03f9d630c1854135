package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/carlmjohnson/versioninfo"
	"github.com/gorilla/sessions"
	"github.com/joho/godotenv"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	slogecho "github.com/samber/slog-echo"
	"github.com/urfave/cli/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	servicenow "github.com/uwbench/servicenow-uw-golang"
	"github.com/uwbench/servicenow-uw-golang/internal/config"
	"github.com/uwbench/servicenow-uw-golang/internal/helpers"
)

func main() {
	app := &cli.App{
		Name:    "workbench-server",
		Usage:   "underwriter assistant workbench server",
		Version: versioninfo.Short(),
		Action:  run,
	}

	app.RunAndExitOnError()
}

type WorkbenchServer struct {
	httpd *http.Server
	db    *gorm.DB
	cfg   *config.Config
	h     *http.Client
}

func run(cmd *cli.Context) error {
	// a missing .env is fine, the environment may be set directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	cookieSecret := cfg.CookieSecret
	if cookieSecret == "" {
		cookieSecret, err = helpers.GenerateToken(32)
		if err != nil {
			return err
		}
		slog.Warn("WORKBENCH_COOKIE_SECRET not set, sessions will not survive a restart")
	}

	db, err := gorm.Open(sqlite.Open(cfg.DbName), &gorm.Config{})
	if err != nil {
		return err
	}

	if err := db.AutoMigrate(&PendingAuth{}, &Connection{}); err != nil {
		return err
	}

	e := echo.New()
	e.Use(slogecho.New(slog.Default()))
	e.Use(session.Middleware(sessions.NewCookieStore([]byte(cookieSecret))))

	s := &WorkbenchServer{
		httpd: &http.Server{
			Addr:    cfg.Addr,
			Handler: e,
		},
		db:  db,
		cfg: cfg,
		h: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	e.GET("/connect", s.handleConnect)
	e.GET("/callback", s.handleCallback)
	e.POST("/disconnect", s.handleDisconnect)
	e.GET("/api/status", s.handleStatus)

	e.POST("/api/servicenow-oauth", s.handleOauthRelay)
	e.Any("/api/servicenow-api", s.handleApiRelay)

	e.GET("/api/dashboard", s.handleDashboard)
	e.GET("/api/submissions", s.handleSubmissions)
	e.POST("/api/submissions", s.handleCreateSubmission)
	e.GET("/api/submissions/:sysId/bundle", s.handleBundle)
	e.POST("/api/submissions/:sysId/notes", s.handleCreateNote)
	e.POST("/api/submissions/:sysId/messages", s.handleCreateMessage)
	e.PATCH("/api/tasks/:sysId", s.handleUpdateTask)

	fmt.Printf("workbench server %s listening on %s\n", versioninfo.Short(), cfg.Addr)

	if err := s.httpd.ListenAndServe(); err != nil {
		return err
	}

	return nil
}

// clientForSession builds a servicenow client whose token and state stores
// are scoped to one browser session, the server-side analogue of the SPA's
// sessionStorage.
func (s *WorkbenchServer) clientForSession(sid string) (*servicenow.Client, error) {
	return servicenow.NewClient(servicenow.ClientArgs{
		H:            s.h,
		InstanceUrl:  s.cfg.InstanceUrl,
		ClientId:     s.cfg.ClientId,
		ClientSecret: s.cfg.ClientSecret,
		RedirectUri:  s.cfg.RedirectUri,
		AppPrefix:    s.cfg.AppPrefix,
		RelayBase:    s.cfg.RelayBase,
		Tokens:       &dbTokenStore{db: s.db, sid: sid},
		States:       &dbStateStore{db: s.db, sid: sid},
	})
}
