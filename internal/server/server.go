// Package server is the dashboard's HTTP surface: JSON routes, the /ws push
// channel and the embedded dashboard page.
package server

import (
	"context"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/convox/logger"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rusenback/webtopd/internal/fleet"
	"github.com/rusenback/webtopd/internal/lifecycle"
	"github.com/rusenback/webtopd/internal/model"
	"github.com/rusenback/webtopd/internal/storage"
)

//go:embed web
var assets embed.FS

// HistoryReader answers history queries. Leave Options.History nil when
// history is disabled.
type HistoryReader interface {
	Query(container string, timeRange storage.TimeRange) ([]model.HistoryPoint, error)
}

// Options carries everything the handlers need. Nothing is global.
type Options struct {
	Fleet     *fleet.Service
	Lifecycle *lifecycle.Manager
	History   HistoryReader
	Interval  time.Duration
	User      string
	Pass      string
	Logger    *logger.Logger
}

type Server struct {
	opts   Options
	log    *logger.Logger
	page   *template.Template
	router *mux.Router
}

func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = logger.New("ns=webtopd")
	}

	page, err := template.ParseFS(assets, "web/templates/dashboard.html")
	if err != nil {
		return nil, errors.Wrap(err, "parse dashboard template")
	}

	s := &Server{
		opts: opts,
		log:  opts.Logger.At("server"),
		page: page,
	}
	s.router = s.routes()

	return s, nil
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()

	static, _ := fs.Sub(assets, "web/static")
	router.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.FS(static)))).Methods("GET")

	router.HandleFunc("/", s.api("dashboard", s.Dashboard)).Methods("GET")

	router.HandleFunc("/api/system/stats", s.api("system.stats", s.SystemStats)).Methods("GET")
	router.HandleFunc("/api/containers", s.api("container.list", s.ContainerList)).Methods("GET")
	router.HandleFunc("/api/containers", s.api("container.create", s.ContainerCreate)).Methods("POST")
	router.HandleFunc("/api/containers/{name}", s.api("container.delete", s.ContainerDelete)).Methods("DELETE")
	router.HandleFunc("/api/containers/{name}/start", s.api("container.start", s.ContainerStart)).Methods("POST")
	router.HandleFunc("/api/containers/{name}/stop", s.api("container.stop", s.ContainerStop)).Methods("POST")
	router.HandleFunc("/api/containers/{name}/restart", s.api("container.restart", s.ContainerRestart)).Methods("POST")
	router.HandleFunc("/api/containers/{name}/logs", s.api("container.logs", s.ContainerLogs)).Methods("GET")
	router.HandleFunc("/api/containers/{name}/processes", s.api("container.processes", s.ContainerProcesses)).Methods("GET")
	router.HandleFunc("/api/containers/{name}/history", s.api("container.history", s.ContainerHistory)).Methods("GET")
	router.HandleFunc("/api/containers/{name}/backup", s.api("backup.create", s.BackupCreate)).Methods("POST")
	router.HandleFunc("/api/containers/{name}/backups", s.api("backup.list", s.BackupList)).Methods("GET")
	router.HandleFunc("/api/containers/{name}/restore", s.api("backup.restore", s.BackupRestore)).Methods("POST")
	router.HandleFunc("/api/templates", s.api("template.list", s.TemplateList)).Methods("GET")
	router.HandleFunc("/api/templates", s.api("template.save", s.TemplateSave)).Methods("POST")
	router.HandleFunc("/api/templates/{name}/create", s.api("template.create", s.TemplateCreate)).Methods("POST")
	router.HandleFunc("/api/health", s.api("health", s.Health)).Methods("GET")
	router.HandleFunc("/api/performance", s.api("performance", s.Performance)).Methods("GET")
	router.HandleFunc("/api/performance/optimize", s.api("performance.optimize", s.Optimize)).Methods("POST")

	// websockets
	router.HandleFunc("/ws", s.api("stream", s.Stream)).Methods("GET")

	router.Use(s.requestLog)

	return router
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	s.log.Logf("state=listening addr=%s", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdown); err != nil {
		return err
	}

	if err := <-errc; err != http.ErrServerClosed {
		return err
	}

	return nil
}
