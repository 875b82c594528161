package server

import (
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rusenback/webtopd/internal/model"
	"github.com/rusenback/webtopd/internal/storage"
)

const defaultLogLines = 100

// names end up as script arguments; a leading dash would read as a flag
var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

func checkName(field, name string) error {
	if name == "" {
		return badRequest("%s is required", field)
	}
	if !validName.MatchString(name) {
		return badRequest("invalid %s: %q", field, name)
	}
	return nil
}

func pathName(r *http.Request) (string, error) {
	name := mux.Vars(r)["name"]
	return name, checkName("name", name)
}

func queryName(r *http.Request, field string) (string, error) {
	name := r.URL.Query().Get(field)
	return name, checkName(field, name)
}

// decodeBody fills v from a JSON body. An empty body leaves v untouched.
func decodeBody(r *http.Request, v interface{}) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return badRequest("read body: %s", err)
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, v); err != nil {
		return badRequest("invalid body: %s", err)
	}

	return nil
}

func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) error {
	user, _, _ := r.BasicAuth()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	return s.page.Execute(w, map[string]interface{}{
		"Title":    "Webtop Management Dashboard",
		"Username": user,
	})
}

func (s *Server) SystemStats(w http.ResponseWriter, r *http.Request) error {
	return renderJSON(w, http.StatusOK, s.opts.Fleet.SystemStats(r.Context()))
}

func (s *Server) ContainerList(w http.ResponseWriter, r *http.Request) error {
	containers, err := s.opts.Fleet.Containers(r.Context())
	if err != nil {
		return errors.Wrap(err, "load registry")
	}

	if containers == nil {
		containers = []model.ContainerView{}
	}

	return renderJSON(w, http.StatusOK, map[string]interface{}{"containers": containers})
}

func (s *Server) ContainerCreate(w http.ResponseWriter, r *http.Request) error {
	cfg := model.DefaultContainerConfig()
	if err := decodeBody(r, &cfg); err != nil {
		return err
	}

	if err := checkName("name", cfg.Name); err != nil {
		return err
	}

	if cfg.Environment != "" && !validName.MatchString(cfg.Environment) {
		return badRequest("invalid environment: %q", cfg.Environment)
	}

	return renderJSON(w, http.StatusOK, s.opts.Lifecycle.Create(r.Context(), cfg))
}

func (s *Server) ContainerDelete(w http.ResponseWriter, r *http.Request) error {
	name, err := pathName(r)
	if err != nil {
		return err
	}

	return renderJSON(w, http.StatusOK, s.opts.Lifecycle.Delete(r.Context(), name))
}

func (s *Server) ContainerStart(w http.ResponseWriter, r *http.Request) error {
	name, err := pathName(r)
	if err != nil {
		return err
	}

	return renderJSON(w, http.StatusOK, s.opts.Lifecycle.Start(r.Context(), name))
}

func (s *Server) ContainerStop(w http.ResponseWriter, r *http.Request) error {
	name, err := pathName(r)
	if err != nil {
		return err
	}

	return renderJSON(w, http.StatusOK, s.opts.Lifecycle.Stop(r.Context(), name))
}

func (s *Server) ContainerRestart(w http.ResponseWriter, r *http.Request) error {
	name, err := pathName(r)
	if err != nil {
		return err
	}

	return renderJSON(w, http.StatusOK, s.opts.Lifecycle.Restart(r.Context(), name))
}

func (s *Server) ContainerLogs(w http.ResponseWriter, r *http.Request) error {
	name, err := pathName(r)
	if err != nil {
		return err
	}

	lines := defaultLogLines
	if v := r.URL.Query().Get("lines"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return badRequest("lines must be a non-negative integer")
		}
		lines = n
	}

	logs, err := s.opts.Lifecycle.Logs(r.Context(), name, lines)
	if err != nil {
		return renderJSON(w, http.StatusOK, errorBody(err))
	}

	return renderJSON(w, http.StatusOK, map[string]string{"logs": logs})
}

func (s *Server) ContainerProcesses(w http.ResponseWriter, r *http.Request) error {
	name, err := pathName(r)
	if err != nil {
		return err
	}

	procs, err := s.opts.Lifecycle.Processes(r.Context(), name)
	if err != nil {
		return renderJSON(w, http.StatusOK, errorBody(err))
	}

	if procs == nil {
		procs = []model.Process{}
	}

	return renderJSON(w, http.StatusOK, map[string]interface{}{"processes": procs})
}

func (s *Server) ContainerHistory(w http.ResponseWriter, r *http.Request) error {
	name, err := pathName(r)
	if err != nil {
		return err
	}

	tr, err := storage.ParseTimeRange(r.URL.Query().Get("range"))
	if err != nil {
		return badRequest("%s", err)
	}

	if s.opts.History == nil {
		return withStatus(http.StatusNotFound, errors.New("history is disabled"))
	}

	points, err := s.opts.History.Query(name, tr)
	if err != nil {
		return err
	}

	if points == nil {
		points = []model.HistoryPoint{}
	}

	return renderJSON(w, http.StatusOK, map[string]interface{}{
		"name":   name,
		"range":  tr.String(),
		"points": points,
	})
}

func (s *Server) BackupCreate(w http.ResponseWriter, r *http.Request) error {
	name, err := pathName(r)
	if err != nil {
		return err
	}

	cfg := model.DefaultBackupConfig()
	if err := decodeBody(r, &cfg); err != nil {
		return err
	}

	return renderJSON(w, http.StatusOK, s.opts.Lifecycle.Backup(r.Context(), name, cfg))
}

func (s *Server) BackupList(w http.ResponseWriter, r *http.Request) error {
	name, err := pathName(r)
	if err != nil {
		return err
	}

	backups, err := s.opts.Lifecycle.Backups(name)
	if err != nil {
		return err
	}

	if backups == nil {
		backups = []model.BackupInfo{}
	}

	return renderJSON(w, http.StatusOK, map[string]interface{}{"backups": backups})
}

func (s *Server) BackupRestore(w http.ResponseWriter, r *http.Request) error {
	name, err := pathName(r)
	if err != nil {
		return err
	}

	backup, err := queryName(r, "backup_name")
	if err != nil {
		return err
	}

	return renderJSON(w, http.StatusOK, s.opts.Lifecycle.Restore(r.Context(), name, backup))
}

func (s *Server) TemplateList(w http.ResponseWriter, r *http.Request) error {
	return renderJSON(w, http.StatusOK, s.opts.Lifecycle.Templates(r.Context()))
}

func (s *Server) TemplateSave(w http.ResponseWriter, r *http.Request) error {
	container, err := queryName(r, "container_name")
	if err != nil {
		return err
	}

	template, err := queryName(r, "template_name")
	if err != nil {
		return err
	}

	return renderJSON(w, http.StatusOK, s.opts.Lifecycle.SaveTemplate(r.Context(), container, template))
}

func (s *Server) TemplateCreate(w http.ResponseWriter, r *http.Request) error {
	template, err := pathName(r)
	if err != nil {
		return err
	}

	container, err := queryName(r, "container_name")
	if err != nil {
		return err
	}

	return renderJSON(w, http.StatusOK, s.opts.Lifecycle.CreateFromTemplate(r.Context(), template, container))
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) error {
	return renderJSON(w, http.StatusOK, s.opts.Lifecycle.Health(r.Context()))
}

func (s *Server) Performance(w http.ResponseWriter, r *http.Request) error {
	return renderJSON(w, http.StatusOK, s.opts.Lifecycle.Performance(r.Context()))
}

func (s *Server) Optimize(w http.ResponseWriter, r *http.Request) error {
	container := r.URL.Query().Get("container_name")
	if container != "" {
		if err := checkName("container_name", container); err != nil {
			return err
		}
	}

	return renderJSON(w, http.StatusOK, s.opts.Lifecycle.Optimize(r.Context(), container))
}
