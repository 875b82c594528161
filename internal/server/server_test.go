package server_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/convox/logger"
	"github.com/gorilla/websocket"
	"github.com/rusenback/webtopd/internal/backup"
	"github.com/rusenback/webtopd/internal/docker"
	"github.com/rusenback/webtopd/internal/executor"
	"github.com/rusenback/webtopd/internal/fault"
	"github.com/rusenback/webtopd/internal/fleet"
	"github.com/rusenback/webtopd/internal/lifecycle"
	"github.com/rusenback/webtopd/internal/model"
	"github.com/rusenback/webtopd/internal/registry"
	"github.com/rusenback/webtopd/internal/server"
	"github.com/rusenback/webtopd/internal/stats"
	"github.com/rusenback/webtopd/internal/storage"
	"github.com/stretchr/testify/require"
)

const (
	testUser = "admin"
	testPass = "webtop123"
)

type fakeHost struct{}

func (fakeHost) CPUPercent(ctx context.Context) (float64, error)    { return 12.5, nil }
func (fakeHost) MemoryPercent(ctx context.Context) (float64, error) { return 40, nil }
func (fakeHost) DiskPercent(ctx context.Context, path string) (float64, error) {
	return 0, fmt.Errorf("no disk")
}

type fakeHistory struct {
	points []model.HistoryPoint
}

func (h *fakeHistory) Query(container string, tr storage.TimeRange) ([]model.HistoryPoint, error) {
	return h.points, nil
}

type harness struct {
	url      string
	runtime  *docker.MockRuntime
	runner   *executor.MockRunner
	registry *registry.Store
	backups  string
}

func (h *harness) request(t *testing.T, method, path, body string) (int, map[string]interface{}) {
	return h.requestAs(t, testUser, testPass, method, path, body)
}

func (h *harness) requestAs(t *testing.T, user, pass, method, path, body string) (int, map[string]interface{}) {
	req, err := http.NewRequest(method, h.url+path, strings.NewReader(body))
	require.NoError(t, err)
	if user != "" || pass != "" {
		req.SetBasicAuth(user, pass)
	}

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	var out map[string]interface{}
	if strings.HasPrefix(res.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(data, &out), string(data))
	}

	return res.StatusCode, out
}

func testServer(t *testing.T, history server.HistoryReader, fn func(h *harness)) {
	dir := t.TempDir()
	log := logger.NewWriter("ns=test", io.Discard)

	h := &harness{
		runtime:  &docker.MockRuntime{},
		runner:   &executor.MockRunner{},
		registry: &registry.Store{Path: filepath.Join(dir, ".container-registry.json")},
		backups:  filepath.Join(dir, "backups"),
	}

	catalog := &backup.Catalog{Dir: h.backups}

	srv, err := server.New(server.Options{
		Fleet: &fleet.Service{
			Registry: h.registry,
			Runtime:  h.runtime,
			Host:     fakeHost{},
			Aggregator: &stats.Aggregator{
				Source:  h.runtime,
				Prefix:  "webtop-",
				Workers: 2,
				Logger:  log,
			},
			Prefix: "webtop-",
			Logger: log,
		},
		Lifecycle: &lifecycle.Manager{
			Exec:     h.runner,
			Runtime:  h.runtime,
			Registry: h.registry,
			Catalog:  catalog,
			Cloud:    &backup.ScriptUploader{Exec: h.runner},
			Prefix:   "webtop-",
			Logger:   log,
		},
		History:  history,
		Interval: 20 * time.Millisecond,
		User:     testUser,
		Pass:     testPass,
		Logger:   log,
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv)
	defer ts.Close()

	h.url = ts.URL

	fn(h)

	h.runtime.AssertExpectations(t)
	h.runner.AssertExpectations(t)
}

func writeRegistry(t *testing.T, h *harness, data string) {
	require.NoError(t, os.WriteFile(h.registry.Path, []byte(data), 0644))
}

func raw(cpu, system uint64) *model.RawStats {
	return &model.RawStats{
		Status:      "running",
		CPUTotal:    cpu,
		SystemUsage: system,
		MemoryUsage: 512 * 1024 * 1024,
		MemoryLimit: 2048 * 1024 * 1024,
		NetworkRx:   100,
		NetworkTx:   200,
	}
}

func TestAuthRequired(t *testing.T) {
	testServer(t, nil, func(h *harness) {
		for _, path := range []string{"/", "/api/system/stats", "/api/containers", "/api/health", "/ws"} {
			code, body := h.requestAs(t, "", "", "GET", path, "")
			require.Equal(t, http.StatusUnauthorized, code, path)
			require.Equal(t, "Invalid credentials", body["detail"], path)

			code, _ = h.requestAs(t, testUser, "wrong", "GET", path, "")
			require.Equal(t, http.StatusUnauthorized, code, path)

			code, _ = h.requestAs(t, "root", testPass, "GET", path, "")
			require.Equal(t, http.StatusUnauthorized, code, path)
		}

		code, _ := h.requestAs(t, "", "", "POST", "/api/containers/a/stop", "")
		require.Equal(t, http.StatusUnauthorized, code)
	})
}

func TestAuthChallengeHeader(t *testing.T) {
	testServer(t, nil, func(h *harness) {
		res, err := http.Get(h.url + "/api/containers")
		require.NoError(t, err)
		res.Body.Close()

		require.Equal(t, http.StatusUnauthorized, res.StatusCode)
		require.Equal(t, "Basic", res.Header.Get("WWW-Authenticate"))
	})
}

func TestStaticUnauthenticated(t *testing.T) {
	testServer(t, nil, func(h *harness) {
		res, err := http.Get(h.url + "/static/js/dashboard.js")
		require.NoError(t, err)
		res.Body.Close()

		require.Equal(t, http.StatusOK, res.StatusCode)
	})
}

func TestDashboardPage(t *testing.T) {
	testServer(t, nil, func(h *harness) {
		req, _ := http.NewRequest("GET", h.url+"/", nil)
		req.SetBasicAuth(testUser, testPass)

		res, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer res.Body.Close()

		data, err := io.ReadAll(res.Body)
		require.NoError(t, err)

		require.Equal(t, http.StatusOK, res.StatusCode)
		require.Contains(t, string(data), "Webtop Management Dashboard")
		require.Contains(t, string(data), "/static/js/dashboard.js")
	})
}

func TestSystemStats(t *testing.T) {
	testServer(t, nil, func(h *harness) {
		h.runtime.On("ListContainers", "webtop-").Return([]model.Container{
			{Name: "webtop-a", State: "running"},
			{Name: "webtop-b", State: "exited"},
		}, nil)

		code, body := h.request(t, "GET", "/api/system/stats", "")
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, 12.5, body["cpu_usage"])
		require.Equal(t, 40.0, body["memory_usage"])
		require.Equal(t, 0.0, body["disk_usage"])
		require.Equal(t, 2.0, body["container_count"])
		require.Equal(t, 1.0, body["running_containers"])
	})
}

func TestContainerListPartialFailure(t *testing.T) {
	testServer(t, nil, func(h *harness) {
		writeRegistry(t, h, `{"b": {"name": "b", "profile": "gaming"}, "a": {"name": "a"}}`)

		h.runtime.On("ContainerStats", "webtop-b").Return(raw(500, 1000), nil)
		h.runtime.On("ContainerStats", "webtop-a").Return(nil, fault.Errorf(fault.KindRuntime, "No such container: webtop-a"))

		code, body := h.request(t, "GET", "/api/containers", "")
		require.Equal(t, http.StatusOK, code)

		list := body["containers"].([]interface{})
		require.Len(t, list, 2)

		first := list[0].(map[string]interface{})
		require.Equal(t, "b", first["name"])
		require.Equal(t, "gaming", first["config"].(map[string]interface{})["profile"])
		require.Equal(t, 50.0, first["stats"].(map[string]interface{})["cpu_percent"])
		require.Equal(t, 25.0, first["stats"].(map[string]interface{})["memory_percent"])

		second := list[1].(map[string]interface{})
		require.Equal(t, "a", second["name"])
		require.Equal(t, map[string]interface{}{
			"error":      "No such container: webtop-a",
			"error_kind": "runtime_lookup",
		}, second["stats"])
	})
}

func TestContainerListEmpty(t *testing.T) {
	testServer(t, nil, func(h *harness) {
		code, body := h.request(t, "GET", "/api/containers", "")
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, []interface{}{}, body["containers"])
	})
}

func TestContainerListUnreadableRegistry(t *testing.T) {
	testServer(t, nil, func(h *harness) {
		writeRegistry(t, h, `{not json`)

		code, body := h.request(t, "GET", "/api/containers", "")
		require.Equal(t, http.StatusInternalServerError, code)
		require.Contains(t, body["error"], "registry")
	})
}

func TestContainerCreate(t *testing.T) {
	testServer(t, nil, func(h *harness) {
		h.runner.On("Run", []string{"up", "--name", "dev1", "--production", "--auth"}).Return(model.CommandResult{Success: true, Stdout: "ok\n"})

		code, body := h.request(t, "POST", "/api/containers", `{"name":"dev1","environment":"production","enable_auth":true}`)
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, true, body["success"])
		require.Equal(t, "ok\n", body["stdout"])

		reg, err := h.registry.Load()
		require.NoError(t, err)

		raw, ok := reg.Raw("dev1")
		require.True(t, ok)

		var cfg model.ContainerConfig
		require.NoError(t, json.Unmarshal(raw, &cfg))
		require.Equal(t, "8g", cfg.MemoryLimit)
		require.Equal(t, "production", cfg.Environment)
	})
}

func TestContainerCreateInvalid(t *testing.T) {
	testServer(t, nil, func(h *harness) {
		for _, body := range []string{``, `{`, `{"name":""}`, `{"name":"--rm"}`, `{"name":"a b"}`, `{"name":"a","environment":"--x"}`} {
			code, res := h.request(t, "POST", "/api/containers", body)
			require.Equal(t, http.StatusUnprocessableEntity, code, body)
			require.Equal(t, "request", res["error_kind"], body)
		}
	})
}

func TestContainerLifecycleRoutes(t *testing.T) {
	testServer(t, nil, func(h *harness) {
		h.runner.On("Run", []string{"up", "--name", "a"}).Return(model.CommandResult{Success: true})
		h.runner.On("Run", []string{"remove", "a"}).Return(model.CommandResult{Success: false, Stderr: "no such container\n", ErrorKind: fault.KindExecutor})
		h.runtime.On("StopContainer", "webtop-a").Return(nil)
		h.runtime.On("RestartContainer", "webtop-a").Return(fault.Errorf(fault.KindTimeout, "restart timed out"))

		code, body := h.request(t, "POST", "/api/containers/a/start", "")
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, true, body["success"])

		code, body = h.request(t, "POST", "/api/containers/a/stop", "")
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, "Container a stopped", body["message"])

		code, body = h.request(t, "POST", "/api/containers/a/restart", "")
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, false, body["success"])
		require.Equal(t, "timeout", body["error_kind"])

		code, body = h.request(t, "DELETE", "/api/containers/a", "")
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, false, body["success"])
		require.Equal(t, "executor", body["error_kind"])
	})
}

func TestContainerLogs(t *testing.T) {
	testServer(t, nil, func(h *harness) {
		h.runtime.On("ContainerLogs", "webtop-a", 100).Return("default\n", nil)
		h.runtime.On("ContainerLogs", "webtop-a", 5).Return("five\n", nil)
		h.runtime.On("ContainerLogs", "webtop-gone", 100).Return("", fault.Errorf(fault.KindRuntime, "No such container: webtop-gone"))

		code, body := h.request(t, "GET", "/api/containers/a/logs", "")
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, "default\n", body["logs"])

		code, body = h.request(t, "GET", "/api/containers/a/logs?lines=5", "")
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, "five\n", body["logs"])

		code, body = h.request(t, "GET", "/api/containers/gone/logs", "")
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, "runtime_lookup", body["error_kind"])

		code, body = h.request(t, "GET", "/api/containers/a/logs?lines=ten", "")
		require.Equal(t, http.StatusUnprocessableEntity, code)
		require.Equal(t, "request", body["error_kind"])
	})
}

func TestContainerProcesses(t *testing.T) {
	testServer(t, nil, func(h *harness) {
		h.runtime.On("ContainerProcesses", "webtop-a").Return([]model.Process{{PID: "1", User: "root", Command: "/init"}}, nil)

		code, body := h.request(t, "GET", "/api/containers/a/processes", "")
		require.Equal(t, http.StatusOK, code)

		procs := body["processes"].([]interface{})
		require.Len(t, procs, 1)
		require.Equal(t, "/init", procs[0].(map[string]interface{})["command"])

		h.runtime.On("ContainerProcesses", "webtop-b").Return(nil, fmt.Errorf("top failed"))

		code, body = h.request(t, "GET", "/api/containers/b/processes", "")
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, "top failed", body["error"])
		require.NotContains(t, body, "error_kind")
	})
}

func TestContainerHistory(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	history := &fakeHistory{points: []model.HistoryPoint{{Timestamp: at, CPUPercent: 10, MemoryPercent: 20}}}

	testServer(t, history, func(h *harness) {
		code, body := h.request(t, "GET", "/api/containers/a/history?range=1hour", "")
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, "1hour", body["range"])
		require.Len(t, body["points"], 1)

		code, body = h.request(t, "GET", "/api/containers/a/history?range=1year", "")
		require.Equal(t, http.StatusUnprocessableEntity, code)
		require.Equal(t, "request", body["error_kind"])
	})
}

func TestContainerHistoryDisabled(t *testing.T) {
	testServer(t, nil, func(h *harness) {
		code, _ := h.request(t, "GET", "/api/containers/a/history", "")
		require.Equal(t, http.StatusNotFound, code)
	})
}

func TestBackupCreate(t *testing.T) {
	testServer(t, nil, func(h *harness) {
		h.runner.On("Run", []string{"backup", "a"}).Return(model.CommandResult{Success: true})
		h.runner.On("Run", []string{"backup-cloud", "a"}).Return(model.CommandResult{Success: true, Stdout: "uploaded\n"})
		h.runner.On("Run", []string{"backup", "b"}).Return(model.CommandResult{Success: false, ErrorKind: fault.KindExecutor})

		code, body := h.request(t, "POST", "/api/containers/a/backup", `{"backup_type":"full","cloud_storage":true}`)
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, true, body["success"])
		require.Equal(t, "uploaded\n", body["cloud_backup"].(map[string]interface{})["stdout"])

		code, body = h.request(t, "POST", "/api/containers/b/backup", `{"cloud_storage":true}`)
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, false, body["success"])
		require.NotContains(t, body, "cloud_backup")
	})
}

func TestBackupList(t *testing.T) {
	testServer(t, nil, func(h *harness) {
		code, body := h.request(t, "GET", "/api/containers/a/backups", "")
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, []interface{}{}, body["backups"])

		older := filepath.Join(h.backups, "a_20260101")
		newer := filepath.Join(h.backups, "a_20260201")
		other := filepath.Join(h.backups, "ab_20260301")
		for _, dir := range []string{older, newer, other} {
			require.NoError(t, os.MkdirAll(dir, 0755))
		}
		require.NoError(t, os.WriteFile(filepath.Join(newer, "home.tar"), make([]byte, 1024*1024), 0644))
		require.NoError(t, os.Chtimes(older, time.Now().Add(-48*time.Hour), time.Now().Add(-48*time.Hour)))
		require.NoError(t, os.Chtimes(newer, time.Now().Add(-time.Hour), time.Now().Add(-time.Hour)))

		code, body = h.request(t, "GET", "/api/containers/a/backups", "")
		require.Equal(t, http.StatusOK, code)

		list := body["backups"].([]interface{})
		require.Len(t, list, 2)
		require.Equal(t, "a_20260201", list[0].(map[string]interface{})["name"])
		require.Equal(t, 1.0, list[0].(map[string]interface{})["size_mb"])
		require.Equal(t, "a_20260101", list[1].(map[string]interface{})["name"])
	})
}

func TestBackupRestore(t *testing.T) {
	testServer(t, nil, func(h *harness) {
		h.runner.On("Run", []string{"restore", "a", "a_20260201"}).Return(model.CommandResult{Success: true})

		code, body := h.request(t, "POST", "/api/containers/a/restore?backup_name=a_20260201", "")
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, true, body["success"])

		code, body = h.request(t, "POST", "/api/containers/a/restore", "")
		require.Equal(t, http.StatusUnprocessableEntity, code)
		require.Contains(t, body["error"], "backup_name")
	})
}

func TestTemplatesAndMaintenance(t *testing.T) {
	testServer(t, nil, func(h *harness) {
		ok := model.CommandResult{Success: true}
		h.runner.On("Run", []string{"template", "list"}).Return(ok)
		h.runner.On("Run", []string{"template", "save", "a", "base"}).Return(ok)
		h.runner.On("Run", []string{"template", "create", "b", "base"}).Return(ok)
		h.runner.On("Run", []string{"health", "check"}).Return(ok)
		h.runner.On("Run", []string{"performance", "report"}).Return(ok)
		h.runner.On("Run", []string{"performance", "optimize", "container", "a"}).Return(ok)
		h.runner.On("Run", []string{"performance", "optimize", "auto"}).Return(ok)

		for _, r := range []struct{ method, path string }{
			{"GET", "/api/templates"},
			{"POST", "/api/templates?container_name=a&template_name=base"},
			{"POST", "/api/templates/base/create?container_name=b"},
			{"GET", "/api/health"},
			{"GET", "/api/performance"},
			{"POST", "/api/performance/optimize?container_name=a"},
			{"POST", "/api/performance/optimize"},
		} {
			code, body := h.request(t, r.method, r.path, "")
			require.Equal(t, http.StatusOK, code, r.path)
			require.Equal(t, true, body["success"], r.path)
		}

		code, _ := h.request(t, "POST", "/api/templates?container_name=a", "")
		require.Equal(t, http.StatusUnprocessableEntity, code)

		code, _ = h.request(t, "POST", "/api/templates/base/create", "")
		require.Equal(t, http.StatusUnprocessableEntity, code)
	})
}

func dial(t *testing.T, h *harness) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(h.url, "http") + "/ws"
	header := http.Header{}
	header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(testUser+":"+testPass)))

	conn, res, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, res.StatusCode)

	return conn
}

func TestStreamOrdering(t *testing.T) {
	testServer(t, nil, func(h *harness) {
		writeRegistry(t, h, `{"a": {"name": "a"}, "b": {"name": "b"}}`)

		h.runtime.On("ListContainers", "webtop-").Return([]model.Container{{Name: "webtop-a", State: "running"}}, nil)
		h.runtime.On("ContainerStats", "webtop-a").Return(raw(100, 400), nil)
		h.runtime.On("ContainerStats", "webtop-b").Return(nil, fault.Errorf(fault.KindRuntime, "No such container: webtop-b"))

		conn := dial(t, h)
		defer conn.Close()

		for tick := 0; tick < 2; tick++ {
			var env model.Envelope

			require.NoError(t, conn.ReadJSON(&env))
			require.Equal(t, model.MessageSystemStats, env.Type)

			var system model.SystemStats
			require.NoError(t, json.Unmarshal(env.Data, &system))
			require.Equal(t, 1, system.RunningContainers)

			require.NoError(t, conn.ReadJSON(&env))
			require.Equal(t, model.MessageContainerUpdates, env.Type)

			var updates []map[string]interface{}
			require.NoError(t, json.Unmarshal(env.Data, &updates))
			require.Len(t, updates, 2)
			require.Equal(t, "a", updates[0]["name"])
			require.Equal(t, 25.0, updates[0]["stats"].(map[string]interface{})["cpu_percent"])
			require.Equal(t, "b", updates[1]["name"])
			require.Equal(t, "runtime_lookup", updates[1]["stats"].(map[string]interface{})["error_kind"])
		}
	})
}

func TestStreamEmptyRegistry(t *testing.T) {
	testServer(t, nil, func(h *harness) {
		h.runtime.On("ListContainers", "webtop-").Return([]model.Container{}, nil)

		conn := dial(t, h)
		defer conn.Close()

		var env model.Envelope
		require.NoError(t, conn.ReadJSON(&env))
		require.Equal(t, model.MessageSystemStats, env.Type)

		require.NoError(t, conn.ReadJSON(&env))
		require.Equal(t, model.MessageContainerUpdates, env.Type)
		require.JSONEq(t, `[]`, string(env.Data))
	})
}

func TestStreamRequiresAuth(t *testing.T) {
	testServer(t, nil, func(h *harness) {
		url := "ws" + strings.TrimPrefix(h.url, "http") + "/ws"

		_, res, err := websocket.DefaultDialer.Dial(url, nil)
		require.Error(t, err)
		require.Equal(t, http.StatusUnauthorized, res.StatusCode)
	})
}
