package docker

import (
	"bytes"
	"strings"
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/stretchr/testify/require"
)

func TestConvertContainersKeepsPrefix(t *testing.T) {
	in := []types.Container{
		{ID: "0123456789abcdef", Names: []string{"/webtop-a"}, State: "running", Image: "webtop:latest"},
		{ID: "fedcba9876543210", Names: []string{"/other-webtop-b"}, State: "running"},
		{ID: "short", Names: []string{"/webtop-c"}, State: "exited"},
		{ID: "nonames"},
	}

	out := convertContainers(in, "webtop-")
	require.Len(t, out, 2)
	require.Equal(t, "0123456789ab", out[0].ID)
	require.Equal(t, "webtop-a", out[0].Name)
	require.True(t, out[0].Running())
	require.Equal(t, "short", out[1].ID)
	require.False(t, out[1].Running())
}

func TestDecodeStats(t *testing.T) {
	frame := `{
		"cpu_stats": {"cpu_usage": {"total_usage": 400}, "system_cpu_usage": 2000},
		"precpu_stats": {"cpu_usage": {"total_usage": 200}, "system_cpu_usage": 1000},
		"memory_stats": {"usage": 52428800, "limit": 104857600},
		"networks": {
			"eth0": {"rx_bytes": 100, "tx_bytes": 10},
			"eth1": {"rx_bytes": 5, "tx_bytes": 1}
		}
	}`

	raw, err := decodeStats(strings.NewReader(frame), "running")
	require.NoError(t, err)
	require.Equal(t, "running", raw.Status)
	require.Equal(t, uint64(400), raw.CPUTotal)
	require.Equal(t, uint64(200), raw.PreCPUTotal)
	require.Equal(t, uint64(2000), raw.SystemUsage)
	require.Equal(t, uint64(1000), raw.PreSystemUsage)
	require.Equal(t, uint64(52428800), raw.MemoryUsage)
	require.Equal(t, uint64(104857600), raw.MemoryLimit)
	require.Equal(t, uint64(105), raw.NetworkRx)
	require.Equal(t, uint64(11), raw.NetworkTx)
}

func TestDecodeStatsEmpty(t *testing.T) {
	raw, err := decodeStats(strings.NewReader(""), "exited")
	require.NoError(t, err)
	require.Equal(t, "exited", raw.Status)
	require.Zero(t, raw.MemoryLimit)
}

func TestDecodeStatsGarbage(t *testing.T) {
	_, err := decodeStats(strings.NewReader("{not json"), "running")
	require.Error(t, err)
}

func TestReadLogsDemux(t *testing.T) {
	var stream bytes.Buffer
	stdout := stdcopy.NewStdWriter(&stream, stdcopy.Stdout)
	stderr := stdcopy.NewStdWriter(&stream, stdcopy.Stderr)

	_, err := stdout.Write([]byte("plasma started\n"))
	require.NoError(t, err)
	_, err = stderr.Write([]byte("kwin warning\n"))
	require.NoError(t, err)

	logs, err := readLogs(&stream, false)
	require.NoError(t, err)
	require.Equal(t, "plasma started\nkwin warning\n", logs)
}

func TestReadLogsTTY(t *testing.T) {
	logs, err := readLogs(strings.NewReader("raw line\n"), true)
	require.NoError(t, err)
	require.Equal(t, "raw line\n", logs)
}

func TestParseTop(t *testing.T) {
	titles := []string{"USER", "PID", "%CPU", "%MEM", "VSZ", "COMMAND"}
	rows := [][]string{
		{"root", "1", "0.1", "0.5", "1000", "/init"},
		{"abc", "42", "3.0", "2.1", "5000", "plasmashell"},
		{"short"},
	}

	procs := parseTop(titles, rows, 10)
	require.Len(t, procs, 2)
	require.Equal(t, "42", procs[1].PID)
	require.Equal(t, "plasmashell", procs[1].Command)
	require.Equal(t, "3.0", procs[1].CPU)

	require.Len(t, parseTop(titles, rows, 1), 1)
	require.Empty(t, parseTop([]string{"X"}, rows, 10))
}
