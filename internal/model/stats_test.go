package model_test

import (
	"encoding/json"
	"testing"

	"github.com/rusenback/webtopd/internal/fault"
	"github.com/rusenback/webtopd/internal/model"
	"github.com/stretchr/testify/require"
)

func TestContainerStatsFailedJSON(t *testing.T) {
	s := model.ContainerStats{Error: "No such container: webtop-b", ErrorKind: fault.KindRuntime}

	data, err := json.Marshal(s)
	require.NoError(t, err)
	require.JSONEq(t, `{"error":"No such container: webtop-b","error_kind":"runtime_lookup"}`, string(data))
}

func TestContainerStatsJSON(t *testing.T) {
	s := model.ContainerStats{
		Status:        "running",
		CPUPercent:    12.5,
		MemoryPercent: 50,
		MemoryUsageMB: 50,
		MemoryLimitMB: 100,
		NetworkRx:     10,
		NetworkTx:     20,
	}

	data, err := json.Marshal(s)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"status": "running",
		"cpu_percent": 12.5,
		"memory_percent": 50,
		"memory_usage_mb": 50,
		"memory_limit_mb": 100,
		"network_rx_bytes": 10,
		"network_tx_bytes": 20
	}`, string(data))
}

func TestContainerUpdatesMessageNeverNull(t *testing.T) {
	data, err := json.Marshal(model.ContainerUpdatesMessage(nil))
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"container_updates","data":[]}`, string(data))
}

func TestFailure(t *testing.T) {
	r := model.Failure(fault.Errorf(fault.KindTimeout, "Command timed out"))
	require.False(t, r.Success)
	require.Equal(t, "Command timed out", r.Error)
	require.Equal(t, fault.KindTimeout, r.ErrorKind)
}
