package vin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/celdash/internal/celdash/core/model"
)

type vpicServer struct {
	mu      sync.Mutex
	batches [][]string
	fail    bool
}

func (s *vpicServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != batchPath || r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if s.fail {
		http.Error(w, "down", http.StatusServiceUnavailable)
		return
	}
	_ = r.ParseForm()
	vins := strings.Split(r.PostForm.Get("data"), ";")

	s.mu.Lock()
	s.batches = append(s.batches, vins)
	s.mu.Unlock()

	var results []map[string]string
	for _, v := range vins {
		res := map[string]string{"VIN": v, "ModelYear": "2019", "Make": "FORD", "VehicleType": "TRUCK"}
		if strings.HasSuffix(v, "1") {
			res["EngineModel"] = "Coyote"
		} else {
			res["DisplacementL"] = "3.5"
		}
		results = append(results, res)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"Count":   len(results),
		"Message": "Results returned successfully",
		"Results": results,
		"format":  r.PostForm.Get("format"),
	})
}

func TestDecoder_Decode(t *testing.T) {
	srv := &vpicServer{}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	d := NewDecoder(Config{BaseURL: ts.URL, BatchSize: 2})

	got, err := d.Decode(context.Background(), []string{"vin1", " VIN2 ", "VIN3", "VIN1", ""})
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, model.DeviceInfo{Year: "2019", Make: "FORD", VType: "TRUCK", Engine: "Coyote"}, got["VIN1"])
	assert.Equal(t, "3.5L", got["VIN2"].Engine)
	assert.Equal(t, [][]string{{"VIN1", "VIN2"}, {"VIN3"}}, srv.batches)

	again, err := d.Decode(context.Background(), []string{"VIN3"})
	require.NoError(t, err)
	assert.Equal(t, got["VIN3"], again["VIN3"])
	assert.Len(t, srv.batches, 2, "cached VINs are not requested again")
}

func TestDecoder_Error(t *testing.T) {
	srv := &vpicServer{fail: true}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	got, err := NewDecoder(Config{BaseURL: ts.URL}).Decode(context.Background(), []string{"VIN1"})
	assert.Error(t, err)
	assert.Empty(t, got)
}

func TestBatchResult_Info(t *testing.T) {
	assert.Equal(t, model.DeviceInfo{Year: "--", Make: "--", VType: "--", Engine: "--"}, batchResult{}.info())
}
