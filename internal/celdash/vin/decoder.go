// Package vin decodes vehicle identification numbers into year, make, type
// and engine through the NHTSA vPIC batch endpoint.
package vin

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/go-querystring/query"
	"github.com/samber/lo"

	"github.com/autopeer-io/celdash/internal/celdash/core/model"
	"github.com/autopeer-io/celdash/pkg/log"
)

const (
	DefaultBaseURL   = "https://vpic.nhtsa.dot.gov/api"
	DefaultBatchSize = 50

	batchPath = "/vehicles/DecodeVINValuesBatch/"
)

// Config configures a Decoder.
type Config struct {
	BaseURL   string
	BatchSize int
	Timeout   time.Duration
}

type batchRequest struct {
	Format string `url:"format"`
	Data   string `url:"data"`
}

type batchResponse struct {
	Count   int           `json:"Count"`
	Message string        `json:"Message"`
	Results []batchResult `json:"Results"`
}

type batchResult struct {
	VIN           string `json:"VIN"`
	ModelYear     string `json:"ModelYear"`
	Make          string `json:"Make"`
	VehicleType   string `json:"VehicleType"`
	EngineModel   string `json:"EngineModel"`
	DisplacementL string `json:"DisplacementL"`
}

func (r batchResult) info() model.DeviceInfo {
	engine := strings.TrimSpace(r.EngineModel)
	if engine == "" {
		if d := strings.TrimSpace(r.DisplacementL); d != "" {
			engine = d + "L"
		}
	}
	return model.DeviceInfo{
		Year:   orPlaceholder(r.ModelYear),
		Make:   orPlaceholder(r.Make),
		VType:  orPlaceholder(r.VehicleType),
		Engine: orPlaceholder(engine),
	}
}

func orPlaceholder(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return model.Placeholder
	}
	return s
}

// Decoder decodes VINs in batches and caches results for its lifetime.
type Decoder struct {
	client    *resty.Client
	batchSize int

	mu    sync.RWMutex
	cache map[string]model.DeviceInfo
}

// NewDecoder creates a Decoder.
func NewDecoder(cfg Config) *Decoder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Accept", "application/json")
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	return &Decoder{
		client:    client,
		batchSize: cfg.BatchSize,
		cache:     map[string]model.DeviceInfo{},
	}
}

func normalize(vin string) string {
	return strings.ToUpper(strings.TrimSpace(vin))
}

// Decode returns the decoded attributes keyed by normalised VIN. Cached
// VINs are not requested again. On error the VINs decoded so far are
// still returned.
func (d *Decoder) Decode(ctx context.Context, vins []string) (map[string]model.DeviceInfo, error) {
	wanted := lo.Uniq(lo.FilterMap(vins, func(v string, _ int) (string, bool) {
		v = normalize(v)
		return v, v != ""
	}))

	out := make(map[string]model.DeviceInfo, len(wanted))
	var missing []string

	d.mu.RLock()
	for _, v := range wanted {
		if info, ok := d.cache[v]; ok {
			out[v] = info
		} else {
			missing = append(missing, v)
		}
	}
	d.mu.RUnlock()

	for i, batch := range lo.Chunk(missing, d.batchSize) {
		decoded, err := d.decodeBatch(ctx, batch)
		if err != nil {
			return out, fmt.Errorf("failed to decode VIN batch %d: %w", i+1, err)
		}

		d.mu.Lock()
		for v, info := range decoded {
			d.cache[v] = info
			out[v] = info
		}
		d.mu.Unlock()
	}

	if len(missing) > 0 {
		log.Debug("VINs decoded", "requested", len(wanted), "fetched", len(missing))
	}
	return out, nil
}

func (d *Decoder) decodeBatch(ctx context.Context, vins []string) (map[string]model.DeviceInfo, error) {
	form, err := query.Values(batchRequest{Format: "json", Data: strings.Join(vins, ";")})
	if err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}

	var body batchResponse
	resp, err := d.client.R().
		SetContext(ctx).
		SetFormDataFromValues(form).
		SetResult(&body).
		Post(batchPath)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("unexpected status %s", resp.Status())
	}

	out := make(map[string]model.DeviceInfo, len(body.Results))
	for _, r := range body.Results {
		if v := normalize(r.VIN); v != "" {
			out[v] = r.info()
		}
	}
	return out, nil
}
