package main

import (
	"bytes"

	"github.com/tidwall/gjson"

	"github.com/wippyai/mlbridge/bridge"
	"github.com/wippyai/mlbridge/engine"
	"github.com/wippyai/mlbridge/errors"
	"github.com/wippyai/mlbridge/heap"
)

// Session modes.
const (
	modeWasm   = "wasm"
	modeDirect = "direct"
)

const defaultMemorySize = 1 << 20

// config selects how calls reach the exported functions and how the heap
// they run on is laid out.
type config struct {
	// mode is modeWasm to call through a generated guest on wazero, or
	// modeDirect to call on a heap in a plain byte slice.
	mode string

	heap heap.Config

	// capacity is the number of slots per root table.
	capacity int

	// pages is the guest's initial memory in modeWasm.
	pages uint32

	// memoryLimitPages caps guest memory in modeWasm. 0 means no cap.
	memoryLimitPages uint32

	// memorySize is the byte size of the heap memory in modeDirect.
	memorySize uint32
}

func defaultConfig() config {
	return config{
		mode:       modeWasm,
		capacity:   bridge.DefaultCapacity,
		pages:      engine.DefaultGuestPages,
		memorySize: defaultMemorySize,
	}
}

func configError(format string, args ...any) error {
	return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
		Detail(format, args...).
		Build()
}

func parseConfig(data []byte) (config, error) {
	cfg := defaultConfig()

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return cfg, nil
	}

	if !gjson.ValidBytes(data) {
		return cfg, configError("invalid json: %q", data)
	}

	jsonData := gjson.ParseBytes(data)

	if mode := jsonData.Get("mode"); mode.Exists() {
		switch mode.String() {
		case modeWasm, modeDirect:
			cfg.mode = mode.String()
		default:
			return cfg, configError("unknown mode %q", mode.String())
		}
	}

	var err error
	uint32Field := func(path string, dst *uint32) {
		v := jsonData.Get(path)
		if err != nil || !v.Exists() {
			return
		}
		if v.Type != gjson.Number || v.Int() < 0 || v.Int() > int64(^uint32(0)) {
			err = configError("%s: want a non-negative 32-bit integer, got %s", path, v.Raw)
			return
		}
		*dst = uint32(v.Int())
	}
	uint32Field("heap.base", &cfg.heap.Base)
	uint32Field("heap.size", &cfg.heap.Size)
	uint32Field("heap.root_area", &cfg.heap.RootArea)
	uint32Field("heap.external_area", &cfg.heap.ExternalArea)
	uint32Field("pages", &cfg.pages)
	uint32Field("memory_limit_pages", &cfg.memoryLimitPages)
	uint32Field("memory_size", &cfg.memorySize)
	if err != nil {
		return cfg, err
	}

	if v := jsonData.Get("heap.collect_every"); v.Exists() {
		if v.Type != gjson.Number || v.Int() < 0 {
			return cfg, configError("heap.collect_every: want a non-negative integer, got %s", v.Raw)
		}
		cfg.heap.CollectEvery = int(v.Int())
	}

	if v := jsonData.Get("capacity"); v.Exists() {
		c := v.Int()
		if v.Type != gjson.Number || c < 1 || c > bridge.MaxCapacity {
			return cfg, configError("capacity: want 1..%d, got %s", bridge.MaxCapacity, v.Raw)
		}
		cfg.capacity = int(c)
	}

	if cfg.memoryLimitPages > 0 && cfg.pages > cfg.memoryLimitPages {
		return cfg, configError("pages %d exceed memory_limit_pages %d", cfg.pages, cfg.memoryLimitPages)
	}
	return cfg, nil
}

func (c config) engineConfig() *engine.Config {
	return &engine.Config{
		MemoryLimitPages: c.memoryLimitPages,
		GuestPages:       c.pages,
		Heap:             c.heap,
		Capacity:         c.capacity,
	}
}
