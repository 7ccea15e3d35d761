package main

import (
	"fmt"

	"github.com/GEJFY/llmgateway/internal/config"
	"github.com/GEJFY/llmgateway/internal/gateway"
	"github.com/GEJFY/llmgateway/internal/llm/registry"
	applogger "github.com/GEJFY/llmgateway/internal/logger"
	"github.com/GEJFY/llmgateway/internal/metrics"
	"github.com/GEJFY/llmgateway/internal/wiring"
	"go.uber.org/zap"
)

// buildGateway loads configuration and wires up a gateway ready to serve,
// mirroring the teacher's runServe load-then-construct sequence.
func buildGateway() (*gateway.Gateway, *registry.Registry, *zap.Logger, error) {
	log := sharedLogger()

	var cfg *config.Config
	var err error
	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
		log.Warn("no config file specified, using defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, fmt.Errorf("config validation failed: %w", err)
	}

	reg := metrics.NewRegistry()
	gw, driverReg, err := wiring.Build(cfg, reg, log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("building gateway: %w", err)
	}
	return gw, driverReg, log, nil
}

var cachedLogger *zap.Logger

func sharedLogger() *zap.Logger {
	if cachedLogger == nil {
		cachedLogger = applogger.Must(debug)
	}
	return cachedLogger
}
