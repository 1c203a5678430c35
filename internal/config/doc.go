// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

/*
Package config loads server configuration with Koanf v2.

Sources are layered, later layers winning:

 1. Built-in defaults (defaultConfig)
 2. Optional YAML file: $CONFIG_PATH, ./config.yaml, ./config.yml,
    /etc/modelview/config.yaml
 3. Environment variables, through an explicit mapping table

Unmapped environment variables are ignored.

# Environment Variables

	HTTP_HOST, HTTP_PORT, HTTP_TIMEOUT, SHUTDOWN_TIMEOUT, ENVIRONMENT
	STORAGE_BACKEND (memory|badger), BADGER_PATH, BADGER_SYNC_WRITES,
	BADGER_GC_INTERVAL, BADGER_GC_DISCARD_RATIO
	WS_SEND_BUFFER, WS_BROADCAST_BUFFER, WS_MAX_MESSAGE_SIZE,
	WS_MESSAGE_RATE, WS_MESSAGE_BURST, WS_ALLOWED_ORIGINS
	CORS_ORIGINS, RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW,
	DISABLE_RATE_LIMIT, MAX_MODEL_BYTES
	LOG_LEVEL, LOG_FORMAT, LOG_CALLER

Comma-separated values are accepted for list settings (CORS_ORIGINS,
WS_ALLOWED_ORIGINS).

# Usage

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}
	logging.Init(cfg.Logging.ToLoggingConfig())
*/
package config
