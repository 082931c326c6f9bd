package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/avoronov/harvest/internal/flagx"
	"github.com/avoronov/harvest/internal/timex"
)

// JSONConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "3s"
// or as integer nanoseconds. After parsing, set values are copied into the
// runtime Config.
type JSONConfig struct {
	DatabaseDSN    *string `json:"database_dsn"`
	CollectionName *string `json:"collection_name"`
	BlobPathPrefix *string `json:"blob_path_prefix"`

	S3RootUser     *string `json:"s3_root_user"`
	S3RootPassword *string `json:"s3_root_password"`
	S3Bucket       *string `json:"s3_bucket"`
	S3Region       *string `json:"s3_region"`
	S3BaseEndpoint *string `json:"s3_base_endpoint"`

	FileRules *struct {
		AllowedExtensions []string `json:"allowed_extensions"`
		BlockedExtensions []string `json:"blocked_extensions"`
		MaxFileSize       *int64   `json:"max_file_size"`
		MaxTotalSize      *int64   `json:"max_total_size"`
	} `json:"file_rules"`

	URLRules *struct {
		AllowedProtocols []string `json:"allowed_protocols"`
		BlockedDomains   []string `json:"blocked_domains"`
		AllowedDomains   []string `json:"allowed_domains"`
		MaxURLLength     *int     `json:"max_url_length"`
	} `json:"url_rules"`

	PageSize            *int            `json:"page_size"`
	AutoRefreshInterval *timex.Duration `json:"auto_refresh_interval"`
	ProcessingDelay     *timex.Duration `json:"processing_delay"`
}

// parseJSON overlays Config with values loaded from a JSON file.
//
// Lookup order for the JSON file path:
//  1. Command-line flags (-c or -config) via flagx.JSONConfigFlags().
//  2. If empty, no JSON is loaded and the function returns.
//
// Only fields present in the file override defaults; intended usage is
// defaults -> parseJSON -> parseFlags, where later stages override earlier
// ones.
func parseJSON(cfg *Config) error {
	jsonConfigFile := flagx.JSONConfigFlags()
	if jsonConfigFile == "" {
		return nil
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	return overlayJSON(cfg, data)
}

func overlayJSON(cfg *Config, data []byte) error {
	var jc JSONConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}

	setString(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setString(&cfg.CollectionName, jc.CollectionName)
	setString(&cfg.BlobPathPrefix, jc.BlobPathPrefix)
	setString(&cfg.S3RootUser, jc.S3RootUser)
	setString(&cfg.S3RootPassword, jc.S3RootPassword)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)

	if jc.FileRules != nil {
		if jc.FileRules.AllowedExtensions != nil {
			cfg.FileRules.AllowedExtensions = jc.FileRules.AllowedExtensions
		}
		if jc.FileRules.BlockedExtensions != nil {
			cfg.FileRules.BlockedExtensions = jc.FileRules.BlockedExtensions
		}
		if jc.FileRules.MaxFileSize != nil {
			cfg.FileRules.MaxFileSize = *jc.FileRules.MaxFileSize
		}
		if jc.FileRules.MaxTotalSize != nil {
			cfg.FileRules.MaxTotalSize = *jc.FileRules.MaxTotalSize
		}
	}

	if jc.URLRules != nil {
		if jc.URLRules.AllowedProtocols != nil {
			cfg.URLRules.AllowedProtocols = jc.URLRules.AllowedProtocols
		}
		if jc.URLRules.BlockedDomains != nil {
			cfg.URLRules.BlockedDomains = jc.URLRules.BlockedDomains
		}
		if jc.URLRules.AllowedDomains != nil {
			cfg.URLRules.AllowedDomains = jc.URLRules.AllowedDomains
		}
		if jc.URLRules.MaxURLLength != nil {
			cfg.URLRules.MaxURLLength = *jc.URLRules.MaxURLLength
		}
	}

	if jc.PageSize != nil {
		cfg.PageSize = *jc.PageSize
	}
	if jc.AutoRefreshInterval != nil {
		cfg.AutoRefreshInterval = jc.AutoRefreshInterval.Duration
	}
	if jc.ProcessingDelay != nil {
		cfg.ProcessingDelay = jc.ProcessingDelay.Duration
	}

	return nil
}
