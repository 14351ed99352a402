package main

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ebogdum/hotfs/backends"
	"github.com/ebogdum/hotfs/backends/localfs"
	"github.com/ebogdum/hotfs/backends/memory"
	"github.com/ebogdum/hotfs/backends/noop"
	"github.com/ebogdum/hotfs/backends/s3"
	"github.com/ebogdum/hotfs/backends/sftp"
	"github.com/ebogdum/hotfs/backends/smb"
	"github.com/ebogdum/hotfs/config"
	"github.com/ebogdum/hotfs/core"
)

// buildRegistry creates every enabled backend and registers a noop
// placeholder for the known schemes that are disabled.
func buildRegistry(cfg config.BackendConfig, logger *zap.Logger) (*core.Registry, error) {
	var enabled []backends.Backend
	closeAll := func() {
		for _, b := range enabled {
			b.Close()
		}
	}

	logger.Info("Initializing LocalFS backend", zap.String("root_path", cfg.LocalFSRootPath))
	local, err := localfs.NewLocalFSAdapter(localfs.Options{Root: cfg.LocalFSRootPath}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LocalFS backend: %w", err)
	}
	enabled = append(enabled, local)

	if cfg.MemoryEnabled {
		logger.Info("Initializing in-memory backend")
		enabled = append(enabled, memory.New())
	} else {
		enabled = append(enabled, noop.NewNoopAdapter(memory.Scheme))
	}

	if len(cfg.SMBMounts) > 0 {
		logger.Info("Initializing SMB backend", zap.Int("shares", len(cfg.SMBMounts)))
		b, err := smb.New(cfg.SMBMounts, logger)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("failed to initialize SMB backend: %w", err)
		}
		enabled = append(enabled, b)
	} else {
		logger.Info("SMB backend disabled (no mounts configured)")
		enabled = append(enabled, noop.NewNoopAdapter(smb.Scheme))
	}

	if cfg.S3Enabled {
		logger.Info("Initializing S3 backend", zap.String("bucket", cfg.S3BucketName))
		b, err := s3.NewS3Adapter(cfg, logger)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("failed to initialize S3 backend: %w", err)
		}
		enabled = append(enabled, b)
	} else {
		logger.Info("S3 backend disabled")
		enabled = append(enabled, noop.NewNoopAdapter(s3.Scheme))
	}

	if cfg.SFTPEnabled {
		logger.Info("Initializing SFTP backend")
		b, err := sftp.NewAdapter(cfg, logger)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("failed to initialize SFTP backend: %w", err)
		}
		enabled = append(enabled, b)
	} else {
		logger.Info("SFTP backend disabled")
		enabled = append(enabled, noop.NewNoopAdapter(sftp.Scheme))
	}

	def := strings.ToLower(cfg.DefaultScheme)
	var defBackend backends.Backend
	for _, b := range enabled {
		if _, placeholder := b.(*noop.NoopAdapter); !placeholder && b.Scheme() == def {
			defBackend = b
		}
	}
	if defBackend == nil {
		closeAll()
		return nil, fmt.Errorf("%w: default scheme %q", backends.ErrUnsupportedScheme, cfg.DefaultScheme)
	}

	registry, err := core.NewRegistry(defBackend, logger)
	if err != nil {
		closeAll()
		return nil, err
	}
	for i, b := range enabled {
		if b == defBackend {
			continue
		}
		if err := registry.Register(b); err != nil {
			registry.Close()
			for _, rest := range enabled[i:] {
				if rest != defBackend {
					rest.Close()
				}
			}
			return nil, err
		}
	}

	logger.Info("Backends ready",
		zap.String("default_scheme", registry.DefaultScheme()),
		zap.Strings("schemes", registry.Schemes()))
	return registry, nil
}
