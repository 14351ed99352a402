package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ebogdum/hotfs/config"
	"github.com/ebogdum/hotfs/internal/logutil"
)

// validateConfig validates the hotfs configuration and displays settings
func validateConfig(cmd *cobra.Command, args []string) error {
	fmt.Println("Validating configuration...")

	cfg, err := config.LoadConfigFromFile(configFilePath)
	if err != nil {
		fmt.Printf("Configuration validation failed: %v\n", err)
		return err
	}

	fmt.Println("Configuration is valid")
	fmt.Printf("Listen Address: %s\n", cfg.Server.ListenAddr)
	fmt.Printf("Metrics Address: %s\n", cfg.Metrics.ListenAddr)
	fmt.Printf("Default Scheme: %s\n", cfg.Backend.DefaultScheme)
	fmt.Printf("Local FS Root: %s\n", cfg.Backend.LocalFSRootPath)
	if cfg.Backend.MemoryEnabled {
		fmt.Println("Memory backend: enabled")
	}
	shares := make([]string, 0, len(cfg.Backend.SMBMounts))
	for share := range cfg.Backend.SMBMounts {
		shares = append(shares, share)
	}
	sort.Strings(shares)
	for _, share := range shares {
		fmt.Printf("SMB Share: //%s -> %s\n", share, cfg.Backend.SMBMounts[share])
	}
	if cfg.Backend.S3Enabled {
		fmt.Printf("S3 Bucket: %s\n", cfg.Backend.S3BucketName)
		fmt.Printf("S3 Region: %s\n", cfg.Backend.S3Region)
	}
	if cfg.Backend.SFTPEnabled {
		fmt.Printf("SFTP Key File: %s\n", cfg.Backend.SFTPKeyFile)
	}
	for _, hf := range cfg.Hotfolders {
		fmt.Printf("Hotfolder %s: %s every %s, settle %d\n",
			hf.ID, logutil.RedactString(hf.Folder), hf.Interval, hf.Settle)
	}

	return nil
}
