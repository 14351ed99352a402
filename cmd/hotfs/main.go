package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hotfs",
	Short: "hotfs - hotfolders over local and remote file systems",
	Long: `hotfs resolves file URIs across local, SMB, S3, SFTP and in-memory
backends and watches hotfolders, reporting files once they stop changing.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the hotfolders and the admin API",
	RunE:  runServe,
}

var listCmd = &cobra.Command{
	Use:   "list <uri>",
	Short: "List a folder through the configured backends",
	Args:  cobra.ExactArgs(1),
	RunE:  runList,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long:  "Validate the hotfs configuration and display the loaded settings",
	RunE:  validateConfig,
}

var (
	configFilePath string

	listRecursive bool
	listSort      string
	listDesc      bool
	listAll       bool
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&configFilePath, "config", "c", "", "Path to configuration file")

	listCmd.Flags().BoolVarP(&listRecursive, "recursive", "r", false, "Descend into subdirectories")
	listCmd.Flags().StringVar(&listSort, "sort", "name", "Sort key: name, modified or depth")
	listCmd.Flags().BoolVar(&listDesc, "desc", false, "Sort descending")
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "Include hidden entries")

	configCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(serveCmd, listCmd, configCmd)

	// If no command specified, default to serve
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}
