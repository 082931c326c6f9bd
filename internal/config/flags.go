package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/avoronov/harvest/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   PostgreSQL DSN
//	-n string   collection name
//	-x string   blob path prefix
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-P string   comma-separated allowed URL protocols
//	-i int      auto-refresh interval, seconds (0 disables)
//	-s int      page size
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes
//     using flagx.FilterArgs, avoiding collisions with other packages.
//   - The interval flag is accepted as an integer in seconds and then
//     converted to a time.Duration.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-n", "-x", "-u", "-p", "-b", "-g", "-e", "-P", "-i", "-s"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.CollectionName, "n", config.CollectionName, "collection name")
	fs.StringVar(&config.BlobPathPrefix, "x", config.BlobPathPrefix, "blob path prefix")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	protocols := fs.String("P", strings.Join(config.URLRules.AllowedProtocols, ","), "allowed URL protocols, comma-separated")
	autoRefreshInterval := fs.Int("i", int(config.AutoRefreshInterval.Seconds()), "auto-refresh interval (in seconds, 0 disables)")
	fs.IntVar(&config.PageSize, "s", config.PageSize, "query page size")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	if *protocols != "" {
		config.URLRules.AllowedProtocols = strings.Split(*protocols, ",")
	}
	config.AutoRefreshInterval = time.Duration(*autoRefreshInterval) * time.Second
}
