package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
)

var knownFlags = []string{"-a", "-w", "-k", "-d", "-s", "-t", "-o", "-b", "-m", "-n", "-u", "-p", "-f", "-l", "-x"}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-w string   HTTP bind address (e.g., ":8080")
//	-k string   storage driver: postgres, sqlite or memory
//	-d string   database DSN (postgres URL or sqlite file path)
//	-s string   JWT HMAC secret key
//	-t int      session token validity, minutes
//	-o int      one-time code validity, minutes
//	-b int      bcrypt cost
//	-m string   SMTP host (empty: log mail instead of sending)
//	-n int      SMTP port
//	-u string   SMTP user
//	-p string   SMTP password
//	-f string   mail From address
//	-l string   log level
//	-x string   OTLP/HTTP endpoint
//
// args is filtered with flagx.FilterArgs first so -c/-config and flags owned
// by other components are ignored.
func parseFlags(config *Config, args []string) {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&config.EndpointAddrHTTP, "w", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.StorageDriver, "k", config.StorageDriver, "storage driver")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	sessionTTL := fs.Int("t", int(config.SessionTokenValidityDuration.Minutes()), "session token validity (in minutes)")
	oneTimeTTL := fs.Int("o", int(config.OneTimeTokenValidityDuration.Minutes()), "one-time code validity (in minutes)")

	fs.IntVar(&config.BcryptCost, "b", config.BcryptCost, "bcrypt cost")
	fs.StringVar(&config.SMTPHost, "m", config.SMTPHost, "SMTP host")
	fs.IntVar(&config.SMTPPort, "n", config.SMTPPort, "SMTP port")
	fs.StringVar(&config.SMTPUser, "u", config.SMTPUser, "SMTP user")
	fs.StringVar(&config.SMTPPassword, "p", config.SMTPPassword, "SMTP password")
	fs.StringVar(&config.MailFrom, "f", config.MailFrom, "mail From address")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.OTLPEndpoint, "x", config.OTLPEndpoint, "OTLP/HTTP endpoint")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		panic(err)
	}

	config.SessionTokenValidityDuration = time.Duration(*sessionTTL) * time.Minute
	config.OneTimeTokenValidityDuration = time.Duration(*oneTimeTTL) * time.Minute
}
