package config

import (
	"errors"
	"flag"
	"net"
	"regexp"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"
)

type Config struct {
	Addr        string
	DBUrl       string
	TokenSecret string
	TokenTTL    time.Duration
	Debug       bool

	// AuthorityForm names the export-authority document merged into every
	// composed schema. Empty name means no secondary document.
	AuthorityForm        string
	AuthorityFormVersion string

	// MaxCertificates is the fallback certificate cap for "multiple
	// application" certificate kinds without their own configured maximum.
	MaxCertificates int
}

func ParseFlags() (cfg Config, err error) {
	var host string
	flag.StringVar(&host, "host", "0.0.0.0", "listen host name (default 0.0.0.0)")
	var port uint
	flag.UintVar(&port, "port", 80, "listen port number (default 80)")
	flag.StringVar(&cfg.DBUrl, "db-url", "exportcert.sqlite", "path to SQLite3 DB file (default exportcert.sqlite)")
	flag.StringVar(&cfg.TokenSecret, "token-secret", "", "secret key for token encryption and decryption")
	var ttl uint
	flag.UintVar(&ttl, "token-ttl", 120, "token TTL in seconds (default 120)")
	flag.BoolVar(&cfg.Debug, "debug", false, "log at DEBUG level")
	flag.StringVar(&cfg.AuthorityForm, "authority-form", "", "name of the export-authority form (empty = none)")
	flag.StringVar(&cfg.AuthorityFormVersion, "authority-form-version", "1.0", "version of the export-authority form")
	flag.IntVar(&cfg.MaxCertificates, "max-certificates", 20, "default certificate cap per application (default 20)")
	flag.Parse()

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.TokenTTL = time.Duration(ttl) * time.Second

	if cfg.TokenSecret == "" {
		err = multierror.Append(err, errors.New("missing parameter -token-secret"))
	}
	if cfg.MaxCertificates < 1 {
		err = multierror.Append(err, errors.New("-max-certificates must be at least 1"))
	}

	return
}

// Authority returns the secondary document reference; ok is false when no
// export-authority form is configured.
func (cfg Config) Authority() (name, version string, ok bool) {
	return cfg.AuthorityForm, cfg.AuthorityFormVersion, cfg.AuthorityForm != ""
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}
