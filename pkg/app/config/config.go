// Package config provides a go-simpler.org/env configuration table for
// the relay: listen address, data directory, logging, NIP-11 relay-info
// fields, and the policy Limits record, plus helpers for printing the
// current configuration.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"go-simpler.org/env"

	"github.com/nostrcore/relay/pkg/utils/chk"
	"github.com/nostrcore/relay/pkg/utils/log"
)

// C holds every configuration value loaded from the environment.
type C struct {
	AppName  string `env:"RELAY_APP_NAME" default:"relay"`
	DataDir  string `env:"RELAY_DATA_DIR" usage:"storage location for the event store"`
	Listen   string `env:"RELAY_LISTEN" default:"0.0.0.0" usage:"network listen address"`
	Port     int    `env:"RELAY_PORT" default:"3334" usage:"port to listen on"`
	LogLevel string `env:"RELAY_LOG_LEVEL" default:"info" usage:"debug level: fatal error warn info debug trace"`

	Name           string   `env:"RELAY_NAME" usage:"NIP-11 relay name"`
	Description    string   `env:"RELAY_DESCRIPTION" usage:"NIP-11 relay description"`
	Pubkey         string   `env:"RELAY_PUBKEY" usage:"NIP-11 operator pubkey"`
	Contact        string   `env:"RELAY_CONTACT" usage:"NIP-11 operator contact"`
	Icon           string   `env:"RELAY_ICON" usage:"NIP-11 icon URL"`
	Banner         string   `env:"RELAY_BANNER" usage:"NIP-11 banner URL"`
	PrivacyPolicy  string   `env:"RELAY_PRIVACY_POLICY" usage:"NIP-11 privacy policy URL"`
	TermsOfService string   `env:"RELAY_TERMS_OF_SERVICE" usage:"NIP-11 terms of service URL"`
	PostingPolicy  string   `env:"RELAY_POSTING_POLICY" usage:"NIP-11 posting policy URL"`
	RelayCountries []string `env:"RELAY_COUNTRIES" usage:"NIP-11 ISO 3166-1 alpha-2 country codes (comma separated)"`
	LanguageTags   []string `env:"RELAY_LANGUAGE_TAGS" usage:"NIP-11 IETF BCP-47 language tags (comma separated)"`
	SupportedNIPs  []int    `env:"RELAY_SUPPORTED_NIPS" default:"1,9,11" usage:"NIP-11 supported_nips (comma separated)"`

	Limits
}

// New loads configuration from the environment, applying defaults and
// resolving DataDir against the XDG cache directory when unset.
func New() (cfg *C, err error) {
	cfg = &C{Limits: DefaultLimits()}
	if err = env.Load(cfg, &env.Options{SliceSep: ","}); chk.E(err) {
		return
	}
	if cfg.DataDir == "" || strings.Contains(cfg.DataDir, "~") {
		cfg.DataDir = filepath.Join(xdg.CacheHome, cfg.AppName)
	}
	log.SetLogLevel(cfg.LogLevel)
	return
}

// HelpRequested reports whether the first CLI argument asks for help.
func HelpRequested() (help bool) {
	if len(os.Args) > 1 {
		switch strings.ToLower(os.Args[1]) {
		case "help", "-h", "--h", "-help", "--help", "?":
			help = true
		}
	}
	return
}

// GetEnv reports whether the first CLI argument is "env", requesting the
// current configuration be printed as KEY=value lines.
func GetEnv() (requested bool) {
	if len(os.Args) > 1 && strings.ToLower(os.Args[1]) == "env" {
		requested = true
	}
	return
}

// KV is a key/value pair.
type KV struct{ Key, Value string }

// KVSlice is a sortable slice of key/value pairs.
type KVSlice []KV

func (kv KVSlice) Len() int           { return len(kv) }
func (kv KVSlice) Less(i, j int) bool { return kv[i].Key < kv[j].Key }
func (kv KVSlice) Swap(i, j int)      { kv[i], kv[j] = kv[j], kv[i] }

// EnvKV extracts the env-tagged fields of cfg as key/value pairs.
func EnvKV(cfg any) (m KVSlice) {
	t := reflect.TypeOf(cfg)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Type.Kind() == reflect.Struct && f.Anonymous {
			m = append(m, EnvKV(reflect.ValueOf(cfg).Field(i).Interface())...)
			continue
		}
		k := f.Tag.Get("env")
		if k == "" {
			continue
		}
		v := reflect.ValueOf(cfg).Field(i).Interface()
		var val string
		switch x := v.(type) {
		case string:
			val = x
		case int:
			val = strconv.Itoa(x)
		case uint:
			val = strconv.FormatUint(uint64(x), 10)
		case uint64:
			val = strconv.FormatUint(x, 10)
		case bool:
			val = strconv.FormatBool(x)
		case []string:
			val = strings.Join(x, ",")
		case []int:
			parts := make([]string, len(x))
			for j, n := range x {
				parts[j] = strconv.Itoa(n)
			}
			val = strings.Join(parts, ",")
		}
		m = append(m, KV{k, val})
	}
	return
}

// PrintEnv writes cfg's environment variables, sorted by key, as
// KEY=value lines.
func PrintEnv(cfg *C, printer io.Writer) {
	kvs := EnvKV(*cfg)
	sort.Sort(kvs)
	for _, v := range kvs {
		_, _ = fmt.Fprintf(printer, "%s=%s\n", v.Key, v.Value)
	}
}

// PrintHelp writes the environment variable usage table and the current
// configuration to printer.
func PrintHelp(cfg *C, printer io.Writer) {
	_, _ = fmt.Fprintf(printer, "%s\n\n", cfg.AppName)
	_, _ = fmt.Fprintf(printer, "Environment variables that configure %s:\n\n", cfg.AppName)
	env.Usage(cfg, printer, &env.Options{SliceSep: ","})
	_, _ = fmt.Fprintf(printer, "\nuse the CLI argument 'env' to print the current configuration\n\n")
	_, _ = fmt.Fprintf(printer, "current configuration:\n\n")
	PrintEnv(cfg, printer)
	_, _ = fmt.Fprintln(printer)
}
