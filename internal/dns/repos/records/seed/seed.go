// Package seed imports records into a record store from YAML, JSON or TOML
// files. A seed file maps each zone-local hostname to a single record:
//
//	printer:
//	  A: 192.168.1.50
//	nas:
//	  AAAA: "fd00::10"
//	www:
//	  CNAME: nas.home.ne.jp
package seed

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/multierr"

	"github.com/haukened/homedns/internal/dns/common/log"
	"github.com/haukened/homedns/internal/dns/domain"
)

// keyDelim separates nested keys inside koanf. Hostnames may contain dots,
// so a character that is never part of a hostname is used instead.
const keyDelim = "/"

// Entry is one record read from a seed file, not yet validated.
type Entry struct {
	Type     domain.RRType
	Hostname string
	Value    string
}

// Inserter is the write side of the record store used by Import.
type Inserter interface {
	Insert(ctx context.Context, rrtype domain.RRType, hostname, value string) (domain.Record, error)
}

// Result summarizes an import.
type Result struct {
	Added     int
	Conflicts int
	Invalid   int
}

// parserFor picks a koanf parser by file extension.
func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	case ".toml":
		return toml.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported seed file type %q", filepath.Ext(path))
	}
}

// toStringValues converts a raw koanf-parsed value (string or []any of strings)
// into the non-empty strings it holds.
func toStringValues(val any) []string {
	switch v := val.(type) {
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return []string{s}
		}
	case []any:
		var out []string
		for _, elem := range v {
			if s, ok := elem.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	}
	return nil
}

// LoadFile parses a seed file into entries ordered by hostname.
func LoadFile(path string) ([]Entry, error) {
	parser, err := parserFor(path)
	if err != nil {
		return nil, err
	}

	k := koanf.New(keyDelim)
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("failed to load seed file %s: %w", path, err)
	}

	raw := k.Raw()
	hostnames := make([]string, 0, len(raw))
	for name := range raw {
		hostnames = append(hostnames, name)
	}
	slices.Sort(hostnames)

	var (
		entries []Entry
		errs    error
	)
	for _, name := range hostnames {
		rawMap, ok := raw[name].(map[string]any)
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("%s: expected a map of type to value", name))
			continue
		}
		var found []Entry
		for rrType, val := range rawMap {
			for _, v := range toStringValues(val) {
				found = append(found, Entry{Type: domain.RRTypeFromString(rrType), Hostname: name, Value: v})
			}
		}
		switch len(found) {
		case 0:
			errs = multierr.Append(errs, fmt.Errorf("%s: no record value", name))
		case 1:
			entries = append(entries, found[0])
		default:
			errs = multierr.Append(errs, fmt.Errorf("%s: %d values given, a hostname holds one record", name, len(found)))
		}
	}
	if errs != nil {
		return nil, fmt.Errorf("invalid seed file %s: %w", path, errs)
	}
	return entries, nil
}

// Import inserts entries into store. Hostnames that already exist are
// counted as conflicts and left untouched. Invalid entries are skipped and
// reported together in the returned error; store failures stop the import.
func Import(ctx context.Context, store Inserter, entries []Entry, logger log.Logger) (Result, error) {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	var (
		res     Result
		invalid error
	)
	for _, e := range entries {
		rec, err := store.Insert(ctx, e.Type, e.Hostname, e.Value)
		switch {
		case err == nil:
			res.Added++
			logger.Debug(map[string]any{"record": rec.String()}, "seed record added")
		case errors.Is(err, domain.ErrConflict):
			res.Conflicts++
			logger.Debug(map[string]any{"hostname": e.Hostname}, "seed record already present")
		case errors.Is(err, domain.ErrInvalidRecord):
			res.Invalid++
			invalid = multierr.Append(invalid, fmt.Errorf("%s: %w", e.Hostname, err))
		default:
			return res, fmt.Errorf("seed import stopped at %s: %w", e.Hostname, err)
		}
	}

	logger.Info(map[string]any{
		"added":     res.Added,
		"conflicts": res.Conflicts,
		"invalid":   res.Invalid,
	}, "seed import finished")

	return res, invalid
}

// ImportFile loads path and imports it into store.
func ImportFile(ctx context.Context, store Inserter, path string, logger log.Logger) (Result, error) {
	entries, err := LoadFile(path)
	if err != nil {
		return Result{}, err
	}
	return Import(ctx, store, entries, logger)
}
