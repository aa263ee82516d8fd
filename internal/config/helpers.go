package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/vshulcz/resquewatch/internal/domain"
	"github.com/vshulcz/resquewatch/internal/misc"
)

// layers resolves one setting from ENV, then an explicitly set CLI flag, then the
// config file, then the default.
type layers struct {
	fs *pflag.FlagSet
}

func (l layers) str(envKey, flag, flagVal, fileVal, def string) string {
	if v, ok := misc.Lookupenv(envKey); ok {
		return v
	}
	if l.fs.Changed(flag) {
		if v := strings.TrimSpace(flagVal); v != "" {
			return v
		}
	}
	if v := strings.TrimSpace(fileVal); v != "" {
		return v
	}
	return def
}

func (l layers) integer(envKey, flag string, flagVal, fileVal, def int) (int, error) {
	if v, ok := misc.Lookupenv(envKey); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%s: %q is not an integer", envKey, v)
		}
		return n, nil
	}
	if l.fs.Changed(flag) {
		return flagVal, nil
	}
	if fileVal != 0 {
		return fileVal, nil
	}
	return def, nil
}

func (l layers) boolean(envKey, flag string, flagVal, fileVal bool) (bool, error) {
	if v, ok := misc.Lookupenv(envKey); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("%s: %q is not a boolean", envKey, v)
		}
		return b, nil
	}
	if l.fs.Changed(flag) {
		return flagVal, nil
	}
	return fileVal, nil
}

// seconds accepts fractional seconds ("2.5") or Go duration syntax ("1m30s").
func (l layers) seconds(envKey, flag string, flagVal float64, fileVal string, def time.Duration) (time.Duration, error) {
	if v, ok := misc.Lookupenv(envKey); ok {
		d, err := parseSeconds(v)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", envKey, err)
		}
		return d, nil
	}
	if l.fs.Changed(flag) {
		return floatSeconds(flagVal), nil
	}
	if v := strings.TrimSpace(fileVal); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return 0, fmt.Errorf("config file %s: %w", flag, err)
		}
		return d, nil
	}
	return def, nil
}

// categories resolves a category set; the first layer naming any category wins.
func (l layers) categories(envKey string, flags map[domain.Category]*bool, fileVals []string) (domain.CategorySet, error) {
	if vals := misc.GetList(envKey); len(vals) > 0 {
		return parseCategories(vals)
	}
	var set domain.CategorySet
	for c, on := range flags {
		if *on {
			set = set.With(c)
		}
	}
	if !set.Empty() {
		return set, nil
	}
	return parseCategories(fileVals)
}

func parseCategories(vals []string) (domain.CategorySet, error) {
	var set domain.CategorySet
	for _, v := range vals {
		c, err := domain.ParseCategory(v)
		if err != nil {
			return 0, err
		}
		set = set.With(c)
	}
	return set, nil
}

func parseSeconds(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return floatSeconds(f), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}

func floatSeconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}

func flagName(c domain.Category) string {
	return strings.ReplaceAll(c.String(), "_", "-")
}
