package policyfile

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	envprovider "github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/persistio/persist/policy"
)

// envPrefix namespaces environment overrides, e.g. PERSIST_RETRIES=3.
const envPrefix = "PERSIST_"

// delim separates config path segments. Policy names carry dots
// ("gateway.fetch"), so the path delimiter must be something else.
const delim = "/"

// Document layout:
//
//	defaults:
//	  retries: 5          # number or "unlimited"
//	  factor: 2
//	  minTimeout: 100ms
//	  maxTimeout: 2s      # duration or "unlimited"
//	  maxRetryTime: 30s   # duration or "unlimited"
//	  randomize: true
//	policies:
//	  gateway.fetch:
//	    retries: 3
//	    classifier: default
//
// Policies inherit from defaults, which inherit from policy.Defaults.
// Environment variables override the defaults section only.
type document struct {
	Defaults *entryDoc            `koanf:"defaults"`
	Policies map[string]*entryDoc `koanf:"policies" validate:"dive"`
}

type entryDoc struct {
	Retries      any            `koanf:"retries"`
	Factor       *float64       `koanf:"factor"`
	MinTimeout   *time.Duration `koanf:"minTimeout" validate:"omitempty,min=0"`
	MaxTimeout   *time.Duration `koanf:"maxTimeout" validate:"omitempty,min=-1"`
	Randomize    *bool          `koanf:"randomize"`
	MaxRetryTime *time.Duration `koanf:"maxRetryTime" validate:"omitempty,min=-1"`
	Unref        *bool          `koanf:"unref"`
	Forever      *bool          `koanf:"forever"`
	Classifier   string         `koanf:"classifier" validate:"omitempty,printascii,max=64"`
}

// FileProvider serves policies parsed from a layered document. It is
// immutable after Load and safe for concurrent use.
type FileProvider struct {
	path     string
	defaults policy.Options
	policies map[policy.Key]policy.Options
}

// Load reads the YAML policy document at path, overlays PERSIST_*
// environment variables on its defaults section, and normalizes every
// entry. It fails fast on an unreadable file, a schema violation, or an
// invalid policy.
func Load(path string) (*FileProvider, error) {
	k := koanf.New(delim)
	if err := loadDefaults(k); err != nil {
		return nil, err
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("persist: loading policy file %s: %w", path, err)
	}
	p, err := build(k)
	if err != nil {
		return nil, err
	}
	p.path = path
	return p, nil
}

// LoadBytes is Load for an in-memory YAML document.
func LoadBytes(doc []byte) (*FileProvider, error) {
	k := koanf.New(delim)
	if err := loadDefaults(k); err != nil {
		return nil, err
	}
	if err := k.Load(rawbytes.Provider(doc), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("persist: parsing policy document: %w", err)
	}
	return build(k)
}

// Reload re-reads the file the provider was loaded from, returning a new
// provider. Providers loaded from bytes cannot be reloaded.
func (p *FileProvider) Reload() (*FileProvider, error) {
	if p == nil || p.path == "" {
		return nil, fmt.Errorf("persist: provider was not loaded from a file")
	}
	return Load(p.path)
}

func (p *FileProvider) Options(_ context.Context, key policy.Key) (policy.Options, error) {
	if p == nil {
		return policy.Defaults(), nil
	}
	if pol, ok := p.policies[key]; ok {
		return pol, nil
	}
	return p.defaults, nil
}

func loadDefaults(k *koanf.Koanf) error {
	base := policy.Defaults()
	defaults := map[string]any{
		"defaults/retries":      base.Retries,
		"defaults/factor":       base.Factor,
		"defaults/minTimeout":   base.MinTimeout,
		"defaults/maxTimeout":   base.MaxTimeout,
		"defaults/maxRetryTime": base.MaxRetryTime,
		"defaults/randomize":    base.Randomize,
		"defaults/unref":        base.Unref,
	}
	if err := k.Load(confmap.Provider(defaults, delim), nil); err != nil {
		return fmt.Errorf("persist: loading policy defaults: %w", err)
	}
	return nil
}

func build(k *koanf.Koanf) (*FileProvider, error) {
	if err := k.Load(envprovider.Provider(envPrefix, delim, envKey), nil); err != nil {
		return nil, fmt.Errorf("persist: loading environment overrides: %w", err)
	}

	resolveUnlimited(k, "defaults")
	for _, name := range k.MapKeys("policies") {
		resolveUnlimited(k, "policies"+delim+name)
	}

	var doc document
	if err := k.Unmarshal("", &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDocumentInvalid, err)
	}
	if err := validator.New().Struct(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDocumentInvalid, err)
	}

	defaults, err := applyEntry(policy.Defaults(), doc.Defaults)
	if err != nil {
		return nil, err
	}
	defaults, err = defaults.Normalize()
	if err != nil {
		return nil, err
	}

	policies := make(map[policy.Key]policy.Options, len(doc.Policies))
	for name, entry := range doc.Policies {
		pol, err := applyEntry(defaults, entry)
		if err != nil {
			return nil, fmt.Errorf("persist: policy %q: %w", name, err)
		}
		pol, err = pol.Normalize()
		if err != nil {
			return nil, fmt.Errorf("persist: policy %q: %w", name, err)
		}
		policies[policy.ParseKey(name)] = pol
	}

	return &FileProvider{defaults: defaults, policies: policies}, nil
}

// envKey maps PERSIST_MAX_RETRY_TIME and friends onto the defaults
// section. Unrecognized variables map to keys outside the schema and
// are ignored.
func envKey(s string) string {
	s = strings.TrimPrefix(strings.ToUpper(s), envPrefix)
	switch s {
	case "RETRIES":
		return "defaults/retries"
	case "FACTOR":
		return "defaults/factor"
	case "MIN_TIMEOUT":
		return "defaults/minTimeout"
	case "MAX_TIMEOUT":
		return "defaults/maxTimeout"
	case "MAX_RETRY_TIME":
		return "defaults/maxRetryTime"
	case "RANDOMIZE":
		return "defaults/randomize"
	case "UNREF":
		return "defaults/unref"
	default:
		return "ignored/" + strings.ToLower(s)
	}
}

// resolveUnlimited rewrites "unlimited" duration values to the sentinel
// before unmarshalling into typed fields.
func resolveUnlimited(k *koanf.Koanf, prefix string) {
	for _, field := range []string{"maxTimeout", "maxRetryTime"} {
		path := prefix + delim + field
		if s, ok := k.Get(path).(string); ok && strings.EqualFold(strings.TrimSpace(s), "unlimited") {
			_ = k.Set(path, policy.Unlimited)
		}
	}
}

func applyEntry(base policy.Options, e *entryDoc) (policy.Options, error) {
	if e == nil {
		return base, nil
	}

	if e.Retries != nil {
		n, err := parseRetries(e.Retries)
		if err != nil {
			return policy.Options{}, err
		}
		base.Retries = n
	}
	if e.Factor != nil {
		base.Factor = *e.Factor
	}
	if e.MinTimeout != nil {
		base.MinTimeout = *e.MinTimeout
	}
	if e.MaxTimeout != nil {
		base.MaxTimeout = *e.MaxTimeout
	}
	if e.Randomize != nil {
		base.Randomize = *e.Randomize
	}
	if e.MaxRetryTime != nil {
		base.MaxRetryTime = *e.MaxRetryTime
	}
	if e.Unref != nil {
		base.Unref = *e.Unref
	}
	if e.Forever != nil {
		base.Forever = *e.Forever
	}
	if e.Classifier != "" {
		base.Classifier = e.Classifier
	}

	return base, nil
}

// parseRetries accepts a whole number or the string "unlimited",
// distinguishing non-numbers from NaN from negatives so a broken
// document says precisely what is wrong.
func parseRetries(v any) (int, error) {
	var f float64

	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if strings.EqualFold(s, "unlimited") {
			return policy.UnlimitedRetries, nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, &policy.ValidationError{Field: "retries", Msg: "retries must be a number or unlimited"}
		}
		f = parsed
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint64:
		f = float64(t)
	case float32:
		f = float64(t)
	case float64:
		f = t
	default:
		return 0, &policy.ValidationError{Field: "retries", Msg: "retries must be a number or unlimited"}
	}

	if math.IsNaN(f) {
		return 0, &policy.ValidationError{Field: "retries", Msg: "retries must be a valid number or unlimited, got NaN"}
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, &policy.ValidationError{Field: "retries", Msg: "retries must be a number or unlimited"}
	}
	if f < 0 {
		return 0, &policy.ValidationError{Field: "retries", Msg: "retries must be a non-negative number"}
	}

	return int(f), nil
}
