package types

import "errors"

// Config holds backend selection and store parameters.
type Config struct {
	Backend             string `json:"backend" yaml:"backend"`
	DataDir             string `json:"data_dir" yaml:"data_dir"`
	CollectionThreshold int    `json:"collection_threshold" yaml:"collection_threshold"`
	FillLevelPolicy     string `json:"fill_level_policy" yaml:"fill_level_policy"`
	StrictLoad          bool   `json:"strict_load" yaml:"strict_load"`
}

// Supported backend names.
const (
	BackendJSONL  = "jsonl"
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
)

// Fill level policies applied on registration and level updates.
const (
	// FillPolicyReject refuses levels outside 0..100 with ErrInvalidFillLevel.
	FillPolicyReject = "reject"

	// FillPolicyClamp moves out-of-range levels to the nearest bound.
	FillPolicyClamp = "clamp"
)

// Config validation errors.
var (
	ErrBackendEmpty      = errors.New("backend must not be empty")
	ErrBackendUnknown    = errors.New("unknown backend")
	ErrThresholdInvalid  = errors.New("collection threshold must be between 0 and 100")
	ErrFillPolicyUnknown = errors.New("unknown fill level policy")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendJSONL:  true,
	BackendCSV:    true,
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure. A zero threshold or empty policy is allowed;
// GetCollectionThreshold and GetFillLevelPolicy supply defaults.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.CollectionThreshold < 0 || c.CollectionThreshold > MaxFillLevel {
		return ErrThresholdInvalid
	}
	switch c.FillLevelPolicy {
	case "", FillPolicyReject, FillPolicyClamp:
	default:
		return ErrFillPolicyUnknown
	}
	return nil
}

// GetCollectionThreshold returns the configured threshold, or
// DefaultCollectionThreshold when unset.
func (c Config) GetCollectionThreshold() int {
	if c.CollectionThreshold == 0 {
		return DefaultCollectionThreshold
	}
	return c.CollectionThreshold
}

// GetFillLevelPolicy returns the configured policy, or FillPolicyReject when
// unset.
func (c Config) GetFillLevelPolicy() string {
	if c.FillLevelPolicy == "" {
		return FillPolicyReject
	}
	return c.FillLevelPolicy
}
