package api

import "time"

// DefaultSignatureDomain names the deployment callers sign requests for.
const DefaultSignatureDomain = "rootchain"

// Config defines runtime parameters for the root chain HTTP API.
type Config struct {
	ListenAddr        string        `mapstructure:"listen_addr" yaml:"listen_addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	MaxHeaderBytes    int           `mapstructure:"max_header_bytes" yaml:"max_header_bytes"`
	CORS              bool          `mapstructure:"cors" yaml:"cors"`
	// SignatureDomain is hashed with the operator address into every signed
	// request, so signatures for one deployment are void on another.
	SignatureDomain string `mapstructure:"signature_domain" yaml:"signature_domain"`
}

func DefaultConfig() Config {
	return Config{
		ListenAddr:        ":8545",
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		SignatureDomain:   DefaultSignatureDomain,
	}
}
