// Copyright 2025 Edu Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package educhain

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Config struct {
	promRegistry       prometheus.Registerer
	logger             *slog.Logger
	ledgerSubmitter    LedgerSubmitter
	dataDir            string
	blobPlugin         string
	metadataPlugin     string
	signers            []string
	verifiers          []string
	requiredSignatures int
	tracing            bool
	tracingStdout      bool
	shutdownTimeout    time.Duration
}

func (n *Node) configValidate() error {
	if n.config.requiredSignatures < 1 {
		return fmt.Errorf(
			"invalid required signatures value: %d",
			n.config.requiredSignatures,
		)
	}
	if len(n.config.signers) == 0 {
		return errors.New("no signers defined")
	}
	if n.config.requiredSignatures > len(n.config.signers) {
		return fmt.Errorf(
			"required signatures (%d) exceeds signer count (%d)",
			n.config.requiredSignatures,
			len(n.config.signers),
		)
	}
	return nil
}

// ConfigOptionFunc is a type that represents functions that modify the Node config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new educhain config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger:         slog.New(slog.NewJSONHandler(io.Discard, nil)),
		blobPlugin:     "badger",
		metadataPlugin: "sqlite",
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithDatabasePath specifies the persistent data directory to use. The default is to store everything in memory
func WithDatabasePath(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithBlobPlugin specifies the blob storage plugin to use.
func WithBlobPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.blobPlugin = plugin
	}
}

// WithMetadataPlugin specifies the metadata storage plugin to use.
func WithMetadataPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.metadataPlugin = plugin
	}
}

// WithLogger specifies the logger to use. This defaults to discarding log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithSigners specifies the initial signer set for the approval engine
func WithSigners(signers ...string) ConfigOptionFunc {
	return func(c *Config) {
		c.signers = append(c.signers, signers...)
	}
}

// WithRequiredSignatures specifies the signature threshold for transaction approval
func WithRequiredSignatures(required int) ConfigOptionFunc {
	return func(c *Config) {
		c.requiredSignatures = required
	}
}

// WithVerifiers specifies the initial verifier set for the proof registry
func WithVerifiers(verifiers ...string) ConfigOptionFunc {
	return func(c *Config) {
		c.verifiers = append(c.verifiers, verifiers...)
	}
}

// WithLedgerSubmitter specifies the ledger submitter used to dispatch
// executed transactions. The default submitter generates mock receipts
// locally
func WithLedgerSubmitter(submitter LedgerSubmitter) ConfigOptionFunc {
	return func(c *Config) {
		c.ledgerSubmitter = submitter
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to. In most cases, prometheus.DefaultRegistry would be
// a good choice to get metrics working
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) endpoint using OTLP. This can be configured
// using the OTEL_EXPORTER_OTLP_* env vars documented in the README for [go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp]
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}

// WithShutdownTimeout specifies the timeout for graceful shutdown. The default is 30 seconds
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}
