package shopdex

import (
	"time"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs    []string
	username string
	password string

	collection     string
	branchTimeout  time.Duration
	vocabularyPath string
	fusionMulti    string
	fusionDefault  string
	analyzer       IntentAnalyzer

	logger *zap.Logger
}

// WithRedis configures the client to connect to a Redis 8+ instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedisCluster configures several seed addresses with ACL credentials.
func WithRedisCluster(addrs []string, username, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = addrs
		c.username = username
		c.password = password
	})
}

// WithDefaultCollection sets the collection searched when a builder names none.
func WithDefaultCollection(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.collection = name
	})
}

// WithBranchTimeout bounds the semantic sub-searches of one query.
func WithBranchTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.branchTimeout = d
	})
}

// WithVocabularyFile replaces the built-in keyword and concept vocabulary.
func WithVocabularyFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.vocabularyPath = path
	})
}

// WithFusionPresets selects the weight presets for multi-concept and other
// semantic queries ("multi_concept", "default", "two_source").
func WithFusionPresets(multiConcept, fallback string) Option {
	return optionFunc(func(c *clientConfig) {
		c.fusionMulti = multiConcept
		c.fusionDefault = fallback
	})
}

// WithIntentAnalyzer consults a remote analyzer before the rules classifier.
// Failures fall back to the rules.
func WithIntentAnalyzer(a IntentAnalyzer) Option {
	return optionFunc(func(c *clientConfig) {
		c.analyzer = a
	})
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}
