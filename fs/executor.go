package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/fwojciec/autoeval"
)

// Compile-time interface verification.
var _ autoeval.Executor = (*Executor)(nil)

// Executor wraps an Executor with file-based caching of responses.
type Executor struct {
	inner     autoeval.Executor
	cacheDir  string
	namespace string
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithNamespace separates cache entries of different models or providers.
func WithNamespace(ns string) ExecutorOption {
	return func(e *Executor) {
		e.namespace = ns
	}
}

// NewExecutor creates a new caching executor.
func NewExecutor(inner autoeval.Executor, cacheDir string, opts ...ExecutorOption) *Executor {
	e := &Executor{
		inner:    inner,
		cacheDir: cacheDir,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type cacheEntry struct {
	Namespace string `json:"namespace,omitempty"`
	Response  string `json:"response"`
}

// Execute returns a cached response or delegates to the inner executor.
// Errors from the inner executor are returned unchanged and never cached.
func (e *Executor) Execute(ctx context.Context, prompt string) (string, error) {
	hash := e.hashPrompt(prompt)

	if cached, err := e.loadFromCache(hash); err == nil {
		return cached, nil
	}

	response, err := e.inner.Execute(ctx, prompt)
	if err != nil {
		return "", err
	}

	// Store in cache (best-effort)
	_ = e.saveToCache(hash, response)

	return response, nil
}

func (e *Executor) hashPrompt(prompt string) string {
	h := sha256.New()
	h.Write([]byte(e.namespace))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	return hex.EncodeToString(h.Sum(nil))
}

func (e *Executor) cachePath(hash string) string {
	return filepath.Join(e.cacheDir, hash+".json")
}

func (e *Executor) loadFromCache(hash string) (string, error) {
	data, err := os.ReadFile(e.cachePath(hash))
	if err != nil {
		return "", err
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return "", err
	}

	return entry.Response, nil
}

func (e *Executor) saveToCache(hash, response string) error {
	if err := os.MkdirAll(e.cacheDir, 0755); err != nil {
		return err
	}

	data, err := json.Marshal(cacheEntry{Namespace: e.namespace, Response: response})
	if err != nil {
		return err
	}

	return os.WriteFile(e.cachePath(hash), data, 0644)
}
