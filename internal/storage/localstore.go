package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// AnonymousNamespace is the identity used when no wallet is connected.
const AnonymousNamespace = "default"

// Snapshot is the persisted state of one identity namespace.
type Snapshot struct {
	Watchlist []string          `json:"watchlist"`
	Holdings  map[string]string `json:"holdings"`
}

// LocalStore persists per-identity watchlist and holdings as one JSON
// file per namespace under a data directory.
type LocalStore struct {
	dir    string
	logger *zap.Logger
}

// NewLocalStore creates the data directory if needed and returns a store
// bound to it.
func NewLocalStore(dir string, logger *zap.Logger) (*LocalStore, error) {
	if dir == "" {
		return nil, errors.New("storage directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage directory %s: %w", dir, err)
	}
	return &LocalStore{dir: dir, logger: logger.Named("LocalStore")}, nil
}

// Namespace normalizes a wallet address into a storage namespace. An
// empty address maps to the anonymous default.
func Namespace(address string) string {
	address = strings.ToLower(strings.TrimSpace(address))
	if address == "" {
		return AnonymousNamespace
	}
	return address
}

// Load reads the snapshot for namespace. A namespace that was never
// saved yields an empty snapshot, not an error.
func (s *LocalStore) Load(namespace string) (Snapshot, error) {
	snap := Snapshot{Watchlist: []string{}, Holdings: map[string]string{}}

	data, err := os.ReadFile(s.path(namespace))
	if err != nil {
		if os.IsNotExist(err) {
			return snap, nil
		}
		return snap, fmt.Errorf("reading namespace %s: %w", namespace, err)
	}

	if err := json.Unmarshal(data, &snap); err != nil {
		// A corrupt file should not brick the portfolio; start fresh.
		s.logger.Warn("Discarding unreadable snapshot",
			zap.String("namespace", namespace), zap.Error(err))
		return Snapshot{Watchlist: []string{}, Holdings: map[string]string{}}, nil
	}
	if snap.Watchlist == nil {
		snap.Watchlist = []string{}
	}
	if snap.Holdings == nil {
		snap.Holdings = map[string]string{}
	}
	return snap, nil
}

// Save writes the snapshot for namespace, replacing any previous one.
func (s *LocalStore) Save(namespace string, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshalling namespace %s: %w", namespace, err)
	}
	if err := os.WriteFile(s.path(namespace), data, 0o644); err != nil {
		return fmt.Errorf("writing namespace %s: %w", namespace, err)
	}
	return nil
}

// Clear removes the persisted snapshot for namespace.
func (s *LocalStore) Clear(namespace string) error {
	err := os.Remove(s.path(namespace))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clearing namespace %s: %w", namespace, err)
	}
	return nil
}

func (s *LocalStore) path(namespace string) string {
	// Namespaces are lower-cased hex addresses or "default"; keep the
	// file name defensive anyway.
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, strings.ToLower(namespace))
	return filepath.Join(s.dir, "portfolio-"+safe+".json")
}
