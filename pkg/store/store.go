package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/huandu/skiplist"
	"github.com/sirupsen/logrus"

	"portai/pkg/models"
)

var (
	// ErrNotFound is returned when an operation targets a wallet address
	// with no record. Callers are expected to create before updating; this
	// is a contract violation, not a transient condition.
	ErrNotFound = errors.New("user not found")

	// ErrValidation is returned when required identity fields are missing.
	ErrValidation = errors.New("invalid user data")
)

// Analyzer produces an analysis result for an identity string. The store
// only requires determinism for identical inputs.
type Analyzer interface {
	Analyze(identity string) (models.RiskProfile, models.Recommendations)
}

// CreateUserParams carries the caller-supplied fields for registration.
// Social handles are optional.
type CreateUserParams struct {
	WalletAddress  string
	TwitterHandle  string
	TelegramHandle string
	DiscordHandle  string
}

// MemStore is the in-memory user record store. One record exists per
// distinct wallet address; ids are assigned monotonically at creation.
// All state lives for the process lifetime only.
type MemStore struct {
	mu     sync.RWMutex
	users  map[string]*models.UserRecord
	byID   *skiplist.SkipList // id -> *models.UserRecord, for ordered listing
	nextID uint64

	// keyLocks serializes GetOrCreateAndAnalyze per wallet address so a
	// record is analyzed at most once under concurrent requests.
	keyMu    sync.Mutex
	keyLocks map[string]*sync.Mutex

	analyzer Analyzer
}

// New creates an empty store backed by the given analyzer.
func New(analyzer Analyzer) *MemStore {
	return &MemStore{
		users:    make(map[string]*models.UserRecord),
		byID:     skiplist.New(skiplist.Uint64),
		nextID:   1,
		keyLocks: make(map[string]*sync.Mutex),
		analyzer: analyzer,
	}
}

// CreateUser registers a wallet address. Creating an address that already
// exists keeps the canonical record (same id, analysis fields untouched)
// and overwrites only the social handles supplied in params.
func (s *MemStore) CreateUser(params CreateUserParams) (*models.UserRecord, error) {
	if params.WalletAddress == "" {
		return nil, fmt.Errorf("%w: wallet address is required", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.users[params.WalletAddress]; ok {
		mergeHandles(existing, params)
		return existing.Clone(), nil
	}

	user := &models.UserRecord{
		ID:             s.nextID,
		WalletAddress:  params.WalletAddress,
		TwitterHandle:  params.TwitterHandle,
		TelegramHandle: params.TelegramHandle,
		DiscordHandle:  params.DiscordHandle,
	}
	s.nextID++
	s.users[user.WalletAddress] = user
	s.byID.Set(user.ID, user)

	return user.Clone(), nil
}

// GetUser looks up a record by exact wallet address match. A missing user
// is signaled by the boolean, never by an error.
func (s *MemStore) GetUser(walletAddress string) (*models.UserRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[walletAddress]
	if !ok {
		return nil, false
	}
	return user.Clone(), true
}

// UpdateUserAnalysis replaces the two analysis fields of an existing record.
func (s *MemStore) UpdateUserAnalysis(walletAddress string, profile models.RiskProfile, recs models.Recommendations) (*models.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[walletAddress]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, walletAddress)
	}

	p := profile
	p.Factors = append([]string(nil), profile.Factors...)
	r := models.Recommendations{Assets: append([]models.AssetAllocation(nil), recs.Assets...)}
	user.RiskProfile = &p
	user.Recommendations = &r

	return user.Clone(), nil
}

// GetOrCreateAndAnalyze is the composition used by the boundary layer:
// create the record if missing, run the analyzer once if the record is
// unanalyzed, and return the result. Idempotent; concurrent calls for the
// same address perform at most one analysis.
func (s *MemStore) GetOrCreateAndAnalyze(walletAddress string) (*models.UserRecord, error) {
	if walletAddress == "" {
		return nil, fmt.Errorf("%w: wallet address is required", ErrValidation)
	}

	lock := s.keyLock(walletAddress)
	lock.Lock()
	defer lock.Unlock()

	user, ok := s.GetUser(walletAddress)
	if !ok {
		var err error
		user, err = s.CreateUser(CreateUserParams{WalletAddress: walletAddress})
		if err != nil {
			return nil, err
		}
	}

	if user.Analyzed() {
		return user, nil
	}

	logrus.WithField("wallet", walletAddress).Debug("Running portfolio analysis")
	profile, recs := s.analyzer.Analyze(walletAddress)
	return s.UpdateUserAnalysis(walletAddress, profile, recs)
}

// ListUsers returns all records in id order.
func (s *MemStore) ListUsers() []*models.UserRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*models.UserRecord, 0, s.byID.Len())
	for elem := s.byID.Front(); elem != nil; elem = elem.Next() {
		users = append(users, elem.Value.(*models.UserRecord).Clone())
	}
	return users
}

// Len returns the number of registered records.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

func (s *MemStore) keyLock(walletAddress string) *sync.Mutex {
	s.keyMu.Lock()
	defer s.keyMu.Unlock()

	lock, ok := s.keyLocks[walletAddress]
	if !ok {
		lock = &sync.Mutex{}
		s.keyLocks[walletAddress] = lock
	}
	return lock
}

func mergeHandles(user *models.UserRecord, params CreateUserParams) {
	if params.TwitterHandle != "" {
		user.TwitterHandle = params.TwitterHandle
	}
	if params.TelegramHandle != "" {
		user.TelegramHandle = params.TelegramHandle
	}
	if params.DiscordHandle != "" {
		user.DiscordHandle = params.DiscordHandle
	}
}
