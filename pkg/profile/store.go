package profile

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/AccessDevops/S3Explorer/internal/cryptoutil"
	"github.com/AccessDevops/S3Explorer/pkg/errs"
)

// Store is the JSON-file-backed, encrypted profile store. It watches its
// own file for external changes (e.g. a second instance of the app editing
// it) and reloads in place.
type Store struct {
	path string
	box  *cryptoutil.Box

	mu       sync.RWMutex
	profiles map[string]EncryptedProfile
	version  int

	watcher *fsnotify.Watcher
	stopCh  chan struct{}
}

// Open loads (or creates) the profile store at path, encrypting with key.
// Any profile found with encrypted=false is re-encrypted in place and the
// store version is bumped.
func Open(path string, key []byte) (*Store, error) {
	box, err := cryptoutil.NewBox(key)
	if err != nil {
		return nil, errs.Wrap(errs.CryptoError, "build profile crypto box", err)
	}

	s := &Store{path: path, box: box, profiles: make(map[string]EncryptedProfile), stopCh: make(chan struct{})}

	if err := s.load(); err != nil {
		return nil, err
	}
	if err := s.watch(); err != nil {
		slog.Warn("profile store hot-reload disabled", "path", path, "error", err)
	}
	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.mu.Lock()
		s.version = 1
		s.profiles = make(map[string]EncryptedProfile)
		s.mu.Unlock()
		return s.persistLocked()
	}
	if err != nil {
		return errs.Wrap(errs.ProfileStorageError, "read profile store", err).WithPath(s.path)
	}

	var ff fileFormat
	if err := json.Unmarshal(data, &ff); err != nil {
		return errs.Wrap(errs.SerdeError, "parse profile store", err).WithPath(s.path)
	}
	if ff.Profiles == nil {
		ff.Profiles = make(map[string]EncryptedProfile)
	}

	migrated := false
	for id, p := range ff.Profiles {
		if !p.Encrypted {
			migratedProfile, err := s.encryptPlaintextFields(p)
			if err != nil {
				return err
			}
			ff.Profiles[id] = migratedProfile
			migrated = true
		}
	}

	s.mu.Lock()
	s.profiles = ff.Profiles
	s.version = ff.Version
	s.mu.Unlock()

	if migrated {
		s.mu.Lock()
		s.version++
		s.mu.Unlock()
		return s.persist()
	}
	return nil
}

// encryptPlaintextFields treats the ciphertext fields of a migration-pending
// profile as plaintext (the pre-encryption format), encrypts them, and
// marks the row encrypted.
func (s *Store) encryptPlaintextFields(p EncryptedProfile) (EncryptedProfile, error) {
	var err error
	if p.AccessKeyCT, err = s.box.EncryptString(p.AccessKeyCT); err != nil {
		return p, errs.Wrap(errs.CryptoError, "migrate profile: encrypt access key", err).WithPath(p.ID)
	}
	if p.SecretKeyCT, err = s.box.EncryptString(p.SecretKeyCT); err != nil {
		return p, errs.Wrap(errs.CryptoError, "migrate profile: encrypt secret key", err).WithPath(p.ID)
	}
	if p.SessionTokenCT != "" {
		if p.SessionTokenCT, err = s.box.EncryptString(p.SessionTokenCT); err != nil {
			return p, errs.Wrap(errs.CryptoError, "migrate profile: encrypt session token", err).WithPath(p.ID)
		}
	}
	p.Encrypted = true
	return p, nil
}

func (s *Store) persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked()
}

func (s *Store) persistLocked() error {
	ff := fileFormat{Version: s.version, Profiles: s.profiles}
	data, err := json.MarshalIndent(ff, "", "  ")
	if err != nil {
		return errs.Wrap(errs.SerdeError, "marshal profile store", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errs.Wrap(errs.ProfileStorageError, "create profile store directory", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return errs.Wrap(errs.ProfileStorageError, "write profile store", err).WithPath(s.path)
	}
	return nil
}

// watch starts an fsnotify watch on the store's parent directory and
// reloads on write events targeting the store file.
func (s *Store) watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		w.Close()
		return err
	}
	s.watcher = w

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) == filepath.Clean(s.path) && (ev.Op&(fsnotify.Write|fsnotify.Create) != 0) {
					if err := s.load(); err != nil {
						slog.Error("profile store reload failed", "error", err)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Error("profile store watcher error", "error", err)
			case <-s.stopCh:
				return
			}
		}
	}()
	return nil
}

// Close stops the file watcher.
func (s *Store) Close() error {
	close(s.stopCh)
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

// List returns every decrypted profile.
func (s *Store) List() ([]Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Profile, 0, len(s.profiles))
	for _, ep := range s.profiles {
		p, err := s.decrypt(ep)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Get returns the decrypted profile for id, or (Profile{}, false) if absent.
func (s *Store) Get(id string) (Profile, bool, error) {
	s.mu.RLock()
	ep, ok := s.profiles[id]
	s.mu.RUnlock()
	if !ok {
		return Profile{}, false, nil
	}
	p, err := s.decrypt(ep)
	return p, true, err
}

// Save encrypts and persists p, assigning it a new ID if absent.
func (s *Store) Save(p Profile) (Profile, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Region = defaultRegion(p.Region)

	ep := EncryptedProfile{
		ID:        p.ID,
		Name:      p.Name,
		Endpoint:  p.Endpoint,
		Region:    p.Region,
		PathStyle: p.PathStyle,
		Encrypted: true,
	}
	var err error
	if ep.AccessKeyCT, err = s.box.EncryptString(p.AccessKey); err != nil {
		return Profile{}, errs.Wrap(errs.CryptoError, "encrypt access key", err).WithPath(p.ID)
	}
	if ep.SecretKeyCT, err = s.box.EncryptString(p.SecretKey); err != nil {
		return Profile{}, errs.Wrap(errs.CryptoError, "encrypt secret key", err).WithPath(p.ID)
	}
	if p.SessionToken != "" {
		if ep.SessionTokenCT, err = s.box.EncryptString(p.SessionToken); err != nil {
			return Profile{}, errs.Wrap(errs.CryptoError, "encrypt session token", err).WithPath(p.ID)
		}
	}

	s.mu.Lock()
	s.profiles[p.ID] = ep
	s.version++
	s.mu.Unlock()

	if err := s.persist(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Delete removes profile id. Returns false if it did not exist.
func (s *Store) Delete(id string) (bool, error) {
	s.mu.Lock()
	_, ok := s.profiles[id]
	if ok {
		delete(s.profiles, id)
		s.version++
	}
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, s.persist()
}

func (s *Store) decrypt(ep EncryptedProfile) (Profile, error) {
	accessKey, err := s.box.DecryptString(ep.AccessKeyCT)
	if err != nil {
		return Profile{}, errs.Wrap(errs.CryptoError, "decrypt access key", err).WithPath(ep.ID)
	}
	secretKey, err := s.box.DecryptString(ep.SecretKeyCT)
	if err != nil {
		return Profile{}, errs.Wrap(errs.CryptoError, "decrypt secret key", err).WithPath(ep.ID)
	}
	var sessionToken string
	if ep.SessionTokenCT != "" {
		if sessionToken, err = s.box.DecryptString(ep.SessionTokenCT); err != nil {
			return Profile{}, errs.Wrap(errs.CryptoError, "decrypt session token", err).WithPath(ep.ID)
		}
	}
	return Profile{
		ID:           ep.ID,
		Name:         ep.Name,
		Endpoint:     ep.Endpoint,
		Region:       defaultRegion(ep.Region),
		AccessKey:    accessKey,
		SecretKey:    secretKey,
		SessionToken: sessionToken,
		PathStyle:    ep.PathStyle,
	}, nil
}
