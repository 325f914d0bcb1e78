package store

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"pqchat/internal/domain"
)

const (
	identitiesDir = "identities"
	sessionsDir   = "sessions"
	messagesDir   = "messages"
	directoryDir  = "directory"
	recordExt     = ".json"
)

// FileStore stores every record as a JSON file under dir.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore returns a FileStore rooted at dir.
func NewFileStore(dir string) *FileStore { return &FileStore{dir: dir} }

// Dir returns the root directory.
func (s *FileStore) Dir() string { return s.dir }

// Close is a no-op; files are closed after every write.
func (s *FileStore) Close() error { return nil }

func fileName(id domain.UserID) (string, error) {
	if err := domain.ValidateUserID(id); err != nil {
		return "", err
	}
	return url.PathEscape(string(id)) + recordExt, nil
}

// ownerDir is the per-owner directory under sub. Validation keeps "." and
// ".." from resolving outside sub.
func (s *FileStore) ownerDir(sub string, owner domain.UserID) (string, error) {
	if err := domain.ValidateUserID(owner); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, sub, url.PathEscape(string(owner))), nil
}

func (s *FileStore) identityPath(user domain.UserID) (string, error) {
	name, err := fileName(user)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, identitiesDir, name), nil
}

func (s *FileStore) pairPath(sub string, owner, peer domain.UserID) (string, error) {
	dir, err := s.ownerDir(sub, owner)
	if err != nil {
		return "", err
	}
	name, err := fileName(peer)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

func (s *FileStore) sessionPath(owner, peer domain.UserID) (string, error) {
	return s.pairPath(sessionsDir, owner, peer)
}

func (s *FileStore) messagesPath(owner, peer domain.UserID) (string, error) {
	return s.pairPath(messagesDir, owner, peer)
}

func (s *FileStore) directoryPath(peer domain.UserID) (string, error) {
	name, err := fileName(peer)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, directoryDir, name), nil
}

// ---------- Identity ----------

// SaveIdentity writes rec, replacing any previous identity for the user.
func (s *FileStore) SaveIdentity(ctx context.Context, rec domain.IdentityRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.identityPath(rec.UserID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(path, rec, 0o600)
}

// LoadIdentity reads the sealed identity of user.
func (s *FileStore) LoadIdentity(
	ctx context.Context,
	user domain.UserID,
) (domain.IdentityRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.IdentityRecord{}, false, err
	}
	path, err := s.identityPath(user)
	if err != nil {
		return domain.IdentityRecord{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var rec domain.IdentityRecord
	ok, err := readJSON(path, &rec)
	if err != nil || !ok {
		return domain.IdentityRecord{}, false, err
	}
	return rec, true, nil
}

// DeleteIdentity removes the identity of user together with its sessions
// and history. Directory entries are shared and kept.
func (s *FileStore) DeleteIdentity(ctx context.Context, user domain.UserID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.identityPath(user)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	for _, sub := range []string{sessionsDir, messagesDir} {
		dir, err := s.ownerDir(sub, user)
		if err != nil {
			return err
		}
		if err := os.RemoveAll(dir); err != nil {
			return err
		}
	}
	return nil
}

// ---------- Peer sessions ----------

// SavePeerSession replaces the session for (Owner, Peer) and bumps its epoch.
func (s *FileStore) SavePeerSession(ctx context.Context, ps domain.PeerSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.sessionPath(ps.Owner, ps.Peer)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var prev domain.PeerSession
	if _, err := readJSON(path, &prev); err != nil {
		return err
	}
	ps.Epoch = prev.Epoch + 1
	return writeJSON(path, ps, 0o600)
}

// LoadPeerSession reads the session between owner and peer.
func (s *FileStore) LoadPeerSession(
	ctx context.Context,
	owner domain.UserID,
	peer domain.UserID,
) (domain.PeerSession, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.PeerSession{}, false, err
	}
	path, err := s.sessionPath(owner, peer)
	if err != nil {
		return domain.PeerSession{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var ps domain.PeerSession
	ok, err := readJSON(path, &ps)
	if err != nil || !ok {
		return domain.PeerSession{}, false, err
	}
	return ps, true, nil
}

// DeletePeerSession removes the session between owner and peer. Deleting a
// missing session is not an error.
func (s *FileStore) DeletePeerSession(
	ctx context.Context,
	owner domain.UserID,
	peer domain.UserID,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.sessionPath(owner, peer)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// ListPeerSessions returns every session owned by owner, ordered by peer.
func (s *FileStore) ListPeerSessions(
	ctx context.Context,
	owner domain.UserID,
) ([]domain.PeerSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir, err := s.ownerDir(sessionsDir, owner)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]domain.PeerSession, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), recordExt) {
			continue
		}
		var ps domain.PeerSession
		ok, err := readJSON(filepath.Join(dir, e.Name()), &ps)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, ps)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Peer < out[j].Peer })
	return out, nil
}

// ---------- Messages ----------

// AppendMessage adds m to its conversation log.
func (s *FileStore) AppendMessage(ctx context.Context, m domain.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.messagesPath(m.Owner, m.Peer)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var msgs []domain.Message
	if _, err := readJSON(path, &msgs); err != nil {
		return err
	}
	msgs = append(msgs, m)
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].CreatedAt < msgs[j].CreatedAt })
	return writeJSON(path, msgs, 0o600)
}

// ListMessages returns the conversation between owner and peer in creation order.
func (s *FileStore) ListMessages(
	ctx context.Context,
	owner domain.UserID,
	peer domain.UserID,
) ([]domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.messagesPath(owner, peer)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var msgs []domain.Message
	if _, err := readJSON(path, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// ---------- Directory cache ----------

// SaveDirectoryEntry caches a peer's signature key.
func (s *FileStore) SaveDirectoryEntry(ctx context.Context, e domain.DirectoryEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.directoryPath(e.Peer)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(path, e, 0o644)
}

// LoadDirectoryEntry reads the cached signature key of peer.
func (s *FileStore) LoadDirectoryEntry(
	ctx context.Context,
	peer domain.UserID,
) (domain.DirectoryEntry, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.DirectoryEntry{}, false, err
	}
	path, err := s.directoryPath(peer)
	if err != nil {
		return domain.DirectoryEntry{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var e domain.DirectoryEntry
	ok, err := readJSON(path, &e)
	if err != nil || !ok {
		return domain.DirectoryEntry{}, false, err
	}
	return e, true, nil
}

// Compile-time assertion that FileStore implements domain.Store.
var _ domain.Store = (*FileStore)(nil)
