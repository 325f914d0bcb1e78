package store_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"pqchat/internal/domain"
	"pqchat/internal/store"
)

// backends runs fn against every Store implementation.
func backends(t *testing.T, fn func(t *testing.T, s domain.Store)) {
	t.Helper()
	t.Run("file", func(t *testing.T) {
		fn(t, store.NewFileStore(t.TempDir()))
	})
	t.Run("sql", func(t *testing.T) {
		dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
		db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		s, err := store.NewSQLStore(db)
		if err != nil {
			t.Fatalf("migrate: %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		fn(t, s)
	})
}

func identityRecord(user string, fill byte) domain.IdentityRecord {
	return domain.IdentityRecord{
		UserID:           domain.UserID(user),
		KEMPublicKey:     bytes.Repeat([]byte{fill}, 8),
		SigningPublicKey: bytes.Repeat([]byte{fill + 1}, 8),
		KEMSecret:        domain.SealedBox{IV: []byte{fill, 1}, Ciphertext: []byte{fill, 2}},
		SigningSecret:    domain.SealedBox{IV: []byte{fill, 3}, Ciphertext: []byte{fill, 4}},
		Salt:             []byte{fill, 5},
		CreatedUTC:       int64(fill),
	}
}

func TestIdentity_SaveLoad_OK(t *testing.T) {
	backends(t, func(t *testing.T, s domain.Store) {
		ctx := context.Background()
		rec := identityRecord("alice", 1)
		if err := s.SaveIdentity(ctx, rec); err != nil {
			t.Fatalf("save identity: %v", err)
		}
		got, ok, err := s.LoadIdentity(ctx, "alice")
		if err != nil || !ok {
			t.Fatalf("load identity: ok=%v err=%v", ok, err)
		}
		if !bytes.Equal(got.KEMPublicKey, rec.KEMPublicKey) ||
			!bytes.Equal(got.SigningSecret.Ciphertext, rec.SigningSecret.Ciphertext) {
			t.Fatalf("mismatch after load: %+v", got)
		}
	})
}

func TestIdentity_SaveTwice_Overwrites(t *testing.T) {
	backends(t, func(t *testing.T, s domain.Store) {
		ctx := context.Background()
		if err := s.SaveIdentity(ctx, identityRecord("alice", 1)); err != nil {
			t.Fatalf("save identity: %v", err)
		}
		second := identityRecord("alice", 9)
		if err := s.SaveIdentity(ctx, second); err != nil {
			t.Fatalf("save identity again: %v", err)
		}
		got, ok, err := s.LoadIdentity(ctx, "alice")
		if err != nil || !ok {
			t.Fatalf("load identity: ok=%v err=%v", ok, err)
		}
		if !bytes.Equal(got.KEMSecret.Ciphertext, second.KEMSecret.Ciphertext) {
			t.Fatalf("load returned stale secret %x", got.KEMSecret.Ciphertext)
		}
	})
}

func TestIdentity_Missing_NotFound(t *testing.T) {
	backends(t, func(t *testing.T, s domain.Store) {
		_, ok, err := s.LoadIdentity(context.Background(), "nobody")
		if err != nil {
			t.Fatalf("load identity: %v", err)
		}
		if ok {
			t.Fatal("expected missing identity")
		}
	})
}

func TestIdentity_Delete_RemovesOwnedRecords(t *testing.T) {
	backends(t, func(t *testing.T, s domain.Store) {
		ctx := context.Background()
		if err := s.SaveIdentity(ctx, identityRecord("alice", 1)); err != nil {
			t.Fatalf("save identity: %v", err)
		}
		ps := domain.PeerSession{Owner: "alice", Peer: "bob", Secret: domain.SealedBox{IV: []byte{1}, Ciphertext: []byte{2}}, Salt: []byte{3}}
		if err := s.SavePeerSession(ctx, ps); err != nil {
			t.Fatalf("save session: %v", err)
		}
		if err := s.DeleteIdentity(ctx, "alice"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, ok, _ := s.LoadIdentity(ctx, "alice"); ok {
			t.Fatal("identity survived delete")
		}
		if _, ok, _ := s.LoadPeerSession(ctx, "alice", "bob"); ok {
			t.Fatal("session survived delete")
		}
	})
}

func TestPeerSession_OverwriteBumpsEpoch(t *testing.T) {
	backends(t, func(t *testing.T, s domain.Store) {
		ctx := context.Background()
		first := domain.PeerSession{Owner: "alice", Peer: "bob", Secret: domain.SealedBox{IV: []byte{1}, Ciphertext: []byte{1}}, Salt: []byte{1}}
		second := domain.PeerSession{Owner: "alice", Peer: "bob", Secret: domain.SealedBox{IV: []byte{2}, Ciphertext: []byte{2}}, Salt: []byte{2}}
		other := domain.PeerSession{Owner: "alice", Peer: "carol", Secret: domain.SealedBox{IV: []byte{3}, Ciphertext: []byte{3}}, Salt: []byte{3}}
		for _, ps := range []domain.PeerSession{first, second, other} {
			if err := s.SavePeerSession(ctx, ps); err != nil {
				t.Fatalf("save session: %v", err)
			}
		}

		got, ok, err := s.LoadPeerSession(ctx, "alice", "bob")
		if err != nil || !ok {
			t.Fatalf("load session: ok=%v err=%v", ok, err)
		}
		if got.Epoch != 2 {
			t.Fatalf("epoch = %d, want 2", got.Epoch)
		}
		if !bytes.Equal(got.Secret.Ciphertext, []byte{2}) {
			t.Fatal("last write did not win")
		}

		all, err := s.ListPeerSessions(ctx, "alice")
		if err != nil {
			t.Fatalf("list sessions: %v", err)
		}
		if len(all) != 2 || all[0].Peer != "bob" || all[1].Peer != "carol" {
			t.Fatalf("list = %+v", all)
		}
		if none, _ := s.ListPeerSessions(ctx, "bob"); len(none) != 0 {
			t.Fatalf("sessions leaked across owners: %+v", none)
		}
	})
}

func TestPeerSession_Delete(t *testing.T) {
	backends(t, func(t *testing.T, s domain.Store) {
		ctx := context.Background()
		ps := domain.PeerSession{Owner: "alice", Peer: "bob", Secret: domain.SealedBox{IV: []byte{1}, Ciphertext: []byte{1}}, Salt: []byte{1}}
		if err := s.SavePeerSession(ctx, ps); err != nil {
			t.Fatalf("save session: %v", err)
		}
		if err := s.DeletePeerSession(ctx, "alice", "bob"); err != nil {
			t.Fatalf("delete session: %v", err)
		}
		if _, ok, err := s.LoadPeerSession(ctx, "alice", "bob"); err != nil || ok {
			t.Fatalf("after delete: ok=%v err=%v", ok, err)
		}
		if err := s.DeletePeerSession(ctx, "alice", "bob"); err != nil {
			t.Fatalf("delete missing session: %v", err)
		}
	})
}

func TestStore_RejectsUnsafeUserIDs(t *testing.T) {
	backends(t, func(t *testing.T, s domain.Store) {
		ctx := context.Background()
		if err := s.SaveIdentity(ctx, identityRecord("alice", 1)); err != nil {
			t.Fatalf("save identity: %v", err)
		}
		for _, bad := range []domain.UserID{"", ".", "..", "../alice", "a/b"} {
			if err := s.DeleteIdentity(ctx, bad); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("DeleteIdentity(%q) err = %v, want ErrValidation", bad, err)
			}
			if _, _, err := s.LoadPeerSession(ctx, "alice", bad); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("LoadPeerSession(%q) err = %v, want ErrValidation", bad, err)
			}
			if err := s.SaveIdentity(ctx, identityRecord(string(bad), 2)); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("SaveIdentity(%q) err = %v, want ErrValidation", bad, err)
			}
		}
		if _, ok, err := s.LoadIdentity(ctx, "alice"); err != nil || !ok {
			t.Fatalf("alice after rejected deletes: ok=%v err=%v", ok, err)
		}
	})
}

func TestFileStore_DeleteDotDotKeepsRoot(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := store.NewFileStore(dir)
	if err := s.SaveIdentity(ctx, identityRecord("alice", 1)); err != nil {
		t.Fatalf("save identity: %v", err)
	}
	if err := s.DeleteIdentity(ctx, ".."); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("store root: %v", err)
	}
	if _, ok, err := s.LoadIdentity(ctx, "alice"); err != nil || !ok {
		t.Fatalf("load identity: ok=%v err=%v", ok, err)
	}
}

func TestMessages_OrderedByCreation(t *testing.T) {
	backends(t, func(t *testing.T, s domain.Store) {
		ctx := context.Background()
		for i, at := range []int64{30, 10, 20} {
			m := domain.Message{
				ID:        fmt.Sprintf("m%d", i),
				Owner:     "alice",
				Peer:      "bob",
				Direction: domain.DirectionOutgoing,
				Box:       domain.SealedBox{IV: []byte{byte(i)}, Ciphertext: []byte{byte(i)}},
				Salt:      []byte{byte(i), 7},
				CreatedAt: at,
			}
			if err := s.AppendMessage(ctx, m); err != nil {
				t.Fatalf("append: %v", err)
			}
		}
		got, err := s.ListMessages(ctx, "alice", "bob")
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("len = %d", len(got))
		}
		for i := 1; i < len(got); i++ {
			if got[i-1].CreatedAt > got[i].CreatedAt {
				t.Fatalf("out of order: %+v", got)
			}
		}
		if got[0].ID != "m1" || !bytes.Equal(got[0].Salt, []byte{1, 7}) {
			t.Fatalf("first message = %+v", got[0])
		}
		if empty, _ := s.ListMessages(ctx, "alice", "carol"); len(empty) != 0 {
			t.Fatalf("unexpected messages: %+v", empty)
		}
	})
}

func TestDirectory_KeyedByPeer(t *testing.T) {
	backends(t, func(t *testing.T, s domain.Store) {
		ctx := context.Background()
		if _, ok, err := s.LoadDirectoryEntry(ctx, "bob"); err != nil || ok {
			t.Fatalf("empty directory: ok=%v err=%v", ok, err)
		}
		if err := s.SaveDirectoryEntry(ctx, domain.DirectoryEntry{Peer: "bob", SigningPublicKey: []byte{1}}); err != nil {
			t.Fatalf("save: %v", err)
		}
		if err := s.SaveDirectoryEntry(ctx, domain.DirectoryEntry{Peer: "bob", SigningPublicKey: []byte{2}}); err != nil {
			t.Fatalf("save: %v", err)
		}
		e, ok, err := s.LoadDirectoryEntry(ctx, "bob")
		if err != nil || !ok {
			t.Fatalf("load: ok=%v err=%v", ok, err)
		}
		if !bytes.Equal(e.SigningPublicKey, []byte{2}) {
			t.Fatalf("key = %x", e.SigningPublicKey)
		}
	})
}

func TestOpen_SelectsBackend(t *testing.T) {
	dir := t.TempDir()
	s, err := store.Open(dir, false)
	if err != nil {
		t.Fatalf("open file store: %v", err)
	}
	if _, ok := s.(*store.FileStore); !ok {
		t.Fatalf("got %T, want *store.FileStore", s)
	}

	s, err = store.Open("sqlite:"+dir+"/pqchat.db", false)
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	defer s.Close()
	if _, ok := s.(*store.SQLStore); !ok {
		t.Fatalf("got %T, want *store.SQLStore", s)
	}

	if _, err := store.Open("", false); err == nil {
		t.Fatal("expected error for empty location")
	}
}
