package identity_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"pqchat/internal/crypto"
	"pqchat/internal/domain"
	"pqchat/internal/observability/logging"
	"pqchat/internal/services/identity"
	"pqchat/internal/store"
)

const pass = "Correct-Horse-42"

type recordingDirectory struct {
	published []domain.PublicKeys
}

func (d *recordingDirectory) Publish(_ context.Context, keys domain.PublicKeys) error {
	d.published = append(d.published, keys)
	return nil
}

func (d *recordingDirectory) FetchKEMKey(context.Context, domain.UserID) (domain.KEMPublicKey, error) {
	return nil, domain.ErrNotFound
}

func (d *recordingDirectory) FetchSigningKey(context.Context, domain.UserID) (domain.SigningPublicKey, error) {
	return nil, domain.ErrNotFound
}

func (d *recordingDirectory) Online(context.Context, domain.UserID, domain.UserID) (bool, error) {
	return false, nil
}

func newService(t *testing.T) (*identity.Service, *store.FileStore, *recordingDirectory) {
	t.Helper()
	st := store.NewFileStore(t.TempDir())
	dir := &recordingDirectory{}
	return identity.New(st, dir, logging.Discard()), st, dir
}

func TestGenerateLoad_RoundTrip(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	pub, err := svc.GenerateIdentity(ctx, "alice", pass)
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	if len(pub.KEM) != crypto.KEMPublicKeySize || len(pub.Signing) != crypto.SigningPublicKeySize {
		t.Fatalf("public key sizes = %d/%d", len(pub.KEM), len(pub.Signing))
	}

	id, err := svc.LoadIdentity(ctx, "alice", pass)
	if err != nil {
		t.Fatalf("LoadIdentity: %v", err)
	}
	if !bytes.Equal(id.KEMPublicKey, pub.KEM) || !bytes.Equal(id.SigningPublicKey, pub.Signing) {
		t.Fatal("loaded public keys differ")
	}

	// The unsealed private keys work with the published public keys.
	ct, secret, err := crypto.Encapsulate(pub.KEM)
	if err != nil {
		t.Fatalf("Encapsulate: %v", err)
	}
	got, err := crypto.Decapsulate(id.KEMPrivateKey, ct)
	if err != nil || !bytes.Equal(got, secret) {
		t.Fatalf("Decapsulate with loaded key: %v", err)
	}
	sig, err := crypto.Sign(id.SigningPrivateKey, []byte("m"))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if err := crypto.Verify(pub.Signing, []byte("m"), sig); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestSecretsNeverStoredInClear(t *testing.T) {
	svc, st, _ := newService(t)
	ctx := context.Background()
	if _, err := svc.GenerateIdentity(ctx, "alice", pass); err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	id, err := svc.LoadIdentity(ctx, "alice", pass)
	if err != nil {
		t.Fatalf("LoadIdentity: %v", err)
	}
	rec, ok, err := st.LoadIdentity(ctx, "alice")
	if err != nil || !ok {
		t.Fatalf("store load: ok=%v err=%v", ok, err)
	}
	if bytes.Contains(rec.KEMSecret.Ciphertext, id.KEMPrivateKey[:64]) {
		t.Fatal("kem private key stored in clear")
	}
	if bytes.Equal(rec.KEMSecret.IV, rec.SigningSecret.IV) {
		t.Fatal("both secrets share an IV")
	}
}

func TestLoad_WrongPassphrase(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	if _, err := svc.GenerateIdentity(ctx, "alice", pass); err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	if _, err := svc.LoadIdentity(ctx, "alice", "Wrong-Horse-42"); !errors.Is(err, domain.ErrAuthentication) {
		t.Fatalf("err = %v, want ErrAuthentication", err)
	}
}

func TestLoad_Missing(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	if _, err := svc.LoadIdentity(ctx, "ghost", pass); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	ok, err := svc.IdentityExists(ctx, "ghost")
	if err != nil || ok {
		t.Fatalf("IdentityExists = %v, %v", ok, err)
	}
	if _, err := svc.PublicKeys(ctx, "ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("PublicKeys err = %v", err)
	}
}

func TestGenerate_RejectsEmptyInputs(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	if _, err := svc.GenerateIdentity(ctx, "alice", ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("empty passphrase: err = %v", err)
	}
	if _, err := svc.GenerateIdentity(ctx, "", pass); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("empty user: err = %v", err)
	}
}

func TestGenerateTwice_LatestWins(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	if _, err := svc.GenerateIdentity(ctx, "alice", pass); err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	second, err := svc.GenerateIdentity(ctx, "alice", "Other-Horse-77")
	if err != nil {
		t.Fatalf("GenerateIdentity again: %v", err)
	}
	if _, err := svc.LoadIdentity(ctx, "alice", pass); !errors.Is(err, domain.ErrAuthentication) {
		t.Fatalf("old passphrase still opens: %v", err)
	}
	id, err := svc.LoadIdentity(ctx, "alice", "Other-Horse-77")
	if err != nil {
		t.Fatalf("LoadIdentity: %v", err)
	}
	if !bytes.Equal(id.KEMPublicKey, second.KEM) {
		t.Fatal("load returned the first identity")
	}
}

func TestPublicKeysAndPublish_NoPassphrase(t *testing.T) {
	svc, _, dir := newService(t)
	ctx := context.Background()
	pub, err := svc.GenerateIdentity(ctx, "alice", pass)
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	got, err := svc.PublicKeys(ctx, "alice")
	if err != nil {
		t.Fatalf("PublicKeys: %v", err)
	}
	if !bytes.Equal(got.KEM, pub.KEM) {
		t.Fatal("public keys differ")
	}
	fp, err := svc.Fingerprint(ctx, "alice")
	if err != nil || fp != crypto.Fingerprint(pub.KEM, pub.Signing) {
		t.Fatalf("Fingerprint = %q, %v", fp, err)
	}
	if err := svc.Publish(ctx, "alice"); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(dir.published) != 1 || dir.published[0].UserID != "alice" {
		t.Fatalf("published = %+v", dir.published)
	}
}

func TestOpen_AccountCloseWipes(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	if _, err := svc.GenerateIdentity(ctx, "alice", pass); err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	acct, err := svc.Open(ctx, "alice", pass)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if acct.UserID() != "alice" || acct.Passphrase() != pass {
		t.Fatal("account does not carry identity context")
	}
	priv := acct.Identity.KEMPrivateKey
	acct.Close()
	if !acct.Closed() || acct.Passphrase() != "" {
		t.Fatal("account not closed")
	}
	for _, b := range priv {
		if b != 0 {
			t.Fatal("private key not wiped")
		}
	}
}

func TestCheckPassphrase(t *testing.T) {
	if err := identity.CheckPassphrase("short"); !errors.Is(err, identity.ErrWeakPassphrase) {
		t.Fatalf("short: err = %v", err)
	}
	if err := identity.CheckPassphrase("alllowercase-with-digit-1"); err == nil {
		t.Fatal("missing upper accepted")
	}
	if err := identity.CheckPassphrase(pass); err != nil {
		t.Fatalf("strong passphrase rejected: %v", err)
	}
}

func TestDeleteIdentity(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	if _, err := svc.GenerateIdentity(ctx, "alice", pass); err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	if err := svc.DeleteIdentity(ctx, "alice"); err != nil {
		t.Fatalf("DeleteIdentity: %v", err)
	}
	if ok, _ := svc.IdentityExists(ctx, "alice"); ok {
		t.Fatal("identity survived delete")
	}
}

func TestUnsafeUserIDsRejected(t *testing.T) {
	svc, st, _ := newService(t)
	ctx := context.Background()
	if _, err := svc.GenerateIdentity(ctx, "alice", pass); err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	for _, bad := range []domain.UserID{"..", ".", "../alice", "a/b", "bob smith"} {
		if _, err := svc.GenerateIdentity(ctx, bad, pass); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("GenerateIdentity(%q) err = %v", bad, err)
		}
		if err := svc.DeleteIdentity(ctx, bad); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("DeleteIdentity(%q) err = %v", bad, err)
		}
		if _, err := svc.LoadIdentity(ctx, bad, pass); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("LoadIdentity(%q) err = %v", bad, err)
		}
		if _, err := svc.IdentityExists(ctx, bad); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("IdentityExists(%q) err = %v", bad, err)
		}
	}
	if ok, err := svc.IdentityExists(ctx, "alice"); err != nil || !ok {
		t.Fatalf("alice after rejected deletes: ok=%v err=%v", ok, err)
	}
	if _, err := os.Stat(st.Dir()); err != nil {
		t.Fatalf("store root: %v", err)
	}
}
