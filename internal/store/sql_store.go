package store

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"pqchat/internal/domain"
)

type identityRow struct {
	UserID           string `gorm:"primaryKey"`
	KEMPublicKey     []byte `gorm:"not null"`
	SigningPublicKey []byte `gorm:"not null"`
	KEMSecretIV      []byte `gorm:"not null"`
	KEMSecret        []byte `gorm:"not null"`
	SigningSecretIV  []byte `gorm:"not null"`
	SigningSecret    []byte `gorm:"not null"`
	Salt             []byte `gorm:"not null"`
	CreatedUTC       int64  `gorm:"not null"`
}

func (identityRow) TableName() string { return "identity" }

type peerSessionRow struct {
	Owner                string `gorm:"primaryKey"`
	Peer                 string `gorm:"primaryKey"`
	PeerKEMPublicKey     []byte
	PeerSigningPublicKey []byte
	SecretIV             []byte `gorm:"not null"`
	Secret               []byte `gorm:"not null"`
	Salt                 []byte `gorm:"not null"`
	Epoch                uint64 `gorm:"not null"`
	CreatedUTC           int64  `gorm:"not null"`
}

func (peerSessionRow) TableName() string { return "peer_session" }

type messageRow struct {
	ID         string `gorm:"primaryKey"`
	Owner      string `gorm:"not null;index:idx_message_conversation,priority:1"`
	Peer       string `gorm:"not null;index:idx_message_conversation,priority:2"`
	Direction  string `gorm:"not null"`
	IV         []byte `gorm:"not null"`
	Ciphertext []byte `gorm:"not null"`
	Salt       []byte `gorm:"column:salt"`
	CreatedAt  int64  `gorm:"not null;autoCreateTime:false;index:idx_message_conversation,priority:3"`
}

func (messageRow) TableName() string { return "message" }

type directoryRow struct {
	Peer             string `gorm:"primaryKey"`
	SigningPublicKey []byte `gorm:"not null"`
	UpdatedUTC       int64  `gorm:"not null"`
}

func (directoryRow) TableName() string { return "directory_entry" }

func checkIDs(ids ...domain.UserID) error {
	for _, id := range ids {
		if err := domain.ValidateUserID(id); err != nil {
			return err
		}
	}
	return nil
}

// SQLStore keeps records in a relational database through gorm.
type SQLStore struct {
	db *gorm.DB
}

// OpenSQL opens dialector, migrates the schema and returns the store.
func OpenSQL(dialector gorm.Dialector, logSQL bool) (*SQLStore, error) {
	lvl := logger.Silent
	if logSQL {
		lvl = logger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(log.New(log.Writer(), "", log.LstdFlags), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  lvl,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		}),
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
	})
	if err != nil {
		return nil, err
	}
	return NewSQLStore(db)
}

// NewSQLStore migrates the schema on db and wraps it.
func NewSQLStore(db *gorm.DB) (*SQLStore, error) {
	if err := db.AutoMigrate(&identityRow{}, &peerSessionRow{}, &messageRow{}, &directoryRow{}); err != nil {
		return nil, err
	}
	return &SQLStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ---------- Identity ----------

// SaveIdentity upserts rec in one statement.
func (s *SQLStore) SaveIdentity(ctx context.Context, rec domain.IdentityRecord) error {
	if err := checkIDs(rec.UserID); err != nil {
		return err
	}
	row := identityRow{
		UserID:           string(rec.UserID),
		KEMPublicKey:     rec.KEMPublicKey,
		SigningPublicKey: rec.SigningPublicKey,
		KEMSecretIV:      rec.KEMSecret.IV,
		KEMSecret:        rec.KEMSecret.Ciphertext,
		SigningSecretIV:  rec.SigningSecret.IV,
		SigningSecret:    rec.SigningSecret.Ciphertext,
		Salt:             rec.Salt,
		CreatedUTC:       rec.CreatedUTC,
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(&row).Error
}

// LoadIdentity reads the sealed identity of user.
func (s *SQLStore) LoadIdentity(
	ctx context.Context,
	user domain.UserID,
) (domain.IdentityRecord, bool, error) {
	if err := checkIDs(user); err != nil {
		return domain.IdentityRecord{}, false, err
	}
	var row identityRow
	if err := s.db.WithContext(ctx).First(&row, "user_id = ?", string(user)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.IdentityRecord{}, false, nil
		}
		return domain.IdentityRecord{}, false, err
	}
	return domain.IdentityRecord{
		UserID:           domain.UserID(row.UserID),
		KEMPublicKey:     row.KEMPublicKey,
		SigningPublicKey: row.SigningPublicKey,
		KEMSecret:        domain.SealedBox{IV: row.KEMSecretIV, Ciphertext: row.KEMSecret},
		SigningSecret:    domain.SealedBox{IV: row.SigningSecretIV, Ciphertext: row.SigningSecret},
		Salt:             row.Salt,
		CreatedUTC:       row.CreatedUTC,
	}, true, nil
}

// DeleteIdentity removes the identity of user together with its sessions
// and history.
func (s *SQLStore) DeleteIdentity(ctx context.Context, user domain.UserID) error {
	if err := checkIDs(user); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("owner = ?", string(user)).Delete(&messageRow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("owner = ?", string(user)).Delete(&peerSessionRow{}).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", string(user)).Delete(&identityRow{}).Error
	})
}

// ---------- Peer sessions ----------

// SavePeerSession replaces the session for (Owner, Peer) and bumps its epoch.
func (s *SQLStore) SavePeerSession(ctx context.Context, ps domain.PeerSession) error {
	if err := checkIDs(ps.Owner, ps.Peer); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prev peerSessionRow
		err := tx.First(&prev, "owner = ? AND peer = ?", string(ps.Owner), string(ps.Peer)).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		row := peerSessionRow{
			Owner:                string(ps.Owner),
			Peer:                 string(ps.Peer),
			PeerKEMPublicKey:     ps.PeerKEMPublicKey,
			PeerSigningPublicKey: ps.PeerSigningPublicKey,
			SecretIV:             ps.Secret.IV,
			Secret:               ps.Secret.Ciphertext,
			Salt:                 ps.Salt,
			Epoch:                prev.Epoch + 1,
			CreatedUTC:           ps.CreatedUTC,
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner"}, {Name: "peer"}},
			UpdateAll: true,
		}).Create(&row).Error
	})
}

func (r peerSessionRow) toDomain() domain.PeerSession {
	return domain.PeerSession{
		Owner:                domain.UserID(r.Owner),
		Peer:                 domain.UserID(r.Peer),
		PeerKEMPublicKey:     r.PeerKEMPublicKey,
		PeerSigningPublicKey: r.PeerSigningPublicKey,
		Secret:               domain.SealedBox{IV: r.SecretIV, Ciphertext: r.Secret},
		Salt:                 r.Salt,
		Epoch:                r.Epoch,
		CreatedUTC:           r.CreatedUTC,
	}
}

// LoadPeerSession reads the session between owner and peer.
func (s *SQLStore) LoadPeerSession(
	ctx context.Context,
	owner domain.UserID,
	peer domain.UserID,
) (domain.PeerSession, bool, error) {
	if err := checkIDs(owner, peer); err != nil {
		return domain.PeerSession{}, false, err
	}
	var row peerSessionRow
	err := s.db.WithContext(ctx).First(&row, "owner = ? AND peer = ?", string(owner), string(peer)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.PeerSession{}, false, nil
		}
		return domain.PeerSession{}, false, err
	}
	return row.toDomain(), true, nil
}

// DeletePeerSession removes the session between owner and peer.
func (s *SQLStore) DeletePeerSession(
	ctx context.Context,
	owner domain.UserID,
	peer domain.UserID,
) error {
	if err := checkIDs(owner, peer); err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Where("owner = ? AND peer = ?", string(owner), string(peer)).
		Delete(&peerSessionRow{}).Error
}

// ListPeerSessions returns every session owned by owner, ordered by peer.
func (s *SQLStore) ListPeerSessions(
	ctx context.Context,
	owner domain.UserID,
) ([]domain.PeerSession, error) {
	if err := checkIDs(owner); err != nil {
		return nil, err
	}
	var rows []peerSessionRow
	if err := s.db.WithContext(ctx).
		Where("owner = ?", string(owner)).
		Order("peer").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.PeerSession, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// ---------- Messages ----------

// AppendMessage inserts m. Message ids are unique; a duplicate is an error.
func (s *SQLStore) AppendMessage(ctx context.Context, m domain.Message) error {
	if err := checkIDs(m.Owner, m.Peer); err != nil {
		return err
	}
	row := messageRow{
		ID:         m.ID,
		Owner:      string(m.Owner),
		Peer:       string(m.Peer),
		Direction:  string(m.Direction),
		IV:         m.Box.IV,
		Ciphertext: m.Box.Ciphertext,
		Salt:       m.Salt,
		CreatedAt:  m.CreatedAt,
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

// ListMessages returns the conversation between owner and peer in creation order.
func (s *SQLStore) ListMessages(
	ctx context.Context,
	owner domain.UserID,
	peer domain.UserID,
) ([]domain.Message, error) {
	if err := checkIDs(owner, peer); err != nil {
		return nil, err
	}
	var rows []messageRow
	if err := s.db.WithContext(ctx).
		Where("owner = ? AND peer = ?", string(owner), string(peer)).
		Order("created_at, id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Message, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Message{
			ID:        r.ID,
			Owner:     domain.UserID(r.Owner),
			Peer:      domain.UserID(r.Peer),
			Direction: domain.Direction(r.Direction),
			Box:       domain.SealedBox{IV: r.IV, Ciphertext: r.Ciphertext},
			Salt:      r.Salt,
			CreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}

// ---------- Directory cache ----------

// SaveDirectoryEntry upserts a peer's signature key.
func (s *SQLStore) SaveDirectoryEntry(ctx context.Context, e domain.DirectoryEntry) error {
	if err := checkIDs(e.Peer); err != nil {
		return err
	}
	row := directoryRow{
		Peer:             string(e.Peer),
		SigningPublicKey: e.SigningPublicKey,
		UpdatedUTC:       e.UpdatedUTC,
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "peer"}},
			DoUpdates: clause.Assignments(map[string]any{
				"signing_public_key": row.SigningPublicKey,
				"updated_utc":        row.UpdatedUTC,
			}),
		}).
		Create(&row).Error
}

// LoadDirectoryEntry reads the cached signature key of peer.
func (s *SQLStore) LoadDirectoryEntry(
	ctx context.Context,
	peer domain.UserID,
) (domain.DirectoryEntry, bool, error) {
	if err := checkIDs(peer); err != nil {
		return domain.DirectoryEntry{}, false, err
	}
	var row directoryRow
	if err := s.db.WithContext(ctx).First(&row, "peer = ?", string(peer)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.DirectoryEntry{}, false, nil
		}
		return domain.DirectoryEntry{}, false, err
	}
	return domain.DirectoryEntry{
		Peer:             domain.UserID(row.Peer),
		SigningPublicKey: row.SigningPublicKey,
		UpdatedUTC:       row.UpdatedUTC,
	}, true, nil
}

// Compile-time assertion that SQLStore implements domain.Store.
var _ domain.Store = (*SQLStore)(nil)
