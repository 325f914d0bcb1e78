package domain

import (
	interfaces "pqchat/internal/domain/interfaces"
	types "pqchat/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	UserID            = types.UserID
	Fingerprint       = types.Fingerprint
	Direction         = types.Direction
	KEMPublicKey      = types.KEMPublicKey
	KEMPrivateKey     = types.KEMPrivateKey
	SigningPublicKey  = types.SigningPublicKey
	SigningPrivateKey = types.SigningPrivateKey
	SealedBox         = types.SealedBox
	IdentityRecord    = types.IdentityRecord
	Identity          = types.Identity
	PublicKeys        = types.PublicKeys
	Account           = types.Account
	HandshakeState    = types.HandshakeState
	PeerSession       = types.PeerSession
	DirectoryEntry    = types.DirectoryEntry
	Message           = types.Message
	DecryptedMessage  = types.DecryptedMessage
	MessageType       = types.MessageType
	WireMessage       = types.WireMessage
	ChatEnvelope      = types.ChatEnvelope
	KeyUpload         = types.KeyUpload
	KeyLookup         = types.KeyLookup
	Presence          = types.Presence
)

const (
	DirectionOutgoing = types.DirectionOutgoing
	DirectionIncoming = types.DirectionIncoming

	StateNoSession      = types.StateNoSession
	StateRequestPending = types.StateRequestPending
	StateEncapsulated   = types.StateEncapsulated
	StateDecapsulated   = types.StateDecapsulated
	StateEstablished    = types.StateEstablished

	TypeChatRequest  = types.TypeChatRequest
	TypeSharedSecret = types.TypeSharedSecret
	TypeChat         = types.TypeChat
	TypeStatusUpdate = types.TypeStatusUpdate
)

// NewAccount builds the per-connection context for a loaded identity.
var NewAccount = types.NewAccount

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	IdentityService  = interfaces.IdentityService
	SessionService   = interfaces.SessionService
	MessageService   = interfaces.MessageService
	Transport        = interfaces.Transport
	Directory        = interfaces.Directory
	IdentityStore    = interfaces.IdentityStore
	PeerSessionStore = interfaces.PeerSessionStore
	MessageStore     = interfaces.MessageStore
	DirectoryStore   = interfaces.DirectoryStore
	Store            = interfaces.Store
)
