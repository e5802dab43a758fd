// Package domain holds typed identifiers shared across modules.
//
// Each ID is a distinct named UUID type so the compiler rejects cross-type
// assignment (a DealID can never be passed where an ActorID is expected).
// Parse functions enforce the invariant that IDs are valid, non-nil UUIDs at
// trust boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "dealgate/pkg/domain-errors"
)

type (
	// DealID identifies a deal, the unit of event ordering and locking.
	DealID uuid.UUID
	// EventID identifies one immutable event in a deal's journal.
	EventID uuid.UUID
	// ActorID identifies an actor as established by the identity layer.
	ActorID uuid.UUID
	// MaterialID identifies one material revision.
	MaterialID uuid.UUID
	// ArtifactID identifies one content-addressed artifact record.
	ArtifactID uuid.UUID
)

func parseUUID(raw, kind string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is required", kind)
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is not a valid UUID", kind)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s must not be the nil UUID", kind)
	}
	return parsed, nil
}

// ParseDealID validates and parses a deal ID.
func ParseDealID(raw string) (DealID, error) {
	parsed, err := parseUUID(raw, "deal id")
	return DealID(parsed), err
}

// ParseEventID validates and parses an event ID.
func ParseEventID(raw string) (EventID, error) {
	parsed, err := parseUUID(raw, "event id")
	return EventID(parsed), err
}

// ParseActorID validates and parses an actor ID.
func ParseActorID(raw string) (ActorID, error) {
	parsed, err := parseUUID(raw, "actor id")
	return ActorID(parsed), err
}

// ParseMaterialID validates and parses a material ID.
func ParseMaterialID(raw string) (MaterialID, error) {
	parsed, err := parseUUID(raw, "material id")
	return MaterialID(parsed), err
}

// ParseArtifactID validates and parses an artifact ID.
func ParseArtifactID(raw string) (ArtifactID, error) {
	parsed, err := parseUUID(raw, "artifact id")
	return ArtifactID(parsed), err
}

// NewDealID generates a fresh deal ID.
func NewDealID() DealID { return DealID(uuid.New()) }

// NewEventID generates a fresh event ID.
func NewEventID() EventID { return EventID(uuid.New()) }

// NewActorID generates a fresh actor ID.
func NewActorID() ActorID { return ActorID(uuid.New()) }

// NewMaterialID generates a fresh material ID.
func NewMaterialID() MaterialID { return MaterialID(uuid.New()) }

// NewArtifactID generates a fresh artifact ID.
func NewArtifactID() ArtifactID { return ArtifactID(uuid.New()) }

func (id DealID) String() string     { return uuid.UUID(id).String() }
func (id EventID) String() string    { return uuid.UUID(id).String() }
func (id ActorID) String() string    { return uuid.UUID(id).String() }
func (id MaterialID) String() string { return uuid.UUID(id).String() }
func (id ArtifactID) String() string { return uuid.UUID(id).String() }

func (id DealID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id EventID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id ActorID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id MaterialID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ArtifactID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// Text marshaling renders IDs in canonical UUID form so JSON documents carry
// strings, not byte arrays. Named types do not inherit uuid.UUID's methods.

func (id DealID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id EventID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id ActorID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id MaterialID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id ArtifactID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *DealID) UnmarshalText(data []byte) error {
	parsed, err := uuid.Parse(string(data))
	if err != nil {
		return err
	}
	*id = DealID(parsed)
	return nil
}

func (id *EventID) UnmarshalText(data []byte) error {
	parsed, err := uuid.Parse(string(data))
	if err != nil {
		return err
	}
	*id = EventID(parsed)
	return nil
}

func (id *ActorID) UnmarshalText(data []byte) error {
	parsed, err := uuid.Parse(string(data))
	if err != nil {
		return err
	}
	*id = ActorID(parsed)
	return nil
}

func (id *MaterialID) UnmarshalText(data []byte) error {
	parsed, err := uuid.Parse(string(data))
	if err != nil {
		return err
	}
	*id = MaterialID(parsed)
	return nil
}

func (id *ArtifactID) UnmarshalText(data []byte) error {
	parsed, err := uuid.Parse(string(data))
	if err != nil {
		return err
	}
	*id = ArtifactID(parsed)
	return nil
}
