package models

import "fmt"

// ParticipantType tags which side of a job an identity (or a message sender) belongs to.
type ParticipantType string

const (
	ParticipantTaskOwner ParticipantType = "task_owner"
	ParticipantCrew      ParticipantType = "crew"
	// ParticipantSystem is only valid as a message sender and never carries an id.
	ParticipantSystem ParticipantType = "system"
)

// Identity is either a task owner (user id) or a crew member (crew id), never both.
// The zero value is invalid; build one with OwnerIdentity or CrewIdentity.
type Identity struct {
	kind ParticipantType
	id   int64
}

func OwnerIdentity(userID int64) Identity {
	return Identity{kind: ParticipantTaskOwner, id: userID}
}

func CrewIdentity(crewID int64) Identity {
	return Identity{kind: ParticipantCrew, id: crewID}
}

func (i Identity) Kind() ParticipantType { return i.kind }
func (i Identity) ID() int64             { return i.id }

// Valid rejects the zero value and non-positive ids
func (i Identity) Valid() bool {
	return (i.kind == ParticipantTaskOwner || i.kind == ParticipantCrew) && i.id > 0
}

// Columns splits the identity into the two nullable storage columns (owner, crew).
func (i Identity) Columns() (ownerUserID, crewID *int64) {
	id := i.id
	switch i.kind {
	case ParticipantTaskOwner:
		return &id, nil
	case ParticipantCrew:
		return nil, &id
	}
	return nil, nil
}

func (i Identity) String() string {
	if !i.Valid() {
		return "identity(invalid)"
	}
	return fmt.Sprintf("%s:%d", i.kind, i.id)
}
