package domain

import "time"

// Actor identifies who performs a mutation. Authorization happens upstream;
// the core only records the actor.
type Actor struct {
	ID   string
	Name string
	Role ActorRole
}

// Stamp records an actor action at a point in time.
type Stamp struct {
	ActorID   string
	ActorName string
	At        time.Time
}

func (a Actor) StampAt(now time.Time) *Stamp {
	return &Stamp{ActorID: a.ID, ActorName: a.Name, At: now}
}
