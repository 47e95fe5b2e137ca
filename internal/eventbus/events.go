package eventbus

import "github.com/rafaelGuerreiro/ikaria/internal/validate"

// Kind tags the closed set of events the core ever fires.
type Kind string

const (
	KindSystemInit          Kind = "system_init"
	KindUserCreated         Kind = "user_created"
	KindUserSignedIn        Kind = "user_signed_in"
	KindUserSignedOut       Kind = "user_signed_out"
	KindCharacterCreated    Kind = "character_created"
	KindCharacterSelected   Kind = "character_selected"
	KindCharacterUnselected Kind = "character_unselected"
)

// Event is the tagged union every sync handler switches over. Not every
// field is populated for every Kind — CharacterID is only meaningful for
// the character-scoped kinds.
type Event struct {
	Kind        Kind
	Sender      validate.Identity
	CharacterID uint64
}

func SystemInit() Event { return Event{Kind: KindSystemInit} }

func UserCreated(sender validate.Identity) Event {
	return Event{Kind: KindUserCreated, Sender: sender}
}

func UserSignedIn(sender validate.Identity) Event {
	return Event{Kind: KindUserSignedIn, Sender: sender}
}

func UserSignedOut(sender validate.Identity) Event {
	return Event{Kind: KindUserSignedOut, Sender: sender}
}

func CharacterCreated(sender validate.Identity, characterID uint64) Event {
	return Event{Kind: KindCharacterCreated, Sender: sender, CharacterID: characterID}
}

func CharacterSelected(sender validate.Identity, characterID uint64) Event {
	return Event{Kind: KindCharacterSelected, Sender: sender, CharacterID: characterID}
}

func CharacterUnselected(sender validate.Identity) Event {
	return Event{Kind: KindCharacterUnselected, Sender: sender}
}

// hasDeferredTwin reports whether ev should also be enqueued onto the
// OneshotDeferredEvent queue for a second, externally-scheduled dispatch.
// Per spec §4.6, UserSignedOut is the one wired today.
func (e Event) hasDeferredTwin() bool {
	return e.Kind == KindUserSignedOut
}
