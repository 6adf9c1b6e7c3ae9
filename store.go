package mateauth

// MateStore persists account records keyed by email. Implementations must
// treat email as a uniqueness constraint: Insert of an existing email fails
// with ErrDuplicateEmail even under concurrent registrations, so the
// existence check never has to live at the application layer.
type MateStore interface {
	// FindByEmail returns the record for the email, or ErrMateNotFound.
	FindByEmail(email string) (*Mate, error)

	// Insert creates a new record. Returns ErrDuplicateEmail if the email
	// is already taken.
	Insert(mate *Mate) error

	// Save updates an existing record and returns the persisted copy.
	Save(mate *Mate) (*Mate, error)

	// DeleteByEmail removes the record. Returns false if nothing matched.
	DeleteByEmail(email string) (bool, error)
}

// RecoveryStore supports the forgotten email/password lookups. These are pure
// queries; implementations must not create or mutate records.
type RecoveryStore interface {
	// FindByNameAndPassword returns the record matching both the display name
	// and the stored password form, or ErrMateNotFound.
	FindByNameAndPassword(name, password string) (*Mate, error)

	// FindByNameAndEmail returns the record matching both the display name
	// and the email, or ErrMateNotFound.
	FindByNameAndEmail(name, email string) (*Mate, error)
}
