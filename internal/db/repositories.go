package db

// Repositories provides access to all database repositories
type Repositories struct {
	Positions *PositionRepository
}

// NewRepositories creates a new repository collection
func NewRepositories(db *DB) *Repositories {
	return &Repositories{
		Positions: NewPositionRepository(db),
	}
}
