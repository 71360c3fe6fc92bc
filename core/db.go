package core

import "context"

// DB is the part of a database handle the API needs to report its health and release it.
type DB interface {
	PingContext(ctx context.Context) error
	Close() error
}

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) Direction() string {
	if ord.Ascending {
		return "ASC"
	}
	return "DESC"
}

func (ord DBOrdering) String() string {
	return ord.Field + " " + ord.Direction()
}
