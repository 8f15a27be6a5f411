package idalloc

import "context"

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

// Seeder reports the highest id currently stored in a table column.
type Seeder interface {
	MaxID(ctx context.Context, table, column string) (int64, bool, error)
}
