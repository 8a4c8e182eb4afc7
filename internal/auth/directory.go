package auth

import "context"

// UserDirectory resolves display names for user ids. The user profile
// subsystem owns the data; this core only reads names for DM previews.
type UserDirectory interface {
	DisplayName(ctx context.Context, userID string) (string, error)
}

type staticDirectory struct {
	names map[string]string
}

// NewStaticDirectory is a directory backed by a fixed name table; unknown
// ids fall back to the raw id. Used in memory mode and in tests.
func NewStaticDirectory(names map[string]string) UserDirectory {
	if names == nil {
		names = map[string]string{}
	}
	return &staticDirectory{names: names}
}

func (d *staticDirectory) DisplayName(ctx context.Context, userID string) (string, error) {
	if name, ok := d.names[userID]; ok && name != "" {
		return name, nil
	}
	return userID, nil
}
