package users

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/goalkeeper/internal/common"
)

// JSONRepository reads credentials from a JSON array of
// {"username","password","pathway"} objects. The file is read on every
// call so edits take effect without a restart.
type JSONRepository struct {
	path string
}

func NewJSONRepository(path string) *JSONRepository {
	return &JSONRepository{path: path}
}

// All returns every record in the file.
func (r *JSONRepository) All(ctx context.Context) ([]User, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("%w: read users: %w", common.ErrorStoreIO, err)
	}

	var list []User
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("%w: decode users: %w", common.ErrorStoreIO, err)
	}
	return list, nil
}

func (r *JSONRepository) Lookup(ctx context.Context, username, secret string) (*User, error) {
	list, err := r.All(ctx)
	if err != nil {
		return nil, err
	}

	if u := find(list, username, secret); u != nil {
		return u, nil
	}
	return nil, common.ErrorUnauthorized
}
