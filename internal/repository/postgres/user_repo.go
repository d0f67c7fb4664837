package postgres

import (
	"context"

	"github.com/google/uuid"
)

type UserRepo struct {
	db DB
}

func NewUserRepo(db DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) ValidateUserIDs(ctx context.Context, ids []uuid.UUID) (valid, invalid []uuid.UUID, err error) {
	unique := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return nil, nil, nil
	}

	rows, err := r.db.Query(ctx, `SELECT id FROM users WHERE id = ANY($1)`, unique)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	found := make(map[uuid.UUID]struct{}, len(unique))
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, nil, err
		}
		found[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	for _, id := range unique {
		if _, ok := found[id]; ok {
			valid = append(valid, id)
		} else {
			invalid = append(invalid, id)
		}
	}
	return valid, invalid, nil
}
