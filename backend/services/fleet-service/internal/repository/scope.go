package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"fleetconsole/backend/libs/identity"
)

// ErrUnsupportedRole is returned for identities that map to no visibility rule.
var ErrUnsupportedRole = errors.New("unsupported role")

type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// vehicleScope returns the predicate over alias v selecting vehicles the viewer may see.
// The viewer's user id is always bound to $1.
func vehicleScope(viewer identity.Identity) (string, error) {
	switch viewer.Role {
	case identity.RoleAdmin:
		return "v.admin_uid = $1", nil
	case identity.RoleDeveloper:
		return "v.id IN (SELECT vehicle_id FROM developer_vehicles WHERE developer_id = $1)", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedRole, viewer.Role)
}

// customerScope is vehicleScope for alias c over customers.
func customerScope(viewer identity.Identity) (string, error) {
	switch viewer.Role {
	case identity.RoleAdmin:
		return "c.admin_uid = $1", nil
	case identity.RoleDeveloper:
		return "c.id IN (SELECT customer_id FROM developer_customers WHERE developer_id = $1)", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedRole, viewer.Role)
}

// inList renders $start..$start+len(ids)-1 and the matching args.
func inList(start int, ids []string) (string, []interface{}) {
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", start+i)
		args[i] = id
	}
	return strings.Join(placeholders, ", "), args
}

// likePattern wraps a search term for ILIKE, escaping wildcards.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(term)) + "%"
}

// pairs runs a two-column query and groups the second column by the first.
func pairs(ctx context.Context, q querier, query string, args ...interface{}) (map[string][]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		out[key] = append(out[key], value)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// lockOwned checks that an admin owns the row and locks it for the rest of the tx.
func lockOwned(ctx context.Context, tx *sql.Tx, table, id, adminUID string, notFound error) error {
	query := fmt.Sprintf("SELECT id FROM %s WHERE id = $1 AND admin_uid = $2 FOR UPDATE", table)
	var got string
	if err := tx.QueryRowContext(ctx, query, id, adminUID).Scan(&got); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound
		}
		return err
	}
	return nil
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
