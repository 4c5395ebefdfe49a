package baas

import (
	"context"
	"net/url"
)

// Table exposes PostgREST-style CRUD on one backend table, scoped to a
// user session. Rows are arbitrary JSON objects; callers own the schema.
type Table struct {
	client      *Client
	name        string
	accessToken string
}

// Table returns a handle for CRUD on the named table using accessToken.
func (c *Client) Table(name, accessToken string) *Table {
	return &Table{client: c, name: name, accessToken: accessToken}
}

func (t *Table) path(filters url.Values) string {
	p := "/rest/v1/" + t.name
	if len(filters) > 0 {
		p += "?" + filters.Encode()
	}
	return p
}

// Select returns the rows matching filters (PostgREST operators, e.g.
// "user_id" -> "eq.123"). Nil filters selects everything visible to the
// session.
func (t *Table) Select(ctx context.Context, filters url.Values) ([]map[string]interface{}, error) {
	var rows []map[string]interface{}
	if err := t.client.do(ctx, "GET", t.path(filters), t.accessToken, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Insert creates rows and returns the created representations.
func (t *Table) Insert(ctx context.Context, rows interface{}) ([]map[string]interface{}, error) {
	var created []map[string]interface{}
	filters := url.Values{"select": {"*"}}
	if err := t.client.do(ctx, "POST", t.path(filters), t.accessToken, rows, &created); err != nil {
		return nil, err
	}
	return created, nil
}

// Upsert creates or replaces rows keyed by the table's primary key and
// returns the resulting representations.
func (t *Table) Upsert(ctx context.Context, rows interface{}) ([]map[string]interface{}, error) {
	var result []map[string]interface{}
	filters := url.Values{"select": {"*"}, "on_conflict": {"id"}}
	if err := t.client.do(ctx, "POST", t.path(filters), t.accessToken, rows, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Update patches the rows matching filters with the given values.
func (t *Table) Update(ctx context.Context, filters url.Values, values interface{}) error {
	return t.client.do(ctx, "PATCH", t.path(filters), t.accessToken, values, nil)
}

// Delete removes the rows matching filters.
func (t *Table) Delete(ctx context.Context, filters url.Values) error {
	return t.client.do(ctx, "DELETE", t.path(filters), t.accessToken, nil, nil)
}
