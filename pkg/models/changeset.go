package models

// Changeset is a storage-ready set of column assignments produced by the
// record assembler. It preserves insertion order so generated SQL is
// deterministic, and it distinguishes "column absent" from "column set to
// NULL" - a partial update must only touch columns that were present in
// the input.
type Changeset struct {
	columns []string
	values  map[string]any
}

// NewChangeset returns an empty changeset.
func NewChangeset() *Changeset {
	return &Changeset{values: make(map[string]any)}
}

// Set assigns a value to a column. Setting the same column twice keeps
// its original position.
func (c *Changeset) Set(column string, value any) {
	if _, ok := c.values[column]; !ok {
		c.columns = append(c.columns, column)
	}
	c.values[column] = value
}

// Has reports whether the column is present.
func (c *Changeset) Has(column string) bool {
	_, ok := c.values[column]
	return ok
}

// Get returns the value for a column and whether it is present.
func (c *Changeset) Get(column string) (any, bool) {
	v, ok := c.values[column]
	return v, ok
}

// Columns returns the column names in insertion order.
func (c *Changeset) Columns() []string {
	return c.columns
}

// Values returns the values in column order.
func (c *Changeset) Values() []any {
	vals := make([]any, len(c.columns))
	for i, col := range c.columns {
		vals[i] = c.values[col]
	}
	return vals
}

// Len returns the number of assigned columns.
func (c *Changeset) Len() int {
	return len(c.columns)
}
