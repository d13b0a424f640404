package repository

import "database/sql"

// requireAffected turns a zero-row UPDATE into ErrNotFound. The DSN enables
// clientFoundRows, so an UPDATE that matches but changes nothing still
// counts as one row.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
