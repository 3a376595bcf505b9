package database

import "time"

type Relocation struct {
	InfoHash    string
	Source      string
	Destination string
	Action      string
	PieceIndex  int64
	Time        time.Time
}

func (dbc *DBConn) Record(r Relocation) error {
	dbc.mu.Lock()
	defer dbc.mu.Unlock()

	if r.Time.IsZero() {
		r.Time = time.Now()
	}
	const insert string = `
	INSERT INTO relocations (info_hash, source, destination, action, piece_index, time)
	VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := dbc.db.Exec(insert, r.InfoHash, r.Source, r.Destination, r.Action, r.PieceIndex, r.Time.UTC())
	return err
}

// List returns the relocations recorded for a torrent, oldest first.
func (dbc *DBConn) List(infoHash string) ([]Relocation, error) {
	dbc.mu.Lock()
	defer dbc.mu.Unlock()

	const query string = `
	SELECT info_hash, source, destination, action, piece_index, time
	FROM relocations
	WHERE info_hash = ?
	ORDER BY id
	`
	rows, err := dbc.db.Query(query, infoHash)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var relocations []Relocation
	for rows.Next() {
		var r Relocation
		if err := rows.Scan(&r.InfoHash, &r.Source, &r.Destination, &r.Action, &r.PieceIndex, &r.Time); err != nil {
			return nil, err
		}
		relocations = append(relocations, r)
	}
	return relocations, rows.Err()
}
