package state

import (
	"database/sql"
	"errors"
	"time"

	dbutil "github.com/mlenormand/ebb/internal/db"
	"github.com/mlenormand/ebb/internal/playlist"
)

// QueueTrack is one saved queue entry.
type QueueTrack struct {
	ID       string
	Title    string
	Artist   string
	Album    string
	Duration time.Duration
}

// QueueState is the saved queue, in play order.
type QueueState struct {
	CurrentIndex int
	RepeatMode   int
	Shuffle      bool
	Tracks       []QueueTrack
}

// QueueStateFrom captures a queue for saving.
func QueueStateFrom(q *playlist.Queue) QueueState {
	tracks := q.Tracks()
	saved := make([]QueueTrack, len(tracks))
	for i, t := range tracks {
		saved[i] = QueueTrack{
			ID:       t.ID,
			Title:    t.Title,
			Artist:   t.Artist,
			Album:    t.Album,
			Duration: t.Duration,
		}
	}
	return QueueState{
		CurrentIndex: q.CurrentIndex(),
		RepeatMode:   int(q.RepeatMode()),
		Shuffle:      q.Shuffle(),
		Tracks:       saved,
	}
}

// PlaylistTracks converts the saved entries back to queue tracks.
func (s QueueState) PlaylistTracks() []playlist.Track {
	tracks := make([]playlist.Track, len(s.Tracks))
	for i, t := range s.Tracks {
		tracks[i] = playlist.Track{
			ID:       t.ID,
			Title:    t.Title,
			Artist:   t.Artist,
			Album:    t.Album,
			Duration: t.Duration,
		}
	}
	return tracks
}

func getQueue(db *sql.DB) (*QueueState, error) {
	var currentIndex, repeatMode int
	var shuffle bool
	row := db.QueryRow(`SELECT current_index, repeat_mode, shuffle FROM queue_state WHERE id = 1`)
	err := row.Scan(&currentIndex, &repeatMode, &shuffle)
	if errors.Is(err, sql.ErrNoRows) {
		return &QueueState{CurrentIndex: -1}, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`
		SELECT track_id, title, artist, album, duration_ms
		FROM queue_tracks
		ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []QueueTrack
	for rows.Next() {
		var t QueueTrack
		var artist, album sql.NullString
		var durationMS sql.NullInt64

		if err := rows.Scan(&t.ID, &t.Title, &artist, &album, &durationMS); err != nil {
			return nil, err
		}

		t.Artist = dbutil.NullStringValue(artist)
		t.Album = dbutil.NullStringValue(album)
		t.Duration = time.Duration(dbutil.NullInt64Value(durationMS)) * time.Millisecond
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &QueueState{
		CurrentIndex: currentIndex,
		RepeatMode:   repeatMode,
		Shuffle:      shuffle,
		Tracks:       tracks,
	}, nil
}

func saveQueue(sqlDB *sql.DB, state QueueState) error {
	return dbutil.WithTx(sqlDB, func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM queue_tracks`)
		if err != nil {
			return err
		}

		_, err = tx.Exec(`
			INSERT INTO queue_state (id, current_index, repeat_mode, shuffle)
			VALUES (1, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				current_index = excluded.current_index,
				repeat_mode = excluded.repeat_mode,
				shuffle = excluded.shuffle
		`, state.CurrentIndex, state.RepeatMode, state.Shuffle)
		if err != nil {
			return err
		}

		stmt, err := tx.Prepare(`
			INSERT INTO queue_tracks (position, track_id, title, artist, album, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, t := range state.Tracks {
			_, err = stmt.Exec(i, t.ID, t.Title, t.Artist, t.Album, t.Duration.Milliseconds())
			if err != nil {
				return err
			}
		}
		return nil
	})
}
