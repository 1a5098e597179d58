package repository

const (
	createTrackQuery = `INSERT INTO tracks (track_id, recording_id, participant_id, kind, state)
					VALUES ($1, $2, $3, $4, 'recording') RETURNING *`

	getTrackByIDQuery = `SELECT track_id, recording_id, participant_id, kind, state, storage_key_raw,
					storage_key_final, codec, duration_ms, created_at, updated_at
					FROM tracks WHERE track_id = $1`

	markProcessedQuery = `UPDATE tracks SET state = 'processed', storage_key_final = $2, codec = $3,
					duration_ms = $4, updated_at = now()
					WHERE track_id = $1`

	latestProcessedByKindQuery = `SELECT track_id, recording_id, participant_id, kind, state, storage_key_raw,
					storage_key_final, codec, duration_ms, created_at, updated_at
					FROM tracks
					WHERE recording_id = $1 AND kind = $2 AND state = 'processed'
					ORDER BY updated_at DESC LIMIT 1`
)
