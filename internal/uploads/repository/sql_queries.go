package repository

const (
	createTrackForUploadQuery = `INSERT INTO tracks (track_id, recording_id, participant_id, kind, state)
					VALUES ($1, $2, $3, $4, 'recording') RETURNING *`

	createUploadQuery = `INSERT INTO uploads (upload_id, track_id, protocol, state, bytes_received,
					storage_bucket, object_key, multipart_id, part_size, expected_size)
					VALUES ($1, $2, $3, 'in_progress', 0, $4, $5, $6, $7, $8) RETURNING *`

	getUploadByIDQuery = `SELECT upload_id, track_id, protocol, state, bytes_received, storage_bucket,
					object_key, multipart_id, part_size, expected_size, created_at, updated_at
					FROM uploads WHERE upload_id = $1`

	completeUploadQuery = `UPDATE uploads SET state = 'completed', bytes_received = $2, updated_at = now()
					WHERE upload_id = $1 AND state = 'in_progress'`

	markTrackUploadedQuery = `UPDATE tracks SET state = 'uploaded', storage_key_raw = $2, updated_at = now()
					WHERE track_id = $1`

	mapExternalSessionQuery = `INSERT INTO upload_external_sessions (upload_id, external_session_id)
					VALUES ($1, $2) ON CONFLICT (upload_id) DO NOTHING`

	getExternalSessionQuery = `SELECT external_session_id FROM upload_external_sessions WHERE upload_id = $1`
)
