package repository

const (
	deleteSegmentsQuery = `DELETE FROM transcript_segments WHERE recording_id = $1 AND track_id = $2`

	insertSegmentQuery = `INSERT INTO transcript_segments (segment_id, recording_id, track_id, start_ms, end_ms, text, speaker, confidence)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	getSegmentsByRecordingQuery = `SELECT segment_id, recording_id, track_id, start_ms, end_ms, text, speaker, confidence, created_at
					FROM transcript_segments WHERE recording_id = $1 ORDER BY track_id, start_ms`

	getSegmentsByTrackQuery = `SELECT segment_id, recording_id, track_id, start_ms, end_ms, text, speaker, confidence, created_at
					FROM transcript_segments WHERE track_id = $1 ORDER BY start_ms`
)
