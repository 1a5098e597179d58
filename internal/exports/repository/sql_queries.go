package repository

const (
	createExportQuery = `INSERT INTO export_artifacts (export_id, recording_id, type, state)
					VALUES ($1, $2, $3, 'queued') RETURNING *`

	getExportByIDQuery = `SELECT export_id, recording_id, type, state, storage_key, last_error, created_at, updated_at
					FROM export_artifacts WHERE export_id = $1`

	getActiveExportQuery = `SELECT export_id, recording_id, type, state, storage_key, last_error, created_at, updated_at
					FROM export_artifacts
					WHERE recording_id = $1 AND type = $2 AND state IN ('queued', 'running', 'succeeded')
					ORDER BY created_at DESC LIMIT 1`

	markExportRunningQuery = `UPDATE export_artifacts SET state = 'running', updated_at = now()
					WHERE export_id = $1`

	markExportSucceededQuery = `UPDATE export_artifacts SET state = 'succeeded', storage_key = $2,
					last_error = NULL, updated_at = now()
					WHERE export_id = $1`

	markExportFailedQuery = `UPDATE export_artifacts SET state = 'failed', last_error = $2, updated_at = now()
					WHERE export_id = $1`
)
