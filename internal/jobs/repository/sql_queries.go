package repository

const (
	createJobQuery = `INSERT INTO jobs (job_id, recording_id, type, payload, state, attempts)
					VALUES ($1, $2, $3, $4, 'queued', 0) RETURNING *`

	// Single-statement claim: the inner select takes a row lock, SKIP LOCKED
	// keeps concurrent claimants from blocking on or observing each other's
	// candidate row.
	claimNextJobQuery = `UPDATE jobs SET state = 'running', attempts = attempts + 1, updated_at = now()
					WHERE job_id = (
						SELECT job_id FROM jobs
						WHERE type = $1 AND state = 'queued'
						ORDER BY created_at ASC
						LIMIT 1
						FOR UPDATE SKIP LOCKED
					) RETURNING *`

	markSucceededQuery = `UPDATE jobs SET state = 'succeeded', last_error = NULL, updated_at = now()
					WHERE job_id = $1 AND state = 'running'`

	markFailedQuery = `UPDATE jobs SET state = $2, last_error = $3, updated_at = now()
					WHERE job_id = $1 AND state = 'running'`

	getJobByIDQuery = `SELECT job_id, recording_id, type, payload, state, attempts, last_error, created_at, updated_at
					FROM jobs WHERE job_id = $1`

	getJobsByRecordingQuery = `SELECT job_id, recording_id, type, payload, state, attempts, last_error, created_at, updated_at
					FROM jobs WHERE recording_id = $1 ORDER BY created_at OFFSET $2 LIMIT $3`

	getTotalJobsByRecordingQuery = `SELECT COUNT(job_id) FROM jobs WHERE recording_id = $1`
)
