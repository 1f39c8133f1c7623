package scanRepository

const (
	queryCreateHistoryEntry = `
		INSERT INTO scan_history (
			id,
			scan_id,
			scan_type,
			room,
			risk_score,
			risk_level,
			defect_count,
			frames_scanned,
			completed_at
		) VALUES (
			:id,
			:scan_id,
			:scan_type,
			:room,
			:risk_score,
			:risk_level,
			:defect_count,
			:frames_scanned,
			:completed_at
		)
	`

	queryListHistory = `
		SELECT
			id,
			scan_id,
			scan_type,
			room,
			risk_score,
			risk_level,
			defect_count,
			frames_scanned,
			completed_at
		FROM scan_history
		ORDER BY completed_at DESC
		LIMIT :limit
	`

	queryGetHistoryByScanID = `
		SELECT
			id,
			scan_id,
			scan_type,
			room,
			risk_score,
			risk_level,
			defect_count,
			frames_scanned,
			completed_at
		FROM scan_history
		WHERE scan_id = :scan_id
	`

	queryDeleteHistoryByID = `
		DELETE FROM scan_history
		WHERE id = :id
	`
)
