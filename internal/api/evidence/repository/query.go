package evidenceRepository

const (
	queryCreateEvidenceRecord = `
		INSERT INTO evidence_records (
			evidence_id,
			scan_id,
			frame_index,
			detections,
			persons_blurred,
			max_confidence,
			image_key,
			thumbnail_key,
			created_at
		) VALUES (
			:evidence_id,
			:scan_id,
			:frame_index,
			:detections,
			:persons_blurred,
			:max_confidence,
			:image_key,
			:thumbnail_key,
			:created_at
		)
		ON CONFLICT (evidence_id) DO NOTHING
	`

	queryUpdateEvidenceDetections = `
		UPDATE evidence_records
		SET
			detections = :detections,
			max_confidence = :max_confidence
		WHERE evidence_id = :evidence_id
	`

	queryGetEvidenceByID = `
		SELECT
			evidence_id,
			scan_id,
			frame_index,
			detections,
			persons_blurred,
			max_confidence,
			image_key,
			thumbnail_key,
			created_at
		FROM evidence_records
		WHERE evidence_id = :evidence_id
	`

	queryListEvidenceByScan = `
		SELECT
			evidence_id,
			scan_id,
			frame_index,
			detections,
			persons_blurred,
			max_confidence,
			image_key,
			thumbnail_key,
			created_at
		FROM evidence_records
		WHERE scan_id = :scan_id
		ORDER BY max_confidence DESC, frame_index ASC
	`

	queryCountEvidenceByScan = `
		SELECT COUNT(*) FROM evidence_records
		WHERE scan_id = :scan_id
	`

	queryDeleteEvidenceByScan = `
		DELETE FROM evidence_records
		WHERE scan_id = :scan_id
	`

	queryCreateAuditEntry = `
		INSERT INTO privacy_audit (
			id,
			scan_id,
			frame_index,
			persons_found,
			action,
			created_at
		) VALUES (
			:id,
			:scan_id,
			:frame_index,
			:persons_found,
			:action,
			:created_at
		)
	`

	queryListAuditByScan = `
		SELECT
			id,
			scan_id,
			frame_index,
			persons_found,
			action,
			created_at
		FROM privacy_audit
		WHERE scan_id = :scan_id
		ORDER BY created_at ASC
	`

	queryCountAuditByScan = `
		SELECT COUNT(*) FROM privacy_audit
		WHERE scan_id = :scan_id
	`
)
