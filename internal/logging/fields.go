package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldSessionID is the standardized key for session identifiers.
	FieldSessionID = "session_id"
	// FieldEntityID is the standardized key for spawned entity identifiers.
	FieldEntityID = "entity_id"
	// FieldAudioSource is the standardized key for the capture backend name.
	FieldAudioSource = "audio_source"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint carries the operator-facing next step for a failure.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)
