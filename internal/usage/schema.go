package usage

const createUsage = `CREATE TABLE IF NOT EXISTS model_usage (
    model_id TEXT PRIMARY KEY,
    loads INTEGER NOT NULL DEFAULT 0,
    inferences INTEGER NOT NULL DEFAULT 0,
    total_infer_ms INTEGER NOT NULL DEFAULT 0,
    last_loaded_at TEXT,
    last_used_at TEXT
);`

const (
	upsertLoad = `INSERT INTO model_usage (model_id, loads, last_loaded_at, last_used_at)
VALUES (?, 1, ?, ?)
ON CONFLICT(model_id) DO UPDATE SET
    loads = loads + 1,
    last_loaded_at = excluded.last_loaded_at,
    last_used_at = excluded.last_used_at;`

	upsertInference = `INSERT INTO model_usage (model_id, inferences, total_infer_ms, last_used_at)
VALUES (?, 1, ?, ?)
ON CONFLICT(model_id) DO UPDATE SET
    inferences = inferences + 1,
    total_infer_ms = total_infer_ms + excluded.total_infer_ms,
    last_used_at = excluded.last_used_at;`

	selectColumns = `SELECT model_id, loads, inferences, total_infer_ms, last_loaded_at, last_used_at FROM model_usage`
)
