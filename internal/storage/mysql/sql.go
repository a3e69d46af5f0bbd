package mysql

// Last write wins by review_id, except sentiment columns: those are owned
// by the classification pipeline and a re-crawl must never clear or
// half-update them.
const upsertReviewSQL = `
INSERT INTO reviews
  (review_id, source, username, comment_text, rating, created_at)
VALUES
  (?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  source       = VALUES(source),
  username     = COALESCE(VALUES(username), reviews.username),
  comment_text = COALESCE(VALUES(comment_text), reviews.comment_text),
  rating       = COALESCE(VALUES(rating), reviews.rating),
  created_at   = COALESCE(VALUES(created_at), reviews.created_at)
`

// The IS NULL guard makes classification terminal at the store level: a
// labeled record cannot be relabeled even by a racing pass.
const setSentimentSQL = `
UPDATE reviews
SET sentimen_label = ?, sentiment_score = ?, processed_at = ?
WHERE review_id = ? AND sentimen_label IS NULL
`

const listUnclassifiedSQL = `
SELECT review_id, source, username, comment_text, rating, created_at,
       sentimen_label, sentiment_score, processed_at
FROM reviews
WHERE sentimen_label IS NULL
ORDER BY inserted_at
LIMIT ?
`

const insertCrawlLogSQL = `
INSERT INTO crawl_logs (target, source, status, review_count, error_msg, duration_ms, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

const listCrawlLogsSQL = `
SELECT id, target, source, status, review_count, error_msg, duration_ms, created_at
FROM crawl_logs
ORDER BY created_at DESC, id DESC
LIMIT ?
`

const summaryLabelsSQL = `
SELECT COALESCE(sentimen_label, ''), COUNT(*)
FROM reviews
GROUP BY sentimen_label
`

const summarySourcesSQL = `
SELECT source, COUNT(*)
FROM reviews
GROUP BY source
`

const summaryRatingSQL = `
SELECT AVG(rating)
FROM reviews
WHERE rating IS NOT NULL
`
