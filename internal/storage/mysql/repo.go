package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"ulasan_sentimen/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func valInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func valTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return *p
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// UpsertReviews writes records one at a time so a single bad record is
// logged and skipped without aborting the batch. Returns how many records
// were actually written.
func (r *Repo) UpsertReviews(ctx context.Context, rs []domain.Review) (int, error) {
	written := 0
	for _, rv := range rs {
		if rv.ReviewID == "" {
			continue
		}
		_, err := r.db.ExecContext(ctx, upsertReviewSQL,
			rv.ReviewID,
			string(rv.Source),
			valStr(rv.Username),
			valStr(rv.CommentText),
			valInt(rv.Rating),
			valTime(rv.CreatedAt),
		)
		if err != nil {
			log.Warn().Str("review_id", rv.ReviewID).Err(err).Msg("upsert review failed")
			continue
		}
		written++
	}
	return written, nil
}

func (r *Repo) SetSentiment(ctx context.Context, reviewID string, label domain.Label, score float64, processedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, setSentimentSQL, string(label), score, processedAt, reviewID)
	return err
}

func (r *Repo) LogCrawl(ctx context.Context, l domain.CrawlLog) error {
	created := l.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, insertCrawlLogSQL,
		l.Target,
		string(l.Source),
		l.Status,
		valInt(l.ReviewCount),
		valStr(l.ErrorMsg),
		l.DurationMS,
		created,
	)
	return err
}

func (r *Repo) ListUnclassified(ctx context.Context, limit int) ([]domain.Review, error) {
	rows, err := r.db.QueryContext(ctx, listUnclassifiedSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReviews(rows)
}

func (r *Repo) ListReviews(ctx context.Context, q domain.ReviewsQuery) ([]domain.Review, error) {
	var (
		where []string
		args  []any
	)
	if q.Source != nil {
		where = append(where, "source = ?")
		args = append(args, string(*q.Source))
	}
	if q.Label != nil {
		where = append(where, "sentimen_label = ?")
		args = append(args, string(*q.Label))
	}

	sqlStr := `SELECT review_id, source, username, comment_text, rating, created_at,
       sentimen_label, sentiment_score, processed_at
FROM reviews`
	if len(where) > 0 {
		sqlStr += " WHERE " + strings.Join(where, " AND ")
	}
	sqlStr += " ORDER BY created_at DESC, review_id DESC LIMIT ?"
	args = append(args, q.Limit)

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReviews(rows)
}

func (r *Repo) Summary(ctx context.Context) (domain.Summary, error) {
	sum := domain.Summary{
		ByLabel:  map[domain.Label]int{},
		BySource: map[domain.Source]int{},
	}

	rows, err := r.db.QueryContext(ctx, summaryLabelsSQL)
	if err != nil {
		return domain.Summary{}, err
	}
	for rows.Next() {
		var label string
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			rows.Close()
			return domain.Summary{}, err
		}
		sum.Total += n
		if label == "" {
			sum.Unclassified = n
		} else {
			sum.ByLabel[domain.Label(label)] = n
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return domain.Summary{}, err
	}
	rows.Close()

	rows, err = r.db.QueryContext(ctx, summarySourcesSQL)
	if err != nil {
		return domain.Summary{}, err
	}
	for rows.Next() {
		var source string
		var n int
		if err := rows.Scan(&source, &n); err != nil {
			rows.Close()
			return domain.Summary{}, err
		}
		sum.BySource[domain.Source(source)] = n
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return domain.Summary{}, err
	}
	rows.Close()

	var avg sql.NullFloat64
	if err := r.db.QueryRowContext(ctx, summaryRatingSQL).Scan(&avg); err != nil {
		return domain.Summary{}, err
	}
	if avg.Valid {
		f := avg.Float64
		sum.AvgRating = &f
	}
	return sum, nil
}

func (r *Repo) ListCrawlLogs(ctx context.Context, limit int) ([]domain.CrawlLog, error) {
	rows, err := r.db.QueryContext(ctx, listCrawlLogsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CrawlLog
	for rows.Next() {
		var (
			l      domain.CrawlLog
			source string
			count  sql.NullInt64
			msg    sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.Target, &source, &l.Status, &count, &msg, &l.DurationMS, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.Source = domain.Source(source)
		if count.Valid {
			n := int(count.Int64)
			l.ReviewCount = &n
		}
		if msg.Valid {
			s := msg.String
			l.ErrorMsg = &s
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanReviews(rows *sql.Rows) ([]domain.Review, error) {
	var out []domain.Review
	for rows.Next() {
		var (
			rv        domain.Review
			source    string
			username  sql.NullString
			text      sql.NullString
			rating    sql.NullInt64
			createdAt sql.NullTime
			label     sql.NullString
			score     sql.NullFloat64
			processed sql.NullTime
		)
		if err := rows.Scan(&rv.ReviewID, &source, &username, &text, &rating, &createdAt, &label, &score, &processed); err != nil {
			return nil, err
		}
		rv.Source = domain.Source(source)
		if username.Valid {
			s := username.String
			rv.Username = &s
		}
		if text.Valid {
			s := text.String
			rv.CommentText = &s
		}
		if rating.Valid {
			n := int(rating.Int64)
			rv.Rating = &n
		}
		if createdAt.Valid {
			t := createdAt.Time
			rv.CreatedAt = &t
		}
		if label.Valid {
			l := domain.Label(label.String)
			rv.SentimentLabel = &l
		}
		if score.Valid {
			f := score.Float64
			rv.SentimentScore = &f
		}
		if processed.Valid {
			t := processed.Time
			rv.ProcessedAt = &t
		}
		// Partial sentiment rows cannot be produced by this system; a
		// record is either fully labeled or fully null.
		if rv.SentimentLabel == nil && (rv.SentimentScore != nil || rv.ProcessedAt != nil) {
			return nil, fmt.Errorf("review %s has partial sentiment state", rv.ReviewID)
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
