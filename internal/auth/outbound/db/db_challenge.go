package db

import (
	"context"

	"github.com/authgate/authgate/internal/auth/entity"
)

const upsertChallengeSQL = `
INSERT INTO auth_otp_challenges (user_id, code_hash, issued_at, expires_at, consumed, attempts)
VALUES ($1, $2, $3, $4, FALSE, 0)
ON CONFLICT (user_id) DO UPDATE
SET code_hash = EXCLUDED.code_hash,
	issued_at  = EXCLUDED.issued_at,
	expires_at = EXCLUDED.expires_at,
	consumed   = FALSE,
	attempts   = 0`

// UpsertChallenge stores a fresh challenge, superseding any previous one for
// the same subject in a single statement.
func (s *DB) UpsertChallenge(ctx context.Context, in entity.OtpChallenge) (err error) {
	ctx, span := s.startSpan(ctx, "UpsertChallenge")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, upsertChallengeSQL, in.UserID, in.CodeHash, in.IssuedAt, in.ExpiresAt)
	err = s.mapError(err)
	return err
}

const getChallengeSQL = `
SELECT user_id, code_hash, issued_at, expires_at, consumed, attempts
FROM auth_otp_challenges
WHERE user_id = $1`

func (s *DB) GetChallenge(ctx context.Context, userID int64) (chal *entity.OtpChallenge, err error) {
	ctx, span := s.startSpan(ctx, "GetChallenge")
	defer func() { s.endSpan(span, err) }()

	var c entity.OtpChallenge
	err = s.conn.QueryRow(ctx, getChallengeSQL, userID).Scan(
		&c.UserID,
		&c.CodeHash,
		&c.IssuedAt,
		&c.ExpiresAt,
		&c.Consumed,
		&c.Attempts,
	)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return &c, nil
}

const consumeChallengeSQL = `
UPDATE auth_otp_challenges
SET consumed = TRUE
WHERE user_id = $1 AND consumed = FALSE`

// ConsumeChallenge reports whether this call flipped the consumed flag, so
// concurrent verifications of the same code cannot both succeed.
func (s *DB) ConsumeChallenge(ctx context.Context, userID int64) (ok bool, err error) {
	ctx, span := s.startSpan(ctx, "ConsumeChallenge")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, consumeChallengeSQL, userID)
	if err != nil {
		err = s.mapError(err)
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

const recordFailedAttemptSQL = `
UPDATE auth_otp_challenges
SET attempts = attempts + 1,
	consumed = (attempts + 1 >= $2)
WHERE user_id = $1 AND consumed = FALSE
RETURNING attempts, consumed`

// RecordFailedAttempt bumps the attempt counter and consumes the challenge
// once the bound is reached, all in one statement.
func (s *DB) RecordFailedAttempt(ctx context.Context, userID int64, maxAttempts int16) (attempts int16, locked bool, err error) {
	ctx, span := s.startSpan(ctx, "RecordFailedAttempt")
	defer func() { s.endSpan(span, err) }()

	err = s.conn.QueryRow(ctx, recordFailedAttemptSQL, userID, maxAttempts).Scan(&attempts, &locked)
	if err != nil {
		err = s.mapError(err)
		return 0, false, err
	}

	return attempts, locked, nil
}
