package mongo

import (
	"context"
	"time"

	"bitbucket.org/localbzz/portalgo/internal/pkg/apperr"
	"bitbucket.org/localbzz/portalgo/internal/pkg/cmdapp"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	lockFree      = 0
	lockTaken     = 1
	lockCompleted = 2
	lockFailed    = 3

	transcriptionKey = "transcription"
)

type lockRecord struct {
	ID       string    `bson:"ID"`
	Key      string    `bson:"key"`
	Status   int       `bson:"status"`
	LockedAt time.Time `bson:"lockedAt,omitempty"`
	Error    string    `bson:"error,omitempty"`
}

// Locker acquires the per record transcription lock in db and keeps the job outcome
type Locker struct {
	SessionProvider *SessionProvider
	// Lease after which the taken lock is considered abandoned
	Lease time.Duration
	now   func() time.Time
}

//NewLocker creates Locker instance
func NewLocker(sessionProvider *SessionProvider, lease time.Duration) (*Locker, error) {
	if sessionProvider == nil {
		return nil, errors.New("No session provider")
	}
	if lease <= 0 {
		return nil, errors.New("No lock lease")
	}
	return &Locker{SessionProvider: sessionProvider, Lease: lease, now: time.Now}, nil
}

//Lock takes the record for transcription.
//Returns conflict if the record is already transcribed or is being transcribed right now
func (ss *Locker) Lock(ctx context.Context, id string) error {
	cmdapp.Log.Infof("Locking %s", id)

	c, mctx, cancel, err := newColl(ss.SessionProvider, lockTable)
	if err != nil {
		return err
	}
	defer cancel()
	id = sanitize(id)

	// make sure we have the record
	_, err = c.UpdateOne(mctx, bson.M{"ID": id, "key": transcriptionKey},
		bson.M{"$setOnInsert": bson.M{"status": lockFree}}, options.Update().SetUpsert(true))
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return errors.Wrap(err, "Can't init lock")
	}

	now := ss.now().UTC()
	err = c.FindOneAndUpdate(mctx, lockFilter(id, now, ss.Lease),
		bson.M{"$set": bson.M{"status": lockTaken, "lockedAt": now}, "$unset": bson.M{"error": ""}}).Err()
	if err == nil {
		return nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return errors.Wrap(err, "Can't lock")
	}
	var rec lockRecord
	if err := c.FindOne(mctx, bson.M{"ID": id, "key": transcriptionKey}).Decode(&rec); err != nil {
		return errors.Wrap(err, "Can't read lock")
	}
	return conflictFor(&rec)
}

//Unlock saves the job outcome and frees the lock
func (ss *Locker) Unlock(ctx context.Context, id string, completed bool, errText string) error {
	cmdapp.Log.Infof("Unlocking %s, completed: %t", id, completed)

	c, mctx, cancel, err := newColl(ss.SessionProvider, lockTable)
	if err != nil {
		return err
	}
	defer cancel()

	st := lockFailed
	if completed {
		st = lockCompleted
	}
	err = c.FindOneAndUpdate(mctx, bson.M{"ID": sanitize(id), "key": transcriptionKey, "status": lockTaken},
		bson.M{"$set": bson.M{"status": st, "error": errText}}).Err()
	cmdapp.LogIf(err)
	return err
}

// lock is free, failed before or its lease has expired
func lockFilter(id string, now time.Time, lease time.Duration) bson.M {
	return bson.M{"ID": id, "key": transcriptionKey, "$or": bson.A{
		bson.M{"status": lockFree},
		bson.M{"status": lockFailed},
		bson.M{"status": lockTaken, "lockedAt": bson.M{"$lt": now.Add(-lease)}},
	}}
}

func conflictFor(rec *lockRecord) error {
	if rec.Status == lockCompleted {
		return apperr.Conflict("Transcription already completed")
	}
	return apperr.Conflict("Transcription is in progress")
}
