// internal/app/system/activitylog/activitylog.go
//
// Package activitylog records member events in the activity_log collection.
// Recording is strictly best-effort: a failed append is logged and dropped,
// never surfaced to the caller, so a flaky log write can never fail a
// member operation that already committed.
package activitylog

import (
	"context"

	"github.com/dalemusser/dojohub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Appender is the sink entries are written to, usually the activity store.
type Appender interface {
	Append(ctx context.Context, e models.ActivityEntry) error
}

// Recorder writes activity entries without propagating failures.
type Recorder struct {
	store Appender
	log   *zap.Logger
}

func New(store Appender, log *zap.Logger) *Recorder {
	return &Recorder{store: store, log: log}
}

// Record appends one event. Errors are swallowed after logging.
func (r *Recorder) Record(ctx context.Context, memberID, actorID primitive.ObjectID, event string, detail map[string]string) {
	if r == nil || r.store == nil {
		return
	}
	err := r.store.Append(ctx, models.ActivityEntry{
		MemberID: memberID,
		ActorID:  actorID,
		Event:    event,
		Detail:   detail,
	})
	if err != nil && r.log != nil {
		r.log.Warn("activity log append failed",
			zap.String("event", event),
			zap.String("member_id", memberID.Hex()),
			zap.Error(err))
	}
}
