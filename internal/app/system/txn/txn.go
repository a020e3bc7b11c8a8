// internal/app/system/txn/txn.go
//
// Package txn wraps multi-document writes in a MongoDB transaction when the
// server supports one (replica set / mongos), and falls back to running the
// callback without a transaction on standalone servers. The member-create and
// award paths depend on this for their both-or-neither writes; on a standalone
// dev server the fallback gives best-effort sequencing instead.
package txn

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Fn is the unit of work. It must issue every write with the context it is
// given so the writes join the session when one is active.
type Fn func(ctx context.Context) error

// WithTransaction runs fn inside a MongoDB transaction. If the server rejects
// transactions (standalone mongod), fn is retried once outside a session and
// a warning is logged; the caller keeps both-or-neither semantics only on
// replica-set deployments.
func WithTransaction(ctx context.Context, client *mongo.Client, log *zap.Logger, fn Fn) error {
	sess, err := client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			logFallback(log, err)
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		logFallback(log, err)
		return fn(ctx)
	}
	return err
}

func logFallback(log *zap.Logger, err error) {
	if log != nil {
		log.Warn("mongo transactions unsupported, running writes without a session", zap.Error(err))
	}
}

// Transaction-unsupported server error codes:
// 20 IllegalOperation, 51 ..., 263 OperationNotSupportedInTransaction.
var notSupportedCodes = map[int32]bool{20: true, 51: true, 263: true}

// Keyword pairs that mark a "transactions not supported here" error when the
// driver surfaces it as a plain error string.
var notSupportedPairs = [][2]string{
	{"transaction", "replica set"},
	{"session", "not supported"},
	{"transaction", "session"},
	{"illegal operation", "transaction"},
}

// IsNotSupported reports whether err indicates the server cannot run
// multi-document transactions (standalone mongod, old wire version).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var cmdErr mongo.CommandError
	if ok := asCommandError(err, &cmdErr); ok {
		return notSupportedCodes[cmdErr.Code]
	}

	msg := strings.ToLower(err.Error())
	for _, pair := range notSupportedPairs {
		if strings.Contains(msg, pair[0]) && strings.Contains(msg, pair[1]) {
			return true
		}
	}
	return false
}

func asCommandError(err error, target *mongo.CommandError) bool {
	if ce, ok := err.(mongo.CommandError); ok {
		*target = ce
		return true
	}
	return false
}
