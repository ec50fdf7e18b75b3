package services

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// AtomicRunner executes a compound unit of work (create purchase, compute BV,
// write every commission row) so that either all of its writes commit or none
// do. On deployments without multi-document transaction support the runner
// degrades to plain sequential execution; callers get a warning in the logs,
// not an error.
type AtomicRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
	// Transactional reports which strategy was selected at startup.
	Transactional() bool
}

type mongoTxnRunner struct {
	client *mongo.Client
	log    *logrus.Logger
}

func (r *mongoTxnRunner) Transactional() bool { return true }

func (r *mongoTxnRunner) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

type sequentialRunner struct {
	log *logrus.Logger
}

func (r *sequentialRunner) Transactional() bool { return false }

func (r *sequentialRunner) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	r.log.Warn("executing multi-document work without a transaction; partial writes possible on failure")
	return fn(ctx)
}

// NewAtomicRunner probes the deployment once at startup and returns the
// transactional runner when multi-document transactions are available, the
// sequential best-effort runner otherwise. The selection is not re-probed
// per call.
func NewAtomicRunner(ctx context.Context, client *mongo.Client, dbName string, log *logrus.Logger) AtomicRunner {
	if err := probeTransactions(ctx, client, dbName); err != nil {
		if errors.Is(err, ErrTransactionUnsupported) {
			log.Warn("storage backend does not support transactions (standalone deployment?); " +
				"falling back to sequential best-effort execution")
			return &sequentialRunner{log: log}
		}
		// Probe failed for an unrelated reason (network blip etc). Prefer
		// the safe strategy; individual transactions will report their own
		// errors.
		log.WithError(err).Warn("transaction capability probe inconclusive; assuming transactional")
	}
	log.Info("storage backend supports multi-document transactions")
	return &mongoTxnRunner{client: client, log: log}
}

// probeTransactions runs a read inside a throwaway transaction. Standalone
// mongod instances reject it with IllegalOperation (code 20).
func probeTransactions(ctx context.Context, client *mongo.Client, dbName string) error {
	session, err := client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		err := client.Database(dbName).Collection("referralRules").
			FindOne(sc, bson.M{"_id": nil}).Err()
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	})
	if err == nil {
		return nil
	}
	if isTxnUnsupported(err) {
		return ErrTransactionUnsupported
	}
	return err
}

func isTxnUnsupported(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		if cmdErr.Code == 20 { // IllegalOperation
			return true
		}
	}
	return strings.Contains(err.Error(), "Transaction numbers are only allowed")
}
