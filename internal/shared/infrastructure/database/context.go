package database

import "context"

type txKey struct{}

// TxInfo holds the transaction in context and whether the holder owns it.
type TxInfo struct {
	Tx    Transaction
	Owned bool
}

// WithTx stores transaction info in the context.
func WithTx(ctx context.Context, tx Transaction, owned bool) context.Context {
	return context.WithValue(ctx, txKey{}, TxInfo{Tx: tx, Owned: owned})
}

// TxFromContext extracts the transaction from the context, or nil.
func TxFromContext(ctx context.Context) Transaction {
	info, ok := TxInfoFromContext(ctx)
	if !ok {
		return nil
	}
	return info.Tx
}

// TxInfoFromContext extracts full transaction info from the context.
func TxInfoFromContext(ctx context.Context) (TxInfo, bool) {
	info, ok := ctx.Value(txKey{}).(TxInfo)
	if !ok || info.Tx == nil {
		return TxInfo{}, false
	}
	return info, true
}

// ExecutorFromContext returns the transaction in ctx, or conn when there is none.
// Repositories write queries with ? placeholders; on PostgreSQL the returned
// executor rewrites them to $n.
func ExecutorFromContext(ctx context.Context, conn Connection) Executor {
	var exec Executor = conn
	if tx := TxFromContext(ctx); tx != nil {
		exec = tx
	}
	if conn.Driver() == DriverPostgres {
		return rebindingExecutor{next: exec}
	}
	return exec
}
