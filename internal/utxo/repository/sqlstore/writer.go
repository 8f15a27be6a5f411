package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-ledger/pkg/writequeue"
	"github.com/jmoiron/sqlx"
)

// insertWriter writes records with multi-row INSERT statements. Rows that
// already exist are left untouched.
type insertWriter[V any] struct {
	store   *Store
	op      string
	table   func(V) string
	columns []string
	values  func(V) []any

	mu   sync.Mutex
	args []any
}

func (w *insertWriter[V]) WriteBatch(ctx context.Context, records []V) (err error) {
	start := time.Now()
	defer func() {
		w.store.metrics.Observe(w.op+"_batch", err, start)
	}()

	w.mu.Lock()
	defer w.mu.Unlock()

	tables, byTable := w.split(records)
	if len(tables) == 1 {
		return w.exec(ctx, w.store.db, tables[0], byTable[tables[0]])
	}

	tx, err := w.store.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s: %w", w.op, err)
	}
	for _, table := range tables {
		if err = w.exec(ctx, tx, table, byTable[table]); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", w.op, err)
	}
	return nil
}

func (w *insertWriter[V]) WriteOne(ctx context.Context, record V) (err error) {
	start := time.Now()
	defer func() {
		w.store.metrics.Observe(w.op, err, start)
	}()

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.exec(ctx, w.store.db, w.table(record), []V{record})
}

// Reset drops references to the last bound arguments.
func (w *insertWriter[V]) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	clear(w.args)
	w.args = w.args[:0]
}

func (w *insertWriter[V]) split(records []V) ([]string, map[string][]V) {
	var tables []string
	byTable := make(map[string][]V)
	for _, r := range records {
		t := w.table(r)
		if _, ok := byTable[t]; !ok {
			tables = append(tables, t)
		}
		byTable[t] = append(byTable[t], r)
	}
	return tables, byTable
}

func (w *insertWriter[V]) exec(ctx context.Context, ex sqlx.ExecerContext, table string, records []V) error {
	chunk := maxParams / len(w.columns)
	row := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(w.columns)), ", ") + ")"
	head := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", table, strings.Join(w.columns, ", "))

	for len(records) > 0 {
		n := min(chunk, len(records))
		part := records[:n]
		records = records[n:]

		var sb strings.Builder
		sb.WriteString(head)
		w.args = w.args[:0]
		for i, r := range part {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(row)
			w.args = append(w.args, w.values(r)...)
		}
		sb.WriteString(" ON CONFLICT DO NOTHING")

		if _, err := ex.ExecContext(ctx, w.store.db.Rebind(sb.String()), w.args...); err != nil {
			return fmt.Errorf("insert into %s: %w", table, err)
		}
	}
	return nil
}

// column describes one bound column of an update. A zero field bit means the
// column is always written.
type column[V any] struct {
	name  string
	field uint8
	value func(V) any
}

// updateWriter applies masked updates, one statement per record, inside a
// single database transaction per batch.
type updateWriter[V any] struct {
	store *Store
	op    string
	table func(V) string
	set   []column[V]
	where []column[V]
}

func (w *updateWriter[V]) statement(u writequeue.Update[V]) (string, []any) {
	var (
		sets   []string
		wheres []string
		args   []any
	)
	for _, c := range w.set {
		if c.field != 0 && u.Fields&c.field == 0 {
			continue
		}
		sets = append(sets, c.name+" = ?")
		args = append(args, c.value(u.Value))
	}
	if len(sets) == 0 {
		return "", nil
	}
	for _, c := range w.where {
		wheres = append(wheres, c.name+" = ?")
		args = append(args, c.value(u.Value))
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		w.table(u.Value), strings.Join(sets, ", "), strings.Join(wheres, " AND "))
	return w.store.db.Rebind(query), args
}

func (w *updateWriter[V]) WriteBatch(ctx context.Context, updates []writequeue.Update[V]) (err error) {
	start := time.Now()
	defer func() {
		w.store.metrics.Observe(w.op+"_batch", err, start)
	}()

	tx, err := w.store.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s: %w", w.op, err)
	}
	for _, u := range updates {
		query, args := w.statement(u)
		if query == "" {
			continue
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("%s: %w", w.op, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", w.op, err)
	}
	return nil
}

func (w *updateWriter[V]) WriteOne(ctx context.Context, u writequeue.Update[V]) (err error) {
	start := time.Now()
	defer func() {
		w.store.metrics.Observe(w.op, err, start)
	}()

	query, args := w.statement(u)
	if query == "" {
		return nil
	}
	if _, err = w.store.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: %w", w.op, err)
	}
	return nil
}

func constTable[V any](table string) func(V) string {
	return func(V) string { return table }
}
