package sqlitestore

import (
	"context"
	"database/sql"
	"errors"

	log "github.com/sirupsen/logrus"
	metav1 "github.com/zdunecki/graphfleet/pkg/meta/v1"
	"github.com/zdunecki/graphfleet/pkg/store"
)

const (
	upsertWorkerQuery = `INSERT INTO worker (idworker, host_idhost, name, ip, server_port, server_data_port)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(idworker) DO UPDATE SET
	host_idhost = excluded.host_idhost,
	name = excluded.name,
	ip = excluded.ip,
	server_port = excluded.server_port,
	server_data_port = excluded.server_data_port`

	selectWorkerColumns = `SELECT idworker, host_idhost, name, ip, server_port, server_data_port FROM worker`
)

type workerRepo struct {
	db *sql.DB

	log *log.Entry
}

func NewWorkerRepository(db *sql.DB, logger *log.Entry) store.Workers {
	return &workerRepo{
		db:  db,
		log: logger,
	}
}

func (r *workerRepo) Upsert(ctx context.Context, w *metav1.Worker) (int, error) {
	if _, err := r.db.ExecContext(ctx, upsertWorkerQuery, w.ID, w.HostRef, w.ServiceName, w.IP, w.Port, w.DataPort); err != nil {
		return store.InvalidRowID, err
	}

	// idworker is the rowid, last_insert_rowid is not updated on the conflict path
	r.log.Debugf("worker row upserted, id=%d", w.ID)

	return w.ID, nil
}

func (r *workerRepo) FindByID(ctx context.Context, id int) (*metav1.Worker, error) {
	row := r.db.QueryRowContext(ctx, selectWorkerColumns+` WHERE idworker = ?`, id)

	w, err := scanWorker(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return w, nil
}

func (r *workerRepo) List(ctx context.Context) ([]*metav1.Worker, error) {
	rows, err := r.db.QueryContext(ctx, selectWorkerColumns+` ORDER BY idworker`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workers []*metav1.Worker

	for rows.Next() {
		w, err := scanWorker(rows)
		if err != nil {
			return nil, err
		}

		workers = append(workers, w)
	}

	return workers, rows.Err()
}

func (r *workerRepo) DeleteByID(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM worker WHERE idworker = ?`, id)
	return err
}

func (r *workerRepo) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM worker`)
	return err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanWorker(s scanner) (*metav1.Worker, error) {
	w := &metav1.Worker{
		Status: metav1.WorkerStatusActive,
	}

	if err := s.Scan(&w.ID, &w.HostRef, &w.ServiceName, &w.IP, &w.Port, &w.DataPort); err != nil {
		return nil, err
	}

	return w, nil
}
