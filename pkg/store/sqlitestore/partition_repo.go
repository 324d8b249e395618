package sqlitestore

import (
	"context"
	"database/sql"

	metav1 "github.com/zdunecki/graphfleet/pkg/meta/v1"
	"github.com/zdunecki/graphfleet/pkg/store"
)

type partitionRepo struct {
	db *sql.DB
}

func NewPartitionRepository(db *sql.DB) store.Partitions {
	return &partitionRepo{db: db}
}

func (r *partitionRepo) Insert(ctx context.Context, p *metav1.WorkerPartition) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO worker_has_partition (partition_idpartition, partition_graph_idgraph, worker_idworker) VALUES (?, ?, ?)`,
		p.PartitionID, p.GraphID, p.WorkerID,
	)

	return err
}

func (r *partitionRepo) FindByWorkerID(ctx context.Context, workerID int) ([]*metav1.WorkerPartition, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT partition_idpartition, partition_graph_idgraph, worker_idworker FROM worker_has_partition
WHERE worker_idworker = ? ORDER BY partition_graph_idgraph, partition_idpartition`,
		workerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var partitions []*metav1.WorkerPartition

	for rows.Next() {
		p := &metav1.WorkerPartition{}
		if err := rows.Scan(&p.PartitionID, &p.GraphID, &p.WorkerID); err != nil {
			return nil, err
		}

		partitions = append(partitions, p)
	}

	return partitions, rows.Err()
}

func (r *partitionRepo) DeleteByWorkerID(ctx context.Context, workerID int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM worker_has_partition WHERE worker_idworker = ?`, workerID)
	return err
}
