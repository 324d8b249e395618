package mgostore

import (
	"context"

	metav1 "github.com/zdunecki/graphfleet/pkg/meta/v1"
	"github.com/zdunecki/graphfleet/pkg/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type partitionRepo struct {
	coll *mongo.Collection
}

func NewPartitionRepository(coll *mongo.Collection) store.Partitions {
	return &partitionRepo{
		coll: coll,
	}
}

func (r *partitionRepo) Insert(ctx context.Context, p *metav1.WorkerPartition) error {
	filter := bson.M{
		"partition_id": p.PartitionID,
		"graph_id":     p.GraphID,
		"worker_id":    p.WorkerID,
	}

	_, err := r.coll.ReplaceOne(ctx, filter, p, options.Replace().SetUpsert(true))
	return err
}

func (r *partitionRepo) FindByWorkerID(ctx context.Context, workerID int) ([]*metav1.WorkerPartition, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "graph_id", Value: 1}, {Key: "partition_id", Value: 1}}).
		SetProjection(bson.M{"_id": 0})

	cursor, err := r.coll.Find(ctx, bson.M{"worker_id": workerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var partitions []*metav1.WorkerPartition

	for cursor.Next(ctx) {
		var p metav1.WorkerPartition

		if err := cursor.Decode(&p); err != nil {
			return nil, err
		}

		partitions = append(partitions, &p)
	}

	return partitions, cursor.Err()
}

func (r *partitionRepo) DeleteByWorkerID(ctx context.Context, workerID int) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{"worker_id": workerID})
	return err
}
