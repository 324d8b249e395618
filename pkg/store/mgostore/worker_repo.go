package mgostore

import (
	"context"

	log "github.com/sirupsen/logrus"
	metav1 "github.com/zdunecki/graphfleet/pkg/meta/v1"
	"github.com/zdunecki/graphfleet/pkg/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type workerRepo struct {
	coll *mongo.Collection

	log *log.Entry
}

func NewWorkerRepository(coll *mongo.Collection, logger *log.Entry) store.Workers {
	return &workerRepo{
		coll: coll,
		log:  logger,
	}
}

func (r *workerRepo) Upsert(ctx context.Context, w *metav1.Worker) (int, error) {
	row := *w
	row.Status = metav1.WorkerStatusActive

	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": w.ID}, row, options.Replace().SetUpsert(true))
	if err != nil {
		return store.InvalidRowID, err
	}

	r.log.Debugf("worker document upserted, id=%d", w.ID)

	return w.ID, nil
}

func (r *workerRepo) FindByID(ctx context.Context, id int) (*metav1.Worker, error) {
	result := r.coll.FindOne(ctx, bson.M{
		"_id": id,
	})
	if result.Err() == mongo.ErrNoDocuments {
		return nil, store.ErrNotFound
	}
	if result.Err() != nil {
		return nil, result.Err()
	}

	var w *metav1.Worker

	if err := result.Decode(&w); err != nil {
		return nil, err
	}

	return w, nil
}

func (r *workerRepo) List(ctx context.Context) ([]*metav1.Worker, error) {
	cursor, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var workers []*metav1.Worker

	for cursor.Next(ctx) {
		var w metav1.Worker

		if err := cursor.Decode(&w); err != nil {
			return nil, err
		}

		workers = append(workers, &w)
	}

	return workers, cursor.Err()
}

func (r *workerRepo) DeleteByID(ctx context.Context, id int) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *workerRepo) DeleteAll(ctx context.Context) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{})
	return err
}
