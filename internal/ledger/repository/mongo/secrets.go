package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// PutSecret stores a sealed secret for owner.
func (r *Repository) PutSecret(ctx context.Context, owner string, sealed []byte) (err error) {
	started := time.Now()
	defer func() {
		r.observe("put_secret", err, started)
	}()

	doc := secretDoc{Owner: owner, Sealed: sealed, CreatedAt: time.Now().UTC()}
	if _, err = r.collection(keysCollection).InsertOne(ctx, doc); err != nil {
		return duplicate(err, "secret for %s", owner)
	}
	return nil
}

// Secret returns the sealed secret of owner.
func (r *Repository) Secret(ctx context.Context, owner string) (sealed []byte, err error) {
	started := time.Now()
	defer func() {
		r.observe("secret", err, started)
	}()

	var doc secretDoc
	if err = r.findOne(ctx, keysCollection, bson.M{"_id": owner}, &doc, "secret for "+owner); err != nil {
		return nil, err
	}
	return doc.Sealed, nil
}
