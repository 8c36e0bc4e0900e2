package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"gitlab.com/dirk.krummacker/contact-manager/internal/model"
)

// Server error codes, see https://www.mongodb.com/docs/manual/reference/error-codes/
const (
	namespaceExists           = 48
	documentValidationFailure = 121
)

// MongoConfig is the set of properties required to reach the document store.
type MongoConfig struct {
	URI            string
	Database       string
	Collection     string
	ConnectTimeout time.Duration
}

// contactDocument is the stored shape of a contact. The id is generated by the driver on insert.
type contactDocument struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	FirstName string        `bson:"firstName"`
	LastName  string        `bson:"lastName"`
	Email     string        `bson:"email"`
	PhoneNo   string        `bson:"phoneNo"`
	Company   string        `bson:"company"`
	JobTitle  string        `bson:"jobTitle"`
}

func newContactDocument(d model.Draft) contactDocument {
	return contactDocument{
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Email:     d.Email,
		PhoneNo:   d.PhoneNo,
		Company:   d.Company,
		JobTitle:  d.JobTitle,
	}
}

func (doc contactDocument) contact() model.Contact {
	return model.Contact{
		ID: doc.ID.Hex(),
		Draft: model.Draft{
			FirstName: doc.FirstName,
			LastName:  doc.LastName,
			Email:     doc.Email,
			PhoneNo:   doc.PhoneNo,
			Company:   doc.Company,
			JobTitle:  doc.JobTitle,
		},
	}
}

//go:generate mockgen -destination=mock/collection_mock.go -package=mock . Collection

// Collection is the subset of *mongo.Collection that the repository uses.
type Collection interface {
	Find(ctx context.Context, filter any, opts ...options.Lister[options.FindOptions]) (*mongo.Cursor, error)
	FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) *mongo.SingleResult
	InsertOne(ctx context.Context, document any, opts ...options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error)
	FindOneAndReplace(ctx context.Context, filter any, replacement any, opts ...options.Lister[options.FindOneAndReplaceOptions]) *mongo.SingleResult
	DeleteOne(ctx context.Context, filter any, opts ...options.Lister[options.DeleteOneOptions]) (*mongo.DeleteResult, error)
}

// Mongo stores contacts as documents of a single MongoDB collection.
type Mongo struct {
	collection Collection
	ping       func(ctx context.Context) error
}

// NewMongo returns a repository backed by the given collection.
func NewMongo(collection *mongo.Collection) *Mongo {
	m := &Mongo{}
	if collection != nil {
		m.collection = collection
		m.ping = func(ctx context.Context) error {
			return collection.Database().Client().Ping(ctx, readpref.Primary())
		}
	}
	return m
}

// NewMongoWithCollection returns a repository on top of any Collection implementation. The
// ping function backs Ping.
func NewMongoWithCollection(collection Collection, ping func(ctx context.Context) error) *Mongo {
	return &Mongo{collection: collection, ping: ping}
}

// OpenMongo connects to the document store and waits until it answers a ping or the connect
// timeout elapses. The connection is meant to be opened once at process start.
func OpenMongo(ctx context.Context, cfg MongoConfig) (*mongo.Client, error) {
	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnectTimeout).SetServerSelectionTimeout(cfg.ConnectTimeout)
	}
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return client, nil
}

// contactSchema is the collection validator. It enforces the same rules as model.Validate so
// that writes bypassing this service cannot store malformed contacts either.
func contactSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{model.FieldFirstName, model.FieldLastName, model.FieldEmail, model.FieldPhoneNo},
			"properties": bson.M{
				model.FieldFirstName: bson.M{"bsonType": "string", "minLength": 1},
				model.FieldLastName:  bson.M{"bsonType": "string", "minLength": 1},
				model.FieldEmail:     bson.M{"bsonType": "string", "pattern": `^[\w.%+-]+@[\w.%+-]+\.[A-Za-z]{2,}$`},
				model.FieldPhoneNo:   bson.M{"bsonType": "string", "pattern": `^[0-9]{10}$`},
				model.FieldCompany:   bson.M{"bsonType": "string"},
				model.FieldJobTitle:  bson.M{"bsonType": "string"},
			},
		},
	}
}

// EnsureCollection creates the contacts collection with its schema validator, or updates the
// validator if the collection already exists.
func EnsureCollection(ctx context.Context, db *mongo.Database, name string) error {
	err := db.CreateCollection(ctx, name, options.CreateCollection().SetValidator(contactSchema()))
	if err == nil {
		return nil
	}
	var cmdErr mongo.CommandError
	if !errors.As(err, &cmdErr) || cmdErr.Code != namespaceExists {
		return translateMongo(err)
	}
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: contactSchema()},
	}
	return translateMongo(db.RunCommand(ctx, cmd).Err())
}

// ListAll returns every stored contact.
func (m *Mongo) ListAll(ctx context.Context) ([]model.Contact, error) {
	cursor, err := m.collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, translateMongo(err)
	}
	var docs []contactDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, translateMongo(err)
	}
	contacts := make([]model.Contact, 0, len(docs))
	for _, doc := range docs {
		contacts = append(contacts, doc.contact())
	}
	return contacts, nil
}

// Get returns the contact whose id matches. Ids that are not object ids are never found.
func (m *Mongo) Get(ctx context.Context, id string) (model.Contact, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return model.Contact{}, ErrNotFound
	}
	var doc contactDocument
	if err := m.collection.FindOne(ctx, byID(oid)).Decode(&doc); err != nil {
		return model.Contact{}, translateMongo(err)
	}
	return doc.contact(), nil
}

// Create inserts the draft as a new document.
func (m *Mongo) Create(ctx context.Context, draft model.Draft) (model.Contact, error) {
	if err := checkDraft(draft); err != nil {
		return model.Contact{}, err
	}
	doc := newContactDocument(draft)
	result, err := m.collection.InsertOne(ctx, doc)
	if err != nil {
		return model.Contact{}, translateMongo(err)
	}
	oid, ok := result.InsertedID.(bson.ObjectID)
	if !ok {
		return model.Contact{}, fmt.Errorf("unexpected inserted id type %T", result.InsertedID)
	}
	doc.ID = oid
	return doc.contact(), nil
}

// Update replaces the document whose id matches and returns its new version.
func (m *Mongo) Update(ctx context.Context, id string, patch model.Draft) (model.Contact, error) {
	if err := checkDraft(patch); err != nil {
		return model.Contact{}, err
	}
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return model.Contact{}, ErrNotFound
	}
	opts := options.FindOneAndReplace().SetReturnDocument(options.After)
	var doc contactDocument
	err = m.collection.FindOneAndReplace(ctx, byID(oid), newContactDocument(patch), opts).Decode(&doc)
	if err != nil {
		return model.Contact{}, translateMongo(err)
	}
	return doc.contact(), nil
}

// Delete removes the document whose id matches.
func (m *Mongo) Delete(ctx context.Context, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	result, err := m.collection.DeleteOne(ctx, byID(oid))
	if err != nil {
		return translateMongo(err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping checks that the primary can be reached.
func (m *Mongo) Ping(ctx context.Context) error {
	if m.ping == nil {
		return ErrStorageUnavailable
	}
	return translateMongo(m.ping(ctx))
}

func byID(oid bson.ObjectID) bson.D {
	return bson.D{{Key: "_id", Value: oid}}
}

// translateMongo maps driver errors to the domain errors of this package.
func translateMongo(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	// Inserts report the rejection as a write exception, findAndModify as a command error.
	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) && serverErr.HasErrorCode(documentValidationFailure) {
		return &ValidationError{Messages: []string{"contact failed document validation"}}
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) ||
		errors.Is(err, mongo.ErrClientDisconnected) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return err
}
