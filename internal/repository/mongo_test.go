package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/mock/gomock"

	"gitlab.com/dirk.krummacker/contact-manager/internal/model"
	"gitlab.com/dirk.krummacker/contact-manager/internal/repository/mock"
)

// createMockCollection returns a repository on top of a mocked collection whose ping succeeds.
func createMockCollection(t *testing.T) (*Mongo, *mock.MockCollection) {
	ctrl := gomock.NewController(t)
	collection := mock.NewMockCollection(ctrl)
	repo := NewMongoWithCollection(collection, func(context.Context) error { return nil })
	return repo, collection
}

// storedDocument returns the document of a stored contact with a fresh object id.
func storedDocument(draft model.Draft) contactDocument {
	doc := newContactDocument(draft)
	doc.ID = bson.NewObjectID()
	return doc
}

// singleResult returns what FindOne and FindOneAndReplace yield for the given document or error.
func singleResult(t *testing.T, doc any, err error) *mongo.SingleResult {
	t.Helper()
	if doc == nil {
		doc = bson.D{}
	}
	return mongo.NewSingleResultFromDocument(doc, err, nil)
}

// TestContactDocumentRoundTrip expects a draft to survive the conversion into a document and
// back, with the object id rendered as hex.
func TestContactDocumentRoundTrip(t *testing.T) {
	draft := annLee()
	draft.Company = "ACME"
	doc := newContactDocument(draft)
	assert.True(t, doc.ID.IsZero())

	doc.ID = bson.NewObjectID()
	contact := doc.contact()
	assert.Equal(t, doc.ID.Hex(), contact.ID)
	assert.Equal(t, draft, contact.Draft)
}

// TestContactDocumentOmitsEmptyID expects documents without an id to be marshaled without an
// _id field so that the store assigns one.
func TestContactDocumentOmitsEmptyID(t *testing.T) {
	raw, err := bson.Marshal(newContactDocument(annLee()))
	require.NoError(t, err)
	_, err = bson.Raw(raw).LookupErr("_id")
	assert.Error(t, err)
	assert.Equal(t, "ann@example.com", bson.Raw(raw).Lookup("email").StringValue())
	assert.Equal(t, "5551234567", bson.Raw(raw).Lookup("phoneNo").StringValue())
}

// TestMongoRejectsInvalidDraftWithoutStore expects validation to happen before the collection is
// touched, so a repository without a collection is enough.
func TestMongoRejectsInvalidDraftWithoutStore(t *testing.T) {
	repo := NewMongo(nil)
	draft := annLee()
	draft.Email = "not-an-email"

	_, err := repo.Create(context.Background(), draft)
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, []string{"email must be a valid email address"}, validationErr.Messages)

	_, err = repo.Update(context.Background(), bson.NewObjectID().Hex(), draft)
	assert.True(t, errors.As(err, &validationErr))
}

// TestMongoMalformedIDIsNotFound expects ids that are not object ids to resolve to ErrNotFound
// without a round trip to the store.
func TestMongoMalformedIDIsNotFound(t *testing.T) {
	repo := NewMongo(nil)
	ctx := context.Background()

	_, err := repo.Get(ctx, "42")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.Update(ctx, "not-an-id", annLee())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, ""), ErrNotFound)
}

// TestTranslateMongo checks the mapping of driver errors to domain errors.
func TestTranslateMongo(t *testing.T) {
	assert.Nil(t, translateMongo(nil))
	assert.ErrorIs(t, translateMongo(mongo.ErrNoDocuments), ErrNotFound)
	assert.ErrorIs(t, translateMongo(mongo.ErrClientDisconnected), ErrStorageUnavailable)
	assert.ErrorIs(t, translateMongo(context.DeadlineExceeded), ErrStorageUnavailable)

	writeErr := mongo.WriteException{
		WriteErrors: []mongo.WriteError{{Code: documentValidationFailure, Message: "Document failed validation"}},
	}
	var validationErr *ValidationError
	assert.True(t, errors.As(translateMongo(writeErr), &validationErr))

	commandErr := mongo.CommandError{Code: documentValidationFailure, Name: "DocumentValidationFailure", Message: "Document failed validation"}
	assert.True(t, errors.As(translateMongo(commandErr), &validationErr))
	assert.True(t, errors.As(translateMongo(fmt.Errorf("replace: %w", commandErr)), &validationErr))

	duplicate := mongo.CommandError{Code: 11000, Message: "duplicate key"}
	assert.False(t, errors.As(translateMongo(duplicate), &validationErr))

	other := errors.New("boom")
	assert.Equal(t, other, translateMongo(other))
}

// TestContactSchemaMatchesModel expects the collection validator to use the same patterns as
// the model predicates.
func TestContactSchemaMatchesModel(t *testing.T) {
	schema := contactSchema()["$jsonSchema"].(bson.M)
	properties := schema["properties"].(bson.M)

	email := regexp.MustCompile(properties[model.FieldEmail].(bson.M)["pattern"].(string))
	phone := regexp.MustCompile(properties[model.FieldPhoneNo].(bson.M)["pattern"].(string))
	for _, text := range []string{"ann@example.com", "ann@example", "a_b@c_d.io", "x"} {
		assert.Equal(t, model.ValidateEmail(text), email.MatchString(text), text)
	}
	for _, text := range []string{"5551234567", "555123456", "555123456a"} {
		assert.Equal(t, model.ValidatePhone(text), phone.MatchString(text), text)
	}
	assert.ElementsMatch(t,
		bson.A{model.FieldFirstName, model.FieldLastName, model.FieldEmail, model.FieldPhoneNo},
		schema["required"])
}

// TestMongoListAll expects every document of the cursor to be returned as a contact.
func TestMongoListAll(t *testing.T) {
	repo, collection := createMockCollection(t)
	ann := storedDocument(annLee())
	bob := storedDocument(model.Draft{FirstName: "Bob", LastName: "Ray", Email: "bob@example.com", PhoneNo: "5559876543"})
	cursor, err := mongo.NewCursorFromDocuments([]any{ann, bob}, nil, nil)
	require.NoError(t, err)
	collection.EXPECT().Find(gomock.Any(), bson.D{}).Return(cursor, nil)

	contacts, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.Contact{ann.contact(), bob.contact()}, contacts)
}

// TestMongoListAllEmpty expects an empty collection to yield an empty, non nil list.
func TestMongoListAllEmpty(t *testing.T) {
	repo, collection := createMockCollection(t)
	cursor, err := mongo.NewCursorFromDocuments(nil, nil, nil)
	require.NoError(t, err)
	collection.EXPECT().Find(gomock.Any(), gomock.Any()).Return(cursor, nil)

	contacts, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, contacts)
	assert.Empty(t, contacts)
}

// TestMongoListAllUnavailable expects network failures to be reported as an unavailable store.
func TestMongoListAllUnavailable(t *testing.T) {
	repo, collection := createMockCollection(t)
	collection.EXPECT().Find(gomock.Any(), gomock.Any()).Return(nil, mongo.ErrClientDisconnected)

	_, err := repo.ListAll(context.Background())
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

// TestMongoGet expects the document with the object id to be looked up and a missing one to be
// reported as not found.
func TestMongoGet(t *testing.T) {
	repo, collection := createMockCollection(t)
	doc := storedDocument(annLee())
	gomock.InOrder(
		collection.EXPECT().FindOne(gomock.Any(), byID(doc.ID)).Return(singleResult(t, doc, nil)),
		collection.EXPECT().FindOne(gomock.Any(), byID(doc.ID)).Return(singleResult(t, nil, mongo.ErrNoDocuments)),
	)

	contact, err := repo.Get(context.Background(), doc.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, doc.contact(), contact)

	_, err = repo.Get(context.Background(), doc.ID.Hex())
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestMongoCreate expects the draft to be inserted without an id and the assigned id to be
// returned.
func TestMongoCreate(t *testing.T) {
	repo, collection := createMockCollection(t)
	oid := bson.NewObjectID()
	collection.EXPECT().InsertOne(gomock.Any(), newContactDocument(annLee())).
		Return(&mongo.InsertOneResult{InsertedID: oid}, nil)

	contact, err := repo.Create(context.Background(), annLee())
	require.NoError(t, err)
	assert.Equal(t, oid.Hex(), contact.ID)
	assert.Equal(t, annLee(), contact.Draft)
}

// TestMongoCreateRejectedByValidator expects a rejection by the collection validator to be a
// validation error.
func TestMongoCreateRejectedByValidator(t *testing.T) {
	repo, collection := createMockCollection(t)
	rejected := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: documentValidationFailure}}}
	collection.EXPECT().InsertOne(gomock.Any(), gomock.Any()).Return(nil, rejected)

	_, err := repo.Create(context.Background(), annLee())
	var validationErr *ValidationError
	assert.True(t, errors.As(err, &validationErr))
}

// TestMongoUpdate expects the document to be replaced and its new version to be returned.
func TestMongoUpdate(t *testing.T) {
	repo, collection := createMockCollection(t)
	patch := annLee()
	patch.JobTitle = "CTO"
	doc := newContactDocument(patch)
	doc.ID = bson.NewObjectID()
	collection.EXPECT().FindOneAndReplace(gomock.Any(), byID(doc.ID), newContactDocument(patch), gomock.Any()).
		Return(singleResult(t, doc, nil))

	contact, err := repo.Update(context.Background(), doc.ID.Hex(), patch)
	require.NoError(t, err)
	assert.Equal(t, doc.ID.Hex(), contact.ID)
	assert.Equal(t, "CTO", contact.JobTitle)
}

// TestMongoUpdateFailures expects a missing document to be not found and a validator rejection
// from findAndModify to be a validation error.
func TestMongoUpdateFailures(t *testing.T) {
	repo, collection := createMockCollection(t)
	oid := bson.NewObjectID()
	rejected := mongo.CommandError{Code: documentValidationFailure, Message: "Document failed validation"}
	gomock.InOrder(
		collection.EXPECT().FindOneAndReplace(gomock.Any(), byID(oid), gomock.Any(), gomock.Any()).
			Return(singleResult(t, nil, mongo.ErrNoDocuments)),
		collection.EXPECT().FindOneAndReplace(gomock.Any(), byID(oid), gomock.Any(), gomock.Any()).
			Return(singleResult(t, nil, rejected)),
	)

	_, err := repo.Update(context.Background(), oid.Hex(), annLee())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.Update(context.Background(), oid.Hex(), annLee())
	var validationErr *ValidationError
	assert.True(t, errors.As(err, &validationErr))
}

// TestMongoDeleteTwice expects the second deletion of the same document to be not found.
func TestMongoDeleteTwice(t *testing.T) {
	repo, collection := createMockCollection(t)
	oid := bson.NewObjectID()
	gomock.InOrder(
		collection.EXPECT().DeleteOne(gomock.Any(), byID(oid)).Return(&mongo.DeleteResult{DeletedCount: 1}, nil),
		collection.EXPECT().DeleteOne(gomock.Any(), byID(oid)).Return(&mongo.DeleteResult{DeletedCount: 0}, nil),
	)

	assert.NoError(t, repo.Delete(context.Background(), oid.Hex()))
	assert.ErrorIs(t, repo.Delete(context.Background(), oid.Hex()), ErrNotFound)
}

// TestMongoPing expects the ping function to decide reachability.
func TestMongoPing(t *testing.T) {
	up := NewMongoWithCollection(nil, func(context.Context) error { return nil })
	assert.NoError(t, up.Ping(context.Background()))

	down := NewMongoWithCollection(nil, func(context.Context) error { return context.DeadlineExceeded })
	assert.ErrorIs(t, down.Ping(context.Background()), ErrStorageUnavailable)

	assert.ErrorIs(t, NewMongo(nil).Ping(context.Background()), ErrStorageUnavailable)
}
