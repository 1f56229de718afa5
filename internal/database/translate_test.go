package database

import (
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMongoCollectionName(t *testing.T) {
	cases := []struct {
		path, name, parent string
	}{
		{"reviews", "reviews", ""},
		{"brewed-drinks/P1/reviews", "brewed-drinks.reviews", "P1"},
		{"users/U1/orders", "users.orders", "U1"},
		{"a/1/b/2/c", "a.b.c", "1/2"},
	}
	for _, tc := range cases {
		name, parent, err := mongoCollectionName(tc.path)
		require.NoError(t, err, tc.path)
		assert.Equal(t, tc.name, name)
		assert.Equal(t, tc.parent, parent)
	}

	_, _, err := mongoCollectionName("brewed-drinks/P1")
	assert.Error(t, err)
	_, _, err = mongoCollectionName("a//b")
	assert.Error(t, err)
}

func TestMongoUpdateGroupsOperators(t *testing.T) {
	update, err := mongoUpdate([]Update{
		AddToSet(FieldLikes, "U1"),
		RemoveFromSet(FieldDislikes, "U1"),
		Increment(FieldReplies, -3),
		Set(FieldRating, 4),
		Set(FieldContent, "updated"),
	})
	require.NoError(t, err)

	assert.Equal(t, bson.M{
		"$addToSet": bson.M{FieldLikes: "U1"},
		"$pull":     bson.M{FieldDislikes: "U1"},
		"$inc":      bson.M{FieldReplies: -3},
		"$set":      bson.M{FieldRating: 4, FieldContent: "updated"},
	}, update)

	_, err = mongoUpdate(nil)
	assert.Error(t, err)
}

func TestFirestoreUpdatesUseTransforms(t *testing.T) {
	updates, err := firestoreUpdates([]Update{
		AddToSet(FieldLikes, "U1"),
		RemoveFromSet(FieldDislikes, "U1"),
		Increment(FieldReplies, 1),
		Set(FieldRating, 2),
	})
	require.NoError(t, err)
	require.Len(t, updates, 4)

	assert.Equal(t, firestore.Update{Path: FieldLikes, Value: firestore.ArrayUnion("U1")}, updates[0])
	assert.Equal(t, firestore.Update{Path: FieldDislikes, Value: firestore.ArrayRemove("U1")}, updates[1])
	assert.Equal(t, firestore.Update{Path: FieldReplies, Value: firestore.Increment(1)}, updates[2])
	assert.Equal(t, firestore.Update{Path: FieldRating, Value: 2}, updates[3])

	_, err = firestoreUpdates([]Update{{Field: "x", Op: UpdateOp(42)}})
	assert.Error(t, err)
}

func TestDocumentIDFormats(t *testing.T) {
	oid := primitive.NewObjectID()
	cases := []struct {
		id   any
		want string
		ok   bool
	}{
		{"P1", "P1", true},
		{oid, oid.Hex(), true},
		{int32(42), "42", true},
		{int64(7), "7", true},
		{3.5, "", false},
	}
	for _, tc := range cases {
		raw, err := bson.Marshal(bson.M{"_id": tc.id, "name": "Ethiopia Guji"})
		require.NoError(t, err)
		id, ok := documentID(bson.Raw(raw).Lookup("_id"))
		assert.Equal(t, tc.ok, ok, "%v", tc.id)
		assert.Equal(t, tc.want, id, "%v", tc.id)
	}
}
