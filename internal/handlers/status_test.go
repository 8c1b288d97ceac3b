package handlers

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"quickbite/internal/models"
)

// The completion filter must accept an already-completed assignment, so a
// delivery retried after a partial failure can still flip the ShopOrder.
func TestCompletableAssignmentFilterAcceptsBothStates(t *testing.T) {
	id := primitive.NewObjectID()
	filter := completableAssignmentFilter(id)

	if filter["_id"] != id {
		t.Fatal("filter must pin the assignment id")
	}

	statusClause, ok := filter["status"].(bson.M)
	if !ok {
		t.Fatalf("status clause has wrong shape: %T", filter["status"])
	}
	in, ok := statusClause["$in"].([]string)
	if !ok {
		t.Fatalf("$in clause has wrong shape: %T", statusClause["$in"])
	}

	want := map[string]bool{
		models.AssignmentAssigned:  false,
		models.AssignmentCompleted: false,
	}
	for _, s := range in {
		if _, known := want[s]; !known {
			t.Fatalf("unexpected status %q in filter", s)
		}
		want[s] = true
	}
	for s, seen := range want {
		if !seen {
			t.Fatalf("status %q missing from filter", s)
		}
	}
}
