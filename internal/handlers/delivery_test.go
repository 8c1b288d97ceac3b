package handlers

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"quickbite/internal/models"
)

func TestSortCouriersByDistanceNearestFirst(t *testing.T) {
	far := models.User{ID: primitive.NewObjectID(), Location: models.NewGeoPoint(28.70, 77.20)}
	near := models.User{ID: primitive.NewObjectID(), Location: models.NewGeoPoint(28.615, 77.21)}
	mid := models.User{ID: primitive.NewObjectID(), Location: models.NewGeoPoint(28.65, 77.20)}

	sorted := sortCouriersByDistance([]models.User{far, near, mid}, 28.6139, 77.2090)

	if sorted[0].ID != near.ID || sorted[1].ID != mid.ID || sorted[2].ID != far.ID {
		t.Fatal("couriers not sorted nearest-first")
	}
}

func TestSortCouriersByDistanceEmpty(t *testing.T) {
	if got := sortCouriersByDistance(nil, 28.61, 77.20); len(got) != 0 {
		t.Fatalf("expected empty result, got %d", len(got))
	}
}

func TestCandidateSummariesShapeAndOrder(t *testing.T) {
	a := models.User{ID: primitive.NewObjectID(), FullName: "A", Mobile: "111"}
	b := models.User{ID: primitive.NewObjectID(), FullName: "B", Mobile: "222"}

	out := candidateSummaries([]models.User{a, b})
	if len(out) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(out))
	}
	if out[0]["id"] != a.ID.Hex() || out[1]["id"] != b.ID.Hex() {
		t.Fatal("summaries lost candidate ordering")
	}
	if out[0]["fullName"] != "A" || out[0]["mobile"] != "111" {
		t.Fatalf("summary fields wrong: %+v", out[0])
	}
}

func TestClassifyClaimFailure(t *testing.T) {
	courier := primitive.NewObjectID()
	stranger := primitive.NewObjectID()
	assignment := models.DeliveryAssignment{
		Status:        models.AssignmentExpired,
		BroadcastedTo: []primitive.ObjectID{courier},
	}

	// An expired broadcast reports expiry even to a listed candidate.
	if _, ok := classifyClaimFailure(assignment, courier).(broadcastExpiredError); !ok {
		t.Fatal("expired assignment should report broadcastExpiredError")
	}

	assignment.Status = models.AssignmentAssigned
	if _, ok := classifyClaimFailure(assignment, stranger).(courierNotEligibleError); !ok {
		t.Fatal("unlisted courier should report courierNotEligibleError")
	}
	if _, ok := classifyClaimFailure(assignment, courier).(alreadyAssignedError); !ok {
		t.Fatal("listed courier on a claimed assignment should report alreadyAssignedError")
	}
}

func TestClaimErrorMessages(t *testing.T) {
	courier := primitive.NewObjectID()
	cases := []struct {
		err  error
		want string
	}{
		{assignmentNotFoundError{}, "delivery assignment not found"},
		{alreadyAssignedError{}, "delivery already assigned"},
		{broadcastExpiredError{}, "delivery broadcast expired"},
		{courierNotEligibleError{CourierID: courier}, "courier " + courier.Hex() + " was not broadcast this delivery"},
	}
	for _, tc := range cases {
		if got := tc.err.Error(); got != tc.want {
			t.Fatalf("%T: got %q, want %q", tc.err, got, tc.want)
		}
	}
}
