package domain

import "testing"

func TestIdentity_CanPost(t *testing.T) {
	tests := []struct {
		name     string
		identity Identity
		want     bool
	}{
		{name: "anonymous", identity: Anonymous(), want: false},
		{name: "guest", identity: Identity{Kind: IdentityGuest, Name: "Jane", Email: "jane@x.com"}, want: true},
		{name: "member", identity: Identity{Kind: IdentityMember, Name: "Sam", Email: "sam@x.com"}, want: true},
		{name: "guest without email", identity: Identity{Kind: IdentityGuest, Name: "Jane"}, want: false},
		{name: "guest without name", identity: Identity{Kind: IdentityGuest, Email: "jane@x.com"}, want: false},
		{name: "anonymous with contact fields", identity: Identity{Kind: IdentityAnonymous, Name: "Jane", Email: "jane@x.com"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.identity.CanPost(); got != tt.want {
				t.Errorf("CanPost() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMessageKind_Valid(t *testing.T) {
	for _, kind := range MessageKinds {
		if !kind.Valid() {
			t.Errorf("%q should be valid", kind)
		}
	}
	if MessageKind("testimony").Valid() {
		t.Error("unknown kind should be invalid")
	}
}

func TestReactionCategory_Valid(t *testing.T) {
	for _, category := range ReactionCategories {
		if !category.Valid() {
			t.Errorf("%q should be valid", category)
		}
		if category.Style().Icon == "" {
			t.Errorf("%q has no icon", category)
		}
	}
	if ReactionCategory("clap").Valid() {
		t.Error("the category set is closed")
	}
}

func TestReactionCounts_Clone(t *testing.T) {
	original := ReactionCounts{ReactionAmen: 2, ReactionFire: 1}

	clone := original.Clone()
	clone[ReactionAmen]++

	if original[ReactionAmen] != 2 {
		t.Error("clone aliases the original map")
	}
	if original.Total() != 3 || clone.Total() != 4 {
		t.Errorf("totals = %d and %d, want 3 and 4", original.Total(), clone.Total())
	}

	if ReactionCounts(nil).Clone() != nil {
		t.Error("nil counts should clone to nil")
	}
	if ReactionCounts(nil).Total() != 0 {
		t.Error("nil counts should total zero")
	}
}

func TestStreamType_Style(t *testing.T) {
	if got := StreamTypeYouTube.Style(); got.Color != "red" {
		t.Errorf("youtube color = %q, want red", got.Color)
	}
	if got := StreamType("periscope").Style(); got.Label != "Stream" {
		t.Errorf("unknown provider should get the generic style, got %+v", got)
	}
}
