package domain

// ReactionCategory is one of the five fixed reaction buttons. The set is
// closed; it is not extensible at runtime.
type ReactionCategory string

const (
	ReactionAmen   ReactionCategory = "amen"
	ReactionPraise ReactionCategory = "praise"
	ReactionFire   ReactionCategory = "fire"
	ReactionHeart  ReactionCategory = "heart"
	ReactionSad    ReactionCategory = "sad"
)

// ReactionCategories lists the categories in display order
var ReactionCategories = []ReactionCategory{
	ReactionAmen,
	ReactionPraise,
	ReactionFire,
	ReactionHeart,
	ReactionSad,
}

// ReactionStyle is the fixed display treatment for a category
type ReactionStyle struct {
	Label string
	Icon  string
	Color string
}

var reactionStyles = map[ReactionCategory]ReactionStyle{
	ReactionAmen:   {Label: "Amen", Icon: "🙏", Color: "yellow"},
	ReactionPraise: {Label: "Praise God", Icon: "🙌", Color: "purple"},
	ReactionFire:   {Label: "Fire", Icon: "🔥", Color: "orange"},
	ReactionHeart:  {Label: "Love", Icon: "❤️", Color: "red"},
	ReactionSad:    {Label: "Need Prayer", Icon: "😢", Color: "blue"},
}

// Valid reports whether c is one of the five known categories
func (c ReactionCategory) Valid() bool {
	_, ok := reactionStyles[c]
	return ok
}

// Style returns the display treatment for the category.
// Unknown categories get a zero style rather than an error.
func (c ReactionCategory) Style() ReactionStyle {
	return reactionStyles[c]
}

// ReactionCounts maps each category to its running tally. Counts are
// authoritative on the backend; local copies are display state only.
type ReactionCounts map[ReactionCategory]int

// Total sums the tallies across all categories
func (r ReactionCounts) Total() int {
	total := 0
	for _, n := range r {
		total += n
	}
	return total
}

// Clone returns an independent copy so an optimistic local increment never
// aliases a list shared with another thread view
func (r ReactionCounts) Clone() ReactionCounts {
	if r == nil {
		return nil
	}
	out := make(ReactionCounts, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
