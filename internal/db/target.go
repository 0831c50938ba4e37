package db

// TargetKind discriminates swipe targets.
type TargetKind int

const (
	TargetUser TargetKind = iota + 1
	TargetGroup
)

// SwipeTarget is the tagged-union view of the two nullable target columns
// on Swipe. Decision logic branches on Kind instead of nil-checking the
// columns directly.
type SwipeTarget struct {
	Kind TargetKind
	ID   uint64
}

func UserTarget(id uint64) SwipeTarget  { return SwipeTarget{Kind: TargetUser, ID: id} }
func GroupTarget(id uint64) SwipeTarget { return SwipeTarget{Kind: TargetGroup, ID: id} }

func (t SwipeTarget) IsUser() bool  { return t.Kind == TargetUser }
func (t SwipeTarget) IsGroup() bool { return t.Kind == TargetGroup }

// Target returns the swipe's target as a variant. ok is false when the row
// violates the XOR invariant (neither or both columns set).
func (s *Swipe) Target() (SwipeTarget, bool) {
	switch {
	case s.TargetUserID != nil && s.TargetGroupID == nil:
		return UserTarget(*s.TargetUserID), true
	case s.TargetGroupID != nil && s.TargetUserID == nil:
		return GroupTarget(*s.TargetGroupID), true
	default:
		return SwipeTarget{}, false
	}
}
