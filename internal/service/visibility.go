package service

import "mediashelf/internal/model"

// CanSee decides whether the viewer may see an activity item. Pure function
// over the resolved viewer context; no I/O.
//
// An item is visible iff one of:
//   - the viewer is the author,
//   - the tier is public and no block exists in either direction,
//   - the tier is followers, the viewer follows the author, and no block
//     exists in either direction.
//
// Blocking always overrides following. Follow edges are deleted when a block
// is created, but this predicate must hold even when that cleanup has not
// run, so the block check comes first and never consults the follow set.
func CanSee(vc *model.ViewerContext, item *model.ActivityItem) bool {
	if vc.IsSelf(item.AuthorID) {
		return true
	}

	if vc.BlockedEither(item.AuthorID) {
		return false
	}

	switch item.Visibility {
	case model.VisibilityPublic:
		return true
	case model.VisibilityFollowers:
		return vc.Follows(item.AuthorID)
	default:
		// private, or an unknown tier: owner only
		return false
	}
}
