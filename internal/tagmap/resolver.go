package tagmap

import (
	"fmt"

	"github.com/ykomatsu/troupe/internal/model"
	"github.com/ykomatsu/troupe/internal/tagspec"
)

// Resolution is the outcome of resolving one specification against one
// snapshot. When NeedsCreation is set, Slot is a placeholder and the
// planner fills it after the (deduplicated) creation call; the resolver
// itself never creates slots.
type Resolution struct {
	Slot          model.ResolvedSlot
	NeedsCreation bool
	// RequestedName is the slot name to create when NeedsCreation is set.
	RequestedName string
	Warning       *model.Warning
}

// Resolve maps one typed specification to a concrete slot. Relative and
// absolute targets that miss fall back to the current slot with a
// TAG_FALLBACK_USED warning rather than failing the resource: one bad
// placement must never block independent resources.
func Resolve(resourceID string, spec tagspec.Spec, snap Snapshot) Resolution {
	switch spec.Kind {
	case model.SpecRelative:
		return resolveIndex(resourceID, snap, snap.CurrentIndex+spec.Offset)
	case model.SpecAbsolute:
		return resolveIndex(resourceID, snap, spec.Index)
	case model.SpecNamed:
		if slot := snap.SlotNamed(spec.Name); slot != nil {
			return Resolution{Slot: model.ResolvedSlot{Index: slot.Index, Name: slot.Name}}
		}
		return Resolution{NeedsCreation: true, RequestedName: spec.Name}
	}
	// Unreachable for parser-produced specs; kept for zero-value safety.
	return Resolution{NeedsCreation: true, RequestedName: spec.Name}
}

func resolveIndex(resourceID string, snap Snapshot, target int) Resolution {
	if slot := snap.SlotAt(target); slot != nil {
		return Resolution{Slot: model.ResolvedSlot{Index: slot.Index, Name: slot.Name}}
	}

	fallback := model.ResolvedSlot{Index: snap.CurrentIndex}
	if slot := snap.SlotAt(snap.CurrentIndex); slot != nil {
		fallback.Name = slot.Name
	}
	return Resolution{
		Slot: fallback,
		Warning: &model.Warning{
			Type:       model.WarnTagFallbackUsed,
			ResourceID: resourceID,
			Target:     target,
			Message:    fmt.Sprintf("no slot at index %d, falling back to current slot %d", target, snap.CurrentIndex),
		},
	}
}
