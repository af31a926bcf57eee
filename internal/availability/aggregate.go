package availability

import (
	"fmt"
	"sort"

	appErrors "github.com/studysync/studysync-api/pkg/errors"
)

// SlotAvailability lists the participants free during one slot. Available is
// kept sorted so downstream ordering stays deterministic.
type SlotAvailability struct {
	SlotIndex int
	Available []string
}

// Aggregate merges per-user occupancy grids into one joint grid of per-slot
// availability. Every grid must have exactly slotCount entries; a mismatch
// means grid construction upstream is broken and is fatal to the request.
func Aggregate(grids map[string][]bool, slotCount int) ([]SlotAvailability, error) {
	userIDs := make([]string, 0, len(grids))
	for userID, grid := range grids {
		if len(grid) != slotCount {
			return nil, appErrors.Clone(appErrors.ErrGridMismatch,
				fmt.Sprintf("grid for user %s has %d slots, expected %d", userID, len(grid), slotCount))
		}
		userIDs = append(userIDs, userID)
	}
	sort.Strings(userIDs)

	joint := make([]SlotAvailability, slotCount)
	for slot := 0; slot < slotCount; slot++ {
		available := make([]string, 0, len(userIDs))
		for _, userID := range userIDs {
			if !grids[userID][slot] {
				available = append(available, userID)
			}
		}
		joint[slot] = SlotAvailability{SlotIndex: slot, Available: available}
	}
	return joint, nil
}
