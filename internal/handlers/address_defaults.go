package handlers

import "storefront/internal/models"

// applyDefaultFlag clears every default flag when the incoming entry claims
// the default slot, keeping the single-default invariant on insert and update.
func applyDefaultFlag(addresses []models.Address, makeDefault bool) []models.Address {
	if !makeDefault {
		return addresses
	}
	for i := range addresses {
		addresses[i].IsDefault = false
	}
	return addresses
}

// ensureSingleDefault repairs the list so at most one entry is default. When
// several entries claim the flag the first one wins; when the list is
// non-empty and nothing is default the first entry is promoted.
func ensureSingleDefault(addresses []models.Address) []models.Address {
	seen := false
	for i := range addresses {
		if !addresses[i].IsDefault {
			continue
		}
		if seen {
			addresses[i].IsDefault = false
			continue
		}
		seen = true
	}
	if !seen && len(addresses) > 0 {
		addresses[0].IsDefault = true
	}
	return addresses
}

// removeAddress drops the entry with the given id. Deleting the default
// promotes the first remaining address.
func removeAddress(addresses []models.Address, id string) ([]models.Address, bool) {
	updated := make([]models.Address, 0, len(addresses))
	found := false
	for _, addr := range addresses {
		if addr.ID == id {
			found = true
			continue
		}
		updated = append(updated, addr)
	}
	if !found {
		return addresses, false
	}
	return ensureSingleDefault(updated), true
}
