package handlers

import (
	"testing"

	"storefront/internal/models"
)

func addr(id string, isDefault bool) models.Address {
	return models.Address{ID: id, Label: "Home " + id, IsDefault: isDefault}
}

func countDefaults(addresses []models.Address) int {
	n := 0
	for _, a := range addresses {
		if a.IsDefault {
			n++
		}
	}
	return n
}

func TestThirdAddressAsDefaultLeavesExactlyOne(t *testing.T) {
	addresses := []models.Address{addr("a", true)}
	addresses = append(applyDefaultFlag(addresses, false), addr("b", false))
	addresses = append(applyDefaultFlag(addresses, true), addr("c", true))
	addresses = ensureSingleDefault(addresses)

	if got := countDefaults(addresses); got != 1 {
		t.Fatalf("expected exactly one default, got %d", got)
	}
	if !addresses[2].IsDefault {
		t.Fatal("expected the third address to hold the default flag")
	}
}

func TestDeletingDefaultPromotesRemaining(t *testing.T) {
	addresses := []models.Address{addr("a", true), addr("b", false)}

	updated, removed := removeAddress(addresses, "a")
	if !removed {
		t.Fatal("expected address to be removed")
	}
	if len(updated) != 1 || !updated[0].IsDefault {
		t.Fatalf("expected remaining address promoted to default, got %+v", updated)
	}
}

func TestDeletingNonDefaultKeepsDefault(t *testing.T) {
	addresses := []models.Address{addr("a", true), addr("b", false)}

	updated, removed := removeAddress(addresses, "b")
	if !removed {
		t.Fatal("expected address to be removed")
	}
	if !updated[0].IsDefault || countDefaults(updated) != 1 {
		t.Fatalf("expected default untouched, got %+v", updated)
	}
}

func TestRemoveUnknownAddressLeavesListAlone(t *testing.T) {
	addresses := []models.Address{addr("a", true)}

	updated, removed := removeAddress(addresses, "missing")
	if removed {
		t.Fatal("expected no removal for unknown id")
	}
	if len(updated) != 1 {
		t.Fatalf("expected list untouched, got %+v", updated)
	}
}

func TestEnsureSingleDefaultRepairsDuplicates(t *testing.T) {
	addresses := ensureSingleDefault([]models.Address{addr("a", true), addr("b", true)})
	if got := countDefaults(addresses); got != 1 {
		t.Fatalf("expected one default after repair, got %d", got)
	}
	if !addresses[0].IsDefault {
		t.Fatal("expected the first claimant to keep the flag")
	}
}
